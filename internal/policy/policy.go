// Package policy holds the authorization predicates shared by every endpoint.
// Each predicate returns nil when the caller may proceed, or an error wrapping
// domain.ErrUnauthenticated or domain.ErrForbidden.
package policy

import (
	"fmt"

	"store_rating/internal/domain"
)

// Caller is the identity resolved from a verified credential.
type Caller struct {
	ID    uint
	Name  string
	Email string
	Role  domain.Role
}

// CallerFromUser builds a Caller from a persisted user.
func CallerFromUser(u *domain.User) *Caller {
	return &Caller{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func forbidden(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{domain.ErrForbidden}, args...)...)
}

// Authenticated requires a resolved caller.
func Authenticated(c *Caller) error {
	if c == nil || c.ID == 0 {
		return domain.ErrUnauthenticated
	}
	return nil
}

// Admin requires the admin role.
func Admin(c *Caller) error {
	if err := Authenticated(c); err != nil {
		return err
	}
	if c.Role != domain.RoleAdmin {
		return forbidden("admin access required")
	}
	return nil
}

// StoreOwner requires the store_owner role.
func StoreOwner(c *Caller) error {
	if err := Authenticated(c); err != nil {
		return err
	}
	if c.Role != domain.RoleStoreOwner {
		return forbidden("store owner access required")
	}
	return nil
}

// AdminOrSelf allows admins and the user identified by targetUserID.
func AdminOrSelf(c *Caller, targetUserID uint) error {
	if err := Authenticated(c); err != nil {
		return err
	}
	if c.Role == domain.RoleAdmin || c.ID == targetUserID {
		return nil
	}
	return forbidden("not allowed to access user %d", targetUserID)
}

// AdminOrStoreOwnerOf allows admins and the owner of the store.
func AdminOrStoreOwnerOf(c *Caller, s *domain.Store) error {
	if err := Authenticated(c); err != nil {
		return err
	}
	if c.Role == domain.RoleAdmin || s.OwnedBy(c.ID) {
		return nil
	}
	return forbidden("not allowed to modify store %d", s.ID)
}

// OwnsStore requires a store owner that owns s.
func OwnsStore(c *Caller, s *domain.Store) error {
	if err := StoreOwner(c); err != nil {
		return err
	}
	if !s.OwnedBy(c.ID) {
		return forbidden("store %d belongs to another owner", s.ID)
	}
	return nil
}

// RatingSubmitter allows only callers whose role is exactly user.
// Admins and store owners cannot rate stores.
func RatingSubmitter(c *Caller) error {
	if err := Authenticated(c); err != nil {
		return err
	}
	if c.Role != domain.RoleUser {
		return forbidden("only users can submit ratings")
	}
	return nil
}

// AdminOrRatingAuthor allows admins and the author of r.
func AdminOrRatingAuthor(c *Caller, r *domain.Rating) error {
	if err := Authenticated(c); err != nil {
		return err
	}
	if c.Role == domain.RoleAdmin || c.ID == r.UserID {
		return nil
	}
	return forbidden("not allowed to delete rating %d", r.ID)
}

// StoreRatingsReader allows any caller to read a store's ratings except
// store owners, who may only read their own store.
func StoreRatingsReader(c *Caller, s *domain.Store) error {
	if err := Authenticated(c); err != nil {
		return err
	}
	if c.Role == domain.RoleStoreOwner && !s.OwnedBy(c.ID) {
		return forbidden("store %d belongs to another owner", s.ID)
	}
	return nil
}
