package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"store_rating/internal/domain"
	"store_rating/internal/policy"
	"store_rating/internal/repository"
	"store_rating/internal/utils"
)

// UserView is a user as returned by the API. Store owners carry the average
// rating of their active store.
type UserView struct {
	domain.User
	Rating *float64 `json:"rating,omitempty"`
}

// CreateUserInput is the payload of an admin creating a user.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Address  string
	Role     domain.Role
}

// UpdateUserInput holds the fields to change. Nil fields are left untouched.
type UpdateUserInput struct {
	Name    *string
	Email   *string
	Address *string
	Role    *domain.Role
}

// UserService manages users and the store side effects of their roles.
type UserService struct {
	tx      *repository.Transactor
	users   *repository.UserRepository
	stores  *repository.StoreRepository
	ratings *repository.RatingRepository
	cache   *storeCache
}

// List returns a page of users for an admin.
func (s *UserService) List(ctx context.Context, caller *policy.Caller, filter repository.UserFilter) ([]UserView, int64, error) {
	if err := policy.Admin(caller); err != nil {
		return nil, 0, err
	}
	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.views(ctx, users)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// Get returns one user to an admin or to the user themselves.
func (s *UserService) Get(ctx context.Context, caller *policy.Caller, id uint) (*UserView, error) {
	if err := policy.AdminOrSelf(caller, id); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, []domain.User{*user})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Create adds a user of any role. A store owner gets a store built from their
// name, email and address in the same transaction.
func (s *UserService) Create(ctx context.Context, caller *policy.Caller, in CreateUserInput) (*domain.User, error) {
	if err := policy.Admin(caller); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = domain.RoleUser
	}
	if !in.Role.Valid() {
		return nil, domain.NewValidationError("role", "role must be one of user, admin, store_owner")
	}
	if err := cleanProfile(&in.Name, &in.Address); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{
		Name:     in.Name,
		Email:    normalizeEmail(in.Email),
		Password: hash,
		Address:  in.Address,
		Role:     in.Role,
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		if user.Role == domain.RoleStoreOwner {
			_, err := ensureOwnerStore(ctx, s.stores, user)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if user.Role == domain.RoleStoreOwner {
		s.cache.invalidate(ctx)
	}
	logrus.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role, "by": caller.ID}).Info("user created")
	return user, nil
}

// Update changes a user's profile. Only admins may change a role. Leaving the
// store_owner role deactivates the user's stores, gaining it restores or
// creates one.
func (s *UserService) Update(ctx context.Context, caller *policy.Caller, id uint, in UpdateUserInput) (*UserView, error) {
	if err := policy.AdminOrSelf(caller, id); err != nil {
		return nil, err
	}
	if in.Role != nil {
		if err := policy.Admin(caller); err != nil {
			return nil, fmt.Errorf("%w: only admins can change roles", domain.ErrForbidden)
		}
		if !in.Role.Valid() {
			return nil, domain.NewValidationError("role", "role must be one of user, admin, store_owner")
		}
	}
	if err := cleanProfile(in.Name, in.Address); err != nil {
		return nil, err
	}

	var user *domain.User
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.users.FindByID(ctx, id)
		if err != nil {
			return err
		}
		previous := user.Role
		if in.Name != nil {
			user.Name = *in.Name
		}
		if in.Email != nil {
			user.Email = normalizeEmail(*in.Email)
		}
		if in.Address != nil {
			user.Address = *in.Address
		}
		if in.Role != nil {
			user.Role = *in.Role
		}
		if err := s.users.Save(ctx, user); err != nil {
			return err
		}
		return s.applyRoleChange(ctx, user, previous)
	})
	if err != nil {
		return nil, err
	}
	s.cache.invalidate(ctx)
	logrus.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role, "by": caller.ID}).Info("user updated")

	views, err := s.views(ctx, []domain.User{*user})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *UserService) applyRoleChange(ctx context.Context, user *domain.User, previous domain.Role) error {
	switch {
	case previous == domain.RoleStoreOwner && user.Role != domain.RoleStoreOwner:
		n, err := s.stores.SetActiveByOwner(ctx, user.ID, false)
		if err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{"user_id": user.ID, "stores": n}).Info("stores deactivated after role change")
	case previous != domain.RoleStoreOwner && user.Role == domain.RoleStoreOwner:
		if _, err := ensureOwnerStore(ctx, s.stores, user); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a user with their ratings. A store owner's stores and the
// ratings on them go too; other stores still pointing at the user are detached.
func (s *UserService) Delete(ctx context.Context, caller *policy.Caller, id uint) error {
	if err := policy.Admin(caller); err != nil {
		return err
	}
	fields := logrus.Fields{"user_id": id, "by": caller.ID}
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		user, err := s.users.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if user.Role == domain.RoleStoreOwner {
			storeIDs, err := s.stores.IDsByOwner(ctx, user.ID)
			if err != nil {
				return err
			}
			n, err := s.ratings.DeleteByStores(ctx, storeIDs)
			if err != nil {
				return err
			}
			fields["store_ratings"] = n
			if fields["stores"], err = s.stores.DeleteByIDs(ctx, storeIDs); err != nil {
				return err
			}
		} else if _, err := s.stores.DetachOwner(ctx, user.ID); err != nil {
			return err
		}
		if fields["own_ratings"], err = s.ratings.DeleteByUser(ctx, user.ID); err != nil {
			return err
		}
		return s.users.Delete(ctx, user.ID)
	})
	if err != nil {
		return err
	}
	s.cache.invalidate(ctx)
	logrus.WithFields(fields).Info("user deleted")
	return nil
}

// views attaches store ratings to store owners.
func (s *UserService) views(ctx context.Context, users []domain.User) ([]UserView, error) {
	var ownerIDs []uint
	for _, u := range users {
		if u.Role == domain.RoleStoreOwner {
			ownerIDs = append(ownerIDs, u.ID)
		}
	}
	storeByOwner, err := s.stores.ActiveByOwners(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}
	storeIDs := make([]uint, 0, len(storeByOwner))
	for _, id := range storeByOwner {
		storeIDs = append(storeIDs, id)
	}
	summaries, err := s.ratings.Summaries(ctx, storeIDs)
	if err != nil {
		return nil, err
	}

	views := make([]UserView, len(users))
	for i, u := range users {
		views[i] = UserView{User: u}
		if storeID, ok := storeByOwner[u.ID]; ok && u.Role == domain.RoleStoreOwner {
			avg := summaries[storeID].Average
			views[i].Rating = &avg
		}
	}
	return views, nil
}

// ensureOwnerStore gives a store owner an active store. An existing active store
// is kept, otherwise the most recent inactive one is reactivated, otherwise a
// store is created from the owner's profile.
func ensureOwnerStore(ctx context.Context, stores *repository.StoreRepository, owner *domain.User) (*domain.Store, error) {
	store, err := stores.FindActiveByOwner(ctx, owner.ID)
	if err == nil {
		return store, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	store, err = stores.FindLatestInactiveByOwner(ctx, owner.ID)
	switch {
	case err == nil:
		store.Active = true
		if err := stores.Save(ctx, store); err != nil {
			return nil, err
		}
		logrus.WithFields(logrus.Fields{"store_id": store.ID, "owner_id": owner.ID}).Info("store reactivated")
		return store, nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	store = &domain.Store{
		Name:    owner.Name,
		Email:   owner.Email,
		Address: owner.Address,
		OwnerID: &owner.ID,
		Active:  true,
	}
	if err := stores.Create(ctx, store); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"store_id": store.ID, "owner_id": owner.ID}).Info("store created for owner")
	return store, nil
}
