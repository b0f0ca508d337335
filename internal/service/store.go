package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"store_rating/internal/domain"
	"store_rating/internal/policy"
	"store_rating/internal/repository"
)

// OwnerView is the owner block of a store view.
type OwnerView struct {
	ID    uint        `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email,omitempty"`
	Role  domain.Role `json:"role,omitempty"`
}

// StoreView is a store with its rating aggregate.
type StoreView struct {
	ID          uint       `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Address     string     `json:"address"`
	OwnerID     *uint      `json:"ownerId"`
	Owner       *OwnerView `json:"owner,omitempty"`
	Active      bool       `json:"active"`
	AvgRating   float64    `json:"avgRating"`
	RatingCount int64      `json:"ratingCount"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// publicView hides the owner's contact details.
func (v StoreView) publicView() StoreView {
	if v.Owner != nil {
		v.Owner = &OwnerView{ID: v.Owner.ID, Name: v.Owner.Name}
	}
	return v
}

// StoreRatings is a store's rating list with its average.
type StoreRatings struct {
	StoreID       uint                  `json:"storeId"`
	StoreName     string                `json:"storeName"`
	AverageRating float64               `json:"averageRating"`
	RatingCount   int64                 `json:"ratingCount"`
	Ratings       []domain.RatingDetail `json:"ratings"`
}

// CreateStoreInput is the payload of an admin creating a store.
type CreateStoreInput struct {
	Name    string
	Email   string
	Address string
	OwnerID *uint
}

// UpdateStoreInput holds the store fields to change. Nil fields are left untouched.
type UpdateStoreInput struct {
	Name    *string
	Email   *string
	Address *string
}

// StoreService manages stores and the store owner's views of them.
type StoreService struct {
	tx      *repository.Transactor
	users   *repository.UserRepository
	stores  *repository.StoreRepository
	ratings *repository.RatingRepository
	cache   *storeCache
}

// List returns stores newest first. Admins see every store with owner
// details; everyone else sees active stores only.
func (s *StoreService) List(ctx context.Context, caller *policy.Caller, limit int) ([]StoreView, error) {
	if err := policy.Authenticated(caller); err != nil {
		return nil, err
	}
	admin := policy.Admin(caller) == nil
	key := fmt.Sprintf("list:public:%d", limit)
	if admin {
		key = fmt.Sprintf("list:admin:%d", limit)
	}

	var views []StoreView
	if s.cache.get(ctx, key, &views) {
		return views, nil
	}
	stores, err := s.stores.List(ctx, repository.StoreFilter{ActiveOnly: !admin, Limit: limit})
	if err != nil {
		return nil, err
	}
	views, err = s.views(ctx, stores)
	if err != nil {
		return nil, err
	}
	if !admin {
		for i := range views {
			views[i] = views[i].publicView()
		}
	}
	s.cache.set(ctx, key, views)
	return views, nil
}

// Get returns one store. Inactive stores are only visible to admins and their owner.
func (s *StoreService) Get(ctx context.Context, caller *policy.Caller, id uint) (*StoreView, error) {
	if err := policy.Authenticated(caller); err != nil {
		return nil, err
	}
	key := detailKey(id)
	var view StoreView
	if !s.cache.get(ctx, key, &view) {
		store, err := s.stores.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		views, err := s.views(ctx, []domain.Store{*store})
		if err != nil {
			return nil, err
		}
		view = views[0]
		s.cache.set(ctx, key, view)
	}

	isOwner := view.OwnerID != nil && *view.OwnerID == caller.ID
	if policy.Admin(caller) == nil || isOwner {
		return &view, nil
	}
	if !view.Active {
		return nil, domain.NotFound("store")
	}
	public := view.publicView()
	return &public, nil
}

// Create adds a store. When an owner is given they must not already have an
// active store, and a plain user is promoted to store_owner.
func (s *StoreService) Create(ctx context.Context, caller *policy.Caller, in CreateStoreInput) (*StoreView, error) {
	if err := policy.Admin(caller); err != nil {
		return nil, err
	}
	if err := cleanProfile(&in.Name, &in.Address); err != nil {
		return nil, err
	}
	store := &domain.Store{
		Name:    in.Name,
		Email:   normalizeEmail(in.Email),
		Address: in.Address,
		Active:  true,
	}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if in.OwnerID != nil {
			if err := s.claimOwner(ctx, *in.OwnerID); err != nil {
				return err
			}
			store.OwnerID = in.OwnerID
		}
		return s.stores.Create(ctx, store)
	})
	if err != nil {
		return nil, err
	}
	s.cache.forget(ctx)
	logrus.WithFields(logrus.Fields{"store_id": store.ID, "owner_id": store.OwnerID, "by": caller.ID}).Info("store created")
	return s.view(ctx, store.ID)
}

func (s *StoreService) claimOwner(ctx context.Context, ownerID uint) error {
	owner, err := s.users.FindByID(ctx, ownerID)
	if err != nil {
		return err
	}
	switch owner.Role {
	case domain.RoleAdmin:
		return domain.NewValidationError("ownerId", "an admin cannot own a store")
	case domain.RoleStoreOwner:
		_, err := s.stores.FindActiveByOwner(ctx, owner.ID)
		if err == nil {
			return domain.Conflict("user already owns an active store")
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return nil
	}
	owner.Role = domain.RoleStoreOwner
	if err := s.users.Save(ctx, owner); err != nil {
		return err
	}
	logrus.WithField("user_id", owner.ID).Info("user promoted to store owner")
	return nil
}

// Update changes name, email and address. Allowed for admins and the store's owner.
func (s *StoreService) Update(ctx context.Context, caller *policy.Caller, id uint, in UpdateStoreInput) (*StoreView, error) {
	if err := policy.Authenticated(caller); err != nil {
		return nil, err
	}
	store, err := s.stores.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.AdminOrStoreOwnerOf(caller, store); err != nil {
		return nil, err
	}
	if err := cleanProfile(in.Name, in.Address); err != nil {
		return nil, err
	}
	if in.Name != nil {
		store.Name = *in.Name
	}
	if in.Email != nil {
		store.Email = normalizeEmail(*in.Email)
	}
	if in.Address != nil {
		store.Address = *in.Address
	}
	if err := s.stores.Save(ctx, store); err != nil {
		return nil, err
	}
	s.cache.forget(ctx, store.ID)
	logrus.WithFields(logrus.Fields{"store_id": store.ID, "by": caller.ID}).Info("store updated")
	return s.view(ctx, store.ID)
}

// Delete removes a store and every rating on it.
func (s *StoreService) Delete(ctx context.Context, caller *policy.Caller, id uint) error {
	if err := policy.Admin(caller); err != nil {
		return err
	}
	var removed int64
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		if removed, err = s.ratings.DeleteByStores(ctx, []uint{id}); err != nil {
			return err
		}
		return s.stores.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.cache.forget(ctx, id)
	logrus.WithFields(logrus.Fields{"store_id": id, "ratings": removed, "by": caller.ID}).Info("store deleted")
	return nil
}

// Mine returns the caller's active store.
func (s *StoreService) Mine(ctx context.Context, caller *policy.Caller) (*StoreView, error) {
	store, err := ownedStore(ctx, s.stores, caller)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, store.ID)
}

// MyRatings returns the ratings of the caller's active store.
func (s *StoreService) MyRatings(ctx context.Context, caller *policy.Caller) (*StoreRatings, error) {
	store, err := ownedStore(ctx, s.stores, caller)
	if err != nil {
		return nil, err
	}
	return storeRatings(ctx, s.ratings, store)
}

func (s *StoreService) view(ctx context.Context, id uint) (*StoreView, error) {
	store, err := s.stores.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, []domain.Store{*store})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *StoreService) views(ctx context.Context, stores []domain.Store) ([]StoreView, error) {
	ids := make([]uint, len(stores))
	for i, st := range stores {
		ids[i] = st.ID
	}
	summaries, err := s.ratings.Summaries(ctx, ids)
	if err != nil {
		return nil, err
	}
	views := make([]StoreView, len(stores))
	for i, st := range stores {
		sum := summaries[st.ID]
		views[i] = StoreView{
			ID:          st.ID,
			Name:        st.Name,
			Email:       st.Email,
			Address:     st.Address,
			OwnerID:     st.OwnerID,
			Active:      st.Active,
			AvgRating:   sum.Average,
			RatingCount: sum.Count,
			CreatedAt:   st.CreatedAt,
			UpdatedAt:   st.UpdatedAt,
		}
		if st.Owner != nil {
			views[i].Owner = &OwnerView{ID: st.Owner.ID, Name: st.Owner.Name, Email: st.Owner.Email, Role: st.Owner.Role}
		}
	}
	return views, nil
}

// ownedStore resolves the active store of a store owner caller. An owner
// without a store gets domain.ErrNotFound.
func ownedStore(ctx context.Context, stores *repository.StoreRepository, caller *policy.Caller) (*domain.Store, error) {
	if err := policy.StoreOwner(caller); err != nil {
		return nil, err
	}
	store, err := stores.FindActiveByOwner(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	if err := policy.OwnsStore(caller, store); err != nil {
		return nil, err
	}
	return store, nil
}

func storeRatings(ctx context.Context, ratings *repository.RatingRepository, store *domain.Store) (*StoreRatings, error) {
	list, err := ratings.List(ctx, repository.RatingFilter{StoreID: store.ID})
	if err != nil {
		return nil, err
	}
	summary, err := ratings.Summary(ctx, store.ID)
	if err != nil {
		return nil, err
	}
	return &StoreRatings{
		StoreID:       store.ID,
		StoreName:     store.Name,
		AverageRating: summary.Average,
		RatingCount:   summary.Count,
		Ratings:       list,
	}, nil
}
