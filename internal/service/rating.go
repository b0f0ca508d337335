package service

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"

	"store_rating/internal/domain"
	"store_rating/internal/policy"
	"store_rating/internal/repository"
)

var ratingsSubmitted = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "store_rating_ratings_submitted_total",
		Help: "Number of accepted rating submissions",
	},
	[]string{"result"}, // created or updated
)

// RatingService accepts, lists and removes ratings.
type RatingService struct {
	stores  *repository.StoreRepository
	ratings *repository.RatingRepository
	cache   *storeCache
}

// Submit creates or overwrites the caller's rating of a store. Only callers
// with role user may rate; the value must lie in [1,5]. created reports
// whether this was the caller's first rating of the store.
func (s *RatingService) Submit(ctx context.Context, caller *policy.Caller, storeID uint, value int) (*domain.Rating, bool, error) {
	if err := policy.RatingSubmitter(caller); err != nil {
		return nil, false, err
	}
	if value < domain.MinRating || value > domain.MaxRating {
		return nil, false, domain.NewValidationError("rating", fmt.Sprintf("rating must be between %d and %d", domain.MinRating, domain.MaxRating))
	}
	store, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		return nil, false, err
	}
	if !store.Active {
		return nil, false, domain.NewValidationError("storeId", "store is not active")
	}

	rating, created, err := s.ratings.Upsert(ctx, caller.ID, store.ID, value)
	if err != nil {
		return nil, false, err
	}
	s.cache.forget(ctx, store.ID)

	result := "updated"
	if created {
		result = "created"
	}
	ratingsSubmitted.WithLabelValues(result).Inc()
	logrus.WithFields(logrus.Fields{
		"rating_id": rating.ID,
		"user_id":   caller.ID,
		"store_id":  store.ID,
		"value":     value,
		"result":    result,
	}).Info("rating submitted")
	return rating, created, nil
}

// Delete removes a rating. Allowed for admins and the rating's author.
func (s *RatingService) Delete(ctx context.Context, caller *policy.Caller, id uint) error {
	if err := policy.Authenticated(caller); err != nil {
		return err
	}
	rating, err := s.ratings.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.AdminOrRatingAuthor(caller, rating); err != nil {
		return err
	}
	if err := s.ratings.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.forget(ctx, rating.StoreID)
	logrus.WithFields(logrus.Fields{"rating_id": id, "store_id": rating.StoreID, "by": caller.ID}).Info("rating deleted")
	return nil
}

// List returns every rating to an admin.
func (s *RatingService) List(ctx context.Context, caller *policy.Caller) ([]domain.RatingDetail, error) {
	if err := policy.Admin(caller); err != nil {
		return nil, err
	}
	return s.ratings.List(ctx, repository.RatingFilter{})
}

// Mine returns the ratings the caller submitted.
func (s *RatingService) Mine(ctx context.Context, caller *policy.Caller) ([]domain.RatingDetail, error) {
	if err := policy.Authenticated(caller); err != nil {
		return nil, err
	}
	return s.ratings.List(ctx, repository.RatingFilter{UserID: caller.ID})
}

// ForStore returns a store's ratings. Store owners may only read their own store.
func (s *RatingService) ForStore(ctx context.Context, caller *policy.Caller, storeID uint) (*StoreRatings, error) {
	if err := policy.Authenticated(caller); err != nil {
		return nil, err
	}
	store, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if err := policy.StoreRatingsReader(caller, store); err != nil {
		return nil, err
	}
	return storeRatings(ctx, s.ratings, store)
}

// AverageRating returns the mean rating of a store, 0 when it has none.
func (s *RatingService) AverageRating(ctx context.Context, storeID uint) (float64, error) {
	return s.ratings.AverageRating(ctx, storeID)
}
