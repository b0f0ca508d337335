package service

import (
	"context"

	"store_rating/internal/domain"
	"store_rating/internal/policy"
	"store_rating/internal/repository"
)

// StoreDashboard is the store owner's aggregate view of their store.
type StoreDashboard struct {
	StoreID            uint                  `json:"storeId"`
	StoreName          string                `json:"storeName"`
	AvgRating          float64               `json:"avgRating"`
	RatingCount        int64                 `json:"ratingCount"`
	RatingDistribution []domain.RatingBucket `json:"ratingDistribution"`
}

// DashboardService computes the admin and store owner dashboards.
type DashboardService struct {
	users   *repository.UserRepository
	stores  *repository.StoreRepository
	ratings *repository.RatingRepository
}

// Stats returns platform wide counts to an admin.
func (s *DashboardService) Stats(ctx context.Context, caller *policy.Caller) (*domain.PlatformStats, error) {
	if err := policy.Admin(caller); err != nil {
		return nil, err
	}
	var stats domain.PlatformStats
	var err error
	if stats.UserCount, err = s.users.Count(ctx); err != nil {
		return nil, err
	}
	if stats.StoreCount, err = s.stores.Count(ctx); err != nil {
		return nil, err
	}
	if stats.RatingCount, err = s.ratings.Count(ctx); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Store returns the aggregates of the caller's active store.
func (s *DashboardService) Store(ctx context.Context, caller *policy.Caller) (*StoreDashboard, error) {
	store, err := ownedStore(ctx, s.stores, caller)
	if err != nil {
		return nil, err
	}
	summary, err := s.ratings.Summary(ctx, store.ID)
	if err != nil {
		return nil, err
	}
	dist, err := s.ratings.Distribution(ctx, store.ID)
	if err != nil {
		return nil, err
	}
	return &StoreDashboard{
		StoreID:            store.ID,
		StoreName:          store.Name,
		AvgRating:          summary.Average,
		RatingCount:        summary.Count,
		RatingDistribution: dist,
	}, nil
}
