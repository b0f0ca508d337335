// Package service implements the use cases behind the HTTP API. Every exported
// method takes the resolved caller and applies the matching policy predicate
// before reading or writing anything.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"store_rating/internal/domain"
	"store_rating/internal/repository"
	"store_rating/internal/utils"
)

// Options configures the services.
type Options struct {
	JWTSecret string        // HS256 signing key
	JWTExpiry time.Duration // Token lifetime
	CacheTTL  time.Duration // Lifetime of cached store views
}

// Services bundles every use case of the application.
type Services struct {
	Auth      *AuthService
	Users     *UserService
	Stores    *StoreService
	Ratings   *RatingService
	Dashboard *DashboardService
}

// New wires the repositories and services on top of db. rdb may be nil, which
// disables caching.
func New(db *gorm.DB, rdb *redis.Client, opts Options) *Services {
	users := repository.NewUserRepository(db)
	stores := repository.NewStoreRepository(db)
	ratings := repository.NewRatingRepository(db)
	tx := repository.NewTransactor(db)
	cache := &storeCache{rdb: rdb, ttl: opts.CacheTTL}

	return &Services{
		Auth:      &AuthService{users: users, secret: opts.JWTSecret, expiry: opts.JWTExpiry},
		Users:     &UserService{tx: tx, users: users, stores: stores, ratings: ratings, cache: cache},
		Stores:    &StoreService{tx: tx, users: users, stores: stores, ratings: ratings, cache: cache},
		Ratings:   &RatingService{stores: stores, ratings: ratings, cache: cache},
		Dashboard: &DashboardService{users: users, stores: stores, ratings: ratings},
	}
}

// storeCache keeps rendered store views in redis.
type storeCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func detailKey(storeID uint) string {
	return fmt.Sprintf("detail:%d", storeID)
}

func (c *storeCache) get(ctx context.Context, key string, dest any) bool {
	hit, err := utils.GetCache(ctx, c.rdb, utils.CacheKeyStores+key, dest)
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("store cache read failed")
		return false
	}
	return hit
}

func (c *storeCache) set(ctx context.Context, key string, value any) {
	if err := utils.SetCache(ctx, c.rdb, utils.CacheKeyStores+key, value, c.ttl); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("store cache write failed")
	}
}

// invalidate drops every cached store view. Called after writes that can touch
// any number of stores, such as user changes.
func (c *storeCache) invalidate(ctx context.Context) {
	if err := utils.DeleteCachePrefix(ctx, c.rdb, utils.CacheKeyStores); err != nil {
		logrus.WithError(err).Warn("store cache invalidation failed")
	}
}

// forget drops the cached store lists and the detail views of storeIDs.
func (c *storeCache) forget(ctx context.Context, storeIDs ...uint) {
	if err := utils.DeleteCachePrefix(ctx, c.rdb, utils.CacheKeyStores+"list:"); err != nil {
		logrus.WithError(err).Warn("store list cache invalidation failed")
	}
	for _, id := range storeIDs {
		if err := utils.DeleteCache(ctx, c.rdb, utils.CacheKeyStores+detailKey(id)); err != nil {
			logrus.WithError(err).WithField("store_id", id).Warn("store cache invalidation failed")
		}
	}
}

// cleanProfile trims a submitted name and address in place. The name must
// still hold NameMinLen to NameMaxLen characters once trimmed. Nil fields are
// skipped.
func cleanProfile(name, address *string) error {
	verr := &domain.ValidationError{}
	if name != nil {
		*name = strings.TrimSpace(*name)
		if n := utf8.RuneCountInString(*name); n < domain.NameMinLen || n > domain.NameMaxLen {
			verr.Add("name", fmt.Sprintf("must be %d to %d characters", domain.NameMinLen, domain.NameMaxLen))
		}
	}
	if address != nil {
		*address = strings.TrimSpace(*address)
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}
