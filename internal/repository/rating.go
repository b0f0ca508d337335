package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"store_rating/internal/domain"
)

// RatingFilter narrows a rating listing. Zero values match everything.
type RatingFilter struct {
	UserID  uint
	StoreID uint
}

// RatingRepository persists ratings and computes their aggregates.
type RatingRepository struct {
	db *gorm.DB
}

// NewRatingRepository creates a RatingRepository.
func NewRatingRepository(db *gorm.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// Upsert inserts the rating of userID for storeID or overwrites the value of
// the existing one. The insert is conditional on the (user_id, store_id)
// unique index, so of two concurrent first submissions exactly one creates the
// row and the other falls through to the update. created reports whether this
// call inserted the row.
func (r *RatingRepository) Upsert(ctx context.Context, userID, storeID uint, value int) (rating *domain.Rating, created bool, err error) {
	db := conn(ctx, r.db)

	now := time.Now()
	row := &domain.Rating{UserID: userID, StoreID: storeID, Value: value, CreatedAt: now, UpdatedAt: now}
	res := db.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "store_id"}},
		DoNothing: true,
	}).Create(row)
	switch {
	case errors.Is(res.Error, gorm.ErrDuplicatedKey):
		// lost the race to a concurrent insert, update instead
	case res.Error != nil:
		return nil, false, res.Error
	default:
		created = res.RowsAffected == 1
	}

	if !created {
		err = db.Model(&domain.Rating{}).
			Where("user_id = ? AND store_id = ?", userID, storeID).
			Updates(map[string]any{"value": value, "updated_at": now}).Error
		if err != nil {
			return nil, false, err
		}
	}

	rating = &domain.Rating{}
	if err := db.Where("user_id = ? AND store_id = ?", userID, storeID).First(rating).Error; err != nil {
		return nil, false, translate(err, "rating")
	}
	return rating, created, nil
}

func (r *RatingRepository) FindByID(ctx context.Context, id uint) (*domain.Rating, error) {
	var rating domain.Rating
	if err := conn(ctx, r.db).First(&rating, id).Error; err != nil {
		return nil, translate(err, "rating")
	}
	return &rating, nil
}

func (r *RatingRepository) Delete(ctx context.Context, id uint) error {
	res := conn(ctx, r.db).Delete(&domain.Rating{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("rating")
	}
	return nil
}

// DeleteByStores removes every rating of the given stores.
func (r *RatingRepository) DeleteByStores(ctx context.Context, storeIDs []uint) (int64, error) {
	if len(storeIDs) == 0 {
		return 0, nil
	}
	res := conn(ctx, r.db).Where("store_id IN ?", storeIDs).Delete(&domain.Rating{})
	return res.RowsAffected, res.Error
}

// DeleteByUser removes every rating authored by userID.
func (r *RatingRepository) DeleteByUser(ctx context.Context, userID uint) (int64, error) {
	res := conn(ctx, r.db).Where("user_id = ?", userID).Delete(&domain.Rating{})
	return res.RowsAffected, res.Error
}

// List returns ratings with author and store names, newest first.
func (r *RatingRepository) List(ctx context.Context, filter RatingFilter) ([]domain.RatingDetail, error) {
	query := conn(ctx, r.db).Table("ratings").
		Select("ratings.id, ratings.user_id, users.name AS user_name, " +
			"ratings.store_id, stores.name AS store_name, ratings.value, ratings.created_at, ratings.updated_at").
		Joins("JOIN users ON users.id = ratings.user_id").
		Joins("JOIN stores ON stores.id = ratings.store_id").
		Order("ratings.updated_at DESC, ratings.id DESC")
	if filter.UserID != 0 {
		query = query.Where("ratings.user_id = ?", filter.UserID)
	}
	if filter.StoreID != 0 {
		query = query.Where("ratings.store_id = ?", filter.StoreID)
	}
	details := []domain.RatingDetail{}
	if err := query.Scan(&details).Error; err != nil {
		return nil, err
	}
	return details, nil
}

// AverageRating returns the mean rating of the store, 0 when it has none.
func (r *RatingRepository) AverageRating(ctx context.Context, storeID uint) (float64, error) {
	var avg float64
	err := conn(ctx, r.db).Model(&domain.Rating{}).
		Select("COALESCE(AVG(value), 0)").
		Where("store_id = ?", storeID).
		Row().Scan(&avg)
	return avg, err
}

// Summaries returns the average and count of every listed store in one query.
// Stores without ratings map to a zero summary.
func (r *RatingRepository) Summaries(ctx context.Context, storeIDs []uint) (map[uint]domain.RatingSummary, error) {
	out := make(map[uint]domain.RatingSummary, len(storeIDs))
	if len(storeIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		StoreID uint
		Average float64
		Count   int64
	}
	err := conn(ctx, r.db).Model(&domain.Rating{}).
		Select("store_id, COALESCE(AVG(value), 0) AS average, COUNT(*) AS count").
		Where("store_id IN ?", storeIDs).
		Group("store_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, id := range storeIDs {
		out[id] = domain.RatingSummary{}
	}
	for _, row := range rows {
		out[row.StoreID] = domain.RatingSummary{Average: row.Average, Count: row.Count}
	}
	return out, nil
}

// Summary returns the average and count of one store.
func (r *RatingRepository) Summary(ctx context.Context, storeID uint) (domain.RatingSummary, error) {
	m, err := r.Summaries(ctx, []uint{storeID})
	if err != nil {
		return domain.RatingSummary{}, err
	}
	return m[storeID], nil
}

// Distribution counts the store's ratings per value, highest value first.
// Values nobody chose are omitted.
func (r *RatingRepository) Distribution(ctx context.Context, storeID uint) ([]domain.RatingBucket, error) {
	buckets := []domain.RatingBucket{}
	err := conn(ctx, r.db).Model(&domain.Rating{}).
		Select("value AS rating, COUNT(*) AS count").
		Where("store_id = ?", storeID).
		Group("value").
		Order("value DESC").
		Scan(&buckets).Error
	if err != nil {
		return nil, err
	}
	return buckets, nil
}

func (r *RatingRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := conn(ctx, r.db).Model(&domain.Rating{}).Count(&n).Error
	return n, err
}
