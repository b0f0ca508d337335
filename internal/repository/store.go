package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"store_rating/internal/domain"
)

// StoreFilter narrows a store listing.
type StoreFilter struct {
	ActiveOnly bool // Hide deactivated stores
	Limit      int  // Maximum number of stores, 0 for all
}

// StoreRepository persists stores.
type StoreRepository struct {
	db *gorm.DB
}

// NewStoreRepository creates a StoreRepository.
func NewStoreRepository(db *gorm.DB) *StoreRepository {
	return &StoreRepository{db: db}
}

func (r *StoreRepository) Create(ctx context.Context, store *domain.Store) error {
	return translate(conn(ctx, r.db).Omit(clause.Associations).Create(store).Error, "store")
}

// Save writes every column of an existing store, associations excluded.
func (r *StoreRepository) Save(ctx context.Context, store *domain.Store) error {
	return translate(conn(ctx, r.db).Omit(clause.Associations).Save(store).Error, "store")
}

// FindByID loads a store with its owner.
func (r *StoreRepository) FindByID(ctx context.Context, id uint) (*domain.Store, error) {
	var store domain.Store
	if err := conn(ctx, r.db).Preload("Owner").First(&store, id).Error; err != nil {
		return nil, translate(err, "store")
	}
	return &store, nil
}

// FindActiveByOwner returns the owner's active store.
func (r *StoreRepository) FindActiveByOwner(ctx context.Context, ownerID uint) (*domain.Store, error) {
	var store domain.Store
	err := conn(ctx, r.db).Preload("Owner").
		Where("owner_id = ? AND active = ?", ownerID, true).
		Order("id DESC").
		First(&store).Error
	if err != nil {
		return nil, translate(err, "store")
	}
	return &store, nil
}

// FindLatestInactiveByOwner returns the most recently created inactive store of the owner.
func (r *StoreRepository) FindLatestInactiveByOwner(ctx context.Context, ownerID uint) (*domain.Store, error) {
	var store domain.Store
	err := conn(ctx, r.db).
		Where("owner_id = ? AND active = ?", ownerID, false).
		Order("id DESC").
		First(&store).Error
	if err != nil {
		return nil, translate(err, "store")
	}
	return &store, nil
}

// ActiveByOwners maps owner ids to their active store ids.
func (r *StoreRepository) ActiveByOwners(ctx context.Context, ownerIDs []uint) (map[uint]uint, error) {
	out := make(map[uint]uint, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return out, nil
	}
	var stores []domain.Store
	err := conn(ctx, r.db).Select("id", "owner_id").
		Where("owner_id IN ? AND active = ?", ownerIDs, true).
		Order("id ASC").
		Find(&stores).Error
	if err != nil {
		return nil, err
	}
	for _, s := range stores {
		out[*s.OwnerID] = s.ID // latest store wins
	}
	return out, nil
}

// IDsByOwner returns the ids of every store referencing the owner.
func (r *StoreRepository) IDsByOwner(ctx context.Context, ownerID uint) ([]uint, error) {
	var ids []uint
	err := conn(ctx, r.db).Model(&domain.Store{}).Where("owner_id = ?", ownerID).Pluck("id", &ids).Error
	return ids, err
}

// List returns stores newest first with their owners.
func (r *StoreRepository) List(ctx context.Context, filter StoreFilter) ([]domain.Store, error) {
	query := conn(ctx, r.db).Preload("Owner").Order("created_at DESC, id DESC")
	if filter.ActiveOnly {
		query = query.Where("active = ?", true)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	var stores []domain.Store
	if err := query.Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

// SetActiveByOwner flips the active flag of every store of the owner.
func (r *StoreRepository) SetActiveByOwner(ctx context.Context, ownerID uint, active bool) (int64, error) {
	res := conn(ctx, r.db).Model(&domain.Store{}).
		Where("owner_id = ? AND active <> ?", ownerID, active).
		Update("active", active)
	return res.RowsAffected, res.Error
}

// DetachOwner clears the owner reference of the owner's stores.
func (r *StoreRepository) DetachOwner(ctx context.Context, ownerID uint) (int64, error) {
	res := conn(ctx, r.db).Model(&domain.Store{}).
		Where("owner_id = ?", ownerID).
		Update("owner_id", nil)
	return res.RowsAffected, res.Error
}

func (r *StoreRepository) Delete(ctx context.Context, id uint) error {
	res := conn(ctx, r.db).Delete(&domain.Store{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("store")
	}
	return nil
}

// DeleteByIDs removes the given stores and reports how many were deleted.
func (r *StoreRepository) DeleteByIDs(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := conn(ctx, r.db).Where("id IN ?", ids).Delete(&domain.Store{})
	return res.RowsAffected, res.Error
}

func (r *StoreRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := conn(ctx, r.db).Model(&domain.Store{}).Count(&n).Error
	return n, err
}
