package domain

import "time"

const (
	MinRating = 1 // Lowest accepted rating value
	MaxRating = 5 // Highest accepted rating value
)

// Rating Model, unique per (user, store)
type Rating struct {
	ID        uint      `gorm:"primaryKey" json:"id"`                                             // Primary key
	UserID    uint      `gorm:"not null;uniqueIndex:idx_ratings_user_store" json:"userId"`        // Author
	StoreID   uint      `gorm:"not null;uniqueIndex:idx_ratings_user_store;index" json:"storeId"` // Rated store
	Value     int       `gorm:"not null" json:"rating"`                                           // 1 to 5
	User      *User     `gorm:"foreignKey:UserID" json:"-"`                                       // Author, loaded on demand
	Store     *Store    `gorm:"foreignKey:StoreID" json:"-"`                                      // Store, loaded on demand
	CreatedAt time.Time `json:"createdAt"`                                                        // Creation time
	UpdatedAt time.Time `json:"updatedAt"`                                                        // Last resubmission time
}

// RatingSummary is the aggregate of a store's ratings
type RatingSummary struct {
	Average float64 `json:"avgRating"`   // Mean value, 0 without ratings
	Count   int64   `json:"ratingCount"` // Number of ratings
}

// RatingBucket is one entry of a rating distribution
type RatingBucket struct {
	Rating int   `json:"rating"` // Rating value
	Count  int64 `json:"count"`  // Number of ratings with that value
}

// PlatformStats holds the admin dashboard counters
type PlatformStats struct {
	UserCount   int64 `json:"userCount"`
	StoreCount  int64 `json:"storeCount"`
	RatingCount int64 `json:"ratingCount"`
}

// RatingDetail is a rating joined with its author and store names
type RatingDetail struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"userId"`
	UserName  string    `json:"userName"`
	StoreID   uint      `json:"storeId"`
	StoreName string    `json:"storeName"`
	Value     int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
