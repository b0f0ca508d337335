package domain

import "time"

// Store Model
type Store struct {
	ID        uint      `gorm:"primaryKey" json:"id"`                      // Primary key
	Name      string    `gorm:"size:60;not null" json:"name"`              // Store name
	Email     string    `gorm:"size:255;not null;index" json:"email"`      // Contact email
	Address   string    `gorm:"size:400" json:"address"`                   // Optional postal address
	OwnerID   *uint     `gorm:"index" json:"ownerId"`                      // Owning user, nil when unassigned
	Owner     *User     `gorm:"foreignKey:OwnerID" json:"owner,omitempty"` // Owner, loaded on demand
	Active    bool      `gorm:"not null;default:true" json:"active"`       // False once the owner lost the store_owner role
	CreatedAt time.Time `json:"createdAt"`                                 // Creation time
	UpdatedAt time.Time `json:"updatedAt"`                                 // Last update time
}

// OwnedBy reports whether userID is the store's owner
func (s *Store) OwnedBy(userID uint) bool {
	return s.OwnerID != nil && *s.OwnerID == userID
}
