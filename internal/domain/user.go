package domain

import "time"

const (
	NameMinLen = 2  // Shortest accepted user or store name, after trimming
	NameMaxLen = 60 // Longest accepted user or store name
)

// Role of a user on the platform
type Role string

const (
	RoleUser       Role = "user"        // Regular user, the only role allowed to rate
	RoleAdmin      Role = "admin"       // Platform administrator
	RoleStoreOwner Role = "store_owner" // Owner of a single active store
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleStoreOwner:
		return true
	}
	return false
}

// User Model
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`                            // Primary key
	Name      string    `gorm:"size:60;not null" json:"name"`                    // Display name
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`      // Unique, lower-cased email
	Password  string    `gorm:"not null" json:"-"`                               // Hashed password, never serialized
	Address   string    `gorm:"size:400" json:"address"`                         // Optional postal address
	Role      Role      `gorm:"size:20;not null;default:user;index" json:"role"` // Role: user, admin or store_owner
	CreatedAt time.Time `json:"createdAt"`                                       // Creation time
	UpdatedAt time.Time `json:"updatedAt"`                                       // Last update time
}
