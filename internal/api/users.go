package api

import (
	"net/http" // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework

	"store_rating/internal/api/problem" // Problem responses
	"store_rating/internal/domain"      // Domain models
	"store_rating/internal/middleware"  // Caller lookup
	"store_rating/internal/repository"  // Listing filters
	"store_rating/internal/service"     // Use cases
)

// Request struct for an admin creating a user
type CreateUserRequest struct {
	Name     string      `json:"name" binding:"required,min=2,max=60"`                  // Display name
	Email    string      `json:"email" binding:"required,email"`                        // Unique email
	Password string      `json:"password" binding:"required,password"`                  // Initial password
	Address  string      `json:"address" binding:"max=400"`                             // Optional address
	Role     domain.Role `json:"role" binding:"omitempty,oneof=user admin store_owner"` // Defaults to user
}

// Request struct for a profile update, absent fields are left unchanged
type UpdateUserRequest struct {
	Name    *string      `json:"name" binding:"omitempty,min=2,max=60"`                 // Display name
	Email   *string      `json:"email" binding:"omitempty,email"`                       // Unique email
	Address *string      `json:"address" binding:"omitempty,max=400"`                   // Address
	Role    *domain.Role `json:"role" binding:"omitempty,oneof=user admin store_owner"` // Admin only
}

// ListUsersHandler returns a page of users, filtered by role and a search term
func ListUsersHandler(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := repository.UserFilter{
			Role:     domain.Role(c.Query("role")), // Optional role filter
			Search:   c.Query("search"),            // Optional substring filter
			Page:     queryInt(c, "page", 1),       // Default page number
			PageSize: queryInt(c, "page_size", 20), // Default page size
		}
		if filter.Role != "" && !filter.Role.Valid() {
			problem.Abort(c, domain.NewValidationError("role", "must be one of user, admin, store_owner"))
			return
		}
		if filter.PageSize > 100 {
			filter.PageSize = 100 // Page size upper bound
		}
		list, total, err := users.List(c.Request.Context(), middleware.CallerFrom(c), filter)
		if err != nil {
			problem.Abort(c, err)
			return
		}
		// The total number of pages
		totalPages := (int(total) + filter.PageSize - 1) / filter.PageSize
		c.JSON(http.StatusOK, gin.H{
			"users":       list,            // List of users
			"page":        filter.Page,     // Current page
			"page_size":   filter.PageSize, // Page size
			"total":       total,           // Total number of users
			"total_pages": totalPages,      // Total pages
		})
	}
}

// GetUserHandler returns one user to an admin or to the user themselves
func GetUserHandler(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			problem.Abort(c, err)
			return
		}
		user, err := users.Get(c.Request.Context(), middleware.CallerFrom(c), id)
		if err != nil {
			problem.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// CreateUserHandler lets an admin add a user of any role
func CreateUserHandler(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateUserRequest // Bind JSON request to struct
		if err := bindJSON(c, &req); err != nil {
			problem.Abort(c, err)
			return
		}
		user, err := users.Create(c.Request.Context(), middleware.CallerFrom(c), service.CreateUserInput{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
			Address:  req.Address,
			Role:     req.Role,
		})
		if err != nil {
			problem.Abort(c, err)
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

// UpdateUserHandler updates a profile; role changes are admin only
func UpdateUserHandler(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			problem.Abort(c, err)
			return
		}
		var req UpdateUserRequest // Bind JSON request to struct
		if err := bindJSON(c, &req); err != nil {
			problem.Abort(c, err)
			return
		}
		user, err := users.Update(c.Request.Context(), middleware.CallerFrom(c), id, service.UpdateUserInput{
			Name:    req.Name,
			Email:   req.Email,
			Address: req.Address,
			Role:    req.Role,
		})
		if err != nil {
			problem.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// DeleteUserHandler removes a user and cascades to their stores and ratings
func DeleteUserHandler(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			problem.Abort(c, err)
			return
		}
		if err := users.Delete(c.Request.Context(), middleware.CallerFrom(c), id); err != nil {
			problem.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
	}
}
