package api

import (
	"net/http" // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework

	"store_rating/internal/api/problem" // Problem responses
	"store_rating/internal/middleware"  // Caller lookup
	"store_rating/internal/service"     // Use cases
)

// Request struct for an admin creating a store
type CreateStoreRequest struct {
	Name    string `json:"name" binding:"required,min=2,max=60"` // Store name
	Email   string `json:"email" binding:"required,email"`       // Contact email
	Address string `json:"address" binding:"max=400"`            // Optional address
	OwnerID *uint  `json:"ownerId"`                              // Optional owner, promoted to store_owner
	UserID  *uint  `json:"userId"`                               // Older clients send the owner as userId
}

// Request struct for a store update, absent fields are left unchanged
type UpdateStoreRequest struct {
	Name    *string `json:"name" binding:"omitempty,min=2,max=60"` // Store name
	Email   *string `json:"email" binding:"omitempty,email"`       // Contact email
	Address *string `json:"address" binding:"omitempty,max=400"`   // Address
}

// ListStoresHandler returns stores with their average rating, newest first
func ListStoresHandler(stores *service.StoreService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := queryInt(c, "limit", 0) // Zero means no limit
		list, err := stores.List(c.Request.Context(), middleware.CallerFrom(c), limit)
		if err != nil {
			problem.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// GetStoreHandler returns one store with its average rating
func GetStoreHandler(stores *service.StoreService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			problem.Abort(c, err)
			return
		}
		store, err := stores.Get(c.Request.Context(), middleware.CallerFrom(c), id)
		if err != nil {
			problem.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, store)
	}
}

// CreateStoreHandler lets an admin add a store
func CreateStoreHandler(stores *service.StoreService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateStoreRequest // Bind JSON request to struct
		if err := bindJSON(c, &req); err != nil {
			problem.Abort(c, err)
			return
		}
		owner := req.OwnerID
		if owner == nil {
			owner = req.UserID
		}
		store, err := stores.Create(c.Request.Context(), middleware.CallerFrom(c), service.CreateStoreInput{
			Name:    req.Name,
			Email:   req.Email,
			Address: req.Address,
			OwnerID: owner,
		})
		if err != nil {
			problem.Abort(c, err)
			return
		}
		c.JSON(http.StatusCreated, store)
	}
}

// UpdateStoreHandler lets an admin or the store's owner edit its details
func UpdateStoreHandler(stores *service.StoreService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			problem.Abort(c, err)
			return
		}
		var req UpdateStoreRequest // Bind JSON request to struct
		if err := bindJSON(c, &req); err != nil {
			problem.Abort(c, err)
			return
		}
		store, err := stores.Update(c.Request.Context(), middleware.CallerFrom(c), id, service.UpdateStoreInput{
			Name:    req.Name,
			Email:   req.Email,
			Address: req.Address,
		})
		if err != nil {
			problem.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, store)
	}
}

// DeleteStoreHandler removes a store and its ratings
func DeleteStoreHandler(stores *service.StoreService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			problem.Abort(c, err)
			return
		}
		if err := stores.Delete(c.Request.Context(), middleware.CallerFrom(c), id); err != nil {
			problem.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Store deleted successfully"})
	}
}

// MyStoreHandler returns the store owner's active store
func MyStoreHandler(stores *service.StoreService) gin.HandlerFunc {
	return func(c *gin.Context) {
		store, err := stores.Mine(c.Request.Context(), middleware.CallerFrom(c))
		if err != nil {
			problem.Abort(c, err) // An owner without a store gets 404
			return
		}
		c.JSON(http.StatusOK, store)
	}
}

// MyStoreRatingsHandler returns the ratings of the store owner's active store
func MyStoreRatingsHandler(stores *service.StoreService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ratings, err := stores.MyRatings(c.Request.Context(), middleware.CallerFrom(c))
		if err != nil {
			problem.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, ratings)
	}
}
