package api

import (
	"net/http" // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework

	"store_rating/internal/api/problem" // Problem responses
	"store_rating/internal/middleware"  // Caller lookup
	"store_rating/internal/service"     // Use cases
)

// Request struct for a rating submission
type SubmitRatingRequest struct {
	StoreID uint `json:"storeId" binding:"required"`            // Rated store
	Rating  *int `json:"rating" binding:"required,min=1,max=5"` // Star value
}

// ListRatingsHandler returns every rating to an admin
func ListRatingsHandler(ratings *service.RatingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := ratings.List(c.Request.Context(), middleware.CallerFrom(c))
		if err != nil {
			problem.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// MyRatingsHandler returns the ratings the caller submitted
func MyRatingsHandler(ratings *service.RatingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := ratings.Mine(c.Request.Context(), middleware.CallerFrom(c))
		if err != nil {
			problem.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// StoreRatingsHandler returns the ratings of one store
func StoreRatingsHandler(ratings *service.RatingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			problem.Abort(c, err)
			return
		}
		list, err := ratings.ForStore(c.Request.Context(), middleware.CallerFrom(c), id)
		if err != nil {
			problem.Abort(c, err) // Store owners may only read their own store
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// SubmitRatingHandler creates or updates the caller's rating of a store
func SubmitRatingHandler(ratings *service.RatingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := middleware.CallerFrom(c)
		var req SubmitRatingRequest // Bind JSON request to struct
		if err := bindJSON(c, &req); err != nil {
			problem.Abort(c, err)
			return
		}
		rating, created, err := ratings.Submit(c.Request.Context(), caller, req.StoreID, *req.Rating)
		if err != nil {
			problem.Abort(c, err)
			return
		}
		avg, err := ratings.AverageRating(c.Request.Context(), rating.StoreID) // Store average including this rating
		if err != nil {
			problem.Abort(c, err)
			return
		}
		// 201 for a first rating, 200 when it replaced an earlier one
		if created {
			c.JSON(http.StatusCreated, gin.H{"message": "Rating submitted successfully", "rating": rating, "averageRating": avg})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Rating updated successfully", "rating": rating, "averageRating": avg})
	}
}

// DeleteRatingHandler removes a rating for an admin or its author
func DeleteRatingHandler(ratings *service.RatingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			problem.Abort(c, err)
			return
		}
		if err := ratings.Delete(c.Request.Context(), middleware.CallerFrom(c), id); err != nil {
			problem.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Rating deleted successfully"})
	}
}
