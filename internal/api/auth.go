package api

import (
	"net/http" // HTTP status codes
	"time"     // Cookie lifetime

	"github.com/gin-gonic/gin" // Gin web framework

	"store_rating/internal/api/problem" // Problem responses
	"store_rating/internal/middleware"  // Caller lookup
	"store_rating/internal/service"     // Use cases
)

// Request struct for registration
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=60"` // Display name
	Email    string `json:"email" binding:"required,email"`       // Unique email
	Password string `json:"password" binding:"required,password"` // Must satisfy the password policy
	Address  string `json:"address" binding:"max=400"`            // Optional address
}

// Request struct for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"` // Email must be provided
	Password string `json:"password" binding:"required"`    // Password must be provided
}

// Request struct for password change
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`      // Current password
	NewPassword     string `json:"newPassword" binding:"required,password"` // Replacement password
}

// RegisterHandler creates a user with role user
func RegisterHandler(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := bindJSON(c, &req); err != nil {
			problem.Abort(c, err) // Every failing field is reported
			return
		}
		user, err := auth.Register(c.Request.Context(), service.RegisterInput{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
			Address:  req.Address,
		})
		if err != nil {
			problem.Abort(c, err) // Duplicate email is a conflict
			return
		}
		// Return success response
		c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user": user})
	}
}

// LoginHandler authenticates a user, returns a JWT token and sets it as an HttpOnly cookie
func LoginHandler(auth *service.AuthService, ttl time.Duration, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := bindJSON(c, &req); err != nil {
			problem.Abort(c, err)
			return
		}
		token, user, err := auth.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			problem.Abort(c, err) // Unknown email and wrong password look the same
			return
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(middleware.TokenCookie, token, int(ttl.Seconds()), "/", "", secure, true)
		// Return the token and the profile in the response
		c.JSON(http.StatusOK, gin.H{"success": true, "token": token, "user": user})
	}
}

// LogoutHandler clears the session cookie
func LogoutHandler(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(middleware.TokenCookie, "", -1, "/", "", secure, true) // Expire the cookie
		c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
	}
}

// MeHandler returns the caller's profile
func MeHandler(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := auth.Me(c.Request.Context(), middleware.CallerFrom(c))
		if err != nil {
			problem.Abort(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// UpdatePasswordHandler replaces the caller's password
func UpdatePasswordHandler(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdatePasswordRequest // Bind JSON request to struct
		if err := bindJSON(c, &req); err != nil {
			problem.Abort(c, err)
			return
		}
		if err := auth.UpdatePassword(c.Request.Context(), middleware.CallerFrom(c), req.CurrentPassword, req.NewPassword); err != nil {
			problem.Abort(c, err) // Wrong current password is a validation failure
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
	}
}
