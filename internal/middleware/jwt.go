package middleware

import (
	"context" // Context for caller resolution
	"strings" // String manipulation

	"github.com/gin-gonic/gin" // Gin web framework

	"store_rating/internal/api/problem" // Problem responses
	"store_rating/internal/domain"      // Error taxonomy
	"store_rating/internal/policy"      // Caller identity
)

const (
	callerKey   = "caller" // Gin context key of the resolved caller
	TokenCookie = "token"  // Cookie carrying the credential for browser clients
)

// Authenticator resolves the caller a credential belongs to
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*policy.Caller, error)
}

// JWTAuthMiddleware validates the bearer token (or the token cookie) and stores the caller in the context
func JWTAuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c) // Extract the token string
		if tokenStr == "" {
			// If not, abort with unauthorized status
			problem.Abort(c, domain.ErrUnauthenticated)
			return
		}
		caller, err := auth.Authenticate(c.Request.Context(), tokenStr) // Verify and load the caller
		if err != nil {
			// If verification fails, abort with unauthorized or internal status
			problem.Abort(c, err)
			return
		}
		c.Set(callerKey, caller) // Store caller in context
		c.Next()                 // Proceed to the next handler
	}
}

// CallerFrom returns the caller stored by JWTAuthMiddleware, nil when absent
func CallerFrom(c *gin.Context) *policy.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(*policy.Caller); ok {
			return caller
		}
	}
	return nil
}

// Require gates a route group with a policy predicate
func Require(check func(*policy.Caller) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := check(CallerFrom(c)); err != nil {
			problem.Abort(c, err)
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization") // Get Authorization header
	if authHeader != "" {
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return "" // Malformed header
		}
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie // Fall back to the session cookie
	}
	return ""
}
