package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"store_rating/internal/domain"
	"store_rating/internal/policy"
)

type fakeAuth map[string]*policy.Caller

func (f fakeAuth) Authenticate(_ context.Context, token string) (*policy.Caller, error) {
	if token == "broken-db" {
		return nil, errors.New("db down")
	}
	if c, ok := f[token]; ok {
		return c, nil
	}
	return nil, domain.ErrUnauthenticated
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	auth := fakeAuth{
		"admin-token": {ID: 1, Role: domain.RoleAdmin},
		"user-token":  {ID: 2, Role: domain.RoleUser},
	}
	r := gin.New()
	r.Use(RequestID())
	r.GET("/whoami", JWTAuthMiddleware(auth), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": CallerFrom(c).ID})
	})
	r.GET("/admin", JWTAuthMiddleware(auth), Require(policy.Admin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMiddleware(t *testing.T) {
	r := newEngine()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Token user-token")
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	w := serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":2}`, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: "admin-token"})
	w = serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1}`, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer broken-db")
	assert.Equal(t, http.StatusInternalServerError, serve(r, req).Code)
}

func TestRequire(t *testing.T) {
	r := newEngine()

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	assert.Equal(t, http.StatusForbidden, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	assert.Equal(t, http.StatusNoContent, serve(r, req).Code)
}

func TestRequestID(t *testing.T) {
	r := newEngine()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	assert.Equal(t, "abc-123", serve(r, req).Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	assert.Len(t, serve(r, req).Header().Get(RequestIDHeader), 36)
}
