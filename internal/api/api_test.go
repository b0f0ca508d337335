package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"store_rating/internal/domain"
	"store_rating/internal/service"
	"store_rating/internal/testutil"
	"store_rating/internal/utils"
)

const testPassword = "Secret#123"

type testServer struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	svc := service.New(db, nil, service.Options{JWTSecret: "test-secret", JWTExpiry: time.Hour})
	return &testServer{
		t:      t,
		db:     db,
		router: NewRouter(svc, RouterConfig{AllowedOrigins: []string{"http://localhost:5173"}, CookieTTL: time.Hour}),
	}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// seed inserts a user and returns a token for them.
func (s *testServer) seed(name, email string, role domain.Role) (uint, string) {
	hash, err := utils.HashPassword(testPassword)
	require.NoError(s.t, err)
	u := &domain.User{Name: name, Email: email, Password: hash, Role: role}
	require.NoError(s.t, s.db.Create(u).Error)
	return u.ID, s.login(email, testPassword)
}

func (s *testServer) login(email, password string) string {
	w := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	decode(s.t, w, &resp)
	return resp.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest), w.Body.String())
}

type problemBody struct {
	Status int                 `json:"status"`
	Detail string              `json:"detail"`
	Errors []domain.FieldError `json:"errors"`
}

func TestPing(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}

func TestProtectedRoutesAnswer401Uniformly(t *testing.T) {
	s := newTestServer(t)
	expired, err := utils.GenerateJWT(&domain.User{ID: 1, Role: domain.RoleAdmin}, "test-secret", -time.Minute)
	require.NoError(t, err)
	forged, err := utils.GenerateJWT(&domain.User{ID: 1, Role: domain.RoleAdmin}, "wrong-secret", time.Hour)
	require.NoError(t, err)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/auth/me"},
		{http.MethodPut, "/api/auth/update-password"},
		{http.MethodGet, "/api/users"},
		{http.MethodDelete, "/api/users/1"},
		{http.MethodGet, "/api/stores"},
		{http.MethodPost, "/api/stores"},
		{http.MethodGet, "/api/stores/ratings"},
		{http.MethodPost, "/api/ratings"},
		{http.MethodGet, "/api/ratings/store/1"},
		{http.MethodGet, "/api/dashboard/stats"},
		{http.MethodGet, "/api/dashboard/store"},
	}
	for _, token := range []string{"", "garbage", expired, forged} {
		for _, r := range routes {
			w := s.do(r.method, r.path, token, nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s with %q", r.method, r.path, token)
			assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
		}
	}
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "J", "email": "not-an-email", "password": "weakpass",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	var body problemBody
	decode(t, w, &body)
	fields := map[string]bool{}
	for _, fe := range body.Errors {
		fields[fe.Field] = true
	}
	assert.Equal(t, map[string]bool{"name": true, "email": true, "password": true}, fields)

	w = s.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Jane Doe", "email": "jane@x.io", "password": testPassword,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "password")

	w = s.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Jane Again", "email": "jane@x.io", "password": testPassword,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "jane@x.io", "password": "Wrong#1234"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNamesAreCheckedAfterTrimming(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.seed("Platform Administrator", "admin@x.io", domain.RoleAdmin)
	janeID, janeToken := s.seed("Jane Doe", "jane@x.io", domain.RoleUser)

	nameRejected := func(w *httptest.ResponseRecorder) {
		t.Helper()
		require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		var body problemBody
		decode(t, w, &body)
		require.Len(t, body.Errors, 1)
		assert.Equal(t, "name", body.Errors[0].Field)
	}

	for _, name := range []string{"    ", " a "} {
		nameRejected(s.do(http.MethodPost, "/api/auth/register", "", gin.H{
			"name": name, "email": "blank@x.io", "password": testPassword,
		}))
		nameRejected(s.do(http.MethodPut, fmt.Sprintf("/api/users/%d", janeID), janeToken, gin.H{"name": name}))
		nameRejected(s.do(http.MethodPost, "/api/stores", adminToken, gin.H{"name": name, "email": "blank@stores.io"}))
	}
	var n int64
	require.NoError(t, s.db.Model(&domain.User{}).Where("email = ?", "blank@x.io").Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, s.db.Model(&domain.Store{}).Count(&n).Error)
	assert.Zero(t, n)

	w := s.do(http.MethodPost, "/api/stores", adminToken, gin.H{"name": "  Corner Shop  ", "email": "corner@stores.io"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var store service.StoreView
	decode(t, w, &store)
	assert.Equal(t, "Corner Shop", store.Name)

	nameRejected(s.do(http.MethodPut, fmt.Sprintf("/api/stores/%d", store.ID), adminToken, gin.H{"name": "  x "}))

	w = s.do(http.MethodPut, fmt.Sprintf("/api/users/%d", janeID), janeToken, gin.H{"name": "  Jane Q. Doe "})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var user domain.User
	require.NoError(t, s.db.First(&user, janeID).Error)
	assert.Equal(t, "Jane Q. Doe", user.Name)
}

func TestJaneScenarioOverHTTP(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.seed("Platform Administrator", "admin@x.io", domain.RoleAdmin)

	w := s.do(http.MethodPost, "/api/stores", adminToken, gin.H{"name": "Store X", "email": "x@stores.io"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var store service.StoreView
	decode(t, w, &store)

	w = s.do(http.MethodPost, "/api/users", adminToken, gin.H{
		"name": "Jane Doe", "email": "jane@x.io", "password": testPassword, "role": "user",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	jane := s.login("jane@x.io", testPassword)

	w = s.do(http.MethodPost, "/api/ratings", jane, gin.H{"storeId": store.ID, "rating": 4})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodGet, fmt.Sprintf("/api/stores/%d", store.ID), jane, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &store)
	assert.InDelta(t, 4.0, store.AvgRating, 1e-9)

	w = s.do(http.MethodPost, "/api/ratings", jane, gin.H{"storeId": store.ID, "rating": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var submitted struct {
		AverageRating float64 `json:"averageRating"`
	}
	decode(t, w, &submitted)
	assert.InDelta(t, 2.0, submitted.AverageRating, 1e-9)

	w = s.do(http.MethodGet, "/api/stores", jane, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []service.StoreView
	decode(t, w, &list)
	require.Len(t, list, 1)
	assert.InDelta(t, 2.0, list[0].AvgRating, 1e-9)
	assert.EqualValues(t, 1, list[0].RatingCount)

	w = s.do(http.MethodGet, "/api/ratings/user", jane, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine []domain.RatingDetail
	decode(t, w, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, 2, mine[0].Value)
	assert.Equal(t, "Store X", mine[0].StoreName)

	// other users see who rated, not how to reach them
	_, otherToken := s.seed("Other Customer", "other@x.io", domain.RoleUser)
	w = s.do(http.MethodGet, fmt.Sprintf("/api/ratings/store/%d", store.ID), otherToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Jane Doe")
	assert.NotContains(t, w.Body.String(), "jane@x.io")

	w = s.do(http.MethodGet, "/api/dashboard/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userCount":3,"storeCount":1,"ratingCount":1}`, w.Body.String())
}

func TestRatingSubmissionRules(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.seed("Platform Administrator", "admin@x.io", domain.RoleAdmin)
	_, userToken := s.seed("Regular Customer", "user@x.io", domain.RoleUser)

	w := s.do(http.MethodPost, "/api/stores", adminToken, gin.H{"name": "Corner", "email": "corner@stores.io"})
	require.Equal(t, http.StatusCreated, w.Code)
	var store service.StoreView
	decode(t, w, &store)

	for _, v := range []any{0, 6, "five"} {
		w = s.do(http.MethodPost, "/api/ratings", userToken, gin.H{"storeId": store.ID, "rating": v})
		assert.Equal(t, http.StatusBadRequest, w.Code, "value %v", v)
		var body problemBody
		decode(t, w, &body)
		require.NotEmpty(t, body.Errors)
		assert.Equal(t, "rating", body.Errors[0].Field)
	}
	var n int64
	require.NoError(t, s.db.Model(&domain.Rating{}).Count(&n).Error)
	assert.Zero(t, n)

	w = s.do(http.MethodPost, "/api/ratings", adminToken, gin.H{"storeId": store.ID, "rating": 3})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(http.MethodPost, "/api/ratings", adminToken, gin.H{"storeId": store.ID, "rating": 9})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/ratings", userToken, gin.H{"storeId": 9999, "rating": 3})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStoreOwnerWithoutStoreGets404(t *testing.T) {
	s := newTestServer(t)
	_, ownerToken := s.seed("Owner Without Store", "b@x.io", domain.RoleStoreOwner)

	for _, path := range []string{"/api/stores/ratings", "/api/stores/me", "/api/dashboard/store"} {
		w := s.do(http.MethodGet, path, ownerToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}

func TestRoleGates(t *testing.T) {
	s := newTestServer(t)
	userID, userToken := s.seed("Regular Customer", "user@x.io", domain.RoleUser)
	otherID, _ := s.seed("Other Customer", "other@x.io", domain.RoleUser)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/users", userToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/dashboard/stats", userToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/ratings", userToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/stores", userToken, gin.H{"name": "Mine", "email": "m@x.io"}).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, fmt.Sprintf("/api/users/%d", otherID), userToken, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, fmt.Sprintf("/api/users/%d", userID), userToken, nil).Code)

	w := s.do(http.MethodPut, fmt.Sprintf("/api/users/%d", userID), userToken, gin.H{"role": "admin"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(http.MethodPut, fmt.Sprintf("/api/users/%d", userID), userToken, gin.H{"role": "superuser"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/users/abc", userToken, nil).Code)
}

func TestCookieSessionAndPasswordChange(t *testing.T) {
	s := newTestServer(t)
	s.seed("Regular Customer", "user@x.io", domain.RoleUser)

	w := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "user@x.io", "password": testPassword})
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "token", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var me domain.User
	decode(t, w, &me)
	assert.Equal(t, "user@x.io", me.Email)

	token := cookies[0].Value
	w = s.do(http.MethodPut, "/api/auth/update-password", token, gin.H{"currentPassword": "Wrong#1234", "newPassword": "Better#456"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPut, "/api/auth/update-password", token, gin.H{"currentPassword": testPassword, "newPassword": "weak"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPut, "/api/auth/update-password", token, gin.H{"currentPassword": testPassword, "newPassword": "Better#456"})
	require.Equal(t, http.StatusOK, w.Code)
	s.login("user@x.io", "Better#456")

	w = s.do(http.MethodPost, "/api/auth/logout", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, w.Result().Cookies())
	assert.Equal(t, "", w.Result().Cookies()[0].Value)
}

func TestUserDeleteCascadesOverHTTP(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.seed("Platform Administrator", "admin@x.io", domain.RoleAdmin)
	_, userToken := s.seed("Regular Customer", "user@x.io", domain.RoleUser)

	w := s.do(http.MethodPost, "/api/users", adminToken, gin.H{
		"name": "Owning Person", "email": "owner@x.io", "password": testPassword, "role": "store_owner",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var owner domain.User
	decode(t, w, &owner)

	ownerToken := s.login("owner@x.io", testPassword)
	w = s.do(http.MethodGet, "/api/stores/me", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var store service.StoreView
	decode(t, w, &store)
	assert.Equal(t, "Owning Person", store.Name)

	w = s.do(http.MethodPost, "/api/ratings", userToken, gin.H{"storeId": store.ID, "rating": 5})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(http.MethodGet, "/api/dashboard/store", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, fmt.Sprintf(
		`{"storeId":%d,"storeName":"Owning Person","avgRating":5,"ratingCount":1,"ratingDistribution":[{"rating":5,"count":1}]}`,
		store.ID), w.Body.String())

	w = s.do(http.MethodDelete, fmt.Sprintf("/api/users/%d", owner.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/stores/me", ownerToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, fmt.Sprintf("/api/stores/%d", store.ID), adminToken, nil).Code)
	var n int64
	require.NoError(t, s.db.Model(&domain.Rating{}).Where("store_id = ?", store.ID).Count(&n).Error)
	assert.Zero(t, n)
}
