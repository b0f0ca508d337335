package api

import (
	"net/http" // HTTP status codes
	"time"     // Cookie lifetime

	"github.com/gin-gonic/gin"                                // Gin web framework
	"github.com/prometheus/client_golang/prometheus/promhttp" // Metrics endpoint

	"store_rating/internal/api/problem" // Problem responses
	"store_rating/internal/domain"      // Error taxonomy
	"store_rating/internal/middleware"  // Custom middleware
	"store_rating/internal/policy"      // Route gates
	"store_rating/internal/service"     // Use cases
)

// RouterConfig holds the HTTP settings of the router
type RouterConfig struct {
	AllowedOrigins []string      // CORS origins
	CookieTTL      time.Duration // Lifetime of the session cookie
	SecureCookies  bool          // Send the session cookie over HTTPS only
}

// NewRouter builds the gin engine with every route of the API
func NewRouter(svc *service.Services, cfg RouterConfig) *gin.Engine {
	RegisterValidators() // Custom validation tags

	r := gin.New() // Gin router instance
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.Prometheus(),
		middleware.CORS(cfg.AllowedOrigins),
	)
	r.NoRoute(func(c *gin.Context) { problem.Abort(c, domain.NotFound("route")) })

	r.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) }) // Health check
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))                                         // Prometheus scrape endpoint

	authn := middleware.JWTAuthMiddleware(svc.Auth) // Resolves the caller or answers 401
	admin := middleware.Require(policy.Admin)       // Admin only gate

	// Auth routes
	auth := r.Group("/api/auth")
	auth.POST("/register", RegisterHandler(svc.Auth))                             // Registration endpoint
	auth.POST("/login", LoginHandler(svc.Auth, cfg.CookieTTL, cfg.SecureCookies)) // Login endpoint
	auth.POST("/logout", LogoutHandler(cfg.SecureCookies))                        // Logout endpoint
	auth.GET("/me", authn, MeHandler(svc.Auth))                                   // Own profile
	auth.PUT("/update-password", authn, UpdatePasswordHandler(svc.Auth))          // Password change

	// User routes
	users := r.Group("/api/users", authn)
	users.GET("", admin, ListUsersHandler(svc.Users))   // List users endpoint
	users.POST("", admin, CreateUserHandler(svc.Users)) // Create user endpoint
	users.GET("/:id", GetUserHandler(svc.Users))        // Admin or self
	users.PUT("/:id", UpdateUserHandler(svc.Users))     // Admin or self, role changes admin only
	users.DELETE("/:id", admin, DeleteUserHandler(svc.Users))

	// Store routes
	stores := r.Group("/api/stores", authn)
	stores.GET("", ListStoresHandler(svc.Stores))
	stores.POST("", admin, CreateStoreHandler(svc.Stores))
	stores.GET("/me", MyStoreHandler(svc.Stores))
	stores.GET("/ratings", MyStoreRatingsHandler(svc.Stores))
	stores.GET("/:id", GetStoreHandler(svc.Stores))
	stores.PUT("/:id", UpdateStoreHandler(svc.Stores))
	stores.DELETE("/:id", admin, DeleteStoreHandler(svc.Stores))

	// Rating routes
	ratings := r.Group("/api/ratings", authn)
	ratings.GET("", admin, ListRatingsHandler(svc.Ratings))
	ratings.GET("/user", MyRatingsHandler(svc.Ratings))
	ratings.GET("/store/:id", StoreRatingsHandler(svc.Ratings))
	ratings.POST("", middleware.Require(policy.RatingSubmitter), SubmitRatingHandler(svc.Ratings)) // Role user only
	ratings.DELETE("/:id", DeleteRatingHandler(svc.Ratings))

	// Dashboard routes
	dashboard := r.Group("/api/dashboard", authn)
	dashboard.GET("/stats", admin, StatsHandler(svc.Dashboard))
	dashboard.GET("/store", StoreDashboardHandler(svc.Dashboard))

	return r
}
