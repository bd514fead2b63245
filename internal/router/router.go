package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/movie-catalog/internal/config"
	"github.com/iliyamo/movie-catalog/internal/handler"
	"github.com/iliyamo/movie-catalog/internal/metrics"
	"github.com/iliyamo/movie-catalog/internal/middleware"
	"github.com/iliyamo/movie-catalog/internal/repository"
	"github.com/iliyamo/movie-catalog/internal/service"
)

// Deps carries what the route table needs.  Redis may be nil, which
// disables caching and rate limiting.
type Deps struct {
	Cfg       config.Config
	DB        *sql.DB
	Redis     *redis.Client
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Events    service.EventPublisher
}

// New builds the repositories and handlers from d and registers every
// route on e.
func New(e *echo.Echo, d Deps) {
	if d.Events == nil {
		d.Events = service.NopPublisher{}
	}
	users := repository.NewUserRepo(d.DB)
	tokens := repository.NewTokenRepo(d.DB)
	movies := repository.NewMovieRepo(d.DB)
	reviews := repository.NewReviewRepo(d.DB)
	ratings := repository.NewRatingRepo(d.DB)
	petitions := repository.NewPetitionRepo(d.DB)
	popularity := repository.NewPopularityRepo(d.DB)

	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis)
	cache := middleware.NewRedisCache(d.Cache, d.Redis)
	secret := d.Cfg.JWTSecret

	RegisterRoutes(e, d.DB)
	RegisterAuth(e, handler.NewAuthHandler(d.Cfg, users, tokens), secret, limit)
	RegisterCatalog(e,
		handler.NewMovieHandler(movies, reviews, ratings),
		handler.NewReviewHandler(movies, reviews, d.Events),
		handler.NewRatingHandler(ratings, d.Events),
		secret, limit, cache)
	RegisterPetitions(e, handler.NewPetitionHandler(petitions, d.Events), secret, limit)
	RegisterPopularity(e, handler.NewPopularityHandler(popularity), secret, cache)
}

// RegisterRoutes registers the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
	e.GET("/metrics", metrics.Handler())
}

// RegisterAuth registers registration, login, token exchange and the
// caller's profile endpoints.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/auth", limit)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// rotates the refresh token
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// logout accepts a refresh token, a bearer token or both
	g.POST("/logout", a.Logout)

	auth := middleware.JWTAuth(jwtSecret)
	e.GET("/me", a.Me, auth)
	e.PUT("/me/region", a.UpdateRegion, auth, limit)
}
