package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-catalog/internal/handler"
	"github.com/iliyamo/movie-catalog/internal/middleware"
)

// RegisterPetitions registers the petition list (guests allowed),
// petition creation and the upvote toggle.  The upvote route accepts any
// method and identifies the caller itself, so a wrong method always gets
// the JSON 405 body.
func RegisterPetitions(e *echo.Echo, p *handler.PetitionHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	e.GET("/petitions", p.List, middleware.OptionalJWT(jwtSecret))
	e.POST("/petitions", p.Create, middleware.JWTAuth(jwtSecret), limit)
	e.Any("/petitions/:id/upvote", p.Upvote, middleware.OptionalJWT(jwtSecret), limit)
}

// RegisterPopularity registers the popularity map shell and its data feed.
// Both require a signed-in user.
func RegisterPopularity(e *echo.Echo, h *handler.PopularityHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	auth := middleware.JWTAuth(jwtSecret)
	e.GET("/popularity-map", h.Page, auth)
	e.GET("/popularity-map/data", h.Data, auth, cache)
}
