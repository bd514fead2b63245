package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-catalog/internal/handler"
	"github.com/iliyamo/movie-catalog/internal/middleware"
)

// RegisterCatalog registers movie browsing (open to guests) and the
// review and rating mutations (signed-in users only).  The movie list sits
// behind the response cache; the detail page does not, because it carries
// the caller's own rating.
func RegisterCatalog(e *echo.Echo, m *handler.MovieHandler, rv *handler.ReviewHandler, rt *handler.RatingHandler,
	jwtSecret string, limit, cache echo.MiddlewareFunc) {
	e.GET("/movies", m.List, cache)
	e.GET("/movies/:id", m.Detail, middleware.OptionalJWT(jwtSecret))

	auth := middleware.JWTAuth(jwtSecret)
	e.POST("/movies/:id/reviews", rv.Create, auth, limit)
	e.GET("/movies/:id/reviews/:review_id/edit", rv.EditForm, auth)
	e.POST("/movies/:id/reviews/:review_id/edit", rv.Edit, auth, limit)
	e.POST("/movies/:id/reviews/:review_id/delete", rv.Delete, auth, limit)
	e.POST("/movies/:id/rating", rt.Submit, auth, limit)
}
