package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-catalog/internal/logging"
	"github.com/iliyamo/movie-catalog/internal/model"
	"github.com/iliyamo/movie-catalog/internal/repository"
)

// MovieHandler serves the catalog pages.
type MovieHandler struct {
	Movies  *repository.MovieRepo
	Reviews *repository.ReviewRepo
	Ratings *repository.RatingRepo
}

func NewMovieHandler(m *repository.MovieRepo, rv *repository.ReviewRepo, rt *repository.RatingRepo) *MovieHandler {
	return &MovieHandler{Movies: m, Reviews: rv, Ratings: rt}
}

// List handles GET /movies?search=.
func (h *MovieHandler) List(c echo.Context) error {
	search := c.QueryParam("search")
	ctx, cancel := dbCtx(c)
	defer cancel()

	movies, err := h.Movies.List(ctx, search)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("list movies")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load movies"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"search": search,
		"movies": movies,
	})
}

type movieDetail struct {
	Movie         *model.Movie   `json:"movie"`
	Reviews       []model.Review `json:"reviews"`
	UserRating    *int           `json:"user_rating"`
	AverageRating *float64       `json:"average_rating"`
	TotalRatings  int            `json:"total_ratings"`
}

// Detail handles GET /movies/:id.  user_rating is only filled for a
// signed-in caller who has rated the movie.
func (h *MovieHandler) Detail(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return notFound(c, "movie")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	log := logging.Ctx(ctx)

	m, err := h.Movies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return notFound(c, "movie")
		}
		log.Error().Err(err).Uint64("movie_id", id).Msg("load movie")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load movie"})
	}
	reviews, err := h.Reviews.ListByMovie(ctx, id)
	if err != nil {
		log.Error().Err(err).Uint64("movie_id", id).Msg("load reviews")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reviews"})
	}
	summary, err := h.Ratings.Summary(ctx, id)
	if err != nil {
		log.Error().Err(err).Uint64("movie_id", id).Msg("load rating summary")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load ratings"})
	}

	out := movieDetail{
		Movie:         m,
		Reviews:       reviews,
		AverageRating: summary.Average,
		TotalRatings:  summary.Count,
	}
	if uid := optionalUserID(c); uid != 0 {
		r, err := h.Ratings.GetForUser(ctx, id, uid)
		if err != nil {
			log.Error().Err(err).Uint64("movie_id", id).Msg("load user rating")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load ratings"})
		}
		if r != nil {
			stars := r.Stars
			out.UserRating = &stars
		}
	}
	return c.JSON(http.StatusOK, out)
}
