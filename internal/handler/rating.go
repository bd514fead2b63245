package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-catalog/internal/logging"
	"github.com/iliyamo/movie-catalog/internal/metrics"
	"github.com/iliyamo/movie-catalog/internal/queue"
	"github.com/iliyamo/movie-catalog/internal/repository"
	"github.com/iliyamo/movie-catalog/internal/service"
	"github.com/iliyamo/movie-catalog/internal/validation"
)

// RatingHandler accepts star ratings.
type RatingHandler struct {
	Ratings *repository.RatingRepo
	Events  service.EventPublisher
}

func NewRatingHandler(r *repository.RatingRepo, ev service.EventPublisher) *RatingHandler {
	return &RatingHandler{Ratings: r, Events: ev}
}

// stars arrives as a single digit string, exactly like the rating form posts it.
type ratingReq struct {
	Stars string `json:"stars" form:"stars" validate:"required,oneof=1 2 3 4 5" label:"Rating"`
}

const invalidRating = "Invalid rating value."

// Submit handles POST /movies/:id/rating.  Anything but "1".."5" is
// rejected before the database is touched.
func (h *RatingHandler) Submit(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	movieID, err := parseID(c, "id")
	if err != nil {
		return notFound(c, "movie")
	}
	var req ratingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": invalidRating})
	}
	req.Stars = strings.TrimSpace(req.Stars)
	if err := validation.ValidateStruct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": invalidRating})
	}
	stars, _ := strconv.Atoi(req.Stars)

	ctx, cancel := dbCtx(c)
	defer cancel()

	created, err := h.Ratings.Submit(ctx, movieID, uid, stars)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInvalidStars):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": invalidRating})
		case errors.Is(err, repository.ErrMovieNotFound):
			return notFound(c, "movie")
		}
		logging.Ctx(ctx).Error().Err(err).Uint64("movie_id", movieID).Msg("submit rating")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save rating"})
	}

	msg := fmt.Sprintf("Rating updated: %d stars!", stars)
	outcome := "updated"
	if created {
		msg = fmt.Sprintf("Rating submitted: %d stars!", stars)
		outcome = "created"
	}
	metrics.RatingsSubmitted.WithLabelValues(outcome).Inc()
	service.Emit(ctx, h.Events, queue.RatingSubmitted, uid, queue.RatingPayload{MovieID: movieID, Stars: stars, Created: created})

	return c.JSON(http.StatusOK, echo.Map{
		"message": msg,
		"created": created,
		"stars":   stars,
	})
}
