package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-catalog/internal/logging"
	"github.com/iliyamo/movie-catalog/internal/metrics"
	"github.com/iliyamo/movie-catalog/internal/model"
	"github.com/iliyamo/movie-catalog/internal/queue"
	"github.com/iliyamo/movie-catalog/internal/repository"
	"github.com/iliyamo/movie-catalog/internal/service"
	"github.com/iliyamo/movie-catalog/internal/validation"
)

// ReviewHandler handles review mutations.  Every mutation answers with a
// 303 back to the movie; a caller who does not own the review is sent
// back the same way without an error.
type ReviewHandler struct {
	Movies  *repository.MovieRepo
	Reviews *repository.ReviewRepo
	Events  service.EventPublisher
}

func NewReviewHandler(m *repository.MovieRepo, rv *repository.ReviewRepo, ev service.EventPublisher) *ReviewHandler {
	return &ReviewHandler{Movies: m, Reviews: rv, Events: ev}
}

type reviewReq struct {
	Comment string `json:"comment" form:"comment" validate:"max=255" label:"Comment"`
}

func (h *ReviewHandler) bindComment(c echo.Context) (string, error) {
	var req reviewReq
	if err := c.Bind(&req); err != nil {
		return "", err
	}
	req.Comment = strings.TrimSpace(req.Comment)
	if err := validation.ValidateStruct(req); err != nil {
		return "", err
	}
	return req.Comment, nil
}

// Create handles POST /movies/:id/reviews.  A blank comment is a no-op.
func (h *ReviewHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	movieID, err := parseID(c, "id")
	if err != nil {
		return notFound(c, "movie")
	}
	comment, err := h.bindComment(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if _, err := h.Movies.GetByID(ctx, movieID); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return notFound(c, "movie")
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load movie"})
	}
	if comment != "" {
		rv := &model.Review{Comment: comment, MovieID: movieID, UserID: uid}
		if err := h.Reviews.Create(ctx, rv); err != nil {
			logging.Ctx(ctx).Error().Err(err).Uint64("movie_id", movieID).Msg("create review")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save review"})
		}
		metrics.ReviewsCreated.Inc()
		service.Emit(ctx, h.Events, queue.ReviewCreated, uid, queue.ReviewPayload{ReviewID: rv.ID, MovieID: movieID})
	}
	return c.Redirect(http.StatusSeeOther, movieURL(movieID))
}

// loadOwned resolves the :review_id of :id and reports whether uid owns it.
// The review must belong to the movie in the path.
func (h *ReviewHandler) loadOwned(c echo.Context, uid uint64) (*model.Review, uint64, bool, error) {
	movieID, err := parseID(c, "id")
	if err != nil {
		return nil, 0, false, repository.ErrReviewNotFound
	}
	reviewID, err := parseID(c, "review_id")
	if err != nil {
		return nil, movieID, false, repository.ErrReviewNotFound
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	rv, err := h.Reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, movieID, false, err
	}
	if rv.MovieID != movieID {
		return nil, movieID, false, repository.ErrReviewNotFound
	}
	return rv, movieID, rv.UserID == uid, nil
}

func (h *ReviewHandler) lookupError(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrReviewNotFound) {
		return notFound(c, "review")
	}
	logging.Ctx(c.Request().Context()).Error().Err(err).Msg("load review")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load review"})
}

// EditForm handles GET /movies/:id/reviews/:review_id/edit.
func (h *ReviewHandler) EditForm(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	rv, movieID, owner, err := h.loadOwned(c, uid)
	if err != nil {
		return h.lookupError(c, err)
	}
	if !owner {
		return c.Redirect(http.StatusSeeOther, movieURL(movieID))
	}
	return c.JSON(http.StatusOK, echo.Map{"review": rv})
}

// Edit handles POST /movies/:id/reviews/:review_id/edit.  A blank comment
// leaves the review unchanged.
func (h *ReviewHandler) Edit(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	rv, movieID, owner, err := h.loadOwned(c, uid)
	if err != nil {
		return h.lookupError(c, err)
	}
	if !owner {
		return c.Redirect(http.StatusSeeOther, movieURL(movieID))
	}
	comment, err := h.bindComment(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if comment == "" {
		return c.Redirect(http.StatusSeeOther, movieURL(movieID))
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Reviews.UpdateCommentByOwner(ctx, rv.ID, uid, comment); err != nil {
		if errors.Is(err, repository.ErrForbidden) {
			return c.Redirect(http.StatusSeeOther, movieURL(movieID))
		}
		return h.lookupError(c, err)
	}
	return c.Redirect(http.StatusSeeOther, movieURL(movieID))
}

// Delete handles POST /movies/:id/reviews/:review_id/delete.
func (h *ReviewHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	rv, movieID, owner, err := h.loadOwned(c, uid)
	if err != nil {
		return h.lookupError(c, err)
	}
	if !owner {
		return c.Redirect(http.StatusSeeOther, movieURL(movieID))
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Reviews.DeleteByIDAndOwner(ctx, rv.ID, uid); err != nil {
		if errors.Is(err, repository.ErrForbidden) {
			return c.Redirect(http.StatusSeeOther, movieURL(movieID))
		}
		return h.lookupError(c, err)
	}
	return c.Redirect(http.StatusSeeOther, movieURL(movieID))
}
