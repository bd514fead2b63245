package handler

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
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

// PetitionsPerPage is the page size of GET /petitions.
const PetitionsPerPage = 10

// PetitionHandler serves petition listing, creation and upvotes.
type PetitionHandler struct {
	Petitions *repository.PetitionRepo
	Events    service.EventPublisher
}

func NewPetitionHandler(p *repository.PetitionRepo, ev service.EventPublisher) *PetitionHandler {
	return &PetitionHandler{Petitions: p, Events: ev}
}

type createPetitionReq struct {
	MovieTitle  string `json:"movie_title" form:"movie_title" validate:"required,max=255" label:"Movie title"`
	Description string `json:"description" form:"description" validate:"required" label:"Description"`
}

// List handles GET /petitions?page=.  user_upvotes holds the ids on this
// page the caller has upvoted; it is empty for guests.
func (h *PetitionHandler) List(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()
	log := logging.Ctx(ctx)

	res, err := h.Petitions.List(ctx, c.QueryParam("page"), PetitionsPerPage)
	if err != nil {
		log.Error().Err(err).Msg("list petitions")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load petitions"})
	}

	upvoted := []uint64{}
	if uid := optionalUserID(c); uid != 0 && len(res.Petitions) > 0 {
		ids := make([]uint64, len(res.Petitions))
		for i, p := range res.Petitions {
			ids[i] = p.ID
		}
		set, err := h.Petitions.UpvotedBy(ctx, uid, ids)
		if err != nil {
			log.Error().Err(err).Msg("load user upvotes")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load petitions"})
		}
		for id := range set {
			upvoted = append(upvoted, id)
		}
		sort.Slice(upvoted, func(i, j int) bool { return upvoted[i] < upvoted[j] })
	}

	return c.JSON(http.StatusOK, echo.Map{
		"petitions":    res.Petitions,
		"page":         res.Page,
		"total":        res.Page.Total,
		"user_upvotes": upvoted,
	})
}

// Create handles POST /petitions.  On a validation failure the entered
// values are echoed back so the form can be re-filled.
func (h *PetitionHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req createPetitionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.MovieTitle = strings.TrimSpace(req.MovieTitle)
	req.Description = strings.TrimSpace(req.Description)
	if err := validation.ValidateStruct(req); err != nil {
		field := ""
		var fe *validation.FieldError
		if errors.As(err, &fe) {
			field = fe.Field
		}
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":       err.Error(),
			"field":       field,
			"movie_title": req.MovieTitle,
			"description": req.Description,
		})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	p := &model.Petition{MovieTitle: req.MovieTitle, Description: req.Description, CreatedBy: uid}
	if err := h.Petitions.Create(ctx, p); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("create petition")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create petition"})
	}
	metrics.PetitionsCreated.Inc()
	service.Emit(ctx, h.Events, queue.PetitionCreated, uid, queue.PetitionPayload{PetitionID: p.ID, MovieTitle: p.MovieTitle})

	return c.JSON(http.StatusCreated, echo.Map{
		"message":  fmt.Sprintf("Petition for \"%s\" created successfully!", p.MovieTitle),
		"petition": p,
	})
}

// Upvote handles /petitions/:id/upvote.  It is registered for every method
// so that non-POST requests get the JSON 405 body.
func (h *PetitionHandler) Upvote(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return c.JSON(http.StatusMethodNotAllowed, echo.Map{"success": false, "error": "Method not allowed"})
	}
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "Authentication required"})
	}
	petitionID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "Petition not found"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	res, err := h.Petitions.ToggleUpvote(ctx, petitionID, uid)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyUpvoted):
			metrics.UpvoteToggles.WithLabelValues("duplicate").Inc()
			return c.JSON(http.StatusOK, echo.Map{"success": false, "error": "You have already upvoted this petition"})
		case errors.Is(err, repository.ErrPetitionNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "Petition not found"})
		}
		logging.Ctx(ctx).Error().Err(err).Uint64("petition_id", petitionID).Msg("toggle upvote")
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "An error occurred while processing your upvote"})
	}

	msg, action := "Upvote removed!", "removed"
	if res.Added {
		msg, action = "Petition upvoted!", "added"
	}
	metrics.UpvoteToggles.WithLabelValues(action).Inc()
	service.Emit(ctx, h.Events, queue.PetitionUpvoteToggled, uid,
		queue.UpvotePayload{PetitionID: petitionID, Added: res.Added, Upvotes: res.Upvotes})

	return c.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"message":      msg,
		"upvotes":      res.Upvotes,
		"user_upvoted": res.Added,
	})
}
