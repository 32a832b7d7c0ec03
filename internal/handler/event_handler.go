package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/seam-events-api/internal/dto"
	"github.com/noah-isme/seam-events-api/internal/middleware"
	"github.com/noah-isme/seam-events-api/internal/models"
	appErrors "github.com/noah-isme/seam-events-api/pkg/errors"
	"github.com/noah-isme/seam-events-api/pkg/response"
)

type eventService interface {
	List(ctx context.Context, filter dto.EventFilter) ([]models.Event, bool, error)
	Get(ctx context.Context, id string) (*models.Event, error)
	Create(ctx context.Context, actor models.Actor, req dto.CreateEventRequest) (*models.Event, error)
	Update(ctx context.Context, actor models.Actor, id string, req dto.UpdateEventRequest) (*models.Event, error)
	Delete(ctx context.Context, actor models.Actor, id string) error
}

type rosterService interface {
	Export(ctx context.Context, actor models.Actor, eventID string, format dto.RosterFormat) (*dto.RosterFile, error)
}

// EventHandler exposes event endpoints.
type EventHandler struct {
	events eventService
	roster rosterService
}

// NewEventHandler builds a new handler.
func NewEventHandler(events eventService, roster rosterService) *EventHandler {
	return &EventHandler{events: events, roster: roster}
}

// List godoc
// @Summary List events
// @Tags Events
// @Produce json
// @Param category query string false "Category filter, all for none"
// @Param search query string false "Case-insensitive title or description match"
// @Param status query string false "upcoming or past"
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	var filter dto.EventFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}

	events, hit, err := h.events.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)

	response.JSON(c, http.StatusOK, dto.NewEventViews(events), middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get event
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	event, err := h.events.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewEventView(*event), nil)
}

// Create godoc
// @Summary Create event
// @Tags Events
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body dto.CreateEventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /events [post]
func (h *EventHandler) Create(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}

	event, err := h.events.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewEventView(*event))
}

// Update godoc
// @Summary Update event
// @Description Shallow patch; omitted fields are left untouched
// @Tags Events
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body dto.UpdateEventRequest true "Patch"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id} [patch]
func (h *EventHandler) Update(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}

	event, err := h.events.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewEventView(*event), nil)
}

// Delete godoc
// @Summary Delete event
// @Tags Events
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /events/{id} [delete]
func (h *EventHandler) Delete(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.events.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Roster godoc
// @Summary Export attendee roster
// @Tags Events
// @Security BearerAuth
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Event ID"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /events/{id}/roster [get]
func (h *EventHandler) Roster(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.roster.Export(c.Request.Context(), actor, c.Param("id"), dto.RosterFormat(c.Query("format")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
