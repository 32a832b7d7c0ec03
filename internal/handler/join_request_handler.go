package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/seam-events-api/internal/dto"
	"github.com/noah-isme/seam-events-api/internal/models"
	appErrors "github.com/noah-isme/seam-events-api/pkg/errors"
	"github.com/noah-isme/seam-events-api/pkg/response"
)

type joinRequestService interface {
	Create(ctx context.Context, actor models.Actor, eventID string) (*models.JoinRequest, error)
	ListForEvent(ctx context.Context, actor models.Actor, eventID string) ([]models.JoinRequest, error)
	ListForStudent(ctx context.Context, studentID string) ([]models.JoinRequest, error)
	ListIncoming(ctx context.Context, actor models.Actor) ([]dto.IncomingRequest, error)
	Approve(ctx context.Context, actor models.Actor, requestID string) (*models.JoinRequest, error)
	Reject(ctx context.Context, actor models.Actor, requestID string, req dto.RejectRequest) (*models.JoinRequest, error)
}

// JoinRequestHandler exposes the join request workflow.
type JoinRequestHandler struct {
	service joinRequestService
}

// NewJoinRequestHandler builds a new handler.
func NewJoinRequestHandler(service joinRequestService) *JoinRequestHandler {
	return &JoinRequestHandler{service: service}
}

// Create godoc
// @Summary Request to join an event
// @Tags Join Requests
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /events/{id}/requests [post]
func (h *JoinRequestHandler) Create(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	request, err := h.service.Create(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// ListForEvent godoc
// @Summary List requests for an event
// @Tags Join Requests
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{id}/requests [get]
func (h *JoinRequestHandler) ListForEvent(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	requests, err := h.service.ListForEvent(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Mine godoc
// @Summary List the caller's requests
// @Tags Join Requests
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /requests/mine [get]
func (h *JoinRequestHandler) Mine(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	requests, err := h.service.ListForStudent(c.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Incoming godoc
// @Summary List requests for the caller's events
// @Tags Join Requests
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /requests/incoming [get]
func (h *JoinRequestHandler) Incoming(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	requests, err := h.service.ListIncoming(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Approve godoc
// @Summary Approve a request
// @Tags Join Requests
// @Security BearerAuth
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/approve [post]
func (h *JoinRequestHandler) Approve(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	request, err := h.service.Approve(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Reject godoc
// @Summary Reject a request
// @Tags Join Requests
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.RejectRequest false "Optional note"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/reject [post]
func (h *JoinRequestHandler) Reject(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rejection payload"))
		return
	}

	request, err := h.service.Reject(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}
