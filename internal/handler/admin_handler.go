package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/seam-events-api/internal/service"
	"github.com/noah-isme/seam-events-api/pkg/response"
)

type maintenanceService interface {
	ResetAll(ctx context.Context) error
	Seed(ctx context.Context) (service.SeedResult, error)
}

// AdminHandler exposes maintenance endpoints.
type AdminHandler struct {
	service maintenanceService
}

// NewAdminHandler builds a new handler.
func NewAdminHandler(service maintenanceService) *AdminHandler {
	return &AdminHandler{service: service}
}

// Reset godoc
// @Summary Wipe all data
// @Description Removes users, events, requests and the session marker. Pass reseed=true to restore demo data. Teachers only.
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param reseed query bool false "Seed demo data afterwards"
// @Success 200 {object} response.Envelope
// @Router /admin/reset [post]
func (h *AdminHandler) Reset(c *gin.Context) {
	if err := h.service.ResetAll(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}

	result := service.SeedResult{}
	if c.Query("reseed") == "true" {
		var err error
		result, err = h.service.Seed(c.Request.Context())
		if err != nil {
			response.Error(c, err)
			return
		}
	}
	response.JSON(c, http.StatusOK, gin.H{"reset": true, "seeded": result}, nil)
}
