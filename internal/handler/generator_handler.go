package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unitime-io/unitime-api/internal/service"
	"github.com/unitime-io/unitime-api/pkg/response"
)

// GeneratorHandler exposes the timetable generation endpoint.
type GeneratorHandler struct {
	service *service.GeneratorService
}

// NewGeneratorHandler constructs handler.
func NewGeneratorHandler(svc *service.GeneratorService) *GeneratorHandler {
	return &GeneratorHandler{service: svc}
}

// Generate godoc
// @Summary Rebuild the full timetable
// @Description Wipes the committed schedule and places every session request
// @Description from scratch. Returns per-request outcomes.
// @Tags Generator
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable/generate [post]
func (h *GeneratorHandler) Generate(c *gin.Context) {
	result, err := h.service.Generate(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
