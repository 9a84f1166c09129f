package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unitime-io/unitime-api/internal/dto"
	"github.com/unitime-io/unitime-api/internal/service"
	appErrors "github.com/unitime-io/unitime-api/pkg/errors"
	"github.com/unitime-io/unitime-api/pkg/response"
)

// TimetableHandler serves committed schedule views.
type TimetableHandler struct {
	service *service.TimetableService
}

// NewTimetableHandler constructs handler.
func NewTimetableHandler(svc *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// GroupTimetable godoc
// @Summary Weekly timetable of a group
// @Tags Timetable
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/groups/{id} [get]
func (h *TimetableHandler) GroupTimetable(c *gin.Context) {
	views, err := h.service.GroupTimetable(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, nil)
}

// TeacherTimetable godoc
// @Summary Weekly timetable of a teacher
// @Tags Timetable
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/teachers/{id} [get]
func (h *TimetableHandler) TeacherTimetable(c *gin.Context) {
	views, err := h.service.TeacherTimetable(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, nil)
}

// SearchFreeRooms godoc
// @Summary Find rooms free over a window
// @Tags Timetable
// @Produce json
// @Security BearerAuth
// @Param day query string true "Weekday"
// @Param start_time query string true "Window start (HH:MM)"
// @Param end_time query string true "Window end (HH:MM)"
// @Param capacity query int false "Minimum capacity"
// @Success 200 {object} response.Envelope
// @Router /timetable/rooms/free [get]
func (h *TimetableHandler) SearchFreeRooms(c *gin.Context) {
	var query dto.RoomSearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	rooms, err := h.service.SearchFreeRooms(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, nil)
}

// Stats godoc
// @Summary Catalog and schedule volume counters
// @Tags Timetable
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /stats [get]
func (h *TimetableHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
