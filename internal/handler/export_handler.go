package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/unitime-io/unitime-api/internal/service"
	"github.com/unitime-io/unitime-api/pkg/response"
)

// ExportHandler serves timetable downloads.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler constructs handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// GroupPDF godoc
// @Summary Download a group timetable as PDF
// @Tags Export
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Success 200 {file} binary
// @Router /export/groups/{id}/pdf [get]
func (h *ExportHandler) GroupPDF(c *gin.Context) {
	groupID := c.Param("id")
	payload, err := h.service.GroupTimetablePDF(c.Request.Context(), groupID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, fmt.Sprintf("timetable-%s.pdf", groupID), "application/pdf", payload)
}

// TeacherPDF godoc
// @Summary Download a teacher timetable as PDF
// @Tags Export
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Success 200 {file} binary
// @Router /export/teachers/{id}/pdf [get]
func (h *ExportHandler) TeacherPDF(c *gin.Context) {
	teacherID := c.Param("id")
	payload, err := h.service.TeacherTimetablePDF(c.Request.Context(), teacherID, c.Query("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, fmt.Sprintf("timetable-%s.pdf", teacherID), "application/pdf", payload)
}

// GroupCSV godoc
// @Summary Download a group timetable as CSV
// @Tags Export
// @Produce text/csv
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Success 200 {file} binary
// @Router /export/groups/{id}/csv [get]
func (h *ExportHandler) GroupCSV(c *gin.Context) {
	groupID := c.Param("id")
	payload, err := h.service.GroupTimetableCSV(c.Request.Context(), groupID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, fmt.Sprintf("timetable-%s.csv", groupID), "text/csv", payload)
}
