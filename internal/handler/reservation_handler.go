package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unitime-io/unitime-api/internal/dto"
	"github.com/unitime-io/unitime-api/internal/service"
	appErrors "github.com/unitime-io/unitime-api/pkg/errors"
	"github.com/unitime-io/unitime-api/pkg/response"
)

// ReservationHandler manages reservation and absence endpoints.
type ReservationHandler struct {
	reservations *service.ReservationService
	absences     *service.AbsenceService
}

// NewReservationHandler constructs handler.
func NewReservationHandler(reservations *service.ReservationService, absences *service.AbsenceService) *ReservationHandler {
	return &ReservationHandler{reservations: reservations, absences: absences}
}

// Create godoc
// @Summary Submit a room reservation
// @Tags Reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateReservationRequest true "Reservation"
// @Success 201 {object} response.Envelope
// @Router /reservations [post]
func (h *ReservationHandler) Create(c *gin.Context) {
	var req dto.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	reservation, err := h.reservations.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, reservation)
}

// List godoc
// @Summary List reservations
// @Tags Reservations
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Envelope
// @Router /reservations [get]
func (h *ReservationHandler) List(c *gin.Context) {
	items, err := h.reservations.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// ListByTeacher godoc
// @Summary List a teacher's reservations
// @Tags Reservations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/reservations [get]
func (h *ReservationHandler) ListByTeacher(c *gin.Context) {
	items, err := h.reservations.ListByTeacher(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// UpdateStatus godoc
// @Summary Approve or reject a reservation
// @Tags Reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Param payload body dto.UpdateReservationStatusRequest true "New status"
// @Success 200 {object} response.Envelope
// @Router /reservations/{id}/status [patch]
func (h *ReservationHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateReservationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	reservation, err := h.reservations.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reservation, nil)
}

// Delete godoc
// @Summary Delete a reservation
// @Tags Reservations
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Success 204
// @Router /reservations/{id} [delete]
func (h *ReservationHandler) Delete(c *gin.Context) {
	if err := h.reservations.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeclareAbsence godoc
// @Summary Declare a teacher absence
// @Tags Reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateUnavailabilityRequest true "Absence"
// @Success 201 {object} response.Envelope
// @Router /unavailabilities [post]
func (h *ReservationHandler) DeclareAbsence(c *gin.Context) {
	var req dto.CreateUnavailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	item, err := h.absences.Declare(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// ListAbsences godoc
// @Summary List a teacher's absences
// @Tags Reservations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/unavailabilities [get]
func (h *ReservationHandler) ListAbsences(c *gin.Context) {
	items, err := h.absences.ListByTeacher(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// WithdrawAbsence godoc
// @Summary Withdraw a declared absence
// @Tags Reservations
// @Security BearerAuth
// @Param id path string true "Unavailability ID"
// @Success 204
// @Router /unavailabilities/{id} [delete]
func (h *ReservationHandler) WithdrawAbsence(c *gin.Context) {
	if err := h.absences.Withdraw(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
