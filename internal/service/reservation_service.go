package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/unitime-io/unitime-api/internal/dto"
	"github.com/unitime-io/unitime-api/internal/models"
	appErrors "github.com/unitime-io/unitime-api/pkg/errors"
	"github.com/unitime-io/unitime-api/pkg/mail"
)

type reservationStore interface {
	ListByStatus(ctx context.Context, status string) ([]models.Reservation, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Reservation, error)
	FindByID(ctx context.Context, id string) (*models.Reservation, error)
	Create(ctx context.Context, reservation *models.Reservation) error
	UpdateStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
}

type reservationSlotStore interface {
	Commit(ctx context.Context, slot *models.Slot) error
	RoomOverlaps(ctx context.Context, roomID, day, start, end string) (bool, error)
}

type reservationTeacherStore interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

// ReservationService handles teacher room bookings. Approving a booking
// materialises a makeup slot on the committed timetable.
type ReservationService struct {
	reservations reservationStore
	slots        reservationSlotStore
	teachers     reservationTeacherStore
	mailer       mailDispatcher
	invalidator  timetableInvalidator
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewReservationService constructs a ReservationService.
func NewReservationService(reservations reservationStore, slots reservationSlotStore, teachers reservationTeacherStore, mailer mailDispatcher, invalidator timetableInvalidator, validate *validator.Validate, logger *zap.Logger) *ReservationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReservationService{
		reservations: reservations,
		slots:        slots,
		teachers:     teachers,
		mailer:       mailer,
		invalidator:  invalidator,
		validator:    validate,
		logger:       logger,
	}
}

const reservationDateLayout = "2006-01-02"

// Create submits a new pending reservation.
func (s *ReservationService) Create(ctx context.Context, req dto.CreateReservationRequest) (*models.Reservation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reservation payload")
	}

	date, err := time.Parse(reservationDateLayout, req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted YYYY-MM-DD")
	}
	if !isTeachingDay(date) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "reservations are limited to Monday through Friday")
	}
	if req.StartTime >= req.EndTime {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
	}

	reservation := &models.Reservation{
		TeacherID: req.TeacherID,
		Reason:    req.Reason,
		Date:      date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Status:    models.ReservationPending,
	}
	if req.RoomID != "" {
		reservation.RoomID = &req.RoomID
	}
	if req.CourseID != "" {
		reservation.CourseID = &req.CourseID
	}
	if req.GroupID != "" {
		reservation.GroupID = &req.GroupID
	}

	if err := s.reservations.Create(ctx, reservation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create reservation")
	}
	return reservation, nil
}

// List returns reservations, optionally filtered by status.
func (s *ReservationService) List(ctx context.Context, status string) ([]models.Reservation, error) {
	items, err := s.reservations.ListByStatus(ctx, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reservations")
	}
	return items, nil
}

// ListByTeacher returns a teacher's own reservations.
func (s *ReservationService) ListByTeacher(ctx context.Context, teacherID string) ([]models.Reservation, error) {
	items, err := s.reservations.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reservations")
	}
	return items, nil
}

// UpdateStatus transitions a pending reservation. Approval commits a makeup
// slot on the weekday of the reserved date, after a final conflict check.
func (s *ReservationService) UpdateStatus(ctx context.Context, id string, req dto.UpdateReservationStatusRequest) (*models.Reservation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}

	reservation, err := s.reservations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "reservation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch reservation")
	}
	if reservation.Status != models.ReservationPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "reservation was already processed")
	}

	if req.Status == models.ReservationApproved {
		if err := s.materialize(ctx, reservation); err != nil {
			return nil, err
		}
	}

	if err := s.reservations.UpdateStatus(ctx, id, req.Status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update reservation")
	}
	reservation.Status = req.Status

	s.notifyTeacher(ctx, reservation)
	return reservation, nil
}

// Delete removes a reservation.
func (s *ReservationService) Delete(ctx context.Context, id string) error {
	if _, err := s.reservations.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "reservation not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch reservation")
	}
	if err := s.reservations.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete reservation")
	}
	return nil
}

func (s *ReservationService) materialize(ctx context.Context, reservation *models.Reservation) error {
	if reservation.RoomID == nil {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "reservation has no room to book")
	}
	day := reservation.Date.Weekday().String()

	busy, err := s.slots.RoomOverlaps(ctx, *reservation.RoomID, day, reservation.StartTime, reservation.EndTime)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check room occupancy")
	}
	if busy {
		return appErrors.Clone(appErrors.ErrConflict, "room is occupied over the requested window")
	}

	slot := &models.Slot{
		TeacherID: reservation.TeacherID,
		RoomID:    *reservation.RoomID,
		Day:       day,
		StartTime: reservation.StartTime,
		EndTime:   reservation.EndTime,
		Kind:      models.SessionMakeup,
	}
	if reservation.CourseID != nil {
		slot.CourseID = *reservation.CourseID
	}
	if reservation.GroupID != nil {
		slot.GroupID = *reservation.GroupID
	}
	if err := s.slots.Commit(ctx, slot); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit makeup slot")
	}
	if s.invalidator != nil {
		s.invalidator.InvalidateTimetables(ctx)
	}
	return nil
}

func (s *ReservationService) notifyTeacher(ctx context.Context, reservation *models.Reservation) {
	if s.mailer == nil || s.teachers == nil {
		return
	}
	teacher, err := s.teachers.FindByID(ctx, reservation.TeacherID)
	if err != nil {
		s.logger.Warn("failed to load teacher for reservation notice", zap.Error(err))
		return
	}
	verdict := "rejected"
	if reservation.Status == models.ReservationApproved {
		verdict = "approved"
	}
	s.mailer.Dispatch(mail.Message{
		ToName:   teacher.Name,
		ToEmail:  teacher.Email,
		Subject:  fmt.Sprintf("Room reservation %s", verdict),
		HTMLBody: fmt.Sprintf("<p>Hello %s,</p><p>Your reservation for %s from %s to %s was %s.</p>", teacher.Name, reservation.Date.Format(reservationDateLayout), reservation.StartTime, reservation.EndTime, verdict),
		TextBody: fmt.Sprintf("Hello %s, your reservation for %s from %s to %s was %s.", teacher.Name, reservation.Date.Format(reservationDateLayout), reservation.StartTime, reservation.EndTime, verdict),
	})
}

func isTeachingDay(date time.Time) bool {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}
