package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/unitime-io/unitime-api/internal/dto"
	"github.com/unitime-io/unitime-api/internal/models"
	appErrors "github.com/unitime-io/unitime-api/pkg/errors"
)

type absenceStore interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Unavailability, error)
	Create(ctx context.Context, item *models.Unavailability) error
	Delete(ctx context.Context, id string) error
}

// AbsenceService records teacher unavailabilities. A declared absence covers
// the full teaching day and blocks generator placement for that weekday.
type AbsenceService struct {
	absences  absenceStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAbsenceService constructs an AbsenceService.
func NewAbsenceService(absences absenceStore, validate *validator.Validate, logger *zap.Logger) *AbsenceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AbsenceService{absences: absences, validator: validate, logger: logger}
}

// ListByTeacher returns a teacher's declared absences.
func (s *AbsenceService) ListByTeacher(ctx context.Context, teacherID string) ([]models.Unavailability, error) {
	items, err := s.absences.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list absences")
	}
	return items, nil
}

// Declare records a full-day absence on the weekday of the given date.
func (s *AbsenceService) Declare(ctx context.Context, req dto.CreateUnavailabilityRequest) (*models.Unavailability, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid absence payload")
	}

	date, err := time.Parse(reservationDateLayout, req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted YYYY-MM-DD")
	}
	if !isTeachingDay(date) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "absences are limited to Monday through Friday")
	}

	item := &models.Unavailability{
		TeacherID: req.TeacherID,
		Date:      date,
		Day:       date.Weekday().String(),
		StartTime: models.DailyWindows[0].Start,
		EndTime:   models.DailyWindows[len(models.DailyWindows)-1].End,
	}
	if req.Reason != "" {
		item.Reason = &req.Reason
	}
	if err := s.absences.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record absence")
	}
	return item, nil
}

// Withdraw removes a declared absence.
func (s *AbsenceService) Withdraw(ctx context.Context, id string) error {
	if err := s.absences.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete absence")
	}
	return nil
}
