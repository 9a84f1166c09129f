package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unitime-io/unitime-api/internal/dto"
	"github.com/unitime-io/unitime-api/internal/models"
	appErrors "github.com/unitime-io/unitime-api/pkg/errors"
)

type reservationStoreStub struct {
	items map[string]*models.Reservation
}

func newReservationStoreStub(items ...*models.Reservation) *reservationStoreStub {
	s := &reservationStoreStub{items: map[string]*models.Reservation{}}
	for _, item := range items {
		s.items[item.ID] = item
	}
	return s
}

func (s *reservationStoreStub) ListByStatus(ctx context.Context, status string) ([]models.Reservation, error) {
	var out []models.Reservation
	for _, item := range s.items {
		if status == "" || item.Status == status {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *reservationStoreStub) ListByTeacher(ctx context.Context, teacherID string) ([]models.Reservation, error) {
	var out []models.Reservation
	for _, item := range s.items {
		if item.TeacherID == teacherID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *reservationStoreStub) FindByID(ctx context.Context, id string) (*models.Reservation, error) {
	if item, ok := s.items[id]; ok {
		return item, nil
	}
	return nil, sql.ErrNoRows
}

func (s *reservationStoreStub) Create(ctx context.Context, reservation *models.Reservation) error {
	reservation.ID = "res-1"
	s.items[reservation.ID] = reservation
	return nil
}

func (s *reservationStoreStub) UpdateStatus(ctx context.Context, id, status string) error {
	if item, ok := s.items[id]; ok {
		item.Status = status
	}
	return nil
}

func (s *reservationStoreStub) Delete(ctx context.Context, id string) error {
	delete(s.items, id)
	return nil
}

type slotSinkStub struct {
	committed []models.Slot
	busy      bool
}

func (s *slotSinkStub) Commit(ctx context.Context, slot *models.Slot) error {
	slot.ID = "slot-1"
	s.committed = append(s.committed, *slot)
	return nil
}

func (s *slotSinkStub) RoomOverlaps(ctx context.Context, roomID, day, start, end string) (bool, error) {
	return s.busy, nil
}

type teacherLookupStub struct{}

func (teacherLookupStub) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	return &models.Teacher{ID: id, Name: "Dr. Stub", Email: "stub@unitime.io"}, nil
}

func pendingReservation(room string) *models.Reservation {
	// 2026-09-07 is a Monday.
	date, _ := time.Parse("2006-01-02", "2026-09-07")
	r := &models.Reservation{
		ID:        "res-1",
		TeacherID: "t1",
		Reason:    "makeup session",
		Date:      date,
		StartTime: "10:15",
		EndTime:   "12:15",
		Status:    models.ReservationPending,
	}
	if room != "" {
		r.RoomID = &room
	}
	return r
}

func TestCreateReservationRejectsWeekend(t *testing.T) {
	svc := NewReservationService(newReservationStoreStub(), &slotSinkStub{}, teacherLookupStub{}, nil, nil, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), dto.CreateReservationRequest{
		TeacherID: "t1",
		Reason:    "makeup",
		Date:      "2026-09-05", // a Saturday
		StartTime: "10:15",
		EndTime:   "12:15",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestCreateReservationStartsPending(t *testing.T) {
	store := newReservationStoreStub()
	svc := NewReservationService(store, &slotSinkStub{}, teacherLookupStub{}, nil, nil, nil, zap.NewNop())

	created, err := svc.Create(context.Background(), dto.CreateReservationRequest{
		TeacherID: "t1",
		RoomID:    "r1",
		Reason:    "makeup",
		Date:      "2026-09-07",
		StartTime: "10:15",
		EndTime:   "12:15",
	})
	require.NoError(t, err)
	require.Equal(t, models.ReservationPending, created.Status)
	require.NotNil(t, created.RoomID)
}

func TestApproveReservationCommitsMakeupSlot(t *testing.T) {
	store := newReservationStoreStub(pendingReservation("r1"))
	sink := &slotSinkStub{}
	mailer := &mailerStub{}
	svc := NewReservationService(store, sink, teacherLookupStub{}, mailer, nil, nil, zap.NewNop())

	updated, err := svc.UpdateStatus(context.Background(), "res-1", dto.UpdateReservationStatusRequest{Status: models.ReservationApproved})
	require.NoError(t, err)
	require.Equal(t, models.ReservationApproved, updated.Status)

	require.Len(t, sink.committed, 1)
	slot := sink.committed[0]
	require.Equal(t, models.SessionMakeup, slot.Kind)
	require.Equal(t, "Monday", slot.Day)
	require.Equal(t, "10:15", slot.StartTime)
	require.Equal(t, "r1", slot.RoomID)

	require.Len(t, mailer.sent, 1)
	require.Contains(t, mailer.sent[0].Subject, "approved")
}

func TestApproveReservationRejectsOccupiedRoom(t *testing.T) {
	store := newReservationStoreStub(pendingReservation("r1"))
	sink := &slotSinkStub{busy: true}
	svc := NewReservationService(store, sink, teacherLookupStub{}, nil, nil, nil, zap.NewNop())

	_, err := svc.UpdateStatus(context.Background(), "res-1", dto.UpdateReservationStatusRequest{Status: models.ReservationApproved})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	require.Empty(t, sink.committed)

	reservation, findErr := store.FindByID(context.Background(), "res-1")
	require.NoError(t, findErr)
	require.Equal(t, models.ReservationPending, reservation.Status, "failed approval must leave the reservation pending")
}

func TestRejectReservationCommitsNothing(t *testing.T) {
	store := newReservationStoreStub(pendingReservation("r1"))
	sink := &slotSinkStub{}
	mailer := &mailerStub{}
	svc := NewReservationService(store, sink, teacherLookupStub{}, mailer, nil, nil, zap.NewNop())

	updated, err := svc.UpdateStatus(context.Background(), "res-1", dto.UpdateReservationStatusRequest{Status: models.ReservationRejected})
	require.NoError(t, err)
	require.Equal(t, models.ReservationRejected, updated.Status)
	require.Empty(t, sink.committed)
	require.Len(t, mailer.sent, 1)
	require.Contains(t, mailer.sent[0].Subject, "rejected")
}

func TestUpdateStatusRejectsPendingAsTarget(t *testing.T) {
	store := newReservationStoreStub(pendingReservation("r1"))
	mailer := &mailerStub{}
	svc := NewReservationService(store, &slotSinkStub{}, teacherLookupStub{}, mailer, nil, nil, zap.NewNop())

	_, err := svc.UpdateStatus(context.Background(), "res-1", dto.UpdateReservationStatusRequest{Status: models.ReservationPending})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	require.Empty(t, mailer.sent, "a refused transition must not notify the teacher")

	reservation, findErr := store.FindByID(context.Background(), "res-1")
	require.NoError(t, findErr)
	require.Equal(t, models.ReservationPending, reservation.Status)
}

func TestUpdateStatusRejectsDoubleProcessing(t *testing.T) {
	reservation := pendingReservation("r1")
	reservation.Status = models.ReservationApproved
	store := newReservationStoreStub(reservation)
	svc := NewReservationService(store, &slotSinkStub{}, teacherLookupStub{}, nil, nil, nil, zap.NewNop())

	_, err := svc.UpdateStatus(context.Background(), "res-1", dto.UpdateReservationStatusRequest{Status: models.ReservationRejected})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestApproveReservationWithoutRoomFails(t *testing.T) {
	store := newReservationStoreStub(pendingReservation(""))
	svc := NewReservationService(store, &slotSinkStub{}, teacherLookupStub{}, nil, nil, nil, zap.NewNop())

	_, err := svc.UpdateStatus(context.Background(), "res-1", dto.UpdateReservationStatusRequest{Status: models.ReservationApproved})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}
