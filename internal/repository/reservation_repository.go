package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/unitime-io/unitime-api/internal/models"
)

// ReservationRepository manages persistence for room reservations.
type ReservationRepository struct {
	db *sqlx.DB
}

// NewReservationRepository constructs a ReservationRepository.
func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

const reservationColumns = `id, teacher_id, room_id, course_id, group_id, reason, date, start_time, end_time, status, created_at, updated_at`

// ListByStatus returns reservations with a given status, newest first. An
// empty status returns all of them.
func (r *ReservationRepository) ListByStatus(ctx context.Context, status string) ([]models.Reservation, error) {
	var reservations []models.Reservation
	var err error
	if status == "" {
		query := fmt.Sprintf(`SELECT %s FROM reservations ORDER BY created_at DESC`, reservationColumns)
		err = r.db.SelectContext(ctx, &reservations, query)
	} else {
		query := fmt.Sprintf(`SELECT %s FROM reservations WHERE status = $1 ORDER BY created_at DESC`, reservationColumns)
		err = r.db.SelectContext(ctx, &reservations, query, status)
	}
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return reservations, nil
}

// ListByTeacher returns a teacher's own reservations, newest first.
func (r *ReservationRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Reservation, error) {
	query := fmt.Sprintf(`SELECT %s FROM reservations WHERE teacher_id = $1 ORDER BY created_at DESC`, reservationColumns)
	var reservations []models.Reservation
	if err := r.db.SelectContext(ctx, &reservations, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher reservations: %w", err)
	}
	return reservations, nil
}

// FindByID loads a reservation by id.
func (r *ReservationRepository) FindByID(ctx context.Context, id string) (*models.Reservation, error) {
	query := fmt.Sprintf(`SELECT %s FROM reservations WHERE id = $1`, reservationColumns)
	var reservation models.Reservation
	if err := r.db.GetContext(ctx, &reservation, query, id); err != nil {
		return nil, err
	}
	return &reservation, nil
}

// Create inserts a new reservation in pending status.
func (r *ReservationRepository) Create(ctx context.Context, reservation *models.Reservation) error {
	if reservation.ID == "" {
		reservation.ID = uuid.NewString()
	}
	if reservation.Status == "" {
		reservation.Status = models.ReservationPending
	}
	now := time.Now().UTC()
	if reservation.CreatedAt.IsZero() {
		reservation.CreatedAt = now
	}
	reservation.UpdatedAt = now

	const query = `INSERT INTO reservations (id, teacher_id, room_id, course_id, group_id, reason, date, start_time, end_time, status, created_at, updated_at)
		VALUES (:id, :teacher_id, :room_id, :course_id, :group_id, :reason, :date, :start_time, :end_time, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, reservation); err != nil {
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

// UpdateStatus transitions a reservation to a new status.
func (r *ReservationRepository) UpdateStatus(ctx context.Context, id, status string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE reservations SET status = $1, updated_at = $2 WHERE id = $3`, status, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update reservation status: %w", err)
	}
	return nil
}

// Delete removes a reservation by id.
func (r *ReservationRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	return nil
}
