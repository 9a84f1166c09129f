package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/unitime-io/unitime-api/internal/models"
)

// UnavailabilityRepository manages teacher absence records.
type UnavailabilityRepository struct {
	db *sqlx.DB
}

// NewUnavailabilityRepository constructs an UnavailabilityRepository.
func NewUnavailabilityRepository(db *sqlx.DB) *UnavailabilityRepository {
	return &UnavailabilityRepository{db: db}
}

// ListByTeacher returns a teacher's declared absences ordered by date.
func (r *UnavailabilityRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Unavailability, error) {
	const query = `SELECT id, teacher_id, date, day, start_time, end_time, reason, created_at
		FROM unavailabilities WHERE teacher_id = $1 ORDER BY date ASC`
	var items []models.Unavailability
	if err := r.db.SelectContext(ctx, &items, query, teacherID); err != nil {
		return nil, fmt.Errorf("list unavailabilities: %w", err)
	}
	return items, nil
}

// Exists reports whether a teacher is marked absent over a weekday start
// time. The generator consults this before committing a slot. An absence
// covers a window when its interval contains the start.
func (r *UnavailabilityRepository) Exists(ctx context.Context, teacherID, day, startTime string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM unavailabilities WHERE teacher_id = $1 AND day = $2 AND start_time <= $3 AND end_time > $3)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, teacherID, day, startTime); err != nil {
		return false, fmt.Errorf("check unavailability: %w", err)
	}
	return exists, nil
}

// Create inserts an absence record.
func (r *UnavailabilityRepository) Create(ctx context.Context, item *models.Unavailability) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO unavailabilities (id, teacher_id, date, day, start_time, end_time, reason, created_at)
		VALUES (:id, :teacher_id, :date, :day, :start_time, :end_time, :reason, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create unavailability: %w", err)
	}
	return nil
}

// Delete removes an absence record by id.
func (r *UnavailabilityRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM unavailabilities WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete unavailability: %w", err)
	}
	return nil
}
