package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/unitime-io/unitime-api/internal/models"
)

func TestRoomRepositoryListAppliesFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRoomRepository(db)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "name", "capacity", "type", "equipment", "created_at", "updated_at"}).
		AddRow("r1", "Lab 1", 24, models.RoomPracticalLab, nil, now, now)
	mock.ExpectQuery("SELECT id, name, capacity, type, equipment, created_at, updated_at FROM rooms").
		WithArgs(models.RoomPracticalLab, 20, "%lab%").
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(models.RoomPracticalLab, 20, "%lab%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rooms, total, err := repo.List(context.Background(), models.RoomFilter{
		Type:        models.RoomPracticalLab,
		MinCapacity: 20,
		Search:      "Lab",
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, rooms, 1)
	require.Equal(t, "Lab 1", rooms[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepositoryListRejectsUnknownSortColumn(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRoomRepository(db)
	mock.ExpectQuery("ORDER BY name ASC").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "capacity", "type", "equipment", "created_at", "updated_at"}))
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, _, err := repo.List(context.Background(), models.RoomFilter{SortBy: "capacity; DROP TABLE rooms"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
