package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookingColumns = []string{"session_id", "class_id", "class_code", "class_name", "resource_id", "session_date", "start_time", "end_time"}

func TestBookingRepositoryFindOverlappingBookings(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	date := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(bookingColumns).
		AddRow(int64(50), int64(1), "X", "Class X", int64(101), date, "09:00:00", "11:00:00")
	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(t.start_time, TIME '00:00') < $5::time")).
		WithArgs(int64(101), "2025-02-03", int64(2), "10:00", "12:00").
		WillReturnRows(rows)

	bookings, err := repo.FindOverlappingBookings(context.Background(), nil, BookingQuery{
		ResourceID:     101,
		Date:           date,
		StartTime:      "10:00",
		EndTime:        "12:00",
		ExcludeClassID: 2,
	})
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, "Class X", bookings[0].ClassName)
	assert.Equal(t, "09:00:00", *bookings[0].StartTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryListBookingsSkipsEmptyInput(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	bookings, err := repo.ListBookings(context.Background(), nil, time.Now(), time.Now(), 1)
	require.NoError(t, err)
	assert.Nil(t, bookings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryFindMaintenanceWindows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	from := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	rows := sqlmock.NewRows([]string{"id", "resource_id", "starts_at", "ends_at", "reason"}).
		AddRow(int64(1), int64(101), from.Add(8*time.Hour), from.Add(12*time.Hour), "projector repair")
	mock.ExpectQuery(regexp.QuoteMeta("FROM resource_maintenance_windows")).
		WithArgs(int64(101), from, to).
		WillReturnRows(rows)

	windows, err := repo.FindMaintenanceWindows(context.Background(), nil, 101, from, to)
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, "projector repair", *windows[0].Reason)
}
