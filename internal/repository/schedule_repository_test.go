package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studio-schedule-api/internal/models"
)

var scheduleRowColumns = []string{"id", "day_of_week", "start_time", "end_time", "class_type_name", "teacher_ids", "is_active", "created_at", "updated_at"}

func newScheduleRepoMock(t *testing.T) (*ScheduleRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewScheduleRepository(sqlx.NewDb(db, "sqlmock")), mock, func() { db.Close() }
}

func TestScheduleRepositoryList(t *testing.T) {
	repo, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()

	day := 1
	active := true
	now := time.Now()
	rows := sqlmock.NewRows(scheduleRowColumns).
		AddRow("s1", 1, "09:00", "10:00", "Hatha", "{T1,T2}", true, now, now)

	mock.ExpectQuery(regexp.QuoteMeta("FROM schedules WHERE 1=1 AND day_of_week = $1 AND $2 = ANY(teacher_ids) AND is_active = $3 AND LOWER(class_type_name) LIKE $4 ORDER BY start_time DESC, id ASC LIMIT 10 OFFSET 10")).
		WithArgs(1, "T1", true, "%hatha%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schedules WHERE 1=1 AND day_of_week = $1")).
		WithArgs(1, "T1", true, "%hatha%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	entries, total, err := repo.List(context.Background(), models.ScheduleFilter{
		DayOfWeek: &day,
		TeacherID: "T1",
		Active:    &active,
		Search:    "Hatha",
		Page:      2,
		PageSize:  10,
		SortBy:    "startTime",
		SortOrder: "desc",
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 11, total)
	assert.Equal(t, []string{"T1", "T2"}, []string(entries[0].TeacherIDs))
	assert.Equal(t, "09:00", entries[0].StartTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryListDefaults(t *testing.T) {
	repo, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("FROM schedules WHERE 1=1 ORDER BY day_of_week ASC, start_time ASC, id ASC LIMIT 20 OFFSET 0")).
		WillReturnRows(sqlmock.NewRows(scheduleRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schedules WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	entries, total, err := repo.List(context.Background(), models.ScheduleFilter{SortBy: "drop table", PageSize: 500})
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryFindByIDNotFound(t *testing.T) {
	repo, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("FROM schedules WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryListQueries(t *testing.T) {
	repo, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM schedules WHERE day_of_week = $1 ORDER BY start_time ASC")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows(scheduleRowColumns).AddRow("s1", 3, "09:00", "10:00", "Yin", "{T1}", false, now, now))
	byDay, err := repo.ListByDay(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, byDay, 1)
	assert.False(t, byDay[0].IsActive)

	mock.ExpectQuery(regexp.QuoteMeta("FROM schedules WHERE is_active = TRUE ORDER BY day_of_week ASC, start_time ASC")).
		WillReturnRows(sqlmock.NewRows(scheduleRowColumns))
	_, err = repo.ListAll(context.Background(), false)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("FROM schedules ORDER BY day_of_week ASC, start_time ASC")).
		WillReturnRows(sqlmock.NewRows(scheduleRowColumns))
	_, err = repo.ListAll(context.Background(), true)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("FROM schedules WHERE $1 = ANY(teacher_ids) AND is_active = TRUE ORDER BY")).
		WithArgs("T1").
		WillReturnRows(sqlmock.NewRows(scheduleRowColumns))
	_, err = repo.ListByTeacher(context.Background(), "T1", false)
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryCreateAssignsID(t *testing.T) {
	repo, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO schedules").
		WithArgs(sqlmock.AnyArg(), 2, "09:00", "10:00", "Vinyasa", sqlmock.AnyArg(), true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.ScheduleEntry{DayOfWeek: 2, StartTime: "09:00", EndTime: "10:00", ClassTypeName: "Vinyasa", TeacherIDs: []string{"T1"}, IsActive: true}
	require.NoError(t, repo.Create(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryMutationsReportMissingRows(t *testing.T) {
	repo, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()

	mock.ExpectExec("UPDATE schedules SET day_of_week").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Update(context.Background(), &models.ScheduleEntry{ID: "s1", DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00", TeacherIDs: []string{"T1"}}))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedules SET is_active = $2")).
		WithArgs("s1", false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetActive(context.Background(), "s1", false))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedules WHERE id = $1")).
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), "gone"), sql.ErrNoRows)

	assert.NoError(t, mock.ExpectationsWereMet())
}
