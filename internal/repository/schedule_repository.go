package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/studio-schedule-api/internal/models"
)

// start_time and end_time are TIME columns; render them as HH:MM so callers never see seconds.
const scheduleColumns = `id, day_of_week, to_char(start_time, 'HH24:MI') AS start_time, to_char(end_time, 'HH24:MI') AS end_time, class_type_name, teacher_ids, is_active, created_at, updated_at`

// ScheduleRepository provides persistence for weekly schedule entries.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// List returns schedule entries with optional filtering and pagination.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, int, error) {
	base := "FROM schedules WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.DayOfWeek != nil {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, *filter.DayOfWeek)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(teacher_ids)", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(class_type_name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "day_of_week"
	}
	allowedSorts := map[string]string{
		"day_of_week":     "day_of_week",
		"dayOfWeek":       "day_of_week",
		"start_time":      "start_time",
		"startTime":       "start_time",
		"class_type_name": "class_type_name",
		"classTypeName":   "class_type_name",
		"created_at":      "created_at",
		"updated_at":      "updated_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "day_of_week"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	orderBy := column + " " + order
	if column == "day_of_week" {
		orderBy += ", start_time ASC"
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s, id ASC LIMIT %d OFFSET %d", scheduleColumns, base, orderBy, size, offset)
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list schedules: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count schedules: %w", err)
	}

	return entries, total, nil
}

// FindByID loads a schedule entry by id.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM schedules WHERE id = $1", scheduleColumns)
	var entry models.ScheduleEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListByDay returns every entry on a day, active or not, for conflict checks.
func (r *ScheduleRepository) ListByDay(ctx context.Context, day int) ([]models.ScheduleEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM schedules WHERE day_of_week = $1 ORDER BY start_time ASC", scheduleColumns)
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, day); err != nil {
		return nil, fmt.Errorf("list schedules by day: %w", err)
	}
	return entries, nil
}

// ListAll returns the whole weekly schedule, optionally including inactive entries.
func (r *ScheduleRepository) ListAll(ctx context.Context, includeInactive bool) ([]models.ScheduleEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM schedules", scheduleColumns)
	if !includeInactive {
		query += " WHERE is_active = TRUE"
	}
	query += " ORDER BY day_of_week ASC, start_time ASC"
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("list all schedules: %w", err)
	}
	return entries, nil
}

// ListByTeacher returns the entries a teacher is assigned to.
func (r *ScheduleRepository) ListByTeacher(ctx context.Context, teacherID string, includeInactive bool) ([]models.ScheduleEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM schedules WHERE $1 = ANY(teacher_ids)", scheduleColumns)
	if !includeInactive {
		query += " AND is_active = TRUE"
	}
	query += " ORDER BY day_of_week ASC, start_time ASC"
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, teacherID); err != nil {
		return nil, fmt.Errorf("list schedules by teacher: %w", err)
	}
	return entries, nil
}

// Create stores a new schedule entry.
func (r *ScheduleRepository) Create(ctx context.Context, entry *models.ScheduleEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	const query = `INSERT INTO schedules (id, day_of_week, start_time, end_time, class_type_name, teacher_ids, is_active, created_at, updated_at) VALUES (:id, :day_of_week, :start_time, :end_time, :class_type_name, :teacher_ids, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// Update overwrites every mutable field of an entry. Returns sql.ErrNoRows when the id is gone.
func (r *ScheduleRepository) Update(ctx context.Context, entry *models.ScheduleEntry) error {
	entry.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schedules SET day_of_week = :day_of_week, start_time = :start_time, end_time = :end_time, class_type_name = :class_type_name, teacher_ids = :teacher_ids, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, entry)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	return expectAffected(res, "update schedule")
}

// SetActive flips only the active flag.
func (r *ScheduleRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE schedules SET is_active = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, active, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set schedule active: %w", err)
	}
	return expectAffected(res, "set schedule active")
}

// Delete removes a schedule entry by id.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return expectAffected(res, "delete schedule")
}

func expectAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
