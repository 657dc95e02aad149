package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"go.uber.org/zap"

	"github.com/noah-isme/studio-schedule-api/internal/models"
	"github.com/noah-isme/studio-schedule-api/internal/scheduling"
	"github.com/noah-isme/studio-schedule-api/pkg/config"
	appErrors "github.com/noah-isme/studio-schedule-api/pkg/errors"
	"github.com/noah-isme/studio-schedule-api/pkg/jobs"
)

const (
	weekCachePrefix  = "schedule:week:"
	weekCachePattern = weekCachePrefix + "*"

	// JobTypeGridRefresh is the job type that rebuilds the cached weekly grid.
	JobTypeGridRefresh = "grid.refresh"

	codeUnknownTeacher = "unknown_teacher"

	queryScheduleWeek      = "schedule_week"
	queryScheduleConflicts = "schedule_conflicts"
)

type scheduleRepository interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, int, error)
	FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error)
	ListByDay(ctx context.Context, day int) ([]models.ScheduleEntry, error)
	ListAll(ctx context.Context, includeInactive bool) ([]models.ScheduleEntry, error)
	ListByTeacher(ctx context.Context, teacherID string, includeInactive bool) ([]models.ScheduleEntry, error)
	Create(ctx context.Context, entry *models.ScheduleEntry) error
	Update(ctx context.Context, entry *models.ScheduleEntry) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}

type teacherDirectory interface {
	MissingIDs(ctx context.Context, ids []string) ([]string, error)
	Refs(ctx context.Context, ids []string) (map[string]models.TeacherRef, error)
}

type jobQueue interface {
	Enqueue(job jobs.Job) error
}

// UpsertScheduleRequest is the admin form payload for creating or replacing an entry.
// DayOfWeek is a pointer so a missing day is reported instead of defaulting to Sunday.
type UpsertScheduleRequest struct {
	DayOfWeek     *int     `json:"dayOfWeek"`
	StartTime     string   `json:"startTime"`
	EndTime       string   `json:"endTime"`
	ClassTypeName string   `json:"classTypeName" validate:"required,notblank,max=120"`
	TeacherIDs    []string `json:"teacherIds"`
	IsActive      *bool    `json:"isActive"`
}

// ConflictCheckRequest asks whether a draft entry would double-book a teacher.
type ConflictCheckRequest struct {
	ID            string   `json:"id"`
	DayOfWeek     *int     `json:"dayOfWeek"`
	StartTime     string   `json:"startTime"`
	EndTime       string   `json:"endTime"`
	ClassTypeName string   `json:"classTypeName"`
	TeacherIDs    []string `json:"teacherIds"`
}

// SetActiveRequest sets the active flag explicitly; a nil Active toggles it.
type SetActiveRequest struct {
	Active *bool `json:"isActive"`
}

// ScheduleMutationResult carries the saved entry and any double-bookings it created.
type ScheduleMutationResult struct {
	Entry     *models.ScheduleEntry     `json:"entry"`
	Conflicts []models.ScheduleConflict `json:"conflicts"`
}

// WeekQuery selects which weekly grid to build.
type WeekQuery struct {
	IncludeInactive bool
	TeacherID       string
}

// ScheduleServiceConfig carries studio policy for ScheduleService.
type ScheduleServiceConfig struct {
	Policy       scheduling.Policy
	ConflictMode string
	CacheTTL     time.Duration
}

// ScheduleService coordinates the weekly class schedule.
type ScheduleService struct {
	repo      scheduleRepository
	teachers  teacherDirectory
	cache     *CacheService
	metrics   *MetricsService
	queue     jobQueue
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ScheduleServiceConfig
}

// NewScheduleService instantiates ScheduleService.
func NewScheduleService(repo scheduleRepository, teachers teacherDirectory, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ScheduleServiceConfig) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	validate.RegisterTagNameFunc(jsonFieldName)
	_ = validate.RegisterValidation("notblank", validators.NotBlank)
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ConflictMode != config.ConflictModeBlock {
		cfg.ConflictMode = config.ConflictModeWarn
	}
	if len(cfg.Policy.AllowedDays) == 0 {
		cfg.Policy = scheduling.DefaultPolicy()
	}
	return &ScheduleService{
		repo:      repo,
		teachers:  teachers,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// UseQueue routes cache refreshes through a background queue instead of running them inline.
func (s *ScheduleService) UseQueue(queue jobQueue) {
	s.queue = queue
}

// Policy returns the active scheduling policy.
func (s *ScheduleService) Policy() scheduling.Policy {
	return s.cfg.Policy
}

// List returns schedule entries with pagination metadata.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, *models.Pagination, error) {
	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	if entries == nil {
		entries = []models.ScheduleEntry{}
	}
	s.attachTeachers(ctx, entries)
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return entries, pagination, nil
}

// Get returns a single entry.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.ScheduleEntry, error) {
	entry, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	single := []models.ScheduleEntry{*entry}
	s.attachTeachers(ctx, single)
	return &single[0], nil
}

// ListByTeacher returns a teacher's classes ordered by day then start time.
func (s *ScheduleService) ListByTeacher(ctx context.Context, teacherID string, includeInactive bool) ([]models.ScheduleEntry, error) {
	entries, err := s.repo.ListByTeacher(ctx, teacherID, includeInactive)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teacher schedules")
	}
	entries = scheduling.FilterActive(entries, includeInactive)
	grouped := scheduling.GroupByDay(entries)
	ordered := make([]models.ScheduleEntry, 0, len(entries))
	for day := 0; day < 7; day++ {
		ordered = append(ordered, scheduling.SortDay(grouped[day])...)
	}
	s.attachTeachers(ctx, ordered)
	return ordered, nil
}

// Create validates, conflict-checks and stores a new entry.
func (s *ScheduleService) Create(ctx context.Context, req UpsertScheduleRequest) (*ScheduleMutationResult, error) {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	validated, err := s.validate(ctx, req, "", active)
	if err != nil {
		return nil, err
	}

	entry := validated.Entry()
	conflicts, err := s.conflictsFor(ctx, entry)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, &entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}

	s.logger.Info("schedule created", zap.String("schedule_id", entry.ID), zap.Int("day_of_week", entry.DayOfWeek), zap.Int("conflicts", len(conflicts)))
	s.afterMutation(ctx, "create")
	return s.mutationResult(ctx, entry, conflicts), nil
}

// Update replaces every editable field of an entry. Concurrent edits resolve as last write wins.
func (s *ScheduleService) Update(ctx context.Context, id string, req UpsertScheduleRequest) (*ScheduleMutationResult, error) {
	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	active := existing.IsActive
	if req.IsActive != nil {
		active = *req.IsActive
	}
	validated, err := s.validate(ctx, req, existing.ID, active)
	if err != nil {
		return nil, err
	}

	entry := validated.Entry()
	entry.CreatedAt = existing.CreatedAt
	conflicts, err := s.conflictsFor(ctx, entry)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, &entry); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule")
	}

	s.logger.Info("schedule updated", zap.String("schedule_id", entry.ID), zap.Int("conflicts", len(conflicts)))
	s.afterMutation(ctx, "update")
	return s.mutationResult(ctx, entry, conflicts), nil
}

// SetActive sets or toggles the active flag. Hiding or showing a class never runs conflict checks.
func (s *ScheduleService) SetActive(ctx context.Context, id string, req SetActiveRequest) (*models.ScheduleEntry, error) {
	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	active := !existing.IsActive
	if req.Active != nil {
		active = *req.Active
	}
	if active == existing.IsActive {
		return existing, nil
	}

	if err := s.repo.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule status")
	}
	existing.IsActive = active
	existing.UpdatedAt = time.Now().UTC()

	s.logger.Info("schedule visibility changed", zap.String("schedule_id", id), zap.Bool("active", active))
	s.afterMutation(ctx, "toggle")
	return existing, nil
}

// ToggleActive flips the active flag.
func (s *ScheduleService) ToggleActive(ctx context.Context, id string) (*models.ScheduleEntry, error) {
	return s.SetActive(ctx, id, SetActiveRequest{})
}

// Delete removes an entry.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}

	s.logger.Info("schedule deleted", zap.String("schedule_id", id))
	s.afterMutation(ctx, "delete")
	return nil
}

// CheckConflicts validates a draft and reports double-bookings without saving anything.
func (s *ScheduleService) CheckConflicts(ctx context.Context, req ConflictCheckRequest) ([]models.ScheduleConflict, error) {
	candidate := scheduling.Candidate{
		ID:            req.ID,
		DayOfWeek:     dayOrMissing(req.DayOfWeek),
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		ClassTypeName: req.ClassTypeName,
		TeacherIDs:    req.TeacherIDs,
		IsActive:      true,
	}
	validated, errs := s.cfg.Policy.ValidateEntry(candidate)
	if len(errs) > 0 {
		return nil, validationError(detailsFromCore(errs))
	}

	started := time.Now()
	existing, err := s.repo.ListByDay(ctx, validated.DayOfWeek)
	s.metrics.ObserveDBQuery(queryScheduleConflicts, time.Since(started))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check schedule conflicts")
	}
	found := scheduling.FindConflicts(validated.Entry(), existing)
	s.metrics.RecordConflicts("dry_run", len(found))
	return conflictModels(found), nil
}

// Week builds the day-by-day grid, serving it from cache when possible.
func (s *ScheduleService) Week(ctx context.Context, query WeekQuery) (*models.Week, error) {
	week, _, err := s.LoadWeek(ctx, query)
	return week, err
}

// LoadWeek is Week that also reports whether the grid came from cache.
func (s *ScheduleService) LoadWeek(ctx context.Context, query WeekQuery) (*models.Week, bool, error) {
	key := weekCacheKey(query)
	var cached models.Week
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	week, err := s.buildWeek(ctx, query)
	if err != nil {
		return nil, false, err
	}
	_ = s.cache.Set(ctx, key, week, s.cfg.CacheTTL)
	return week, false, nil
}

// RefreshGrid re-warms the public active-only grid after a write already cleared the cache.
// It is the handler for JobTypeGridRefresh jobs.
func (s *ScheduleService) RefreshGrid(ctx context.Context, _ jobs.Job) error {
	err := s.refreshGrid(ctx)
	s.metrics.RecordGridRefresh(err)
	return err
}

func (s *ScheduleService) refreshGrid(ctx context.Context) error {
	if !s.cache.Enabled() {
		return nil
	}
	if err := s.cache.Invalidate(ctx, weekCachePattern); err != nil {
		return fmt.Errorf("invalidate week grid: %w", err)
	}
	query := WeekQuery{}
	week, err := s.buildWeek(ctx, query)
	if err != nil {
		return fmt.Errorf("rebuild week grid: %w", err)
	}
	if err := s.cache.Set(ctx, weekCacheKey(query), week, s.cfg.CacheTTL); err != nil {
		return fmt.Errorf("store week grid: %w", err)
	}
	return nil
}

func (s *ScheduleService) buildWeek(ctx context.Context, query WeekQuery) (*models.Week, error) {
	var (
		entries []models.ScheduleEntry
		err     error
	)
	started := time.Now()
	if query.TeacherID != "" {
		entries, err = s.repo.ListByTeacher(ctx, query.TeacherID, query.IncludeInactive)
	} else {
		entries, err = s.repo.ListAll(ctx, query.IncludeInactive)
	}
	s.metrics.ObserveDBQuery(queryScheduleWeek, time.Since(started))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load weekly schedule")
	}
	s.attachTeachers(ctx, entries)
	week := scheduling.BuildWeek(entries, s.cfg.Policy.Days(), query.IncludeInactive)
	return &week, nil
}

func (s *ScheduleService) load(ctx context.Context, id string) (*models.ScheduleEntry, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return entry, nil
}

// validate reports payload shape, core rule and roster problems together in one error.
func (s *ScheduleService) validate(ctx context.Context, req UpsertScheduleRequest, id string, active bool) (scheduling.ValidatedEntry, error) {
	var details []appErrors.Detail
	if err := s.validator.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return scheduling.ValidatedEntry{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
		}
		details = append(details, detailsFromValidator(verrs)...)
	}

	validated, errs := s.cfg.Policy.ValidateEntry(scheduling.Candidate{
		ID:            id,
		DayOfWeek:     dayOrMissing(req.DayOfWeek),
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		ClassTypeName: req.ClassTypeName,
		TeacherIDs:    req.TeacherIDs,
		IsActive:      active,
	})
	details = append(details, detailsFromCore(errs)...)

	if len(errs) == 0 && s.teachers != nil {
		missing, err := s.teachers.MissingIDs(ctx, validated.TeacherIDs)
		if err != nil {
			return scheduling.ValidatedEntry{}, err
		}
		for _, teacherID := range missing {
			details = append(details, appErrors.Detail{
				Field:   scheduling.FieldTeacherIDs,
				Code:    codeUnknownTeacher,
				Message: fmt.Sprintf("teacher %s does not exist", teacherID),
			})
		}
	}

	if len(details) > 0 {
		return scheduling.ValidatedEntry{}, validationError(details)
	}
	return validated, nil
}

// conflictsFor applies the configured conflict mode: warn returns the list, block refuses the save.
func (s *ScheduleService) conflictsFor(ctx context.Context, entry models.ScheduleEntry) ([]models.ScheduleConflict, error) {
	started := time.Now()
	existing, err := s.repo.ListByDay(ctx, entry.DayOfWeek)
	s.metrics.ObserveDBQuery(queryScheduleConflicts, time.Since(started))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check schedule conflicts")
	}
	found := conflictModels(scheduling.FindConflicts(entry, existing))
	s.metrics.RecordConflicts(s.cfg.ConflictMode, len(found))
	if len(found) == 0 {
		return found, nil
	}

	if s.cfg.ConflictMode == config.ConflictModeBlock {
		details := make([]appErrors.Detail, 0, len(found))
		for _, c := range found {
			details = append(details, appErrors.Detail{
				Field:   scheduling.FieldTeacherIDs,
				Code:    "double_booked",
				Message: fmt.Sprintf("%s already teaches %s on %s %s-%s", strings.Join(c.SharedTeacherIDs, ", "), c.ClassTypeName, scheduling.DayName(c.DayOfWeek), c.StartTime, c.EndTime),
			})
		}
		conflictErr := appErrors.WithDetails(appErrors.Clone(appErrors.ErrConflict, "teacher is already booked at this time"), details...)
		return nil, appErrors.WithData(conflictErr, found)
	}

	s.logger.Warn("saving schedule with teacher double-booking", zap.Int("day_of_week", entry.DayOfWeek), zap.String("start_time", entry.StartTime), zap.Int("conflicts", len(found)))
	return found, nil
}

func (s *ScheduleService) mutationResult(ctx context.Context, entry models.ScheduleEntry, conflicts []models.ScheduleConflict) *ScheduleMutationResult {
	single := []models.ScheduleEntry{entry}
	s.attachTeachers(ctx, single)
	if conflicts == nil {
		conflicts = []models.ScheduleConflict{}
	}
	return &ScheduleMutationResult{Entry: &single[0], Conflicts: conflicts}
}

// afterMutation clears every cached grid before returning so the next read sees the write.
// The queued job only re-warms the active-only grid.
func (s *ScheduleService) afterMutation(ctx context.Context, operation string) {
	s.metrics.RecordScheduleMutation(operation)
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, weekCachePattern); err != nil {
		s.logger.Warn("failed to invalidate week grid", zap.Error(err))
	}
	if s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(jobs.Job{Type: JobTypeGridRefresh, Key: JobTypeGridRefresh}); err != nil {
		s.logger.Warn("grid re-warm not queued", zap.Error(err))
	}
}

// attachTeachers labels entries with teacher display names. Lookup failures leave entries unlabelled.
func (s *ScheduleService) attachTeachers(ctx context.Context, entries []models.ScheduleEntry) {
	if s.teachers == nil || len(entries) == 0 {
		return
	}
	var ids []string
	for _, e := range entries {
		ids = append(ids, e.TeacherIDs...)
	}
	refs, err := s.teachers.Refs(ctx, ids)
	if err != nil {
		s.logger.Warn("failed to resolve teacher names", zap.Error(err))
		return
	}
	for i := range entries {
		labels := make([]models.TeacherRef, 0, len(entries[i].TeacherIDs))
		for _, id := range entries[i].TeacherIDs {
			if ref, ok := refs[id]; ok {
				labels = append(labels, ref)
			} else {
				labels = append(labels, models.TeacherRef{ID: id, DisplayName: id})
			}
		}
		entries[i].Teachers = labels
	}
}

func weekCacheKey(query WeekQuery) string {
	visibility := "active"
	if query.IncludeInactive {
		visibility = "all"
	}
	teacher := query.TeacherID
	if teacher == "" {
		teacher = "all"
	}
	return weekCachePrefix + visibility + ":" + teacher
}

func conflictModels(found []scheduling.Conflict) []models.ScheduleConflict {
	out := make([]models.ScheduleConflict, 0, len(found))
	for _, c := range found {
		out = append(out, c.Model())
	}
	return out
}

func dayOrMissing(day *int) int {
	if day == nil {
		return -1
	}
	return *day
}

func validationError(details []appErrors.Detail) *appErrors.Error {
	return appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "invalid schedule entry"), details...)
}

func detailsFromCore(errs scheduling.ValidationErrors) []appErrors.Detail {
	details := make([]appErrors.Detail, 0, len(errs))
	for _, fe := range errs {
		details = append(details, appErrors.Detail{Field: fe.Field, Code: fe.Code, Message: fe.Message()})
	}
	return details
}

func detailsFromValidator(errs validator.ValidationErrors) []appErrors.Detail {
	details := make([]appErrors.Detail, 0, len(errs))
	for _, fe := range errs {
		code := fe.Tag()
		message := fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
		switch fe.Tag() {
		case "required", "notblank":
			code = "required"
			message = fe.Field() + " is required"
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
		}
		details = append(details, appErrors.Detail{Field: fe.Field(), Code: code, Message: message})
	}
	return details
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return field.Name
	}
	return name
}
