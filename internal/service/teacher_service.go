package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/studio-schedule-api/internal/models"
	"github.com/noah-isme/studio-schedule-api/internal/scheduling"
	appErrors "github.com/noah-isme/studio-schedule-api/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Teacher, error)
}

// TeacherService exposes the read-only teacher roster used by the assignment checklist.
type TeacherService struct {
	repo   teacherRepository
	logger *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherRepository, logger *zap.Logger) *TeacherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, logger: logger}
}

// List returns teachers plus pagination data.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error) {
	teachers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return teachers, pagination, nil
}

// Get returns a teacher by id.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// MissingIDs returns the ids in ids that do not belong to any teacher, sorted.
func (s *TeacherService) MissingIDs(ctx context.Context, ids []string) ([]string, error) {
	wanted := scheduling.NormalizeTeacherIDs(ids)
	if len(wanted) == 0 {
		return nil, nil
	}
	found, err := s.repo.FindByIDs(ctx, wanted)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify teachers")
	}
	known := make(map[string]struct{}, len(found))
	for _, t := range found {
		known[t.ID] = struct{}{}
	}
	var missing []string
	for _, id := range wanted {
		if _, ok := known[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// Refs resolves display labels for ids. Ids without a roster record are omitted.
func (s *TeacherService) Refs(ctx context.Context, ids []string) (map[string]models.TeacherRef, error) {
	wanted := scheduling.NormalizeTeacherIDs(ids)
	refs := make(map[string]models.TeacherRef, len(wanted))
	if len(wanted) == 0 {
		return refs, nil
	}
	found, err := s.repo.FindByIDs(ctx, wanted)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher names")
	}
	for _, t := range found {
		refs[t.ID] = t.Ref()
	}
	return refs, nil
}
