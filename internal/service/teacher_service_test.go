package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studio-schedule-api/internal/models"
	appErrors "github.com/noah-isme/studio-schedule-api/pkg/errors"
)

type mockTeacherRepo struct {
	items      map[string]models.Teacher
	listResult []models.Teacher
	listTotal  int
	err        error
	lookups    [][]string
}

func newMockTeacherRepo(teachers ...models.Teacher) *mockTeacherRepo {
	repo := &mockTeacherRepo{items: map[string]models.Teacher{}}
	for _, t := range teachers {
		repo.items[t.ID] = t
	}
	return repo
}

func (m *mockTeacherRepo) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	return m.listResult, m.listTotal, nil
}

func (m *mockTeacherRepo) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if m.err != nil {
		return nil, m.err
	}
	if teacher, ok := m.items[id]; ok {
		return &teacher, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTeacherRepo) FindByIDs(ctx context.Context, ids []string) ([]models.Teacher, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lookups = append(m.lookups, ids)
	var out []models.Teacher
	for _, id := range ids {
		if teacher, ok := m.items[id]; ok {
			out = append(out, teacher)
		}
	}
	return out, nil
}

func TestTeacherServiceList(t *testing.T) {
	repo := newMockTeacherRepo()
	repo.listResult = []models.Teacher{{ID: "t1", FullName: "Ana"}}
	repo.listTotal = 41
	svc := NewTeacherService(repo, nil)

	teachers, pagination, err := svc.List(context.Background(), models.TeacherFilter{Page: 3, PageSize: 500})
	require.NoError(t, err)
	assert.Len(t, teachers, 1)
	assert.Equal(t, 3, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 41, pagination.TotalCount)
}

func TestTeacherServiceGet(t *testing.T) {
	svc := NewTeacherService(newMockTeacherRepo(models.Teacher{ID: "t1", Email: "ana@studio.test"}), nil)

	teacher, err := svc.Get(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "ana@studio.test", teacher.DisplayName())

	_, err = svc.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTeacherServiceMissingIDs(t *testing.T) {
	repo := newMockTeacherRepo(models.Teacher{ID: "t1"}, models.Teacher{ID: "t2"})
	svc := NewTeacherService(repo, nil)

	missing, err := svc.MissingIDs(context.Background(), []string{"t2", "ghost", " t1 ", "ghost", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"ghost"}, missing)
	require.Len(t, repo.lookups, 1)
	assert.Equal(t, []string{"ghost", "t1", "t2"}, repo.lookups[0])

	none, err := svc.MissingIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.Len(t, repo.lookups, 1, "empty input skips the lookup")
}

func TestTeacherServiceRefs(t *testing.T) {
	repo := newMockTeacherRepo(models.Teacher{ID: "t1", FullName: "Ana Lima"})
	svc := NewTeacherService(repo, nil)

	refs, err := svc.Refs(context.Background(), []string{"t1", "t9"})
	require.NoError(t, err)
	assert.Equal(t, map[string]models.TeacherRef{"t1": {ID: "t1", DisplayName: "Ana Lima"}}, refs)

	repo.err = errors.New("db down")
	_, err = svc.Refs(context.Background(), []string{"t1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
