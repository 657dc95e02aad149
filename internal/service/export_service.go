package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/studio-schedule-api/internal/models"
	appErrors "github.com/noah-isme/studio-schedule-api/pkg/errors"
	"github.com/noah-isme/studio-schedule-api/pkg/export"
)

type weekSource interface {
	Week(ctx context.Context, query WeekQuery) (*models.Week, error)
}

// Column headers of the printable timetable.
var exportHeaders = []string{"Day", "Start", "End", "Class", "Teachers", "Active"}

// ExportResult is a rendered timetable ready to be streamed to the client.
type ExportResult struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportService renders the weekly grid for printing at the front desk.
type ExportService struct {
	weeks  weekSource
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(weeks weekSource, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{weeks: weeks, logger: logger, now: time.Now}
}

// ExportWeek renders the weekly grid in the requested format (csv or pdf).
func (s *ExportService) ExportWeek(ctx context.Context, format string, includeInactive bool) (*ExportResult, error) {
	renderer, err := export.ForFormat(strings.ToLower(strings.TrimSpace(format)))
	if err != nil {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "unsupported export format"), appErrors.Detail{
			Field:   "format",
			Code:    "unsupported",
			Message: err.Error(),
		})
	}

	week, err := s.weeks.Week(ctx, WeekQuery{IncludeInactive: includeInactive})
	if err != nil {
		return nil, err
	}

	generated := s.now().UTC()
	dataset := weekDataset(week, includeInactive, generated)
	content, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render schedule export")
	}

	s.logger.Info("schedule exported", zap.String("format", renderer.Extension()), zap.Int("rows", len(dataset.Rows)), zap.Bool("include_inactive", includeInactive))
	return &ExportResult{
		Filename:    fmt.Sprintf("weekly-schedule-%s.%s", generated.Format("20060102"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Content:     content,
	}, nil
}

func weekDataset(week *models.Week, includeInactive bool, generated time.Time) export.Dataset {
	title := "Weekly class schedule"
	if includeInactive {
		title += " (including hidden classes)"
	}
	dataset := export.Dataset{
		Title:   fmt.Sprintf("%s - %s", title, generated.Format("2006-01-02")),
		Headers: exportHeaders,
	}
	for _, day := range week.Days {
		for _, entry := range day.Entries {
			active := "yes"
			if !entry.IsActive {
				active = "no"
			}
			dataset.Rows = append(dataset.Rows, map[string]string{
				"Day":      day.Name,
				"Start":    entry.StartTime,
				"End":      entry.EndTime,
				"Class":    entry.ClassTypeName,
				"Teachers": teacherLabel(entry),
				"Active":   active,
			})
		}
	}
	return dataset
}

func teacherLabel(entry models.ScheduleEntry) string {
	names := make([]string, 0, len(entry.TeacherIDs))
	if len(entry.Teachers) > 0 {
		for _, t := range entry.Teachers {
			names = append(names, t.DisplayName)
		}
	} else {
		names = append(names, entry.TeacherIDs...)
	}
	return strings.Join(names, ", ")
}
