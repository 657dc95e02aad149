package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studio-schedule-api/internal/middleware"
	"github.com/noah-isme/studio-schedule-api/internal/models"
	"github.com/noah-isme/studio-schedule-api/internal/service"
	appErrors "github.com/noah-isme/studio-schedule-api/pkg/errors"
	"github.com/noah-isme/studio-schedule-api/pkg/response"
)

type scheduleService interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.ScheduleEntry, error)
	ListByTeacher(ctx context.Context, teacherID string, includeInactive bool) ([]models.ScheduleEntry, error)
	Create(ctx context.Context, req service.UpsertScheduleRequest) (*service.ScheduleMutationResult, error)
	Update(ctx context.Context, id string, req service.UpsertScheduleRequest) (*service.ScheduleMutationResult, error)
	SetActive(ctx context.Context, id string, req service.SetActiveRequest) (*models.ScheduleEntry, error)
	Delete(ctx context.Context, id string) error
	CheckConflicts(ctx context.Context, req service.ConflictCheckRequest) ([]models.ScheduleConflict, error)
	LoadWeek(ctx context.Context, query service.WeekQuery) (*models.Week, bool, error)
}

type scheduleExporter interface {
	ExportWeek(ctx context.Context, format string, includeInactive bool) (*service.ExportResult, error)
}

// ScheduleHandler manages weekly class schedule endpoints.
type ScheduleHandler struct {
	service  scheduleService
	exporter scheduleExporter
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(svc scheduleService, exporter scheduleExporter) *ScheduleHandler {
	return &ScheduleHandler{service: svc, exporter: exporter}
}

// List godoc
// @Summary List schedule entries
// @Tags Schedules
// @Produce json
// @Param dayOfWeek query int false "Filter by day (0=Sunday..6=Saturday)"
// @Param teacherId query string false "Filter by assigned teacher"
// @Param active query bool false "Filter by visibility"
// @Param q query string false "Search class name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param sort query string false "Sort column"
// @Param order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	var filter models.ScheduleFilter
	if raw := c.Query("dayOfWeek"); raw != "" {
		day, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, invalidQuery("dayOfWeek", "dayOfWeek must be a number between 0 and 6"))
			return
		}
		filter.DayOfWeek = &day
	}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, invalidQuery("active", "active must be true or false"))
			return
		}
		filter.Active = &active
	}
	filter.TeacherID = strings.TrimSpace(c.Query("teacherId"))
	filter.Search = strings.TrimSpace(c.Query("q"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	entries, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

// Get godoc
// @Summary Get schedule entry
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id} [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	entry, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Week godoc
// @Summary Weekly class grid
// @Description Entries grouped by open studio day and sorted by start time. Hidden classes are only included for admins.
// @Tags Schedules
// @Produce json
// @Param includeInactive query bool false "Include hidden classes (admin only)"
// @Param teacherId query string false "Restrict the grid to one teacher"
// @Success 200 {object} response.Envelope
// @Router /schedules/week [get]
func (h *ScheduleHandler) Week(c *gin.Context) {
	claims := middleware.Claims(c)
	query := service.WeekQuery{
		IncludeInactive: claims.IsAdmin() && queryBool(c, "includeInactive"),
		TeacherID:       strings.TrimSpace(c.Query("teacherId")),
	}

	week, hit, err := h.service.LoadWeek(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, week, nil, middleware.ResponseMeta(c))
}

// Export godoc
// @Summary Export weekly grid
// @Tags Schedules
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Param includeInactive query bool false "Include hidden classes"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /schedules/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	result, err := h.exporter.ExportWeek(c.Request.Context(), c.DefaultQuery("format", "csv"), queryBool(c, "includeInactive"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Content)
}

// CheckConflicts godoc
// @Summary Dry-run teacher conflict check
// @Description Validates a draft entry and lists existing entries that would double-book one of its teachers. Nothing is saved.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body service.ConflictCheckRequest true "Draft entry"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedules/conflicts [post]
func (h *ScheduleHandler) CheckConflicts(c *gin.Context) {
	var req service.ConflictCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	conflicts, err := h.service.CheckConflicts(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, conflicts, nil, map[string]interface{}{"hasConflicts": len(conflicts) > 0})
}

// Create godoc
// @Summary Create schedule entry
// @Description Returns 201 with any teacher double-bookings in meta.conflicts, or 409 when conflict mode is block.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body service.UpsertScheduleRequest true "Schedule payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedules [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req service.UpsertScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.Entry != nil {
		middleware.SetAuditResource(c, result.Entry.ID)
	}
	response.Created(c, result.Entry, map[string]interface{}{"conflicts": result.Conflicts})
}

// Update godoc
// @Summary Replace schedule entry
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body service.UpsertScheduleRequest true "Schedule payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedules/{id} [put]
func (h *ScheduleHandler) Update(c *gin.Context) {
	var req service.UpsertScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result.Entry, nil, map[string]interface{}{"conflicts": result.Conflicts})
}

// SetActive godoc
// @Summary Show or hide a class
// @Description With an empty body the flag is toggled.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body service.SetActiveRequest false "Explicit flag"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id}/active [patch]
func (h *ScheduleHandler) SetActive(c *gin.Context) {
	var req service.SetActiveRequest
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	entry, err := h.service.SetActive(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Delete godoc
// @Summary Delete schedule entry
// @Tags Schedules
// @Param id path string true "Schedule ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListByTeacher godoc
// @Summary A teacher's weekly classes
// @Tags Teachers
// @Produce json
// @Param id path string true "Teacher ID"
// @Param includeInactive query bool false "Include hidden classes (admin or the teacher)"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/schedules [get]
func (h *ScheduleHandler) ListByTeacher(c *gin.Context) {
	teacherID := c.Param("id")
	claims := middleware.Claims(c)
	includeInactive := queryBool(c, "includeInactive") && (claims.IsAdmin() || claims.ActsAsTeacher(teacherID))

	entries, err := h.service.ListByTeacher(c.Request.Context(), teacherID, includeInactive)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

func queryBool(c *gin.Context, key string) bool {
	value, err := strconv.ParseBool(c.Query(key))
	return err == nil && value
}

func invalidQuery(field, message string) error {
	return appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "invalid query parameter"), appErrors.Detail{
		Field:   field,
		Code:    "invalid_format",
		Message: message,
	})
}
