package scheduling

import (
	"sort"
	"strconv"
	"strings"

	"github.com/noah-isme/studio-schedule-api/internal/models"
)

// DefaultOpenDays is Monday(1) through Saturday(6); Sunday stays closed.
var DefaultOpenDays = []int{1, 2, 3, 4, 5, 6}

// Policy is the studio's configurable scheduling rule set.
type Policy struct {
	AllowedDays []int
}

// DefaultPolicy returns the Monday..Saturday policy.
func DefaultPolicy() Policy {
	return NewPolicy(DefaultOpenDays)
}

// NewPolicy builds a policy from a list of open days; an empty list means DefaultOpenDays.
func NewPolicy(days []int) Policy {
	if len(days) == 0 {
		days = DefaultOpenDays
	}
	seen := make(map[int]struct{}, len(days))
	allowed := make([]int, 0, len(days))
	for _, d := range days {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		allowed = append(allowed, d)
	}
	sort.Ints(allowed)
	return Policy{AllowedDays: allowed}
}

// Days returns the open days in ascending order.
func (p Policy) Days() []int {
	if len(p.AllowedDays) == 0 {
		return append([]int(nil), DefaultOpenDays...)
	}
	return append([]int(nil), p.AllowedDays...)
}

// Allows reports whether day is an open studio day.
func (p Policy) Allows(day int) bool {
	for _, d := range p.Days() {
		if d == day {
			return true
		}
	}
	return false
}

// Candidate is an entry as submitted by a form, before validation.
type Candidate struct {
	ID            string
	DayOfWeek     int
	StartTime     string
	EndTime       string
	ClassTypeName string
	TeacherIDs    []string
	IsActive      bool
}

// ValidatedEntry is a candidate that passed every check, with normalized fields.
type ValidatedEntry struct {
	Candidate
	Start Clock
	End   Clock
}

// Entry converts the validated candidate into the persisted shape.
func (v ValidatedEntry) Entry() models.ScheduleEntry {
	return models.ScheduleEntry{
		ID:            v.ID,
		DayOfWeek:     v.DayOfWeek,
		StartTime:     v.StartTime,
		EndTime:       v.EndTime,
		ClassTypeName: v.ClassTypeName,
		TeacherIDs:    append([]string(nil), v.TeacherIDs...),
		IsActive:      v.IsActive,
	}
}

// ValidateTimeRange checks both times parse and that end is strictly after start.
func ValidateTimeRange(start, end string) error {
	s, err := ParseClock(start)
	if err != nil {
		return fieldError(FieldStartTime, CodeInvalidFormat, start, ErrInvalidTimeFormat)
	}
	e, err := ParseClock(end)
	if err != nil {
		return fieldError(FieldEndTime, CodeInvalidFormat, end, ErrInvalidTimeFormat)
	}
	if e <= s {
		return fieldError(FieldEndTime, CodeEndNotAfterStart, "", ErrEndNotAfterStart)
	}
	return nil
}

// ValidateTeachers fails when no teacher is assigned. Blank ids do not count.
func ValidateTeachers(teacherIDs []string) error {
	if len(NormalizeTeacherIDs(teacherIDs)) == 0 {
		return fieldError(FieldTeacherIDs, CodeNoneSelected, "", ErrNoTeacherSelected)
	}
	return nil
}

// ValidateDay fails when day is not one of the policy's open days.
func (p Policy) ValidateDay(day int) error {
	if !p.Allows(day) {
		return fieldError(FieldDayOfWeek, CodeOutOfRange, strconv.Itoa(day), ErrDayOutOfRange)
	}
	return nil
}

// ValidateEntry runs every check and reports all failures together.
func (p Policy) ValidateEntry(c Candidate) (ValidatedEntry, ValidationErrors) {
	var errs ValidationErrors

	if err := p.ValidateDay(c.DayOfWeek); err != nil {
		errs = append(errs, err.(*FieldError))
	}

	start, startErr := ParseClock(c.StartTime)
	if startErr != nil {
		errs = append(errs, fieldError(FieldStartTime, CodeInvalidFormat, c.StartTime, ErrInvalidTimeFormat))
	}
	end, endErr := ParseClock(c.EndTime)
	if endErr != nil {
		errs = append(errs, fieldError(FieldEndTime, CodeInvalidFormat, c.EndTime, ErrInvalidTimeFormat))
	}
	if startErr == nil && endErr == nil && end <= start {
		errs = append(errs, fieldError(FieldEndTime, CodeEndNotAfterStart, "", ErrEndNotAfterStart))
	}

	if err := ValidateTeachers(c.TeacherIDs); err != nil {
		errs = append(errs, err.(*FieldError))
	}

	if len(errs) > 0 {
		return ValidatedEntry{}, errs
	}

	normalized := c
	normalized.StartTime = start.String()
	normalized.EndTime = end.String()
	normalized.ClassTypeName = strings.TrimSpace(c.ClassTypeName)
	normalized.TeacherIDs = NormalizeTeacherIDs(c.TeacherIDs)
	return ValidatedEntry{Candidate: normalized, Start: start, End: end}, nil
}

// NormalizeTeacherIDs trims, drops blanks, de-duplicates and sorts teacher ids.
func NormalizeTeacherIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
