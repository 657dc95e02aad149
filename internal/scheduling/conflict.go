package scheduling

import "github.com/noah-isme/studio-schedule-api/internal/models"

// Conflict is an existing entry that double-books at least one teacher of a candidate.
type Conflict struct {
	Entry            models.ScheduleEntry
	SharedTeacherIDs []string
	OverlapStart     Clock
	OverlapEnd       Clock
}

// Model converts the conflict into its API shape.
func (c Conflict) Model() models.ScheduleConflict {
	return models.ScheduleConflict{
		ScheduleID:       c.Entry.ID,
		DayOfWeek:        c.Entry.DayOfWeek,
		StartTime:        c.Entry.StartTime,
		EndTime:          c.Entry.EndTime,
		ClassTypeName:    c.Entry.ClassTypeName,
		IsActive:         c.Entry.IsActive,
		SharedTeacherIDs: append([]string(nil), c.SharedTeacherIDs...),
		OverlapStart:     c.OverlapStart.String(),
		OverlapEnd:       c.OverlapEnd.String(),
	}
}

// FindConflicts returns every entry in existing that sits on the candidate's day,
// shares a teacher with it and overlaps its [start,end) window. An entry with
// the candidate's own id is ignored so edits do not collide with themselves.
// Inactive entries still count: the teacher is still booked.
func FindConflicts(candidate models.ScheduleEntry, existing []models.ScheduleEntry) []Conflict {
	start, err := ParseClock(candidate.StartTime)
	if err != nil {
		return nil
	}
	end, err := ParseClock(candidate.EndTime)
	if err != nil || end <= start {
		return nil
	}

	teachers := make(map[string]struct{}, len(candidate.TeacherIDs))
	for _, id := range NormalizeTeacherIDs(candidate.TeacherIDs) {
		teachers[id] = struct{}{}
	}
	if len(teachers) == 0 {
		return nil
	}

	var conflicts []Conflict
	for _, other := range existing {
		if other.DayOfWeek != candidate.DayOfWeek {
			continue
		}
		if candidate.ID != "" && other.ID == candidate.ID {
			continue
		}
		shared := sharedTeachers(teachers, other.TeacherIDs)
		if len(shared) == 0 {
			continue
		}
		otherStart, err := ParseClock(other.StartTime)
		if err != nil {
			continue
		}
		otherEnd, err := ParseClock(other.EndTime)
		if err != nil {
			continue
		}
		if start < otherEnd && otherStart < end {
			conflicts = append(conflicts, Conflict{
				Entry:            other,
				SharedTeacherIDs: shared,
				OverlapStart:     maxClock(start, otherStart),
				OverlapEnd:       minClock(end, otherEnd),
			})
		}
	}
	return conflicts
}

// Overlaps reports whether two entries would double-book a shared teacher.
func Overlaps(a, b models.ScheduleEntry) bool {
	a.ID, b.ID = "", ""
	return len(FindConflicts(a, []models.ScheduleEntry{b})) > 0
}

func sharedTeachers(set map[string]struct{}, ids []string) []string {
	var shared []string
	for _, id := range NormalizeTeacherIDs(ids) {
		if _, ok := set[id]; ok {
			shared = append(shared, id)
		}
	}
	return shared
}

func maxClock(a, b Clock) Clock {
	if a > b {
		return a
	}
	return b
}

func minClock(a, b Clock) Clock {
	if a < b {
		return a
	}
	return b
}
