package scheduling

import (
	"sort"

	"github.com/noah-isme/studio-schedule-api/internal/models"
)

var dayNames = [...]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// DayName returns the English name for a 0=Sunday..6=Saturday index.
func DayName(day int) string {
	if day < 0 || day >= len(dayNames) {
		return ""
	}
	return dayNames[day]
}

// GroupByDay partitions entries by day of week. Days without entries are absent
// from the map. Input order is preserved inside each bucket.
func GroupByDay(entries []models.ScheduleEntry) map[int][]models.ScheduleEntry {
	grouped := make(map[int][]models.ScheduleEntry)
	for _, e := range entries {
		grouped[e.DayOfWeek] = append(grouped[e.DayOfWeek], e)
	}
	return grouped
}

// SortDay returns a copy of entries ordered by start minute, then end minute,
// then class name. Entries whose start does not parse go last.
func SortDay(entries []models.ScheduleEntry) []models.ScheduleEntry {
	sorted := append([]models.ScheduleEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return lessEntry(sorted[i], sorted[j])
	})
	return sorted
}

func lessEntry(a, b models.ScheduleEntry) bool {
	as, aok := MinuteOf(a.StartTime)
	bs, bok := MinuteOf(b.StartTime)
	if aok != bok {
		return aok
	}
	if as != bs {
		return as < bs
	}
	ae, _ := MinuteOf(a.EndTime)
	be, _ := MinuteOf(b.EndTime)
	if ae != be {
		return ae < be
	}
	return a.ClassTypeName < b.ClassTypeName
}

// FilterActive drops inactive entries unless includeInactive is set.
func FilterActive(entries []models.ScheduleEntry, includeInactive bool) []models.ScheduleEntry {
	if includeInactive {
		return append([]models.ScheduleEntry(nil), entries...)
	}
	out := make([]models.ScheduleEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsActive {
			out = append(out, e)
		}
	}
	return out
}

// CountByTeacher counts the entries each teacher is assigned to.
func CountByTeacher(entries []models.ScheduleEntry) map[string]int {
	counts := make(map[string]int)
	for _, e := range entries {
		for _, id := range NormalizeTeacherIDs(e.TeacherIDs) {
			counts[id]++
		}
	}
	return counts
}

// BuildWeek filters, groups and sorts entries into one column per day in days.
// Entries on days outside days are dropped from the columns but still counted
// in the summary so admins can spot them.
func BuildWeek(entries []models.ScheduleEntry, days []int, includeInactive bool) models.Week {
	visible := FilterActive(entries, includeInactive)
	grouped := GroupByDay(visible)

	ordered := append([]int(nil), days...)
	sort.Ints(ordered)

	week := models.Week{IncludeInactive: includeInactive, Days: make([]models.WeekDay, 0, len(ordered))}
	for _, d := range ordered {
		column := SortDay(grouped[d])
		if column == nil {
			column = []models.ScheduleEntry{}
		}
		week.Days = append(week.Days, models.WeekDay{Day: d, Name: DayName(d), Entries: column})
	}

	perTeacher := CountByTeacher(visible)
	active := 0
	for _, e := range visible {
		if e.IsActive {
			active++
		}
	}
	week.Summary = models.WeekSummary{
		TotalEntries:      len(visible),
		ActiveEntries:     active,
		TeacherCount:      len(perTeacher),
		EntriesPerTeacher: perTeacher,
	}
	return week
}
