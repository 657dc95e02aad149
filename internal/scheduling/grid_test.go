package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studio-schedule-api/internal/models"
)

func entry(id string, day int, start, end string, active bool, teachers ...string) models.ScheduleEntry {
	return models.ScheduleEntry{
		ID:            id,
		DayOfWeek:     day,
		StartTime:     start,
		EndTime:       end,
		ClassTypeName: "Class " + id,
		TeacherIDs:    teachers,
		IsActive:      active,
	}
}

func startTimes(entries []models.ScheduleEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.StartTime)
	}
	return out
}

func TestGroupByDayKeepsEveryEntryOnce(t *testing.T) {
	entries := []models.ScheduleEntry{
		entry("a", 1, "09:00", "10:00", true, "T1"),
		entry("b", 3, "09:00", "10:00", true, "T1"),
		entry("c", 1, "18:00", "19:00", false, "T2"),
		entry("d", 6, "08:00", "09:00", true, "T3"),
		entry("e", 0, "08:00", "09:00", true, "T3"),
	}

	grouped := GroupByDay(entries)

	total := 0
	seen := map[string]int{}
	for day, bucket := range grouped {
		total += len(bucket)
		for _, e := range bucket {
			assert.Equal(t, day, e.DayOfWeek)
			seen[e.ID]++
		}
	}
	assert.Equal(t, len(entries), total)
	for _, e := range entries {
		assert.Equal(t, 1, seen[e.ID], e.ID)
	}
	_, hasTuesday := grouped[2]
	assert.False(t, hasTuesday, "empty days are absent")
	assert.Empty(t, GroupByDay(nil))
}

func TestSortDayUsesNumericTimes(t *testing.T) {
	entries := []models.ScheduleEntry{
		entry("a", 1, "14:00", "15:00", true, "T1"),
		entry("b", 1, "09:30", "10:30", true, "T1"),
		entry("c", 1, "10:00", "11:00", true, "T1"),
	}
	assert.Equal(t, []string{"09:30", "10:00", "14:00"}, startTimes(SortDay(entries)))

	unpadded := []models.ScheduleEntry{
		entry("x", 1, "10:00", "11:00", true, "T1"),
		entry("y", 1, "9:00", "9:45", true, "T1"),
	}
	assert.Equal(t, []string{"9:00", "10:00"}, startTimes(SortDay(unpadded)))
}

func TestSortDayTieBreaksAndBadTimes(t *testing.T) {
	entries := []models.ScheduleEntry{
		entry("broken", 1, "soon", "later", true, "T1"),
		entry("long", 1, "09:00", "11:00", true, "T1"),
		entry("short", 1, "09:00", "10:00", true, "T2"),
	}
	sorted := SortDay(entries)
	require.Len(t, sorted, 3)
	assert.Equal(t, "short", sorted[0].ID)
	assert.Equal(t, "long", sorted[1].ID)
	assert.Equal(t, "broken", sorted[2].ID)
	assert.Equal(t, "broken", entries[0].ID, "input is not reordered")
}

func TestFilterActive(t *testing.T) {
	entries := []models.ScheduleEntry{
		entry("a", 1, "09:00", "10:00", true, "T1"),
		entry("b", 1, "10:00", "11:00", false, "T1"),
		entry("c", 2, "10:00", "11:00", true, "T2"),
	}

	activeOnly := FilterActive(entries, false)
	assert.Len(t, activeOnly, 2)
	assert.Equal(t, activeOnly, FilterActive(activeOnly, false), "filtering twice is idempotent")
	assert.Len(t, FilterActive(entries, true), 3)
}

func TestToggleActiveHidesEntryFromActiveView(t *testing.T) {
	entries := []models.ScheduleEntry{
		entry("a", 1, "09:00", "10:00", true, "T1"),
		entry("b", 2, "09:00", "10:00", true, "T2"),
	}
	entries[0].IsActive = !entries[0].IsActive

	activeIDs := []string{}
	for _, e := range FilterActive(entries, false) {
		activeIDs = append(activeIDs, e.ID)
	}
	assert.Equal(t, []string{"b"}, activeIDs)

	all := FilterActive(entries, true)
	assert.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
}

func TestCountByTeacher(t *testing.T) {
	entries := []models.ScheduleEntry{
		entry("a", 1, "09:00", "10:00", true, "T1", "T2"),
		entry("b", 2, "09:00", "10:00", true, "T1", "T1"),
		entry("c", 3, "09:00", "10:00", false, "T3"),
	}
	counts := CountByTeacher(entries)
	assert.Equal(t, map[string]int{"T1": 2, "T2": 1, "T3": 1}, counts)
	assert.Len(t, counts, 3)
}

func TestBuildWeek(t *testing.T) {
	entries := []models.ScheduleEntry{
		entry("a", 1, "18:00", "19:00", true, "T1"),
		entry("b", 1, "7:30", "8:30", true, "T2"),
		entry("c", 3, "10:00", "11:00", false, "T3"),
		entry("d", 0, "10:00", "11:00", true, "T4"),
	}

	week := BuildWeek(entries, []int{6, 1, 2, 3, 4, 5}, false)
	require.Len(t, week.Days, 6)
	assert.Equal(t, 1, week.Days[0].Day)
	assert.Equal(t, "Monday", week.Days[0].Name)
	assert.Equal(t, []string{"7:30", "18:00"}, startTimes(week.Days[0].Entries))
	assert.NotNil(t, week.Days[1].Entries)
	assert.Empty(t, week.Days[1].Entries)
	assert.Empty(t, week.Days[2].Entries, "inactive entry hidden")
	assert.Equal(t, 3, week.Summary.TotalEntries)
	assert.Equal(t, 3, week.Summary.ActiveEntries)
	assert.Equal(t, 3, week.Summary.TeacherCount)

	all := BuildWeek(entries, []int{1, 2, 3, 4, 5, 6}, true)
	assert.True(t, all.IncludeInactive)
	assert.Len(t, all.Days[2].Entries, 1)
	assert.Equal(t, 4, all.Summary.TotalEntries)
	assert.Equal(t, 3, all.Summary.ActiveEntries)
}

func TestDayName(t *testing.T) {
	assert.Equal(t, "Sunday", DayName(0))
	assert.Equal(t, "Saturday", DayName(6))
	assert.Equal(t, "", DayName(7))
}
