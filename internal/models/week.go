package models

// WeekDay is one column of the weekly grid.
type WeekDay struct {
	Day     int             `json:"dayOfWeek"`
	Name    string          `json:"name"`
	Entries []ScheduleEntry `json:"entries"`
}

// WeekSummary carries derived counts shown above the grid.
type WeekSummary struct {
	TotalEntries      int            `json:"totalEntries"`
	ActiveEntries     int            `json:"activeEntries"`
	TeacherCount      int            `json:"teacherCount"`
	EntriesPerTeacher map[string]int `json:"entriesPerTeacher"`
}

// Week is the day-partitioned, time-sorted view of the schedule.
type Week struct {
	IncludeInactive bool        `json:"includeInactive"`
	Days            []WeekDay   `json:"days"`
	Summary         WeekSummary `json:"summary"`
}
