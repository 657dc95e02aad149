package models

import (
	"time"

	"github.com/lib/pq"
)

// ScheduleEntry is one recurring weekly class slot.
type ScheduleEntry struct {
	ID            string         `db:"id" json:"id"`
	DayOfWeek     int            `db:"day_of_week" json:"dayOfWeek"`
	StartTime     string         `db:"start_time" json:"startTime"`
	EndTime       string         `db:"end_time" json:"endTime"`
	ClassTypeName string         `db:"class_type_name" json:"classTypeName"`
	TeacherIDs    pq.StringArray `db:"teacher_ids" json:"teacherIds"`
	IsActive      bool           `db:"is_active" json:"isActive"`
	CreatedAt     time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updatedAt"`
	Teachers      []TeacherRef   `db:"-" json:"teachers,omitempty"`
}

// HasTeacher reports whether teacherID is assigned to the entry.
func (e ScheduleEntry) HasTeacher(teacherID string) bool {
	for _, id := range e.TeacherIDs {
		if id == teacherID {
			return true
		}
	}
	return false
}

// ScheduleFilter describes query params for listing schedule entries.
type ScheduleFilter struct {
	DayOfWeek *int
	TeacherID string
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ScheduleConflict describes an existing entry that double-books a teacher.
type ScheduleConflict struct {
	ScheduleID       string   `json:"scheduleId"`
	DayOfWeek        int      `json:"dayOfWeek"`
	StartTime        string   `json:"startTime"`
	EndTime          string   `json:"endTime"`
	ClassTypeName    string   `json:"classTypeName"`
	IsActive         bool     `json:"isActive"`
	SharedTeacherIDs []string `json:"sharedTeacherIds"`
	OverlapStart     string   `json:"overlapStart"`
	OverlapEnd       string   `json:"overlapEnd"`
}
