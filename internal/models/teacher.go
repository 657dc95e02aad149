package models

import (
	"strings"
	"time"
)

// Teacher is a read-only roster record used to label schedule entries.
type Teacher struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"fullName"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// DisplayName falls back to the email when no name is on file.
func (t Teacher) DisplayName() string {
	if name := strings.TrimSpace(t.FullName); name != "" {
		return name
	}
	return t.Email
}

// Ref returns the compact form embedded in schedule entries.
func (t Teacher) Ref() TeacherRef {
	return TeacherRef{ID: t.ID, DisplayName: t.DisplayName()}
}

// TeacherRef labels a teacher inside schedule payloads.
type TeacherRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
