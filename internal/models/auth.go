package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the dashboards a user may open.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleTeacher UserRole = "TEACHER"
	RoleStudent UserRole = "STUDENT"
)

// JWTClaims represents the access token payload minted by the auth backend.
type JWTClaims struct {
	UserID    string   `json:"user_id"`
	Role      UserRole `json:"role"`
	Email     string   `json:"email"`
	FullName  string   `json:"full_name"`
	TeacherID string   `json:"teacher_id,omitempty"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the claims belong to a studio administrator.
func (c *JWTClaims) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}

// ActsAsTeacher reports whether the caller is the given teacher.
func (c *JWTClaims) ActsAsTeacher(teacherID string) bool {
	if c == nil || c.Role != RoleTeacher || teacherID == "" {
		return false
	}
	if c.TeacherID != "" {
		return c.TeacherID == teacherID
	}
	return c.UserID == teacherID
}
