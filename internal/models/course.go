package models

import "time"

// CourseStatus represents the approval lifecycle of a course.
type CourseStatus string

const (
	CourseStatusPending  CourseStatus = "pending"
	CourseStatusApproved CourseStatus = "approved"
	CourseStatusRejected CourseStatus = "rejected"
)

// Valid reports whether the status is a supported value.
func (s CourseStatus) Valid() bool {
	switch s {
	case CourseStatusPending, CourseStatusApproved, CourseStatusRejected:
		return true
	default:
		return false
	}
}

// CanTransitionTo encodes the approval state machine. A pending course
// may be approved or rejected, a rejected course may be re-approved,
// and an approved course never leaves its state.
func (s CourseStatus) CanTransitionTo(next CourseStatus) bool {
	switch s {
	case CourseStatusPending:
		return next == CourseStatusApproved || next == CourseStatusRejected
	case CourseStatusRejected:
		return next == CourseStatusApproved
	default:
		return false
	}
}

// Course represents a course offering owned by a lecturer.
type Course struct {
	ID          string       `db:"id" json:"id"`
	Code        string       `db:"code" json:"code"`
	Name        string       `db:"name" json:"name"`
	Description *string      `db:"description" json:"description,omitempty"`
	Semester    string       `db:"semester" json:"semester"`
	Year        int          `db:"year" json:"year"`
	LecturerID  string       `db:"lecturer_id" json:"lecturer_id"`
	Status      CourseStatus `db:"status" json:"status"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// CourseDetail enriches Course with the lecturer's display name.
type CourseDetail struct {
	Course
	LecturerName string `db:"lecturer_name" json:"lecturer_name"`
}

// CourseFilter scopes course listing queries.
type CourseFilter struct {
	Scope      CourseScope
	Status     CourseStatus
	LecturerID string
	Search     string
}

// CourseClass represents a class section within a course.
type CourseClass struct {
	ID          string    `db:"id" json:"id"`
	CourseID    string    `db:"course_id" json:"course_id"`
	ClassCode   string    `db:"class_code" json:"class_code"`
	ClassName   string    `db:"class_name" json:"class_name"`
	MaxStudents int       `db:"max_students" json:"max_students"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
