package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
	AttendanceStatusLate    AttendanceStatus = "late"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate:
		return true
	default:
		return false
	}
}

// AttendanceRecord is a single session attendance row. One row exists
// per (course, student, session date); rows are immutable once written.
type AttendanceRecord struct {
	ID          string           `db:"id" json:"id"`
	CourseID    string           `db:"course_id" json:"course_id"`
	StudentID   string           `db:"student_id" json:"student_id"`
	SessionDate time.Time        `db:"session_date" json:"session_date"`
	Status      AttendanceStatus `db:"status" json:"status"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}

// AttendanceDetail extends the record with display names resolved from
// the course and student profile.
type AttendanceDetail struct {
	AttendanceRecord
	CourseName  string `db:"course_name" json:"course_name"`
	StudentName string `db:"student_name" json:"student_name"`
}

// AttendanceFilter scopes attendance listing queries.
type AttendanceFilter struct {
	Scope     CourseScope
	CourseID  string
	StudentID string
	DateFrom  *time.Time
	DateTo    *time.Time
}

// RosterEntry is the initial state for a student in a new attendance
// session, defaulted to present.
type RosterEntry struct {
	StudentID string           `json:"student_id"`
	FullName  string           `json:"full_name"`
	Email     string           `json:"email"`
	Status    AttendanceStatus `json:"status"`
}
