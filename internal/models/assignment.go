package models

import "time"

// SubmissionStatus is a derived field computed at read time from the
// student's submission row: no row means pending, an ungraded row means
// submitted, a graded row means graded.
type SubmissionStatus string

const (
	SubmissionStatusPending   SubmissionStatus = "pending"
	SubmissionStatusSubmitted SubmissionStatus = "submitted"
	SubmissionStatusGraded    SubmissionStatus = "graded"
)

// DeriveSubmissionStatus computes the display status for a submission
// row, which may be nil when the student has not submitted.
func DeriveSubmissionStatus(sub *Submission) (SubmissionStatus, *float64) {
	if sub == nil {
		return SubmissionStatusPending, nil
	}
	if sub.GradedAt != nil {
		return SubmissionStatusGraded, sub.Score
	}
	return SubmissionStatusSubmitted, nil
}

// Assignment belongs to exactly one course.
type Assignment struct {
	ID          string     `db:"id" json:"id"`
	CourseID    string     `db:"course_id" json:"course_id"`
	Title       string     `db:"title" json:"title"`
	Description *string    `db:"description" json:"description,omitempty"`
	DueDate     *time.Time `db:"due_date" json:"due_date,omitempty"`
	MaxScore    float64    `db:"max_score" json:"max_score"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// AssignmentDetail enriches Assignment with the course name and, for
// student callers, the derived submission state.
type AssignmentDetail struct {
	Assignment
	CourseName       string           `json:"course_name"`
	SubmissionStatus SubmissionStatus `json:"submission_status,omitempty"`
	Score            *float64         `json:"score,omitempty"`
}

// Submission is a student's answer to an assignment. At most one row
// exists per (assignment_id, student_id).
type Submission struct {
	ID           string     `db:"id" json:"id"`
	AssignmentID string     `db:"assignment_id" json:"assignment_id"`
	StudentID    string     `db:"student_id" json:"student_id"`
	Content      *string    `db:"content" json:"content,omitempty"`
	Score        *float64   `db:"score" json:"score,omitempty"`
	SubmittedAt  time.Time  `db:"submitted_at" json:"submitted_at"`
	GradedAt     *time.Time `db:"graded_at" json:"graded_at,omitempty"`
}
