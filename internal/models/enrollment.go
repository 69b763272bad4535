package models

// EnrolledStudent carries the student profile attached to an
// enrollment. The (course_id, student_id) pair is unique in storage.
type EnrolledStudent struct {
	StudentID string `db:"student_id" json:"student_id"`
	FullName  string `db:"full_name" json:"full_name"`
	Email     string `db:"email" json:"email"`
}
