package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-portal-api/internal/models"
)

func TestSubmissionRepositoryFindByAssignmentAndStudent(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "assignment_id", "student_id", "content", "score", "submitted_at", "graded_at"}).
		AddRow("sub-1", "asg-1", "stu-1", nil, nil, now, nil)
	mock.ExpectQuery("SELECT id, assignment_id, student_id").
		WithArgs("asg-1", "stu-1").
		WillReturnRows(rows)

	submission, err := repo.FindByAssignmentAndStudent(context.Background(), "asg-1", "stu-1")
	require.NoError(t, err)
	require.NotNil(t, submission)
	require.Equal(t, "sub-1", submission.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryFindMissingReturnsNil(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectQuery("SELECT id, assignment_id, student_id").
		WithArgs("asg-1", "stu-2").
		WillReturnError(sql.ErrNoRows)

	submission, err := repo.FindByAssignmentAndStudent(context.Background(), "asg-1", "stu-2")
	require.NoError(t, err)
	require.Nil(t, submission)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectExec("INSERT INTO submissions").WillReturnResult(sqlmock.NewResult(0, 1))

	submission := &models.Submission{AssignmentID: "asg-1", StudentID: "stu-1"}
	require.NoError(t, repo.Create(context.Background(), submission))
	require.NotEmpty(t, submission.ID)
	require.False(t, submission.SubmittedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryGrade(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	gradedAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE submissions SET score").
		WithArgs("sub-1", 85.5, gradedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Grade(context.Background(), "sub-1", 85.5, gradedAt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryListByAssignment(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "assignment_id", "student_id", "content", "score", "submitted_at", "graded_at"}).
		AddRow("sub-1", "asg-1", "stu-1", nil, nil, now.AddDate(0, 0, -1), nil).
		AddRow("sub-2", "asg-1", "stu-2", nil, 85.0, now, now)
	mock.ExpectQuery("FROM submissions WHERE assignment_id").
		WithArgs("asg-1").
		WillReturnRows(rows)

	submissions, err := repo.ListByAssignment(context.Background(), "asg-1")
	require.NoError(t, err)
	require.Len(t, submissions, 2)
	require.Equal(t, "sub-1", submissions[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
