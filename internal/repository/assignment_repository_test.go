package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-portal-api/internal/models"
)

func TestAssignmentRepositoryListScoped(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	now := time.Now()
	due := now.AddDate(0, 0, 7)
	rows := sqlmock.NewRows([]string{"id", "course_id", "title", "description", "due_date", "max_score", "created_at", "updated_at"}).
		AddRow("asg-1", "course-1", "Homework 1", nil, due, 100.0, now, now).
		AddRow("asg-2", "course-2", "Homework 2", nil, nil, 50.0, now, now)
	mock.ExpectQuery("SELECT id, course_id, title, description, due_date, max_score, created_at, updated_at FROM assignments WHERE course_id IN").
		WithArgs("course-1", "course-2").
		WillReturnRows(rows)

	assignments, err := repo.ListScoped(context.Background(), models.ScopeOf("course-1", "course-2"))
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	require.Nil(t, assignments[1].DueDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryListUnboundedSkipsFilter(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "course_id", "title", "description", "due_date", "max_score", "created_at", "updated_at"})
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, course_id, title, description, due_date, max_score, created_at, updated_at FROM assignments ORDER BY due_date ASC NULLS LAST, created_at ASC")).
		WillReturnRows(rows)

	_, err := repo.ListScoped(context.Background(), models.UnboundedScope())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryListEmptyScopeShortCircuits(t *testing.T) {
	db, _, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	assignments, err := repo.ListScoped(context.Background(), models.CourseScope{})
	require.NoError(t, err)
	require.Empty(t, assignments)
}

func TestSubmissionRepositoryFindEmptyRowsReturnsNil(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectQuery("SELECT id, assignment_id, student_id").
		WithArgs("asg-1", "stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "assignment_id", "student_id", "content", "score", "submitted_at", "graded_at"}))

	submission, err := repo.FindByAssignmentAndStudent(context.Background(), "asg-1", "stu-1")
	require.NoError(t, err)
	require.Nil(t, submission)
	require.NoError(t, mock.ExpectationsWereMet())
}
