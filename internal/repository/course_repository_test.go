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

func courseRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "code", "name", "description", "semester", "year", "lecturer_id", "status", "created_at", "updated_at", "lecturer_name"}).
		AddRow("course-1", "CS101", "Intro", nil, "Fall", 2024, "lec-1", "pending", now, now, "Dr. Smith")
}

func TestCourseRepositoryListScoped(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT c.id, c.code, c.name").
		WithArgs("course-1", "course-2").
		WillReturnRows(courseRows(now))

	courses, err := repo.List(context.Background(), models.CourseFilter{Scope: models.ScopeOf("course-1", "course-2")})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	require.Equal(t, "Dr. Smith", courses[0].LecturerName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListEmptyScopeShortCircuits(t *testing.T) {
	db, _, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	courses, err := repo.List(context.Background(), models.CourseFilter{Scope: models.CourseScope{}})
	require.NoError(t, err)
	require.Empty(t, courses)
}

func TestCourseRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE courses SET status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("course-1", models.CourseStatusApproved, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "course-1", models.CourseStatusApproved)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryCreateForcesPending(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("INSERT INTO courses").WillReturnResult(sqlmock.NewResult(1, 1))

	course := &models.Course{Code: "CS101", Name: "Intro", Semester: "Fall", Year: 2024, LecturerID: "lec-1", Status: models.CourseStatusApproved}
	err := repo.Create(context.Background(), course)
	require.NoError(t, err)
	require.Equal(t, models.CourseStatusPending, course.Status)
	require.NotEmpty(t, course.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryNamesByIDs(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name"}).
		AddRow("course-1", "Intro").
		AddRow("course-2", "Algorithms")
	mock.ExpectQuery("SELECT id, name FROM courses WHERE id IN").
		WithArgs("course-1", "course-2").
		WillReturnRows(rows)

	names, err := repo.NamesByIDs(context.Background(), []string{"course-1", "course-2"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"course-1": "Intro", "course-2": "Algorithms"}, names)
	require.NoError(t, mock.ExpectationsWereMet())
}
