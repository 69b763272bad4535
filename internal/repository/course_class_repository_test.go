package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-portal-api/internal/models"
)

func TestCourseClassRepositoryListByCourse(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewCourseClassRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "course_id", "class_code", "class_name", "max_students", "created_at"}).
		AddRow("cls-1", "course-1", "A", "Morning", 30, now)
	mock.ExpectQuery("SELECT id, course_id, class_code").
		WithArgs("course-1").
		WillReturnRows(rows)

	classes, err := repo.ListByCourse(context.Background(), "course-1")
	require.NoError(t, err)
	require.Len(t, classes, 1)
	require.Equal(t, "Morning", classes[0].ClassName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseClassRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewCourseClassRepository(db)

	mock.ExpectExec("INSERT INTO course_classes").WillReturnResult(sqlmock.NewResult(0, 1))

	class := &models.CourseClass{CourseID: "course-1", ClassCode: "A", ClassName: "Morning", MaxStudents: 30}
	require.NoError(t, repo.Create(context.Background(), class))
	require.NotEmpty(t, class.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
