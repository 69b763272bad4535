package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-portal-api/internal/models"
)

// CourseClassRepository handles persistence of class sections.
type CourseClassRepository struct {
	db *sqlx.DB
}

// NewCourseClassRepository constructs the repository.
func NewCourseClassRepository(db *sqlx.DB) *CourseClassRepository {
	return &CourseClassRepository{db: db}
}

// ListByCourse returns the class sections of a course, newest first.
func (r *CourseClassRepository) ListByCourse(ctx context.Context, courseID string) ([]models.CourseClass, error) {
	const query = `SELECT id, course_id, class_code, class_name, max_students, created_at
        FROM course_classes WHERE course_id = $1 ORDER BY created_at DESC`
	var classes []models.CourseClass
	if err := r.db.SelectContext(ctx, &classes, query, courseID); err != nil {
		return nil, fmt.Errorf("list course classes: %w", err)
	}
	return classes, nil
}

// Create persists a new class section.
func (r *CourseClassRepository) Create(ctx context.Context, class *models.CourseClass) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	if class.CreatedAt.IsZero() {
		class.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO course_classes (id, course_id, class_code, class_name, max_students, created_at)
        VALUES (:id, :course_id, :class_code, :class_name, :max_students, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create course class: %w", err)
	}
	return nil
}
