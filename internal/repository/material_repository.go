package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-portal-api/internal/models"
)

// MaterialRepository handles persistence of course materials.
type MaterialRepository struct {
	db *sqlx.DB
}

// NewMaterialRepository constructs the repository.
func NewMaterialRepository(db *sqlx.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

// ListByCourse returns materials for a course, optionally filtered by
// type, newest first.
func (r *MaterialRepository) ListByCourse(ctx context.Context, courseID string, materialType models.MaterialType) ([]models.CourseMaterial, error) {
	query := `SELECT id, course_id, class_id, title, description, material_type, link_url, created_by, created_at
        FROM course_materials WHERE course_id = $1`
	args := []interface{}{courseID}
	if materialType != "" {
		query += " AND material_type = $2"
		args = append(args, materialType)
	}
	query += " ORDER BY created_at DESC"

	var materials []models.CourseMaterial
	if err := r.db.SelectContext(ctx, &materials, query, args...); err != nil {
		return nil, fmt.Errorf("list course materials: %w", err)
	}
	return materials, nil
}

// FindByID returns a material by its ID.
func (r *MaterialRepository) FindByID(ctx context.Context, id string) (*models.CourseMaterial, error) {
	const query = `SELECT id, course_id, class_id, title, description, material_type, link_url, created_by, created_at
        FROM course_materials WHERE id = $1`
	var material models.CourseMaterial
	if err := r.db.GetContext(ctx, &material, query, id); err != nil {
		return nil, err
	}
	return &material, nil
}

// Create persists a new material.
func (r *MaterialRepository) Create(ctx context.Context, material *models.CourseMaterial) error {
	if material.ID == "" {
		material.ID = uuid.NewString()
	}
	if material.CreatedAt.IsZero() {
		material.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO course_materials (id, course_id, class_id, title, description, material_type, link_url, created_by, created_at)
        VALUES (:id, :course_id, :class_id, :title, :description, :material_type, :link_url, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, material); err != nil {
		return fmt.Errorf("create material: %w", err)
	}
	return nil
}

// Delete removes a material.
func (r *MaterialRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM course_materials WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	return nil
}
