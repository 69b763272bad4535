package models

import "time"

// MaterialType classifies course materials.
type MaterialType string

const (
	MaterialTypeDocument MaterialType = "document"
	MaterialTypeVideo    MaterialType = "video"
	MaterialTypeLink     MaterialType = "link"
	MaterialTypeOther    MaterialType = "other"
)

// Valid reports whether the material type is supported.
func (t MaterialType) Valid() bool {
	switch t {
	case MaterialTypeDocument, MaterialTypeVideo, MaterialTypeLink, MaterialTypeOther:
		return true
	default:
		return false
	}
}

// CourseMaterial is a link-based learning resource attached to a
// course. A nil class_id makes it visible to all classes in the course.
type CourseMaterial struct {
	ID           string       `db:"id" json:"id"`
	CourseID     string       `db:"course_id" json:"course_id"`
	ClassID      *string      `db:"class_id" json:"class_id,omitempty"`
	Title        string       `db:"title" json:"title"`
	Description  *string      `db:"description" json:"description,omitempty"`
	MaterialType MaterialType `db:"material_type" json:"material_type"`
	LinkURL      string       `db:"link_url" json:"link_url"`
	CreatedBy    string       `db:"created_by" json:"created_by"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
}
