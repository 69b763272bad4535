package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-portal-api/internal/models"
)

// AttendanceRepository handles persistence of attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// List returns attendance rows inside the filter, newest session first.
// Course and student names are resolved through left joins so a missing
// related row degrades to an empty name instead of dropping the record.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, error) {
	base := `FROM attendance a
LEFT JOIN courses c ON c.id = a.course_id
LEFT JOIN users u ON u.id = a.student_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("a.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("a.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if !filter.Scope.All && filter.CourseID == "" && filter.StudentID == "" {
		if len(filter.Scope.IDs) == 0 {
			return []models.AttendanceDetail{}, nil
		}
		placeholders := make([]string, len(filter.Scope.IDs))
		for i, id := range filter.Scope.IDs {
			placeholders[i] = fmt.Sprintf("$%d", len(args)+1)
			args = append(args, id)
		}
		conditions = append(conditions, fmt.Sprintf("a.course_id IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("a.session_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("a.session_date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`SELECT a.id, a.course_id, a.student_id, a.session_date, a.status, a.created_at,
        COALESCE(c.name, '') AS course_name, COALESCE(u.full_name, '') AS student_name
        %s ORDER BY a.session_date DESC, a.created_at DESC`, base+clause)

	var records []models.AttendanceDetail
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

// BatchInsert writes a full attendance session in one transaction. The
// batch commits or rolls back as a whole; duplicates for the session
// surface as a constraint violation and nothing is persisted.
func (r *AttendanceRepository) BatchInsert(ctx context.Context, records []models.AttendanceRecord) error {
	if len(records) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.NewString()
		}
		records[i].CreatedAt = now
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attendance batch: %w", err)
	}
	const query = `INSERT INTO attendance (id, course_id, student_id, session_date, status, created_at)
        VALUES (:id, :course_id, :student_id, :session_date, :status, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, records); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert attendance batch: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance batch: %w", err)
	}
	return nil
}

// SessionExists reports whether any rows were already written for the
// course and session date.
func (r *AttendanceRepository) SessionExists(ctx context.Context, courseID string, sessionDate time.Time) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM attendance WHERE course_id = $1 AND session_date = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, courseID, sessionDate); err != nil {
		return false, fmt.Errorf("check attendance session: %w", err)
	}
	return exists, nil
}
