package db

import (
	"context"
	"time"

	"studentms/internal/model"
)

func (s *Store) CreateAssignment(ctx context.Context, assignment model.Assignment) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO assignments (class_id, title, description, due_at)
		VALUES (?, ?, ?, ?)
	`, assignment.ClassID, assignment.Title, assignment.Description, assignment.DueAt)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *Store) GetAssignment(ctx context.Context, id int64) (model.Assignment, error) {
	var assignment model.Assignment
	err := s.db.GetContext(ctx, &assignment, `
		SELECT id, class_id, title, description, due_at, created_at, updated_at
		FROM assignments
		WHERE id = ?
	`, id)
	return assignment, notFound(err)
}

func (s *Store) ListAssignmentsByClass(ctx context.Context, classID int64) ([]model.Assignment, error) {
	assignments := make([]model.Assignment, 0)
	err := s.db.SelectContext(ctx, &assignments, `
		SELECT id, class_id, title, description, due_at, created_at, updated_at
		FROM assignments
		WHERE class_id = ?
		ORDER BY due_at
	`, classID)
	return assignments, err
}

type AssignmentUpdate struct {
	Title       *string
	Description *string
	DueAt       *time.Time
}

func (s *Store) UpdateAssignment(ctx context.Context, id int64, update AssignmentUpdate) (model.Assignment, error) {
	set, args := buildSet(map[string]any{
		"title":       update.Title,
		"description": update.Description,
		"due_at":      update.DueAt,
	})
	if set != "" {
		args = append(args, id)
		if _, err := s.db.ExecContext(ctx, `UPDATE assignments SET `+set+` WHERE id = ?`, args...); err != nil {
			return model.Assignment{}, err
		}
	}
	return s.GetAssignment(ctx, id)
}

func (s *Store) DeleteAssignment(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM assignments WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}
