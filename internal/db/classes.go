package db

import (
	"context"

	"studentms/internal/model"
)

func (s *Store) CreateClass(ctx context.Context, class model.Class) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO classes (name, subject, teacher_id, room)
		VALUES (?, ?, ?, ?)
	`, class.Name, class.Subject, class.TeacherID, class.Room)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *Store) GetClass(ctx context.Context, id int64) (model.Class, error) {
	var class model.Class
	err := s.db.GetContext(ctx, &class, `
		SELECT id, name, subject, teacher_id, room, created_at, updated_at
		FROM classes
		WHERE id = ?
	`, id)
	return class, notFound(err)
}

func (s *Store) ListClasses(ctx context.Context, limit int) ([]model.Class, error) {
	if limit <= 0 {
		limit = 200
	}
	classes := make([]model.Class, 0)
	err := s.db.SelectContext(ctx, &classes, `
		SELECT id, name, subject, teacher_id, room, created_at, updated_at
		FROM classes
		ORDER BY id
		LIMIT ?
	`, limit)
	return classes, err
}

// ListClassesByTeacher backs the "my classes" view: only rows whose
// teacher_id resolves to the caller's teacher profile.
func (s *Store) ListClassesByTeacher(ctx context.Context, teacherID int64) ([]model.Class, error) {
	classes := make([]model.Class, 0)
	err := s.db.SelectContext(ctx, &classes, `
		SELECT id, name, subject, teacher_id, room, created_at, updated_at
		FROM classes
		WHERE teacher_id = ?
		ORDER BY id
	`, teacherID)
	return classes, err
}

func (s *Store) ListClassesByStudent(ctx context.Context, studentID int64) ([]model.Class, error) {
	classes := make([]model.Class, 0)
	err := s.db.SelectContext(ctx, &classes, `
		SELECT c.id, c.name, c.subject, c.teacher_id, c.room, c.created_at, c.updated_at
		FROM classes c
		JOIN enrollments e ON e.class_id = c.id
		WHERE e.student_id = ?
		ORDER BY c.id
	`, studentID)
	return classes, err
}

type ClassUpdate struct {
	Name      *string
	Subject   *string
	TeacherID *int64
	Room      *string
}

func (s *Store) UpdateClass(ctx context.Context, id int64, update ClassUpdate) (model.Class, error) {
	set, args := buildSet(map[string]any{
		"name":       update.Name,
		"subject":    update.Subject,
		"teacher_id": update.TeacherID,
		"room":       update.Room,
	})
	if set != "" {
		args = append(args, id)
		if _, err := s.db.ExecContext(ctx, `UPDATE classes SET `+set+` WHERE id = ?`, args...); err != nil {
			return model.Class{}, err
		}
	}
	return s.GetClass(ctx, id)
}

func (s *Store) DeleteClass(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM classes WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}
