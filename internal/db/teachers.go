package db

import (
	"context"

	"github.com/jmoiron/sqlx"

	"studentms/internal/model"
)

func (s *Store) CreateTeacher(ctx context.Context, teacher model.Teacher) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO teachers (user_id, phone, department, status)
		VALUES (?, ?, ?, ?)
	`, teacher.UserID, teacher.Phone, teacher.Department, teacher.Status)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *Store) GetTeacher(ctx context.Context, id int64) (model.Teacher, error) {
	var teacher model.Teacher
	err := s.db.GetContext(ctx, &teacher, `
		SELECT id, user_id, phone, department, status, created_at, updated_at
		FROM teachers
		WHERE id = ?
	`, id)
	return teacher, notFound(err)
}

func (s *Store) GetTeacherByUserID(ctx context.Context, userID string) (model.Teacher, error) {
	var teacher model.Teacher
	err := s.db.GetContext(ctx, &teacher, `
		SELECT id, user_id, phone, department, status, created_at, updated_at
		FROM teachers
		WHERE user_id = ?
	`, userID)
	return teacher, notFound(err)
}

func (s *Store) ListTeachers(ctx context.Context, limit int) ([]model.Teacher, error) {
	if limit <= 0 {
		limit = 200
	}
	teachers := make([]model.Teacher, 0)
	err := s.db.SelectContext(ctx, &teachers, `
		SELECT id, user_id, phone, department, status, created_at, updated_at
		FROM teachers
		ORDER BY id
		LIMIT ?
	`, limit)
	return teachers, err
}

func (s *Store) GetTeachersByIDs(ctx context.Context, ids []int64) (map[int64]model.Teacher, error) {
	byID := make(map[int64]model.Teacher, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}
	query, args, err := sqlx.In(`
		SELECT id, user_id, phone, department, status, created_at, updated_at
		FROM teachers
		WHERE id IN (?)
	`, ids)
	if err != nil {
		return nil, err
	}
	var teachers []model.Teacher
	if err := s.db.SelectContext(ctx, &teachers, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, teacher := range teachers {
		byID[teacher.ID] = teacher
	}
	return byID, nil
}

type TeacherUpdate struct {
	Phone      *string
	Department *string
	Status     *string
}

func (s *Store) UpdateTeacher(ctx context.Context, id int64, update TeacherUpdate) (model.Teacher, error) {
	set, args := buildSet(map[string]any{
		"phone":      update.Phone,
		"department": update.Department,
		"status":     update.Status,
	})
	if set != "" {
		args = append(args, id)
		if _, err := s.db.ExecContext(ctx, `UPDATE teachers SET `+set+` WHERE id = ?`, args...); err != nil {
			return model.Teacher{}, err
		}
	}
	return s.GetTeacher(ctx, id)
}

func (s *Store) DeleteTeacher(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM teachers WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}
