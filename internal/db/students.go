package db

import (
	"context"

	"github.com/jmoiron/sqlx"

	"studentms/internal/model"
)

func (s *Store) CreateStudent(ctx context.Context, student model.Student) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO students (user_id, student_number, phone, address, status)
		VALUES (?, ?, ?, ?, ?)
	`, student.UserID, student.StudentNumber, student.Phone, student.Address, student.Status)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *Store) GetStudent(ctx context.Context, id int64) (model.Student, error) {
	var student model.Student
	err := s.db.GetContext(ctx, &student, `
		SELECT id, user_id, student_number, phone, address, status, created_at, updated_at
		FROM students
		WHERE id = ?
	`, id)
	return student, notFound(err)
}

func (s *Store) GetStudentByUserID(ctx context.Context, userID string) (model.Student, error) {
	var student model.Student
	err := s.db.GetContext(ctx, &student, `
		SELECT id, user_id, student_number, phone, address, status, created_at, updated_at
		FROM students
		WHERE user_id = ?
	`, userID)
	return student, notFound(err)
}

func (s *Store) ListStudents(ctx context.Context, limit int) ([]model.Student, error) {
	if limit <= 0 {
		limit = 200
	}
	students := make([]model.Student, 0)
	err := s.db.SelectContext(ctx, &students, `
		SELECT id, user_id, student_number, phone, address, status, created_at, updated_at
		FROM students
		ORDER BY id
		LIMIT ?
	`, limit)
	return students, err
}

func (s *Store) GetStudentsByIDs(ctx context.Context, ids []int64) (map[int64]model.Student, error) {
	byID := make(map[int64]model.Student, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}
	query, args, err := sqlx.In(`
		SELECT id, user_id, student_number, phone, address, status, created_at, updated_at
		FROM students
		WHERE id IN (?)
	`, ids)
	if err != nil {
		return nil, err
	}
	var students []model.Student
	if err := s.db.SelectContext(ctx, &students, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, student := range students {
		byID[student.ID] = student
	}
	return byID, nil
}

type StudentUpdate struct {
	StudentNumber *string
	Phone         *string
	Address       *string
	Status        *string
}

func (s *Store) UpdateStudent(ctx context.Context, id int64, update StudentUpdate) (model.Student, error) {
	set, args := buildSet(map[string]any{
		"student_number": update.StudentNumber,
		"phone":          update.Phone,
		"address":        update.Address,
		"status":         update.Status,
	})
	if set != "" {
		args = append(args, id)
		if _, err := s.db.ExecContext(ctx, `UPDATE students SET `+set+` WHERE id = ?`, args...); err != nil {
			return model.Student{}, err
		}
	}
	return s.GetStudent(ctx, id)
}

func (s *Store) DeleteStudent(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM students WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}
