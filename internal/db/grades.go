package db

import (
	"context"

	"studentms/internal/model"
)

func (s *Store) CreateGrade(ctx context.Context, grade model.Grade) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO grades (class_id, student_id, term, score, remark)
		VALUES (?, ?, ?, ?, ?)
	`, grade.ClassID, grade.StudentID, grade.Term, grade.Score, grade.Remark)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *Store) GetGrade(ctx context.Context, id int64) (model.Grade, error) {
	var grade model.Grade
	err := s.db.GetContext(ctx, &grade, `
		SELECT id, class_id, student_id, term, score, remark, created_at, updated_at
		FROM grades
		WHERE id = ?
	`, id)
	return grade, notFound(err)
}

func (s *Store) ListGradesByStudent(ctx context.Context, studentID int64) ([]model.Grade, error) {
	grades := make([]model.Grade, 0)
	err := s.db.SelectContext(ctx, &grades, `
		SELECT id, class_id, student_id, term, score, remark, created_at, updated_at
		FROM grades
		WHERE student_id = ?
		ORDER BY id
	`, studentID)
	return grades, err
}

func (s *Store) ListGradesByClass(ctx context.Context, classID int64) ([]model.Grade, error) {
	grades := make([]model.Grade, 0)
	err := s.db.SelectContext(ctx, &grades, `
		SELECT id, class_id, student_id, term, score, remark, created_at, updated_at
		FROM grades
		WHERE class_id = ?
		ORDER BY id
	`, classID)
	return grades, err
}

type GradeUpdate struct {
	Score  *float64
	Remark *string
}

func (s *Store) UpdateGrade(ctx context.Context, id int64, update GradeUpdate) (model.Grade, error) {
	set, args := buildSet(map[string]any{
		"score":  update.Score,
		"remark": update.Remark,
	})
	if set != "" {
		args = append(args, id)
		if _, err := s.db.ExecContext(ctx, `UPDATE grades SET `+set+` WHERE id = ?`, args...); err != nil {
			return model.Grade{}, err
		}
	}
	return s.GetGrade(ctx, id)
}

func (s *Store) DeleteGrade(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM grades WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}
