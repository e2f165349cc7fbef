package db

import (
	"context"

	"studentms/internal/model"
)

func (s *Store) CreateEnrollment(ctx context.Context, classID, studentID int64) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO enrollments (class_id, student_id)
		VALUES (?, ?)
	`, classID, studentID)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *Store) GetEnrollment(ctx context.Context, id int64) (model.Enrollment, error) {
	var enrollment model.Enrollment
	err := s.db.GetContext(ctx, &enrollment, `
		SELECT id, class_id, student_id, enrolled_at
		FROM enrollments
		WHERE id = ?
	`, id)
	return enrollment, notFound(err)
}

func (s *Store) ListEnrollmentsByClass(ctx context.Context, classID int64) ([]model.Enrollment, error) {
	enrollments := make([]model.Enrollment, 0)
	err := s.db.SelectContext(ctx, &enrollments, `
		SELECT id, class_id, student_id, enrolled_at
		FROM enrollments
		WHERE class_id = ?
		ORDER BY id
	`, classID)
	return enrollments, err
}

func (s *Store) IsEnrolled(ctx context.Context, classID, studentID int64) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `
		SELECT EXISTS (SELECT 1 FROM enrollments WHERE class_id = ? AND student_id = ?)
	`, classID, studentID)
	return exists, err
}

func (s *Store) DeleteEnrollment(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM enrollments WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}
