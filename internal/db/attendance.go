package db

import (
	"context"
	"time"

	"studentms/internal/model"
)

// MarkAttendance upserts one student's status for a class and date. Teachers
// re-submit corrections for the same day, so duplicates update in place.
func (s *Store) MarkAttendance(ctx context.Context, record model.Attendance) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attendance (class_id, student_id, date, status)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE status = VALUES(status)
	`, record.ClassID, record.StudentID, record.Date.Format("2006-01-02"), record.Status)
	return err
}

func (s *Store) ListAttendanceByClassDate(ctx context.Context, classID int64, date time.Time) ([]model.Attendance, error) {
	records := make([]model.Attendance, 0)
	err := s.db.SelectContext(ctx, &records, `
		SELECT id, class_id, student_id, date, status, created_at, updated_at
		FROM attendance
		WHERE class_id = ? AND date = ?
		ORDER BY student_id
	`, classID, date.Format("2006-01-02"))
	return records, err
}

func (s *Store) ListAttendanceByStudent(ctx context.Context, studentID int64) ([]model.Attendance, error) {
	records := make([]model.Attendance, 0)
	err := s.db.SelectContext(ctx, &records, `
		SELECT id, class_id, student_id, date, status, created_at, updated_at
		FROM attendance
		WHERE student_id = ?
		ORDER BY date DESC, class_id
	`, studentID)
	return records, err
}
