package db

import (
	"context"

	"studentms/internal/model"
)

func (s *Store) CreateSubmission(ctx context.Context, submission model.Submission) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (assignment_id, student_id, content)
		VALUES (?, ?, ?)
	`, submission.AssignmentID, submission.StudentID, submission.Content)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *Store) GetSubmission(ctx context.Context, id int64) (model.Submission, error) {
	var submission model.Submission
	err := s.db.GetContext(ctx, &submission, `
		SELECT id, assignment_id, student_id, content, score, submitted_at, updated_at
		FROM submissions
		WHERE id = ?
	`, id)
	return submission, notFound(err)
}

func (s *Store) ListSubmissionsByAssignment(ctx context.Context, assignmentID int64) ([]model.Submission, error) {
	submissions := make([]model.Submission, 0)
	err := s.db.SelectContext(ctx, &submissions, `
		SELECT id, assignment_id, student_id, content, score, submitted_at, updated_at
		FROM submissions
		WHERE assignment_id = ?
		ORDER BY id
	`, assignmentID)
	return submissions, err
}

func (s *Store) ListSubmissionsByStudent(ctx context.Context, studentID int64) ([]model.Submission, error) {
	submissions := make([]model.Submission, 0)
	err := s.db.SelectContext(ctx, &submissions, `
		SELECT id, assignment_id, student_id, content, score, submitted_at, updated_at
		FROM submissions
		WHERE student_id = ?
		ORDER BY id
	`, studentID)
	return submissions, err
}

func (s *Store) ScoreSubmission(ctx context.Context, id int64, score float64) (model.Submission, error) {
	result, err := s.db.ExecContext(ctx, `UPDATE submissions SET score = ? WHERE id = ?`, score, id)
	if err != nil {
		return model.Submission{}, err
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		// Score may be unchanged; distinguish from a missing row.
		if _, err := s.GetSubmission(ctx, id); err != nil {
			return model.Submission{}, err
		}
	}
	return s.GetSubmission(ctx, id)
}
