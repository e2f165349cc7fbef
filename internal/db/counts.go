package db

import "context"

type Counts struct {
	Students    int64 `db:"students" json:"students"`
	Teachers    int64 `db:"teachers" json:"teachers"`
	Classes     int64 `db:"classes" json:"classes"`
	Enrollments int64 `db:"enrollments" json:"enrollments"`
}

func (s *Store) GetCounts(ctx context.Context) (Counts, error) {
	var counts Counts
	err := s.db.GetContext(ctx, &counts, `
		SELECT
			(SELECT COUNT(*) FROM students) AS students,
			(SELECT COUNT(*) FROM teachers) AS teachers,
			(SELECT COUNT(*) FROM classes) AS classes,
			(SELECT COUNT(*) FROM enrollments) AS enrollments
	`)
	return counts, err
}
