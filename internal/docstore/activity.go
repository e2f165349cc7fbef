package docstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"studentms/internal/model"
)

func (s *Store) InsertActivity(ctx context.Context, entry model.ActivityEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.activity.InsertOne(ctx, entry)
	return err
}

func (s *Store) ListActivity(ctx context.Context, limit int) ([]model.ActivityEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.activity.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := make([]model.ActivityEntry, 0, limit)
	for cursor.Next(ctx) {
		var entry model.ActivityEntry
		if err := cursor.Decode(&entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, cursor.Err()
}

func (s *Store) DeleteActivityBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.activity.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}
