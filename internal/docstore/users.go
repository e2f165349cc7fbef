package docstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"studentms/internal/model"
)

func (s *Store) CreateUser(ctx context.Context, user model.User) error {
	user.Email = strings.TrimSpace(strings.ToLower(user.Email))
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	_, err := s.users.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	var user model.User
	err := s.users.FindOne(ctx, bson.M{"email": strings.TrimSpace(strings.ToLower(email))}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.User{}, ErrNotFound
	}
	return user, err
}

func (s *Store) GetUserByID(ctx context.Context, id string) (model.User, error) {
	var user model.User
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.User{}, ErrNotFound
	}
	return user, err
}

// GetUsersByIDs is the batch half of an enrichment join: one query, results
// keyed by id for in-memory attachment.
func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]model.User, error) {
	result := make(map[string]model.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	cursor, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var user model.User
		if err := cursor.Decode(&user); err != nil {
			return nil, err
		}
		result[user.ID] = user
	}
	return result, cursor.Err()
}

func (s *Store) ListUsers(ctx context.Context, role *model.Role, limit int) ([]model.User, error) {
	filter := bson.M{}
	if role != nil {
		filter["role"] = *role
	}

	cursor, err := s.users.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := make([]model.User, 0)
	for cursor.Next(ctx) {
		var user model.User
		if err := cursor.Decode(&user); err != nil {
			return nil, err
		}
		users = append(users, user)
		if limit > 0 && len(users) >= limit {
			break
		}
	}
	return users, cursor.Err()
}

type UserUpdate struct {
	Name         *string
	Email        *string
	PasswordHash *string
}

func (s *Store) UpdateUser(ctx context.Context, id string, update UserUpdate) (model.User, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Email != nil {
		set["email"] = strings.TrimSpace(strings.ToLower(*update.Email))
	}
	if update.PasswordHash != nil {
		set["password_hash"] = *update.PasswordHash
	}

	result, err := s.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if mongo.IsDuplicateKeyError(err) {
		return model.User{}, ErrDuplicateEmail
	}
	if err != nil {
		return model.User{}, err
	}
	if result.MatchedCount == 0 {
		return model.User{}, ErrNotFound
	}
	return s.GetUserByID(ctx, id)
}

func (s *Store) DeleteUser(ctx context.Context, id string) (bool, error) {
	result, err := s.users.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return result.DeletedCount > 0, nil
}
