package db

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"studentms/internal/model"
)

func TestBuildSetSkipsNilPointers(t *testing.T) {
	phone := "555-0100"
	set, args := buildSet(map[string]any{
		"phone":   &phone,
		"address": (*string)(nil),
	})
	if set != "phone = ?" {
		t.Fatalf("unexpected set clause: %q", set)
	}
	if len(args) != 1 || args[0] != phone {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestBuildSetEmpty(t *testing.T) {
	set, args := buildSet(map[string]any{
		"phone": (*string)(nil),
	})
	if set != "" || len(args) != 0 {
		t.Fatalf("expected empty clause, got %q %v", set, args)
	}
}

func openTestDB(t *testing.T) *sqlx.DB {
	dsn := os.Getenv("MYSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("MYSQL_TEST_DSN not set")
		return nil
	}
	conn, err := Open(context.Background(), dsn)
	if err != nil {
		t.Skipf("mysql unavailable: %v", err)
		return nil
	}
	t.Cleanup(func() { _ = conn.Close() })
	if err := Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func TestStudentRepository(t *testing.T) {
	conn := openTestDB(t)
	if conn == nil {
		return
	}
	store := NewStore(conn)
	ctx := context.Background()

	userID := uuid.NewString()
	id, err := store.CreateStudent(ctx, model.Student{
		UserID:        userID,
		StudentNumber: uuid.NewString()[:8],
		Status:        "active",
	})
	if err != nil {
		t.Fatalf("create student: %v", err)
	}

	byUser, err := store.GetStudentByUserID(ctx, userID)
	if err != nil || byUser.ID != id {
		t.Fatalf("get by user id: id=%d err=%v", byUser.ID, err)
	}

	phone := "555-0101"
	updated, err := store.UpdateStudent(ctx, id, StudentUpdate{Phone: &phone})
	if err != nil {
		t.Fatalf("update student: %v", err)
	}
	if updated.Phone != phone {
		t.Fatalf("expected updated phone, got %s", updated.Phone)
	}

	deleted, err := store.DeleteStudent(ctx, id)
	if err != nil || !deleted {
		t.Fatalf("delete student: deleted=%v err=%v", deleted, err)
	}
	if _, err := store.GetStudent(ctx, id); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
