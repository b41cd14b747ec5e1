package store

import (
	"context"
	"errors"
	"testing"

	"github.com/invtrack/invtrack/internal/db"
	"github.com/invtrack/invtrack/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "alice", "hash", model.RoleManager)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Username != "alice" || user.Role != model.RoleManager {
		t.Errorf("unexpected user: %+v", user)
	}

	got, _ := GetUserByUsername(ctx, database, "alice")
	if got == nil || got.ID != user.ID {
		t.Errorf("GetUserByUsername mismatch: %+v", got)
	}
}

func TestDuplicateUsernameRejected(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "alice", "hash", model.RoleUser)
	_, err := CreateUser(ctx, database, "alice", "hash2", model.RoleUser)
	if err == nil {
		t.Error("expected error for duplicate username")
	}
}

func TestUsernameReusableAfterDelete(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "alice", "hash", model.RoleUser)
	if err := DeleteUser(ctx, database, user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	// Partial unique index only covers active users.
	if _, err := CreateUser(ctx, database, "alice", "hash2", model.RoleUser); err != nil {
		t.Errorf("expected soft-deleted username to be reusable, got: %v", err)
	}
}

func TestUpdateUserRole(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "alice", "hash", model.RoleUser)

	if err := UpdateUserRole(ctx, database, user.ID, model.RoleAdmin); err != nil {
		t.Fatalf("UpdateUserRole: %v", err)
	}
	got, _ := GetUser(ctx, database, user.ID)
	if got.Role != model.RoleAdmin {
		t.Errorf("expected role admin, got %q", got.Role)
	}

	err := UpdateUserRole(ctx, database, user.ID, "SUPERADMIN")
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for bad role, got %v", err)
	}

	err = UpdateUserRole(ctx, database, 9999, model.RoleUser)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing user, got %v", err)
	}
}

func TestListUsersExcludesDeleted(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "alice", "hash", model.RoleUser)
	bob, _ := CreateUser(ctx, database, "bob", "hash", model.RoleUser)
	DeleteUser(ctx, database, bob.ID)

	users, _ := ListUsers(ctx, database)
	if len(users) != 1 || users[0].Username != "alice" {
		t.Errorf("unexpected users: %v", users)
	}
}
