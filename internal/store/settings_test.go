package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/invtrack/invtrack/internal/db"
	"github.com/invtrack/invtrack/internal/model"
)

func TestGetJWTSecret_GeneratesAndPersists(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	// First call should generate a secret.
	secret1, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if secret1 == "" {
		t.Fatal("expected non-empty secret")
	}
	if len(secret1) != 64 { // 32 bytes = 64 hex chars
		t.Fatalf("expected 64 hex chars, got %d", len(secret1))
	}

	// Second call should return the same secret.
	secret2, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if secret1 != secret2 {
		t.Fatalf("expected same secret, got %q and %q", secret1, secret2)
	}
}

func TestNotificationSettingsDefaults(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	settings, err := GetNotificationSettings(ctx, database)
	if err != nil {
		t.Fatalf("GetNotificationSettings: %v", err)
	}
	if settings.Enabled {
		t.Error("expected notifications disabled by default")
	}
	if settings.Threshold != 0 {
		t.Errorf("expected default threshold 0, got %d", settings.Threshold)
	}
	if settings.Frequency != model.FrequencyDaily {
		t.Errorf("expected default frequency daily, got %q", settings.Frequency)
	}
}

func TestSaveAndGetNotificationSettings(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	saved := model.NotificationSettings{
		Enabled:   true,
		Email:     "ops@example.com",
		Threshold: 25,
		Frequency: model.FrequencyWeekly,
	}
	if err := SaveNotificationSettings(ctx, database, saved); err != nil {
		t.Fatalf("SaveNotificationSettings: %v", err)
	}

	got, err := GetNotificationSettings(ctx, database)
	if err != nil {
		t.Fatalf("GetNotificationSettings: %v", err)
	}
	if got != saved {
		t.Errorf("settings did not round-trip: got %+v, want %+v", got, saved)
	}

	// Saving again overwrites.
	saved.Threshold = 10
	saved.Frequency = model.FrequencyImmediate
	if err := SaveNotificationSettings(ctx, database, saved); err != nil {
		t.Fatalf("SaveNotificationSettings: %v", err)
	}
	got, _ = GetNotificationSettings(ctx, database)
	if got.Threshold != 10 || got.Frequency != model.FrequencyImmediate {
		t.Errorf("settings not overwritten: %+v", got)
	}
}

func TestSaveNotificationSettingsValidates(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	err := SaveNotificationSettings(ctx, database, model.NotificationSettings{
		Threshold: 80,
		Frequency: model.FrequencyDaily,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for bad threshold, got %v", err)
	}
}

func TestRecordAndGetLastNotification(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	last, fingerprint, err := GetLastNotification(ctx, database)
	if err != nil {
		t.Fatalf("GetLastNotification: %v", err)
	}
	if !last.IsZero() || fingerprint != "" {
		t.Errorf("expected zero state before any send, got %v %q", last, fingerprint)
	}

	sentAt := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	if err := RecordNotificationSent(ctx, database, sentAt, "1:3,2:7"); err != nil {
		t.Fatalf("RecordNotificationSent: %v", err)
	}

	last, fingerprint, err = GetLastNotification(ctx, database)
	if err != nil {
		t.Fatalf("GetLastNotification: %v", err)
	}
	if !last.Equal(sentAt) {
		t.Errorf("expected sent time %v, got %v", sentAt, last)
	}
	if fingerprint != "1:3,2:7" {
		t.Errorf("expected fingerprint to round-trip, got %q", fingerprint)
	}
}
