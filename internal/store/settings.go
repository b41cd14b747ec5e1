package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/invtrack/invtrack/internal/model"
)

// GetJWTSecret retrieves the JWT secret from the database.
// If no secret exists, it generates one, stores it, and returns it.
// Uses INSERT OR IGNORE + re-SELECT to avoid TOCTOU race on concurrent startup.
func GetJWTSecret(ctx context.Context, db *sql.DB) (string, error) {
	// Try to generate and insert first (safe against races).
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	candidate := hex.EncodeToString(buf)

	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES ('jwt_secret', ?)`,
		candidate,
	)
	if err != nil {
		return "", fmt.Errorf("storing jwt_secret: %w", err)
	}

	// Always read back (either our insert or the existing value).
	var secret string
	err = db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = 'jwt_secret'`,
	).Scan(&secret)
	if err != nil {
		return "", fmt.Errorf("querying jwt_secret: %w", err)
	}

	return secret, nil
}

// Notification settings keys.
const (
	keyNotifyEnabled    = "notify_enabled"
	keyNotifyEmail      = "notify_email"
	keyNotifyThreshold  = "notify_threshold"
	keyNotifyFrequency  = "notify_frequency"
	keyNotifyLastSentAt = "notify_last_sent_at"
	keyNotifyLastDigest = "notify_last_digest"
)

func getSetting(ctx context.Context, db *sql.DB, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying setting %s: %w", key, err)
	}
	return value, nil
}

func setSetting(ctx context.Context, tx *sql.Tx, key, value string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("storing setting %s: %w", key, err)
	}
	return nil
}

// GetNotificationSettings returns the stored notification settings, with
// defaults (disabled, no severity filter, daily) where nothing is stored yet.
func GetNotificationSettings(ctx context.Context, db *sql.DB) (model.NotificationSettings, error) {
	settings := model.NotificationSettings{Frequency: model.FrequencyDaily}

	enabled, err := getSetting(ctx, db, keyNotifyEnabled)
	if err != nil {
		return settings, err
	}
	settings.Enabled = enabled == "true"

	if settings.Email, err = getSetting(ctx, db, keyNotifyEmail); err != nil {
		return settings, err
	}

	threshold, err := getSetting(ctx, db, keyNotifyThreshold)
	if err != nil {
		return settings, err
	}
	if threshold != "" {
		if settings.Threshold, err = strconv.Atoi(threshold); err != nil {
			return settings, fmt.Errorf("parsing stored threshold: %w", err)
		}
	}

	frequency, err := getSetting(ctx, db, keyNotifyFrequency)
	if err != nil {
		return settings, err
	}
	if frequency != "" {
		settings.Frequency = frequency
	}

	return settings, nil
}

// SaveNotificationSettings validates and persists notification settings.
func SaveNotificationSettings(ctx context.Context, db *sql.DB, settings model.NotificationSettings) error {
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	enabled := "false"
	if settings.Enabled {
		enabled = "true"
	}
	pairs := map[string]string{
		keyNotifyEnabled:   enabled,
		keyNotifyEmail:     settings.Email,
		keyNotifyThreshold: strconv.Itoa(settings.Threshold),
		keyNotifyFrequency: settings.Frequency,
	}
	for _, key := range []string{keyNotifyEnabled, keyNotifyEmail, keyNotifyThreshold, keyNotifyFrequency} {
		if err := setSetting(ctx, tx, key, pairs[key]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing notification settings: %w", err)
	}
	return nil
}

// GetLastNotification returns when a low-stock notification was last sent and
// the fingerprint of the item set it covered. The time is zero if none was
// ever sent.
func GetLastNotification(ctx context.Context, db *sql.DB) (time.Time, string, error) {
	sentAt, err := getSetting(ctx, db, keyNotifyLastSentAt)
	if err != nil {
		return time.Time{}, "", err
	}

	var last time.Time
	if sentAt != "" {
		if last, err = time.Parse(time.RFC3339, sentAt); err != nil {
			return time.Time{}, "", fmt.Errorf("parsing last sent time: %w", err)
		}
	}

	fingerprint, err := getSetting(ctx, db, keyNotifyLastDigest)
	if err != nil {
		return time.Time{}, "", err
	}
	return last, fingerprint, nil
}

// RecordNotificationSent stores the send time and covered-set fingerprint for
// frequency gating.
func RecordNotificationSent(ctx context.Context, db *sql.DB, sentAt time.Time, fingerprint string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := setSetting(ctx, tx, keyNotifyLastSentAt, sentAt.Format(time.RFC3339)); err != nil {
		return err
	}
	if err := setSetting(ctx, tx, keyNotifyLastDigest, fingerprint); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing notification record: %w", err)
	}
	return nil
}
