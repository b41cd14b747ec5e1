package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/invtrack/invtrack/internal/model"
	"github.com/invtrack/invtrack/internal/notify"
	"github.com/invtrack/invtrack/internal/stock"
	"github.com/invtrack/invtrack/internal/store"
)

// NotificationsHandler handles low stock notification settings and delivery.
type NotificationsHandler struct {
	DB     *sql.DB
	Sender notify.Sender
}

// GetSettings handles GET /api/notifications/settings.
func (h *NotificationsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := store.GetNotificationSettings(r.Context(), h.DB)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, settings)
}

// UpdateSettings handles PUT /api/notifications/settings.
func (h *NotificationsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings model.NotificationSettings
	if err := decodeJSON(r, &settings); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.SaveNotificationSettings(r.Context(), h.DB, settings); err != nil {
		storeError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("notification settings updated", "user", claims.Username, "enabled", settings.Enabled, "frequency", settings.Frequency)
	jsonResponse(w, http.StatusOK, settings)
}

type evaluateResponse struct {
	Sent    bool         `json:"sent"`
	Reason  string       `json:"reason,omitempty"`
	Matched int          `json:"matched_items"`
	Digest  stock.Digest `json:"digest"`
}

// Evaluate handles POST /api/notifications/evaluate. Checks the current
// stock levels against the notification policy and sends a digest when
// the policy says one is due.
func (h *NotificationsHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	settings, err := store.GetNotificationSettings(ctx, h.DB)
	if err != nil {
		storeError(w, err)
		return
	}

	items, err := store.ListLowStockItems(ctx, h.DB)
	if err != nil {
		storeError(w, err)
		return
	}

	worthy := stock.WorthyItems(items, settings)
	digest := stock.BuildDigest(worthy)
	resp := evaluateResponse{Matched: len(worthy), Digest: digest}

	if !settings.Enabled {
		resp.Reason = "notifications disabled"
		jsonResponse(w, http.StatusOK, resp)
		return
	}

	lastSentAt, lastFingerprint, err := store.GetLastNotification(ctx, h.DB)
	if err != nil {
		storeError(w, err)
		return
	}

	now := time.Now()
	if !stock.ShouldNotify(settings, items, lastSentAt, lastFingerprint, now) {
		resp.Reason = "nothing new to report"
		jsonResponse(w, http.StatusOK, resp)
		return
	}

	msg := notify.RenderDigest(settings.Email, digest)
	if err := h.Sender.Send(ctx, msg); err != nil {
		slog.Error("failed to send notification", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to send notification")
		return
	}

	if err := store.RecordNotificationSent(ctx, h.DB, now, stock.Fingerprint(worthy)); err != nil {
		storeError(w, err)
		return
	}

	slog.Info("low stock notification sent", "to", settings.Email, "items", len(worthy))
	resp.Sent = true
	jsonResponse(w, http.StatusOK, resp)
}

// Test handles POST /api/notifications/test. Sends a probe message to
// the configured address without touching the last-sent state.
func (h *NotificationsHandler) Test(w http.ResponseWriter, r *http.Request) {
	settings, err := store.GetNotificationSettings(r.Context(), h.DB)
	if err != nil {
		storeError(w, err)
		return
	}
	if settings.Email == "" {
		jsonError(w, http.StatusBadRequest, "no notification email configured")
		return
	}

	msg := notify.Message{
		To:      settings.Email,
		Subject: "Test notification",
		Body:    "Notification delivery is working.",
	}
	if err := h.Sender.Send(r.Context(), msg); err != nil {
		slog.Error("failed to send test notification", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to send notification")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "test notification sent"})
}
