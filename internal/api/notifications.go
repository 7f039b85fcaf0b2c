package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/rigasset/internal/model"
	"github.com/erazemk/rigasset/internal/store"
)

// NotificationsHandler serves the caller's notification inbox.
type NotificationsHandler struct {
	DB *sqlx.DB
}

type notificationListResponse struct {
	Notifications []model.Notification `json:"notifications"`
	UnreadCount   int                  `json:"unread_count"`
}

// List handles GET /api/notifications.
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	q := r.URL.Query()

	unread := q.Get("unread") == "true" || q.Get("unread") == "1"
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > model.MaxPageLimit {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	notifications, err := store.ListNotifications(r.Context(), h.DB, claims.UserID, unread, limit)
	if err != nil {
		slog.Error("failed to list notifications", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}
	if notifications == nil {
		notifications = []model.Notification{}
	}

	unreadCount, err := store.CountUnreadNotifications(r.Context(), h.DB, claims.UserID)
	if err != nil {
		slog.Error("failed to count notifications", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}
	jsonResponse(w, http.StatusOK, notificationListResponse{
		Notifications: notifications,
		UnreadCount:   unreadCount,
	})
}

// MarkRead handles PUT /api/notifications/{id}/read.
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid notification id")
		return
	}

	if err := store.MarkNotificationRead(r.Context(), h.DB, id, GetClaims(r.Context()).UserID); err != nil {
		slog.Error("failed to mark notification read", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update notification")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "notification marked read"})
}

// MarkAllRead handles PUT /api/notifications/read-all.
func (h *NotificationsHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := store.MarkAllNotificationsRead(r.Context(), h.DB, GetClaims(r.Context()).UserID)
	if err != nil {
		slog.Error("failed to mark notifications read", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update notifications")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]int64{"updated": n})
}

// Delete handles DELETE /api/notifications/{id}.
func (h *NotificationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid notification id")
		return
	}

	if err := store.DeleteNotification(r.Context(), h.DB, id, GetClaims(r.Context()).UserID); err != nil {
		slog.Error("failed to delete notification", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete notification")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "notification deleted"})
}

// ClearRead handles DELETE /api/notifications by removing read notifications.
func (h *NotificationsHandler) ClearRead(w http.ResponseWriter, r *http.Request) {
	n, err := store.ClearReadNotifications(r.Context(), h.DB, GetClaims(r.Context()).UserID)
	if err != nil {
		slog.Error("failed to clear notifications", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to clear notifications")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]int64{"deleted": n})
}
