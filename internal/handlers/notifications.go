package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/dmateos/courtside/internal/middleware"
	"github.com/dmateos/courtside/internal/models"
	"github.com/dmateos/courtside/internal/store"
)

type NotificationHandler struct {
	Store  store.Store
	Logger *zap.Logger
}

// List returns the caller's notifications, newest first.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	notifications, err := h.Store.ListNotifications(userID)
	if err != nil {
		h.Logger.Error("notification list failed", zap.Int64("userId", userID), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}

	json.NewEncoder(w).Encode(notifications)
}

// MarkRead flips a notification's read flag. Owner only.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	id := mux.Vars(r)["id"]

	err := h.Store.MarkNotificationRead(id, userID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "notification not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Logger.Error("notification mark read failed", zap.String("id", id), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
