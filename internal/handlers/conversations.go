package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/dmateos/courtside/internal/middleware"
	"github.com/dmateos/courtside/internal/models"
	"github.com/dmateos/courtside/internal/store"
)

var validate = validator.New()

type ConversationHandler struct {
	Store  store.Store
	Logger *zap.Logger
}

type directConversationRequest struct {
	OtherUserID int64 `json:"otherUserId" validate:"required,gt=0"`
}

// CreateDirect returns the direct conversation between the caller and the
// given user, creating it when absent.
func (h *ConversationHandler) CreateDirect(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	var req directConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.OtherUserID == userID {
		http.Error(w, "cannot open a conversation with yourself", http.StatusBadRequest)
		return
	}

	conv, err := h.Store.FindDirectConversation(userID, req.OtherUserID)
	if errors.Is(err, store.ErrNotFound) {
		conv = &models.Conversation{
			ID:           uuid.NewString(),
			Participants: []int64{userID, req.OtherUserID},
		}
		err = h.Store.CreateConversation(conv)
	}
	if err != nil {
		h.Logger.Error("direct conversation lookup failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(conv)
}

type teamConversationRequest struct {
	TeamID       int64   `json:"teamId" validate:"required,gt=0"`
	Name         string  `json:"name"`
	Participants []int64 `json:"participants" validate:"required,min=1,dive,gt=0"`
}

// CreateTeam returns the team's group conversation, creating it when absent.
// The caller is always included as a participant.
func (h *ConversationHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	var req teamConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conv, err := h.Store.FindTeamConversation(req.TeamID)
	if errors.Is(err, store.ErrNotFound) {
		conv = &models.Conversation{
			ID:           uuid.NewString(),
			TeamID:       &req.TeamID,
			Name:         req.Name,
			IsGroup:      true,
			Participants: lo.Uniq(append(req.Participants, userID)),
		}
		err = h.Store.CreateConversation(conv)
	}
	if err != nil {
		h.Logger.Error("team conversation lookup failed", zap.Int64("teamId", req.TeamID), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(conv)
}

// List returns every conversation the caller participates in.
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	conversations, err := h.Store.ListUserConversations(userID)
	if err != nil {
		h.Logger.Error("conversation list failed", zap.Int64("userId", userID), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if conversations == nil {
		conversations = []models.Conversation{}
	}

	json.NewEncoder(w).Encode(conversations)
}

// GetMessages returns a conversation's history to its participants.
func (h *ConversationHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)
	conversationID := mux.Vars(r)["id"]

	conv, err := h.Store.FindConversationByID(conversationID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "conversation not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Logger.Error("conversation lookup failed", zap.String("chatId", conversationID), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !conv.HasParticipant(userID) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	messages, err := h.Store.ListMessages(conv.ID)
	if err != nil {
		h.Logger.Error("message history fetch failed", zap.String("chatId", conv.ID), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}

	json.NewEncoder(w).Encode(messages)
}
