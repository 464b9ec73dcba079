package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dmateos/courtside/internal/auth"
	"github.com/dmateos/courtside/internal/middleware"
	"github.com/dmateos/courtside/internal/models"
	"github.com/dmateos/courtside/internal/store/sqlstore"
)

const testSecret = "handlers-test-secret"

func newAPI(t *testing.T) (*mux.Router, *sqlstore.SQLStore) {
	t.Helper()
	st, err := sqlstore.New("sqlite3", ":memory:")
	require.NoError(t, err)

	logger := zaptest.NewLogger(t)
	conversations := &ConversationHandler{Store: st, Logger: logger}
	notifications := &NotificationHandler{Store: st, Logger: logger}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Authenticate(auth.NewVerifier(testSecret)))
	api.HandleFunc("/conversations", conversations.List).Methods("GET")
	api.HandleFunc("/conversations/direct", conversations.CreateDirect).Methods("POST")
	api.HandleFunc("/conversations/team", conversations.CreateTeam).Methods("POST")
	api.HandleFunc("/conversations/{id}/messages", conversations.GetMessages).Methods("GET")
	api.HandleFunc("/notifications", notifications.List).Methods("GET")
	api.HandleFunc("/notifications/{id}/read", notifications.MarkRead).Methods("PUT")
	return r, st
}

func doJSON(t *testing.T, router *mux.Router, userID int64, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, path, &buf)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": userID}).
		SignedString([]byte(testSecret))
	require.NoError(t, err)
	r.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func TestCreateDirectConversationIsIdempotent(t *testing.T) {
	router, _ := newAPI(t)

	w := doJSON(t, router, 1, "POST", "/api/conversations/direct", map[string]int64{"otherUserId": 2})
	require.Equal(t, http.StatusOK, w.Code)
	var first models.Conversation
	require.NoError(t, json.NewDecoder(w.Body).Decode(&first))
	require.False(t, first.IsGroup)
	require.ElementsMatch(t, []int64{1, 2}, first.Participants)

	// The other participant asking for the same pair gets the same thread.
	w = doJSON(t, router, 2, "POST", "/api/conversations/direct", map[string]int64{"otherUserId": 1})
	require.Equal(t, http.StatusOK, w.Code)
	var second models.Conversation
	require.NoError(t, json.NewDecoder(w.Body).Decode(&second))
	require.Equal(t, first.ID, second.ID)
}

func TestCreateDirectConversationRejectsSelf(t *testing.T) {
	router, _ := newAPI(t)

	w := doJSON(t, router, 1, "POST", "/api/conversations/direct", map[string]int64{"otherUserId": 1})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateTeamConversationIncludesCaller(t *testing.T) {
	router, _ := newAPI(t)

	w := doJSON(t, router, 1, "POST", "/api/conversations/team", map[string]interface{}{
		"teamId":       9,
		"name":         "Tigers",
		"participants": []int64{2, 3},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var conv models.Conversation
	require.NoError(t, json.NewDecoder(w.Body).Decode(&conv))
	require.True(t, conv.IsGroup)
	require.Equal(t, "Tigers", conv.Name)
	require.ElementsMatch(t, []int64{1, 2, 3}, conv.Participants)

	// Repeat returns the existing conversation for the team.
	w = doJSON(t, router, 2, "POST", "/api/conversations/team", map[string]interface{}{
		"teamId":       9,
		"participants": []int64{2},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var again models.Conversation
	require.NoError(t, json.NewDecoder(w.Body).Decode(&again))
	require.Equal(t, conv.ID, again.ID)
}

func TestListConversationsIsParticipantScoped(t *testing.T) {
	router, st := newAPI(t)

	mine := &models.Conversation{ID: uuid.NewString(), Participants: []int64{1, 2}}
	require.NoError(t, st.CreateConversation(mine))
	other := &models.Conversation{ID: uuid.NewString(), Participants: []int64{2, 3}}
	require.NoError(t, st.CreateConversation(other))

	w := doJSON(t, router, 1, "GET", "/api/conversations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var conversations []models.Conversation
	require.NoError(t, json.NewDecoder(w.Body).Decode(&conversations))
	require.Len(t, conversations, 1)
	require.Equal(t, mine.ID, conversations[0].ID)

	// No conversations yet is an empty array, not null.
	w = doJSON(t, router, 4, "GET", "/api/conversations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, "[]", w.Body.String())
}

func TestGetMessagesRequiresParticipation(t *testing.T) {
	router, st := newAPI(t)

	conv := &models.Conversation{ID: uuid.NewString(), Participants: []int64{1, 2}}
	require.NoError(t, st.CreateConversation(conv))
	require.NoError(t, st.AppendMessage(conv.ID, &models.Message{
		Kind: models.MessageKindChat, From: 1, To: 2, Content: "hello", Timestamp: time.Now().UTC(),
	}))

	w := doJSON(t, router, 2, "GET", "/api/conversations/"+conv.ID+"/messages", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var messages []models.Message
	require.NoError(t, json.NewDecoder(w.Body).Decode(&messages))
	require.Len(t, messages, 1)
	require.Equal(t, "hello", messages[0].Content)

	w = doJSON(t, router, 3, "GET", "/api/conversations/"+conv.ID+"/messages", nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, router, 1, "GET", "/api/conversations/"+uuid.NewString()+"/messages", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestNotificationListAndMarkRead(t *testing.T) {
	router, st := newAPI(t)

	base := time.Now().UTC().Truncate(time.Second)
	older := &models.Notification{
		ID: uuid.NewString(), UserID: 1, Title: "Message received", Link: "/chats/a", CreatedAt: base,
	}
	newer := &models.Notification{
		ID: uuid.NewString(), UserID: 1, Title: "File received", Link: "/chats/a", CreatedAt: base.Add(time.Second),
	}
	require.NoError(t, st.CreateNotification(older))
	require.NoError(t, st.CreateNotification(newer))

	w := doJSON(t, router, 1, "GET", "/api/notifications", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var notifications []models.Notification
	require.NoError(t, json.NewDecoder(w.Body).Decode(&notifications))
	require.Len(t, notifications, 2)
	require.Equal(t, newer.ID, notifications[0].ID)

	// Someone else cannot mark another user's notification.
	w = doJSON(t, router, 2, "PUT", "/api/notifications/"+older.ID+"/read", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, 1, "PUT", "/api/notifications/"+older.ID+"/read", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, 1, "GET", "/api/notifications", nil)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&notifications))
	require.True(t, notifications[1].Read)
	require.False(t, notifications[0].Read)
}

func TestEmptyListsEncodeAsArrays(t *testing.T) {
	router, _ := newAPI(t)

	w := doJSON(t, router, 1, "GET", "/api/notifications", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, "[]", w.Body.String())
}
