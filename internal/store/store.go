package store

import (
	"errors"

	"github.com/dmateos/courtside/internal/models"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("store: not found")

type ConversationStore interface {
	CreateConversation(conv *models.Conversation) error
	FindConversationByID(id string) (*models.Conversation, error)
	FindDirectConversation(userA, userB int64) (*models.Conversation, error)
	FindTeamConversation(teamID int64) (*models.Conversation, error)
	ListUserConversations(userID int64) ([]models.Conversation, error)

	// AppendMessage atomically adds one message to a conversation's history.
	AppendMessage(conversationID string, msg *models.Message) error
	ListMessages(conversationID string) ([]models.Message, error)
}

type NotificationStore interface {
	CreateNotification(n *models.Notification) error
	// ListNotifications returns a user's notifications, newest first.
	ListNotifications(userID int64) ([]models.Notification, error)
	MarkNotificationRead(id string, userID int64) error
}

type Store interface {
	ConversationStore
	NotificationStore
}
