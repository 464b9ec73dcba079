package ws

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/dmateos/courtside/internal/models"
	"github.com/dmateos/courtside/internal/store"
)

// route dispatches one inbound envelope. Envelopes on a single connection
// are handled sequentially; the protocol is fire-and-forget, so nothing here
// ever closes the connection or acknowledges success.
func (h *Hub) route(c *Client, raw []byte) {
	env, err := decodeEnvelope(raw)
	if err != nil {
		h.logger.Warn("malformed envelope", zap.Int64("userId", c.userID), zap.Error(err))
		return
	}

	switch env.Type {
	case TypeSubscribe:
		h.handleSubscribe(c, env)
	case TypeSubscribeNotif:
		h.handleSubscribeNotif(c)
	case TypeChat, TypeFile:
		h.handleMessage(c, env)
	default:
		h.logger.Warn("unknown envelope type", zap.String("type", env.Type), zap.Int64("userId", c.userID))
	}
}

// handleSubscribe admits the caller to a conversation room after checking,
// against the store on every call, that they are a participant. Denial is
// reported to the caller alone.
func (h *Hub) handleSubscribe(c *Client, env Envelope) {
	if env.ChatID == "" {
		h.logger.Warn("subscribe without chatId", zap.Int64("userId", c.userID))
		return
	}

	conv, err := h.store.FindConversationByID(env.ChatID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.logger.Error("conversation lookup failed", zap.String("chatId", env.ChatID), zap.Error(err))
		}
		h.sendTo(c, errorReply{Error: "access denied to chat"})
		return
	}
	if !conv.HasParticipant(c.userID) {
		h.sendTo(c, errorReply{Error: "access denied to chat"})
		return
	}

	h.JoinConversation(conv.ID, c)
	h.logger.Info("subscribed to conversation", zap.String("chatId", conv.ID), zap.Int64("userId", c.userID))
}

// handleSubscribeNotif joins the caller to their own notification room and
// replays their full notification history, newest first. Always permitted:
// the identity comes from the authenticated connection, not the caller.
func (h *Hub) handleSubscribeNotif(c *Client) {
	h.JoinNotifications(c.userID, c)

	notifs, err := h.store.ListNotifications(c.userID)
	if err != nil {
		h.logger.Error("notification history fetch failed", zap.Int64("userId", c.userID), zap.Error(err))
		return
	}
	if notifs == nil {
		notifs = []models.Notification{}
	}
	h.sendTo(c, initNotifsReply{Type: TypeInitNotifs, Notifications: notifs})
}

// handleMessage processes a chat or file envelope: verify room membership,
// re-verify participation against the store, persist, broadcast to the room,
// then create and push one notification per recipient.
func (h *Hub) handleMessage(c *Client, env Envelope) {
	if env.ChatID == "" {
		h.logger.Warn("message without chatId", zap.Int64("userId", c.userID))
		return
	}

	// Clients must subscribe before sending; sending is never an implicit
	// subscribe. Dropped silently per protocol.
	if !h.inConversation(env.ChatID, c) {
		h.logger.Warn("message for unsubscribed conversation",
			zap.String("chatId", env.ChatID), zap.Int64("userId", c.userID))
		return
	}

	conv, err := h.store.FindConversationByID(env.ChatID)
	if err != nil {
		h.logger.Error("conversation lookup failed", zap.String("chatId", env.ChatID), zap.Error(err))
		return
	}
	// Room membership can be stale; the store is the authority.
	if !conv.HasParticipant(c.userID) {
		h.logger.Warn("sender no longer a participant",
			zap.String("chatId", conv.ID), zap.Int64("userId", c.userID))
		return
	}

	msg := &models.Message{
		ConversationID: conv.ID,
		Kind:           env.Type,
		From:           c.userID,
		Content:        env.Content,
		Timestamp:      time.Now().UTC(),
	}
	if !conv.IsGroup {
		if other, ok := conv.OtherParticipant(c.userID); ok {
			msg.To = other
		}
	}
	if env.Type == TypeFile {
		// Filename and size were already validated by the upload handler
		// before the client sent this envelope.
		msg.Filename = env.Filename
		msg.Filesize = env.Filesize
	}

	if err := h.store.AppendMessage(conv.ID, msg); err != nil {
		// Not surfaced to the sender; no acknowledgment envelopes exist.
		h.logger.Error("message append failed", zap.String("chatId", conv.ID), zap.Error(err))
		return
	}

	h.broadcastToConversation(conv.ID, messageBroadcast{ChatID: conv.ID, Message: *msg})

	h.notifyRecipients(conv, msg)
}

// notifyRecipients persists and pushes one notification per recipient,
// sequentially. A failed create aborts the remaining fan-out for this
// message.
func (h *Hub) notifyRecipients(conv *models.Conversation, msg *models.Message) {
	var recipients []int64
	if conv.IsGroup {
		recipients = lo.Filter(conv.Participants, func(id int64, _ int) bool {
			return id != msg.From
		})
	} else if msg.To != 0 {
		recipients = []int64{msg.To}
	}

	for _, userID := range recipients {
		notif := &models.Notification{
			ID:        uuid.NewString(),
			UserID:    userID,
			Title:     notificationTitle(msg.Kind, conv),
			Body:      msg.Content,
			Link:      "/chats/" + conv.ID,
			CreatedAt: msg.Timestamp,
		}
		if err := h.store.CreateNotification(notif); err != nil {
			h.logger.Error("notification create failed",
				zap.String("chatId", conv.ID), zap.Int64("recipient", userID), zap.Error(err))
			return
		}
		h.SendNotification(userID, notificationPush{Type: TypeNotification, Notification: notif})
	}
}

func notificationTitle(kind string, conv *models.Conversation) string {
	name := conv.Name
	if name == "" {
		name = "group"
	}
	switch {
	case kind == models.MessageKindFile && conv.IsGroup:
		return fmt.Sprintf("New file in %q", name)
	case kind == models.MessageKindFile:
		return "File received"
	case conv.IsGroup:
		return fmt.Sprintf("New message in %q", name)
	default:
		return "Message received"
	}
}
