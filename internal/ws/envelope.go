package ws

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"

	"github.com/dmateos/courtside/internal/models"
)

// Inbound envelope types.
const (
	TypeSubscribe      = "subscribe"
	TypeSubscribeNotif = "subscribeNotif"
	TypeChat           = models.MessageKindChat
	TypeFile           = models.MessageKindFile
)

// Outbound envelope types.
const (
	TypeInitNotifs   = "initNotifs"
	TypeNotification = "notification"
)

// Envelope is one inbound message unit. The type discriminator decides which
// of the remaining fields are meaningful.
type Envelope struct {
	Type     string `json:"type" validate:"required"`
	ChatID   string `json:"chatId"`
	Content  string `json:"content"`
	Filename string `json:"filename"`
	Filesize int64  `json:"filesize" validate:"gte=0"`
}

var validate = validator.New()

func decodeEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, err
	}
	if err := validate.Struct(env); err != nil {
		return env, err
	}
	return env, nil
}

type errorReply struct {
	Error string `json:"error"`
}

// messageBroadcast is the payload fanned out to a conversation room.
type messageBroadcast struct {
	ChatID string `json:"chatId"`
	models.Message
}

type initNotifsReply struct {
	Type          string                `json:"type"`
	Notifications []models.Notification `json:"notifications"`
}

type notificationPush struct {
	Type         string               `json:"type"`
	Notification *models.Notification `json:"notification"`
}
