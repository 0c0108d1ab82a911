package websocket

import (
	"time"

	"github.com/KevinKickass/OpenPedalCore/internal/events"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Session messages
	MessageTypeAuthSuccess  MessageType = "auth_success"
	MessageTypeAuthFailed   MessageType = "auth_failed"
	MessageTypeSubscribed   MessageType = "subscribed"
	MessageTypeUnsubscribed MessageType = "unsubscribed"
	MessageTypeError        MessageType = "error"

	// Workbench messages, mirrored from the event streamer
	MessageTypeWorkbenchUpdated   MessageType = MessageType(events.TypeWorkbenchUpdated)
	MessageTypeConnectionsChanged MessageType = MessageType(events.TypeConnectionsChanged)
	MessageTypeBudgetChanged      MessageType = MessageType(events.TypeBudgetChanged)
)

// Client → server message types
const (
	clientAuth        = "auth"
	clientSubscribe   = "subscribe"
	clientUnsubscribe = "unsubscribe"
)

type Message struct {
	Type        MessageType `json:"type"`
	WorkbenchID string      `json:"workbench_id,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
	Data        any         `json:"data,omitempty"`
}

// clientMessage is what clients send. Token is set for auth, WorkbenchID
// for subscribe and unsubscribe.
type clientMessage struct {
	Type        string `json:"type"`
	Token       string `json:"token,omitempty"`
	WorkbenchID string `json:"workbench_id,omitempty"`
}

func NewMessage(msgType MessageType, data any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// FromEvent converts a streamer event into a broadcast message.
func FromEvent(ev events.Event) Message {
	return Message{
		Type:        MessageType(ev.Type),
		WorkbenchID: ev.WorkbenchID,
		Timestamp:   ev.Timestamp,
		Data:        ev.Data,
	}
}
