package comm

import (
	"encoding/json"

	"github.com/avvvet/lottery-services/internal/lottery/models"
)

const TypeDrawDue = "draw-due"

// Message is the envelope published on NATS subjects.
type Message struct {
	Type string          `json:"type"` // e.g. "draw-due"
	Data json.RawMessage `json:"data"`
}

type DrawNotification struct {
	ID           string               `json:"id"` // message id, lets consumers drop redeliveries
	DrawID       int64                `json:"draw_id"`
	GameID       int64                `json:"game_id"`
	DrawDatetime models.LocalDateTime `json:"draw_datetime"`
	Image        *string              `json:"image,omitempty"`
}

// Encode wraps v in a Message of the given type.
func Encode(msgType string, v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Message{Type: msgType, Data: data})
}
