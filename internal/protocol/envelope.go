package protocol

import (
	"encoding/json"
	"time"
)

// Envelope is the unit of wire transmission. Only Payload varies by Type;
// every other field is populated uniformly by the sending session.
// Timestamp is the sender's wall clock in epoch millis and is advisory only,
// never used for ordering.
type Envelope struct {
	Type       EventType       `json:"type"`
	RoomID     string          `json:"roomId"`
	SenderID   string          `json:"senderId"`
	SenderName string          `json:"senderName"`
	OriginID   string          `json:"originId"`
	Payload    json.RawMessage `json:"payload"`
	Timestamp  int64           `json:"timestamp"`
}

// Sender identifies one connection instance for echo suppression.
type Sender struct {
	RoomID   string
	UserID   string
	UserName string
	OriginID string
}

// Seal wraps a typed payload into an Envelope stamped with the sender's
// identity and current wall clock.
func Seal(s Sender, p Payload) (Envelope, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Type:       p.Kind(),
		RoomID:     s.RoomID,
		SenderID:   s.UserID,
		SenderName: s.UserName,
		OriginID:   s.OriginID,
		Payload:    raw,
		Timestamp:  time.Now().UnixMilli(),
	}, nil
}

func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Decode parses a wire frame. An unknown Type is not an error here; callers
// drop unknown kinds at dispatch.
func Decode(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, err
	}
	return e, nil
}
