package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/coderoom/sync-service/internal/domain"
)

var ErrUnknownEvent = errors.New("unknown event type")

// Payload is the tagged union over the event catalog. Each variant carries
// the strongly-typed body for exactly one event kind.
type Payload interface {
	Kind() EventType
}

type UserJoined struct {
	UserName string `json:"userName"`
}

type UserLeft struct {
	UserName string `json:"userName"`
}

type CodeUpdate struct {
	Code string `json:"code"`
}

type CursorUpdate struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

type CommentAdded struct {
	Comment domain.CodeComment `json:"comment"`
}

type ReviewApproved struct{}

type ChangesRequested struct{}

type RoomCreated struct{}

type Ping struct{}

type Pong struct{}

func (UserJoined) Kind() EventType       { return EventUserJoined }
func (UserLeft) Kind() EventType         { return EventUserLeft }
func (CodeUpdate) Kind() EventType       { return EventCodeUpdate }
func (CursorUpdate) Kind() EventType     { return EventCursorUpdate }
func (CommentAdded) Kind() EventType     { return EventCommentAdded }
func (ReviewApproved) Kind() EventType   { return EventReviewApproved }
func (ChangesRequested) Kind() EventType { return EventChangesRequested }
func (RoomCreated) Kind() EventType      { return EventRoomCreated }
func (Ping) Kind() EventType             { return EventPing }
func (Pong) Kind() EventType             { return EventPong }

// DecodePayload returns the typed payload for an envelope, or ErrUnknownEvent
// for kinds outside the catalog.
func DecodePayload(e Envelope) (Payload, error) {
	var (
		p   Payload
		err error
	)
	switch e.Type {
	case EventUserJoined:
		p, err = unmarshalAs[UserJoined](e.Payload)
	case EventUserLeft:
		p, err = unmarshalAs[UserLeft](e.Payload)
	case EventCodeUpdate:
		p, err = unmarshalAs[CodeUpdate](e.Payload)
	case EventCursorUpdate:
		p, err = unmarshalAs[CursorUpdate](e.Payload)
	case EventCommentAdded:
		p, err = unmarshalAs[CommentAdded](e.Payload)
	case EventReviewApproved:
		p = ReviewApproved{}
	case EventChangesRequested:
		p = ChangesRequested{}
	case EventRoomCreated:
		p = RoomCreated{}
	case EventPing:
		p = Ping{}
	case EventPong:
		p = Pong{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, e.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return p, nil
}

func unmarshalAs[T Payload](raw json.RawMessage) (Payload, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
