package protocol

// EventType enumerates the fixed wire catalog. Receivers must drop unknown
// kinds silently so older clients survive newer peers.
type EventType string

const (
	EventUserJoined       EventType = "USER_JOINED"
	EventUserLeft         EventType = "USER_LEFT"
	EventCodeUpdate       EventType = "CODE_UPDATE"
	EventCommentAdded     EventType = "COMMENT_ADDED"
	EventReviewApproved   EventType = "REVIEW_APPROVED"
	EventChangesRequested EventType = "CHANGES_REQUESTED"
	EventCursorUpdate     EventType = "CURSOR_UPDATE"
	EventRoomCreated      EventType = "ROOM_CREATED"
	EventPing             EventType = "PING"
	EventPong             EventType = "PONG"
)

var catalog = map[EventType]struct{}{
	EventUserJoined:       {},
	EventUserLeft:         {},
	EventCodeUpdate:       {},
	EventCommentAdded:     {},
	EventReviewApproved:   {},
	EventChangesRequested: {},
	EventCursorUpdate:     {},
	EventRoomCreated:      {},
	EventPing:             {},
	EventPong:             {},
}

// Known reports whether t is part of the fixed catalog.
func (t EventType) Known() bool {
	_, ok := catalog[t]
	return ok
}
