package domain

import (
	"crypto/rand"
	"strings"
	"time"
)

type RoomStatus string

const (
	StatusActive           RoomStatus = "active"
	StatusApproved         RoomStatus = "approved"
	StatusChangesRequested RoomStatus = "changes-requested"
)

// Room is one client's full copy of the shared review state. No copy is
// authoritative; clients converge through the event stream.
type Room struct {
	ID           string             `json:"id" db:"id"`
	Name         string             `json:"name" db:"name"`
	Code         string             `json:"code" db:"code"`
	Language     string             `json:"language" db:"language"`
	Participants []Participant      `json:"participants"`
	Comments     []CodeComment      `json:"comments"`
	ActivityLog  []ActivityLogEntry `json:"activityLog"`
	Status       RoomStatus         `json:"status" db:"status"`
	CreatedAt    time.Time          `json:"createdAt" db:"created_at"`
}

const roomIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewRoomID returns a short shareable identifier: 6 chars of base-36.
func NewRoomID() string {
	buf := make([]byte, 6)
	_, _ = rand.Read(buf)
	var b strings.Builder
	for _, c := range buf {
		b.WriteByte(roomIDAlphabet[int(c)%len(roomIDAlphabet)])
	}
	return b.String()
}

// NewRoom creates a room owned by the founding participant. The founder gets
// the first palette color and a "created the room" activity entry.
func NewRoom(name, language, code, founderID, founderName string) *Room {
	if name == "" {
		name = "Code Review Room"
	}
	r := &Room{
		ID:       NewRoomID(),
		Name:     name,
		Code:     code,
		Language: language,
		Participants: []Participant{{
			ID:       founderID,
			Name:     founderName,
			Color:    ColorForIndex(0),
			IsOnline: true,
		}},
		Comments:  []CodeComment{},
		Status:    StatusActive,
		CreatedAt: time.Now(),
	}
	r.ActivityLog = AppendActivity(nil, NewActivityEntry(ActivityJoin, founderName, founderName+" created the room"))
	return r
}

// HasParticipant reports whether userID is already on the roster.
func (r *Room) HasParticipant(userID string) bool {
	for _, p := range r.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}
