package domain

import (
	"time"

	"github.com/google/uuid"
)

type ActivityType string

const (
	ActivityJoin           ActivityType = "join"
	ActivityLeave          ActivityType = "leave"
	ActivityCodeUpdate     ActivityType = "code-update"
	ActivityComment        ActivityType = "comment"
	ActivityApprove        ActivityType = "approve"
	ActivityRequestChanges ActivityType = "request-changes"
)

// MaxActivityEntries bounds per-room audit memory; oldest entries drop first.
const MaxActivityEntries = 20

type ActivityLogEntry struct {
	ID        string       `json:"id"`
	Type      ActivityType `json:"type"`
	User      string       `json:"user"`
	Message   string       `json:"message"`
	Timestamp time.Time    `json:"timestamp"`
}

func NewActivityEntry(t ActivityType, user, message string) ActivityLogEntry {
	return ActivityLogEntry{
		ID:        uuid.New().String(),
		Type:      t,
		User:      user,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// AppendActivity appends entry and trims the log to the most recent
// MaxActivityEntries. The input slice is not mutated.
func AppendActivity(log []ActivityLogEntry, entry ActivityLogEntry) []ActivityLogEntry {
	out := make([]ActivityLogEntry, 0, len(log)+1)
	out = append(out, log...)
	out = append(out, entry)
	if len(out) > MaxActivityEntries {
		out = out[len(out)-MaxActivityEntries:]
	}
	return out
}
