// Package room applies inbound envelopes to local room state. Apply is the
// single mutation path for a Room while a session is live; UI-originated
// changes go through the same event round-trip.
package room

import (
	"fmt"
	"log/slog"

	"github.com/coderoom/sync-service/internal/domain"
	"github.com/coderoom/sync-service/internal/protocol"
)

// Apply returns the room state after observing env. It is total: any
// well-formed envelope yields a result, a malformed payload logs and returns
// the input unchanged, and the input value is never mutated.
//
// Conflicting concurrent CODE_UPDATEs resolve as last-write-observed-wins at
// whole-buffer granularity. Two near-simultaneous edits can clobber each
// other; that is the documented contract, not a defect to patch here.
func Apply(r domain.Room, env protocol.Envelope) domain.Room {
	p, err := protocol.DecodePayload(env)
	if err != nil {
		slog.Warn("reconcile: drop payload", "type", env.Type, "room", r.ID, "err", err)
		return r
	}

	switch p := p.(type) {
	case protocol.UserJoined:
		return applyJoin(r, env, p)

	case protocol.UserLeft:
		name := senderName(env, p.UserName)
		r.ActivityLog = domain.AppendActivity(r.ActivityLog,
			domain.NewActivityEntry(domain.ActivityLeave, name, name+" left the room"))
		return r

	case protocol.CodeUpdate:
		r.Code = p.Code
		name := senderName(env, "")
		r.ActivityLog = domain.AppendActivity(r.ActivityLog,
			domain.NewActivityEntry(domain.ActivityCodeUpdate, name, name+" updated the code"))
		return r

	case protocol.CommentAdded:
		return applyComment(r, env, p)

	case protocol.ReviewApproved:
		name := senderName(env, "")
		r.Status = domain.StatusApproved
		r.ActivityLog = domain.AppendActivity(r.ActivityLog,
			domain.NewActivityEntry(domain.ActivityApprove, name, name+" approved the review"))
		return r

	case protocol.ChangesRequested:
		name := senderName(env, "")
		r.Status = domain.StatusChangesRequested
		r.ActivityLog = domain.AppendActivity(r.ActivityLog,
			domain.NewActivityEntry(domain.ActivityRequestChanges, name, name+" requested changes"))
		return r

	case protocol.CursorUpdate:
		return applyCursor(r, env, p)

	default:
		// PING, PONG, ROOM_CREATED carry no state.
		return r
	}
}

// applyJoin is idempotent per sender id: a duplicate join changes nothing,
// not even the activity log. New members take the next palette color.
func applyJoin(r domain.Room, env protocol.Envelope, p protocol.UserJoined) domain.Room {
	if r.HasParticipant(env.SenderID) {
		return r
	}
	name := senderName(env, p.UserName)

	parts := make([]domain.Participant, 0, len(r.Participants)+1)
	parts = append(parts, r.Participants...)
	parts = append(parts, domain.Participant{
		ID:       env.SenderID,
		Name:     name,
		Color:    domain.ColorForIndex(len(r.Participants)),
		IsOnline: true,
	})
	r.Participants = parts

	r.ActivityLog = domain.AppendActivity(r.ActivityLog,
		domain.NewActivityEntry(domain.ActivityJoin, name, name+" joined"))
	return r
}

// applyComment appends, deduping by comment id: ids are generator-unique, but
// the transport does not promise at-most-once end to end.
func applyComment(r domain.Room, env protocol.Envelope, p protocol.CommentAdded) domain.Room {
	for _, c := range r.Comments {
		if c.ID == p.Comment.ID {
			return r
		}
	}

	comments := make([]domain.CodeComment, 0, len(r.Comments)+1)
	comments = append(comments, r.Comments...)
	comments = append(comments, p.Comment)
	r.Comments = comments

	name := senderName(env, p.Comment.Author)
	r.ActivityLog = domain.AppendActivity(r.ActivityLog,
		domain.NewActivityEntry(domain.ActivityComment, name,
			fmt.Sprintf("%s commented on line %d", name, p.Comment.LineNumber)))
	return r
}

// applyCursor records the sender's last known cursor on their roster row.
// Unknown senders (cursor before join was observed) are skipped.
func applyCursor(r domain.Room, env protocol.Envelope, p protocol.CursorUpdate) domain.Room {
	for i, part := range r.Participants {
		if part.ID != env.SenderID {
			continue
		}
		parts := make([]domain.Participant, len(r.Participants))
		copy(parts, r.Participants)
		parts[i].CursorPosition = &domain.CursorPosition{Line: p.Line, Col: p.Col}
		r.Participants = parts
		return r
	}
	return r
}

func senderName(env protocol.Envelope, fallback string) string {
	if env.SenderName != "" {
		return env.SenderName
	}
	if fallback != "" {
		return fallback
	}
	return env.SenderID
}
