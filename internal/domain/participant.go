package domain

// Participant is a member of the room roster. Presence on the roster is a
// membership fact, not a liveness fact: members stay listed after they leave,
// only the ephemeral presence overlay tracks who is live right now.
type Participant struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Color          string          `json:"color"`
	IsOnline       bool            `json:"isOnline"`
	CursorPosition *CursorPosition `json:"cursorPosition,omitempty"`
}

type CursorPosition struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

// palette assigned by join order, cycled when a room outgrows it
var participantColors = []string{
	"#8b5cf6", "#06b6d4", "#10b981", "#f59e0b", "#ef4444", "#ec4899",
}

func ColorForIndex(i int) string {
	if i < 0 {
		i = 0
	}
	return participantColors[i%len(participantColors)]
}
