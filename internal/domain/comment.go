package domain

import (
	"time"

	"github.com/google/uuid"
)

// CodeComment is anchored to the line number the buffer had when it was
// posted; it is never re-anchored if later edits shift lines. Append-only.
type CodeComment struct {
	ID         string `json:"id"`
	LineNumber int    `json:"lineNumber"`
	Content    string `json:"content"`
	Author     string `json:"author"`
	Timestamp  int64  `json:"timestamp"` // epoch millis
}

func NewComment(lineNumber int, content, author string) CodeComment {
	return CodeComment{
		ID:         uuid.New().String(),
		LineNumber: lineNumber,
		Content:    content,
		Author:     author,
		Timestamp:  time.Now().UnixMilli(),
	}
}
