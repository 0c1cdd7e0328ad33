package domain

import "errors"

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrUnknownLanguage = errors.New("unknown starter language")
)
