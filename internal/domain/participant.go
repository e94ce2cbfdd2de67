// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"time"
)

const MaxDisplayNameLen = 36

var (
	ErrNameTooLong = errors.New("display name too long")
	ErrNameEmpty   = errors.New("display name empty")
)

// Participant is one roster entry of a live meeting. The ID is the
// connection-scoped session id; it never outlives the room.
type Participant struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	JoinedAt   int64  `json:"joinedAt"`
	IsSpeaking bool   `json:"isSpeaking"`
}

// NewParticipant avoids raw literals in adapters and keeps construction obvious.
func NewParticipant(id, name string) (*Participant, error) {
	if len(name) == 0 {
		return nil, ErrNameEmpty
	}
	if len(name) > MaxDisplayNameLen {
		return nil, ErrNameTooLong
	}
	return &Participant{ID: id, Name: name, JoinedAt: time.Now().UnixMilli()}, nil
}
