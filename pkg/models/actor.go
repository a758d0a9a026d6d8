package models

import (
	"time"
)

// Session is the whole persisted state of one conversation. It is replayed to
// every client that attaches.
type Session struct {
	ID        string    `json:"id"`
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	CreatedAt int64     `json:"createdAt"`
	ExpiresAt int64     `json:"expiresAt"`
}

// Clone returns a copy that shares no slices with s.
func (s *Session) Clone() *Session {
	c := *s
	c.Messages = make([]Message, len(s.Messages))
	copy(c.Messages, s.Messages)
	return &c
}

// LastTimestamp returns the timestamp of the newest message, or 0.
func (s *Session) LastTimestamp() int64 {
	if len(s.Messages) == 0 {
		return 0
	}
	return s.Messages[len(s.Messages)-1].CreatedAt
}

// Status is what the session actor reports back for GetState requests.
type Status struct {
	State   State    `json:"state"`
	Session *Session `json:"session"`
}

// Millis converts t to milliseconds since the epoch.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}
