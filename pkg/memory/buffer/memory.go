package buffer

import (
	"go-toolchat/pkg/models"
)

// Memories is the bounded conversation window handed to the model: only user
// and assistant turns, at most Size of them, oldest first.
type Memories struct {
	Items []models.Message `json:"memories"`
	Size  int              `json:"size"`
}

func New(size int) *Memories {
	return &Memories{Items: make([]models.Message, 0, size), Size: size}
}

// FromMessages builds the window over a persisted log.
func FromMessages(msgs []models.Message, size int) *Memories {
	m := New(size)
	for _, msg := range msgs {
		m.Add(msg)
	}
	return m
}

// Add appends msg, ignoring tool rows and dropping the oldest entry once the
// window is full.
func (m *Memories) Add(msg models.Message) {
	if msg.Role != models.RoleUser && msg.Role != models.RoleAssistant {
		return
	}
	if m.Size <= 0 {
		return
	}
	m.Items = append(m.Items, msg)
	if over := len(m.Items) - m.Size; over > 0 {
		m.Items = m.Items[over:]
	}
}
