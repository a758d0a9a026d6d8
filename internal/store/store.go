// Package store persists sessions. Messages are append only; the only other
// writes replace session metadata or the whole session at once.
package store

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"go-toolchat/pkg/models"
)

var ErrNotFound = goerr.New("session not found")

type Store interface {
	// Load returns the session with its messages in insertion order, or
	// ErrNotFound.
	Load(ctx context.Context, id string) (*models.Session, error)
	// Reset replaces the stored session with s and drops every message. It
	// also creates sessions on first contact.
	Reset(ctx context.Context, s *models.Session) error
	// Append adds one message and moves the expiry.
	Append(ctx context.Context, id string, msg models.Message, expiresAt int64) error
	// SetModel changes the active model and moves the expiry.
	SetModel(ctx context.Context, id, model string, expiresAt int64) error
}

type Memory struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

func NewMemory() *Memory {
	return &Memory{sessions: map[string]*models.Session{}}
}

func (m *Memory) Load(_ context.Context, id string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "load", goerr.V("session", id))
	}
	return s.Clone(), nil
}

func (m *Memory) Reset(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := s.Clone()
	c.Messages = c.Messages[:0]
	m.sessions[s.ID] = c
	return nil
}

func (m *Memory) Append(_ context.Context, id string, msg models.Message, expiresAt int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return goerr.Wrap(ErrNotFound, "append", goerr.V("session", id))
	}
	s.Messages = append(s.Messages, msg)
	s.ExpiresAt = expiresAt
	return nil
}

func (m *Memory) SetModel(_ context.Context, id, model string, expiresAt int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return goerr.Wrap(ErrNotFound, "set model", goerr.V("session", id))
	}
	s.Model = model
	s.ExpiresAt = expiresAt
	return nil
}
