package api

import (
	"errors"
	"sync"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/rs/zerolog/log"
	"go-toolchat/pkg/logger"
)

// PropsFunc builds the props of the session actor for id.
type PropsFunc func(id string) *actor.Props

// sessions maps session ids to their actor. Actors are spawned lazily on
// first use so a session that only lives in the store comes back on demand.
type sessions struct {
	mu    sync.Mutex
	ac    *actor.RootContext
	props PropsFunc
	pids  map[string]*actor.PID
}

func newSessions(ac *actor.RootContext, props PropsFunc) *sessions {
	return &sessions{
		ac:    ac,
		props: props,
		pids:  map[string]*actor.PID{},
	}
}

func (s *sessions) get(id string) (*actor.PID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pid, ok := s.pids[id]; ok {
		return pid, nil
	}
	pid, err := s.ac.SpawnNamed(s.props(id), "session-"+id)
	if errors.Is(err, actor.ErrNameExists) {
		log.Warn().Str(logger.SessionField, id).Msg("session actor already running, reusing it")
		err = nil
	}
	if err != nil {
		return nil, err
	}
	log.Debug().Str(logger.SessionField, id).Msg("session actor spawned")
	s.pids[id] = pid
	return pid, nil
}

// remove forgets an actor that is no longer alive.
func (s *sessions) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pids, id)
}

func (s *sessions) stopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, pid := range s.pids {
		s.ac.Stop(pid)
		delete(s.pids, id)
	}
}
