package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/m-mizutani/goerr/v2"
	"github.com/rs/zerolog/hlog"
	"go-toolchat/pkg/logger"
	"go-toolchat/pkg/messages"
	"go-toolchat/pkg/models"
)

const (
	writeWait      = 10 * time.Second
	maxInboundSize = 64 << 10
)

type inbound struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Model string `json:"model"`
}

// socket is the emitter of one websocket connection. The session actor and
// its tool children write through it, so writes are serialized.
type socket struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *socket) Emit(f models.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return goerr.Wrap(err, "failed to set write deadline")
	}
	if err := s.conn.WriteJSON(f); err != nil {
		return goerr.Wrap(err, "failed to write frame", goerr.V("type", f.Type))
	}
	return nil
}

func (s *Server) serveSocket(w http.ResponseWriter, r *http.Request, id string, pid *actor.PID) {
	l := hlog.FromRequest(r).With().Str(logger.SessionField, id).Logger()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		l.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxInboundSize)

	connID := uuid.NewString()
	s.ac.Send(pid, messages.Attach{ConnID: connID, Emitter: &socket{conn: conn}})
	defer s.ac.Send(pid, messages.Detach{ConnID: connID})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				l.Debug().Err(err).Msg("websocket closed unexpectedly")
			}
			return
		}

		var in inbound
		if err := json.Unmarshal(data, &in); err != nil {
			l.Debug().Err(err).Msg("ignoring malformed frame")
			continue
		}
		switch in.Type {
		case "chat":
			s.ac.Send(pid, messages.Chat{Text: in.Text})
		case "reset":
			s.ac.Send(pid, messages.Reset{})
		case "model":
			s.ac.Send(pid, messages.SetModel{Model: in.Model})
		default:
			l.Debug().Str("type", in.Type).Msg("ignoring unknown frame type")
		}
	}
}
