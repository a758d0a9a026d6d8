package api

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"slices"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/justinas/alice"
	"github.com/m-mizutani/goerr/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
	"go-toolchat/internal/config"
	"go-toolchat/pkg/logger"
	"go-toolchat/pkg/messages"
	"go-toolchat/pkg/models"
)

const defaultStateTimeout = 10 * time.Second

var sessionID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

type newSession struct {
	ID string `json:"id"`
}

type getStatus struct {
	Status models.Status `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Server struct {
	ac           *actor.RootContext
	server       *http.Server
	sessions     *sessions
	upgrader     websocket.Upgrader
	stateTimeout time.Duration
}

func New(ac *actor.RootContext, cfg config.ServerConfig, props PropsFunc, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		ac:           ac,
		sessions:     newSessions(ac, props),
		stateTimeout: cfg.StateTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin(cfg.AllowedOrigins),
		},
	}
	if s.stateTimeout <= 0 {
		s.stateTimeout = defaultStateTimeout
	}

	r := chi.NewRouter()
	r.Use(logMiddleware())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, struct {
			Status string `json:"status"`
		}{"ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Post("/sessions", func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		hlog.FromRequest(r).Debug().Str(logger.SessionField, id).Msg("session id minted")
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, newSession{ID: id})
	})

	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", s.getSession)
		r.Get("/ws", s.socket)
	})

	s.server = &http.Server{
		Addr:              cfg.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (string, *actor.PID, bool) {
	id := chi.URLParam(r, "id")
	if !sessionID.MatchString(id) {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: "invalid session id"})
		return "", nil, false
	}
	pid, err := s.sessions.get(id)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str(logger.SessionField, id).Msg("unable to spawn session actor")
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, errorResponse{Error: "unable to open session"})
		return "", nil, false
	}
	return id, pid, true
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id, pid, ok := s.session(w, r)
	if !ok {
		return
	}

	// GetState queues behind a running turn, so a slow answer means busy, not gone.
	res, err := s.ac.RequestFuture(pid, messages.GetState{}, s.stateTimeout).Result() // blocking
	switch {
	case errors.Is(err, actor.ErrTimeout):
		hlog.FromRequest(r).Warn().Str(logger.SessionField, id).Msg("session busy, state not ready")
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, errorResponse{Error: "session busy"})
		return
	case errors.Is(err, actor.ErrDeadLetter):
		s.sessions.remove(id)
		hlog.FromRequest(r).Error().Str(logger.SessionField, id).Msg("session actor is gone")
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, errorResponse{Error: "session unavailable, retry"})
		return
	case err != nil:
		hlog.FromRequest(r).Error().Err(err).Str(logger.SessionField, id).Msg("unable to get status from actor")
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, errorResponse{Error: "session unavailable"})
		return
	}
	status, ok := res.(models.Status)
	if !ok {
		hlog.FromRequest(r).Error().Str(logger.SessionField, id).Msgf("unknown status from actor: %v", res)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	render.JSON(w, r, getStatus{status})
}

func (s *Server) socket(w http.ResponseWriter, r *http.Request) {
	id, pid, ok := s.session(w, r)
	if !ok {
		return
	}
	s.serveSocket(w, r, id, pid)
}

func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("http server starting")
	err := s.server.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return goerr.Wrap(err, "http server")
	}
	return nil
}

// Stop drains HTTP connections, then stops every session actor.
func (s *Server) Stop(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	s.sessions.stopAll()
	if err != nil {
		return goerr.Wrap(err, "http server shutdown")
	}
	return nil
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}

func logMiddleware() func(http.Handler) http.Handler {
	c := alice.New()
	c = c.Append(hlog.NewHandler(log.Logger))
	c = c.Append(hlog.RemoteAddrHandler("ip"))
	c = c.Append(hlog.UserAgentHandler("agent"))
	c = c.Append(hlog.RefererHandler("referer"))
	c = c.Append(hlog.RequestIDHandler("req_id", "Request-Id"))
	c = c.Append(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("verb", r.Method).
			Stringer("url", r.URL).
			Int("size", size).
			Int("status", status).
			Int64("duration", duration.Milliseconds()).
			Msg("REQ")
	}))

	return c.Then
}
