package handler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	planner "go-toolchat/internal/agents/planner/handler"
	"go-toolchat/internal/llm"
	"go-toolchat/internal/metrics"
	"go-toolchat/internal/store"
	"go-toolchat/internal/telemetry"
	"go-toolchat/internal/tools"
	"go-toolchat/internal/tools/adapter"
	"go-toolchat/pkg/logger"
	"go-toolchat/pkg/memory/buffer"
	"go-toolchat/pkg/models"
	"go-toolchat/pkg/prompts"
	"go.opentelemetry.io/otel/attribute"
)

const (
	InterruptedMarker = "[response interrupted]"
	EmptyReply        = "[no response]"

	assistantName = "Toolchat"
)

type Planner interface {
	Plan(ctx context.Context, model string, history []models.Message, text string) planner.Decision
}

// Executor runs the chosen tool. *tools.Registry runs it inline; the session
// actor swaps in one that runs it inside a child actor.
type Executor interface {
	Execute(ctx context.Context, tool models.ToolName, args models.Args, progress adapter.Progress) models.ToolResult
}

type Config struct {
	DefaultModel    string
	ContextWindow   int
	TTL             time.Duration
	TurnTimeout     time.Duration
	ChatTemperature float64
	ChatMaxTokens   int
}

type Deps struct {
	Store    store.Store
	Planner  Planner
	LLM      llm.Client
	Registry *tools.Registry
	Executor Executor
	Metrics  *metrics.Metrics
}

// Handler owns one session. It is not safe for concurrent use; the session
// actor serializes every call.
type Handler struct {
	deps    Deps
	cfg     Config
	system  string
	now     func() time.Time
	state   models.State
	session *models.Session
}

func New(id string, deps Deps, cfg Config) (*Handler, error) {
	system, err := prompts.Chat(assistantName)
	if err != nil {
		return nil, err
	}
	if deps.Executor == nil {
		deps.Executor = deps.Registry
	}
	h := &Handler{
		deps:   deps,
		cfg:    cfg,
		system: system,
		now:    time.Now,
		state:  models.Init,
	}
	h.session = h.fresh(id, cfg.DefaultModel)
	return h, nil
}

func (h *Handler) fresh(id, model string) *models.Session {
	now := models.Millis(h.now())
	return &models.Session{
		ID:        id,
		Model:     model,
		Messages:  []models.Message{},
		CreatedAt: now,
		ExpiresAt: now + h.cfg.TTL.Milliseconds(),
	}
}

// Load restores the session from the store, creating it on first contact.
// On a store failure the handler keeps an empty in memory session and stays
// usable.
func (h *Handler) Load(ctx context.Context) error {
	id := h.session.ID
	s, err := h.deps.Store.Load(ctx, id)
	switch {
	case err == nil && s.ExpiresAt >= models.Millis(h.now()):
		h.session = s
		if h.session.Messages == nil {
			h.session.Messages = []models.Message{}
		}
	case err == nil || errors.Is(err, store.ErrNotFound):
		h.session = h.fresh(id, h.cfg.DefaultModel)
		if err := h.deps.Store.Reset(ctx, h.session); err != nil {
			h.state = models.Failed
			return err
		}
	default:
		h.state = models.Failed
		return err
	}
	h.state = models.Idle
	return nil
}

// Snapshot returns a copy of the session for ready frames and HTTP reads.
func (h *Handler) Snapshot() *models.Session {
	return h.session.Clone()
}

func (h *Handler) State() models.State {
	return h.state
}

// SetModel switches the active model. Blank ids are ignored.
func (h *Handler) SetModel(ctx context.Context, model string) {
	model = strings.TrimSpace(model)
	if model == "" {
		return
	}
	h.renew(ctx)
	h.session.Model = model
	h.session.ExpiresAt = h.expiry()
	err := h.deps.Store.SetModel(ctx, h.session.ID, model, h.session.ExpiresAt)
	if errors.Is(err, store.ErrNotFound) {
		err = h.restore(ctx)
	}
	if err != nil {
		log.Error().Err(err).Str(logger.SessionField, h.session.ID).Msg("failed to persist model")
	}
	log.Debug().Str(logger.SessionField, h.session.ID).Str(logger.ModelField, model).Msg("model changed")
}

// Reset drops every message and restarts the session clock. The active
// model survives a reset.
func (h *Handler) Reset(ctx context.Context, emit models.Emitter) {
	h.session = h.fresh(h.session.ID, h.session.Model)
	if err := h.deps.Store.Reset(ctx, h.session); err != nil {
		log.Error().Err(err).Str(logger.SessionField, h.session.ID).Msg("failed to persist reset")
	}
	h.state = models.Idle
	h.emit(emit, models.Frame{Type: models.FrameCleared})
}

// Chat runs one turn to a terminal outcome. Blank input is ignored.
func (h *Handler) Chat(ctx context.Context, text string, emit models.Emitter) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	h.renew(ctx)
	if h.cfg.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.TurnTimeout)
		defer cancel()
	}
	ctx, span := telemetry.Tracer().Start(ctx, "session.turn")
	defer span.End()
	span.SetAttributes(attribute.String("session", h.session.ID))

	window := buffer.FromMessages(h.session.Messages, h.cfg.ContextWindow).Items
	h.append(ctx, models.RoleUser, text)

	h.state = models.Planning
	decision := h.deps.Planner.Plan(ctx, h.session.Model, window, text)

	var ok bool
	if decision.None() {
		h.deps.Metrics.Turn("chat")
		ok = h.stream(ctx, window, text, emit)
	} else {
		h.deps.Metrics.Turn("tool")
		span.SetAttributes(attribute.String("tool", string(decision.Tool)))
		ok = h.runTool(ctx, decision, emit)
	}

	h.state = models.Idle
	if !ok {
		h.state = models.Failed
	}
}

func (h *Handler) runTool(ctx context.Context, d planner.Decision, emit models.Emitter) bool {
	h.state = models.Running
	log.Debug().Str(logger.SessionField, h.session.ID).Str(logger.ToolField, string(d.Tool)).Msg("running tool")

	h.reply(ctx, h.deps.Registry.Ack(d.Tool), emit)
	h.emit(emit, models.Frame{Type: models.FrameTool, Tool: d.Tool, Status: models.ToolStarted})

	progress := func(step string) {
		h.emit(emit, models.Frame{Type: models.FrameTool, Tool: d.Tool, Status: models.ToolStep, Message: step})
	}

	start := time.Now()
	res := h.deps.Executor.Execute(ctx, d.Tool, d.Args, progress)
	if res.OK {
		if err := res.Validate(d.Tool); err != nil {
			log.Error().Err(err).Str(logger.ToolField, string(d.Tool)).Msg("tool returned an incomplete result")
			res = models.Failure("The tool returned an incomplete answer.")
		}
	}
	h.deps.Metrics.ToolExecuted(string(d.Tool), res.OK, time.Since(start))

	if !res.OK {
		h.emit(emit, models.Frame{Type: models.FrameTool, Tool: d.Tool, Status: models.ToolError, Message: res.Error})
		h.reply(ctx, h.deps.Registry.Summarize(d.Tool, res), emit)
		return false
	}

	h.emit(emit, models.Frame{Type: models.FrameTool, Tool: d.Tool, Status: models.ToolDone, Result: &res})
	msg, err := models.NewToolMessage(d.Tool, res, h.stamp())
	if err != nil {
		log.Error().Err(err).Str(logger.SessionField, h.session.ID).Msg("failed to encode tool result")
	} else {
		h.persist(ctx, msg)
	}
	h.reply(ctx, h.deps.Registry.Summarize(d.Tool, res), emit)
	return true
}

func (h *Handler) stream(ctx context.Context, window []models.Message, text string, emit models.Emitter) bool {
	h.state = models.Streaming
	req := llm.Request{
		Model:       h.session.Model,
		System:      h.system,
		Messages:    append(llm.FromHistory(window), llm.Message{Role: llm.RoleUser, Content: text}),
		Temperature: h.cfg.ChatTemperature,
		MaxTokens:   h.cfg.ChatMaxTokens,
	}

	reply, err := h.deps.LLM.Stream(ctx, req, func(fragment string) error {
		h.emit(emit, models.Frame{Type: models.FrameDelta, Text: fragment})
		return nil
	})

	ok := err == nil
	if err != nil {
		h.deps.Metrics.StreamError()
		log.Warn().Err(err).Str(logger.SessionField, h.session.ID).Msg("stream interrupted")
		tail := InterruptedMarker
		if strings.TrimSpace(reply) != "" {
			tail = " " + InterruptedMarker
		}
		reply += tail
		h.emit(emit, models.Frame{Type: models.FrameDelta, Text: tail})
	} else if strings.TrimSpace(reply) == "" {
		reply = EmptyReply
		h.emit(emit, models.Frame{Type: models.FrameDelta, Text: reply})
	}

	h.append(ctx, models.RoleAssistant, reply)
	h.emit(emit, models.Frame{Type: models.FrameDone})
	return ok
}

// reply sends a complete assistant message as one delta and persists it.
func (h *Handler) reply(ctx context.Context, text string, emit models.Emitter) {
	h.append(ctx, models.RoleAssistant, text)
	h.emit(emit, models.Frame{Type: models.FrameDelta, Text: text})
	h.emit(emit, models.Frame{Type: models.FrameDone})
}

func (h *Handler) append(ctx context.Context, role models.Role, content string) {
	h.persist(ctx, models.Message{Role: role, Content: content, CreatedAt: h.stamp()})
}

// persist appends msg to the session, then to the store. The write outlives
// an expired turn deadline. A store failure is logged and the turn goes on.
func (h *Handler) persist(ctx context.Context, msg models.Message) {
	h.session.Messages = append(h.session.Messages, msg)
	h.session.ExpiresAt = h.expiry()
	ctx = context.WithoutCancel(ctx)
	err := h.deps.Store.Append(ctx, h.session.ID, msg, h.session.ExpiresAt)
	if errors.Is(err, store.ErrNotFound) {
		err = h.restore(ctx)
	}
	if err != nil {
		log.Error().Err(err).Str(logger.SessionField, h.session.ID).Str("role", string(msg.Role)).Msg("failed to persist message")
	}
}

// renew starts over when the session expired while the actor held it in
// memory, the same way Load treats an expired stored session.
func (h *Handler) renew(ctx context.Context) {
	if h.session.ExpiresAt >= models.Millis(h.now()) {
		return
	}
	log.Info().Str(logger.SessionField, h.session.ID).Msg("session expired, starting fresh")
	h.session = h.fresh(h.session.ID, h.cfg.DefaultModel)
	if err := h.deps.Store.Reset(context.WithoutCancel(ctx), h.session); err != nil {
		log.Error().Err(err).Str(logger.SessionField, h.session.ID).Msg("failed to persist renewed session")
	}
}

// restore writes the in memory session back after the store lost it.
func (h *Handler) restore(ctx context.Context) error {
	log.Warn().Str(logger.SessionField, h.session.ID).Msg("session missing from store, restoring")
	if err := h.deps.Store.Reset(ctx, h.session); err != nil {
		return err
	}
	for _, msg := range h.session.Messages {
		if err := h.deps.Store.Append(ctx, h.session.ID, msg, h.session.ExpiresAt); err != nil {
			return err
		}
	}
	return nil
}

// stamp never goes below the newest message so replay order is stable even
// if the wall clock steps back.
func (h *Handler) stamp() int64 {
	now := models.Millis(h.now())
	if last := h.session.LastTimestamp(); last > now {
		return last
	}
	return now
}

func (h *Handler) expiry() int64 {
	exp := models.Millis(h.now()) + h.cfg.TTL.Milliseconds()
	if exp < h.session.CreatedAt {
		return h.session.CreatedAt
	}
	return exp
}

func (h *Handler) emit(emit models.Emitter, f models.Frame) {
	if emit == nil {
		return
	}
	if err := emit.Emit(f); err != nil {
		log.Debug().Err(err).Str(logger.SessionField, h.session.ID).Str("frame", string(f.Type)).Msg("failed to emit frame")
	}
}
