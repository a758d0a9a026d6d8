package actor

import (
	"context"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go-toolchat/internal/agents/session/handler"
	toolactor "go-toolchat/internal/agents/tool/actor"
	"go-toolchat/internal/tools/adapter"
	"go-toolchat/pkg/logger"
	"go-toolchat/pkg/messages"
	"go-toolchat/pkg/models"
)

const (
	loadTimeout    = 10 * time.Second
	defaultToolCap = 30 * time.Second
	msgToolTimeout = "The tool took too long to respond."
)

// Session is the sequential execution context of one conversation. It owns
// the orchestrator and fans frames out to every attached connection.
type Session struct {
	id        string
	deps      handler.Deps
	cfg       handler.Config
	toolProps *actor.Props
	handler   *handler.Handler
	runner    *toolRunner
	clients   map[string]models.Emitter
}

// Props builds the props of the session actor for id. Each tool call runs in
// its own child actor, which deps.Executor backs when set and deps.Registry
// otherwise. A child that crashes is stopped, never restarted, and the
// pending call surfaces as a tool failure.
func Props(id string, deps handler.Deps, cfg handler.Config) *actor.Props {
	decider := func(reason interface{}) actor.Directive {
		log.Error().Str(logger.SessionField, id).Msgf("handling failure for child. reason: %v", reason)
		return actor.StopDirective
	}
	strategy := actor.NewOneForOneStrategy(3, time.Minute, decider)

	var runner toolactor.Runner = deps.Registry
	if deps.Executor != nil {
		runner = deps.Executor
	}
	toolProps := actor.PropsFromProducer(toolactor.New(runner))
	return actor.PropsFromProducer(func() actor.Actor {
		return &Session{
			id:        id,
			deps:      deps,
			cfg:       cfg,
			toolProps: toolProps,
			clients:   map[string]models.Emitter{},
		}
	}, actor.WithSupervisor(strategy))
}

func (agent *Session) Receive(ac actor.Context) {
	l := log.With().Fields(map[string]interface{}{
		logger.ActorIDField:   ac.Self().GetId(),
		logger.AgentNameField: "session",
		logger.SessionField:   agent.id,
	}).Logger()
	if agent.runner != nil {
		agent.runner.ac = ac
	}

	switch ac.Message().(type) {
	case *actor.Started:
		l.Debug().Msg("starting actor")
		agent.start(ac, l)
	case *actor.Stopping:
		l.Debug().Msg("stopping actor")
	case *actor.Stopped:
		l.Debug().Msg("stopped actor and its children")
		agent.deps.Metrics.SessionStopped()
	case *actor.Restarting:
		l.Debug().Msg("restarting actor")
		agent.deps.Metrics.SessionStopped()
	case *actor.Terminated:
		l.Debug().Msg("child actor terminated")
	default:
		if agent.handler == nil {
			l.Warn().Msgf("session not ready, dropping message: %v", ac.Message())
			return
		}
		agent.handle(ac, l)
	}
}

func (agent *Session) handle(ac actor.Context, l zerolog.Logger) {
	switch msg := ac.Message().(type) {
	case messages.Attach:
		l.Debug().Str("conn", msg.ConnID).Msg("Attach received")
		agent.clients[msg.ConnID] = msg.Emitter
		if err := msg.Emitter.Emit(models.Frame{Type: models.FrameReady, State: agent.handler.Snapshot()}); err != nil {
			l.Debug().Err(err).Str("conn", msg.ConnID).Msg("failed to send ready frame")
			delete(agent.clients, msg.ConnID)
		}
	case messages.Detach:
		l.Debug().Str("conn", msg.ConnID).Msg("Detach received")
		delete(agent.clients, msg.ConnID)
	case messages.Chat:
		l.Debug().Msg("Chat received")
		agent.handler.Chat(context.Background(), msg.Text, agent)
	case messages.SetModel:
		l.Debug().Str(logger.ModelField, msg.Model).Msg("SetModel received")
		agent.handler.SetModel(context.Background(), msg.Model)
	case messages.Reset:
		l.Debug().Msg("Reset received")
		agent.handler.Reset(context.Background(), agent)
	case messages.GetState:
		ac.Respond(models.Status{State: agent.handler.State(), Session: agent.handler.Snapshot()})
	default:
		l.Warn().Msgf("unknown message: %v", msg)
	}
}

func (agent *Session) start(ac actor.Context, l zerolog.Logger) {
	agent.runner = &toolRunner{ac: ac, props: agent.toolProps}
	deps := agent.deps
	deps.Executor = agent.runner

	h, err := handler.New(agent.id, deps, agent.cfg)
	if err != nil {
		// Only a broken prompt template gets here; nothing can be served.
		l.Error().Err(err).Msg("unable to build session handler")
		ac.Stop(ac.Self())
		return
	}
	agent.handler = h

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()
	if err := h.Load(ctx); err != nil {
		l.Error().Err(err).Msg("unable to load session, starting empty")
	}
	agent.deps.Metrics.SessionStarted()
}

// Emit broadcasts f to every attached connection. Connections that fail are
// dropped.
func (agent *Session) Emit(f models.Frame) error {
	for id, c := range agent.clients {
		if err := c.Emit(f); err != nil {
			log.Debug().Err(err).Str(logger.SessionField, agent.id).Str("conn", id).Msg("dropping connection")
			delete(agent.clients, id)
		}
	}
	return nil
}

// toolRunner executes a tool call in a fresh child actor and waits for it.
type toolRunner struct {
	ac    actor.Context
	props *actor.Props
}

func (r *toolRunner) Execute(ctx context.Context, tool models.ToolName, args models.Args, progress adapter.Progress) models.ToolResult {
	wait := defaultToolCap
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < wait {
			wait = d
		}
	}
	if wait <= 0 {
		return models.Failure(msgToolTimeout)
	}

	child := r.ac.Spawn(r.props)
	defer r.ac.Stop(child)

	res, err := r.ac.RequestFuture(child, messages.RunTool{Ctx: ctx, Tool: tool, Args: args, Progress: progress}, wait).Result()
	if err != nil {
		log.Warn().Err(err).Str(logger.ToolField, string(tool)).Msg("tool actor did not answer")
		return models.Failure(msgToolTimeout)
	}
	finished, ok := res.(messages.ToolFinished)
	if !ok {
		log.Error().Str(logger.ToolField, string(tool)).Msgf("unexpected reply from tool actor: %v", res)
		return models.Failure(msgToolTimeout)
	}
	return finished.Result
}
