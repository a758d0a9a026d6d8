package actor

import (
	"context"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/rs/zerolog/log"
	"go-toolchat/internal/tools/adapter"
	"go-toolchat/pkg/logger"
	"go-toolchat/pkg/messages"
	"go-toolchat/pkg/models"
)

// Runner is what a tool actor executes. *tools.Registry satisfies it.
type Runner interface {
	Execute(ctx context.Context, tool models.ToolName, args models.Args, progress adapter.Progress) models.ToolResult
}

// Tool runs exactly one tool call per spawn and answers the requester with
// messages.ToolFinished.
type Tool struct {
	runner Runner
}

func New(runner Runner) actor.Producer {
	return func() actor.Actor {
		return &Tool{runner: runner}
	}
}

func (agent *Tool) Receive(ac actor.Context) {
	l := log.With().Fields(map[string]interface{}{logger.ActorIDField: ac.Self().GetId(), logger.AgentNameField: "tool"}).Logger()
	switch msg := ac.Message().(type) {
	case *actor.Started:
		l.Debug().Msg("starting actor")
	case *actor.Stopping:
		l.Debug().Msg("stopping actor")
	case *actor.Stopped:
		l.Debug().Msg("stopped actor")
	case *actor.Restarting:
		l.Debug().Msg("restarting actor")
	case messages.RunTool:
		l.Debug().Str(logger.ToolField, string(msg.Tool)).Msg("RunTool received from session")
		ctx := msg.Ctx
		if ctx == nil {
			ctx = context.Background()
		}
		res := agent.runner.Execute(ctx, msg.Tool, msg.Args, msg.Progress)
		ac.Respond(messages.ToolFinished{Result: res})
	default:
		l.Warn().Msgf("unknown message: %v", msg)
	}
}
