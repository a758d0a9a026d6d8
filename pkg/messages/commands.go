package messages

import (
	"context"

	"go-toolchat/pkg/models"
)

// Attach registers a client connection with a session. The session answers
// by sending a ready frame to that connection only.
type Attach struct {
	ConnID  string
	Emitter models.Emitter
}

type Detach struct {
	ConnID string
}

type Chat struct {
	Text string
}

type SetModel struct {
	Model string
}

type Reset struct{}

// GetState is answered with a models.Status.
type GetState struct{}

// RunTool asks a tool actor to execute one call. Progress may be invoked
// from the tool actor while the call runs.
type RunTool struct {
	Ctx      context.Context
	Tool     models.ToolName
	Args     models.Args
	Progress func(step string)
}

type ToolFinished struct {
	Result models.ToolResult
}
