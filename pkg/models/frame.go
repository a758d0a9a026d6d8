package models

type FrameType string

const (
	FrameReady   FrameType = "ready"
	FrameDelta   FrameType = "delta"
	FrameDone    FrameType = "done"
	FrameCleared FrameType = "cleared"
	FrameTool    FrameType = "tool"
)

type ToolStatus string

const (
	ToolStarted ToolStatus = "started"
	ToolStep    ToolStatus = "step"
	ToolDone    ToolStatus = "done"
	ToolError   ToolStatus = "error"
)

// Frame is one outbound message on the session channel.
type Frame struct {
	Type    FrameType   `json:"type"`
	State   *Session    `json:"state,omitempty"`
	Text    string      `json:"text,omitempty"`
	Tool    ToolName    `json:"tool,omitempty"`
	Status  ToolStatus  `json:"status,omitempty"`
	Message string      `json:"message,omitempty"`
	Result  *ToolResult `json:"result,omitempty"`
}

// Emitter delivers frames to whoever is attached to a session.
type Emitter interface {
	Emit(f Frame) error
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(f Frame) error

func (fn EmitterFunc) Emit(f Frame) error {
	return fn(f)
}
