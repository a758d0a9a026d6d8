package models

import (
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// EnvelopeType tags tool rows in the message log.
const EnvelopeType = "tool_result"

// Message is one persisted row of the conversation log. Content holds plain
// text for user and assistant rows and a JSON encoded ToolEnvelope for tool rows.
type Message struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"createdAt"`
}

// ToolEnvelope is the serialized content of a tool row.
type ToolEnvelope struct {
	Type   string     `json:"type"`
	Tool   ToolName   `json:"tool"`
	Result ToolResult `json:"result"`
}

// NewToolMessage embeds result into a tool row.
func NewToolMessage(tool ToolName, result ToolResult, ts int64) (Message, error) {
	raw, err := json.Marshal(ToolEnvelope{Type: EnvelopeType, Tool: tool, Result: result})
	if err != nil {
		return Message{}, goerr.Wrap(err, "failed to marshal tool envelope", goerr.V("tool", tool))
	}
	return Message{Role: RoleTool, Content: string(raw), CreatedAt: ts}, nil
}

// DecodeToolMessage reverses NewToolMessage and checks the embedded result.
func DecodeToolMessage(m Message) (ToolEnvelope, error) {
	if m.Role != RoleTool {
		return ToolEnvelope{}, goerr.New("not a tool message", goerr.V("role", m.Role))
	}
	var env ToolEnvelope
	if err := json.Unmarshal([]byte(m.Content), &env); err != nil {
		return ToolEnvelope{}, goerr.Wrap(err, "failed to unmarshal tool envelope")
	}
	if env.Type != EnvelopeType {
		return ToolEnvelope{}, goerr.New("unexpected envelope type", goerr.V("type", env.Type))
	}
	if err := env.Result.Validate(env.Tool); err != nil {
		return ToolEnvelope{}, err
	}
	return env, nil
}
