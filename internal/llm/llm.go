// Package llm is the boundary to the inference endpoint. The orchestration
// code only ever sees the two operations of Client, so backends can be
// swapped and faked without touching turn logic.
package llm

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"go-toolchat/pkg/models"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// Tool is a function declaration presented to the model.
type Tool struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
}

type Request struct {
	Model       string
	System      string
	Messages    []Message
	Tools       []Tool
	Temperature float64
	MaxTokens   int
}

// Proposal is one tool call suggested by the model. Arguments is either the
// raw JSON string sent by the endpoint or an already decoded object.
type Proposal struct {
	Name      string
	Arguments any
}

type Response struct {
	Content   string
	Proposals []Proposal
}

// StreamFunc receives text fragments in arrival order. Returning an error
// aborts the stream.
type StreamFunc func(fragment string) error

type Client interface {
	// Propose issues one non streaming call with the tool catalog attached.
	Propose(ctx context.Context, req Request) (*Response, error)
	// Stream issues one streaming call and returns the text accumulated so
	// far, also when it fails midway.
	Stream(ctx context.Context, req Request, fn StreamFunc) (string, error)
}

// FromHistory converts stored user and assistant messages. Tool rows are
// dropped.
func FromHistory(history []models.Message) []Message {
	out := make([]Message, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case models.RoleUser:
			out = append(out, Message{Role: RoleUser, Content: m.Content})
		case models.RoleAssistant:
			out = append(out, Message{Role: RoleAssistant, Content: m.Content})
		}
	}
	return out
}
