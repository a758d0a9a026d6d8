package handler

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/rs/zerolog/log"
	"go-toolchat/internal/llm"
	"go-toolchat/internal/metrics"
	"go-toolchat/internal/telemetry"
	"go-toolchat/internal/tools"
	"go-toolchat/pkg/data"
	"go-toolchat/pkg/logger"
	"go-toolchat/pkg/models"
	"go-toolchat/pkg/prompts"
	"go.opentelemetry.io/otel/attribute"
)

// Decision is the outcome of one planning call. A zero Decision means no
// tool.
type Decision struct {
	Tool models.ToolName
	Args models.Args
}

func (d Decision) None() bool {
	return d.Tool == models.ToolNone
}

type Config struct {
	Temperature float64
	MaxTokens   int
}

type Handler struct {
	client   llm.Client
	registry *tools.Registry
	metrics  *metrics.Metrics
	cfg      Config
	system   string
	catalog  []llm.Tool
}

func New(client llm.Client, registry *tools.Registry, m *metrics.Metrics, cfg Config) (*Handler, error) {
	specs := registry.Catalog()
	lines := make([]prompts.Tool, 0, len(specs))
	catalog := make([]llm.Tool, 0, len(specs))
	for _, s := range specs {
		lines = append(lines, prompts.Tool{Name: string(s.Name), Description: s.Description})
		catalog = append(catalog, llm.Tool{Name: string(s.Name), Description: s.Description, Parameters: s.Parameters})
	}
	system, err := prompts.Planner(lines)
	if err != nil {
		return nil, err
	}

	return &Handler{
		client:   client,
		registry: registry,
		metrics:  m,
		cfg:      cfg,
		system:   system,
		catalog:  catalog,
	}, nil
}

// Plan issues exactly one inference call and decodes at most one tool
// proposal from it. Every failure degrades to no tool.
func (h *Handler) Plan(ctx context.Context, model string, history []models.Message, text string) Decision {
	ctx, span := telemetry.Tracer().Start(ctx, "planner.plan")
	defer span.End()

	d := h.plan(ctx, model, history, text)
	span.SetAttributes(attribute.String("decision", string(d.Tool)))
	h.metrics.Decision(string(d.Tool))
	log.Debug().Str(logger.ModelField, model).Str(logger.DecisionField, string(d.Tool)).Msg("planned turn")
	return d
}

func (h *Handler) plan(ctx context.Context, model string, history []models.Message, text string) Decision {
	req := llm.Request{
		Model:       model,
		System:      h.system,
		Messages:    append(llm.FromHistory(history), llm.Message{Role: llm.RoleUser, Content: text}),
		Tools:       h.catalog,
		Temperature: h.cfg.Temperature,
		MaxTokens:   h.cfg.MaxTokens,
	}

	resp, err := h.client.Propose(ctx, req)
	if err != nil {
		log.Warn().Err(err).Str(logger.ModelField, model).Msg("planning failed, falling back to chat")
		return Decision{}
	}

	proposal, ok := first(resp)
	if !ok {
		return Decision{}
	}
	tool, ok := h.registry.Resolve(proposal.Name)
	if !ok {
		log.Debug().Str(logger.ToolField, proposal.Name).Msg("model proposed an unknown tool")
		return Decision{}
	}
	args, ok := h.registry.Validate(tool, DecodeArgs(proposal.Arguments))
	if !ok {
		log.Debug().Str(logger.ToolField, string(tool)).Msg("proposal failed argument validation")
		return Decision{}
	}
	return Decision{Tool: tool, Args: args}
}

// first returns the first structured proposal, or a tool call the model
// wrote into its text content instead.
func first(resp *llm.Response) (llm.Proposal, bool) {
	if resp == nil {
		return llm.Proposal{}, false
	}
	if len(resp.Proposals) > 0 {
		return resp.Proposals[0], true
	}
	return textual(resp.Content)
}

type textualCall struct {
	Name       string          `json:"name"`
	Arguments  json.RawMessage `json:"arguments"`
	Parameters json.RawMessage `json:"parameters"`
}

func textual(content string) (llm.Proposal, bool) {
	if !strings.Contains(content, "{") {
		return llm.Proposal{}, false
	}
	raw, err := data.ExtractObject(content)
	if err != nil {
		return llm.Proposal{}, false
	}
	var call textualCall
	if err := json.Unmarshal([]byte(raw), &call); err != nil || call.Name == "" {
		return llm.Proposal{}, false
	}
	args := call.Arguments
	if len(args) == 0 {
		args = call.Parameters
	}
	return llm.Proposal{Name: call.Name, Arguments: string(args)}, true
}

// DecodeArgs turns a JSON string or structured value into Args. Anything that
// does not decode to an object yields empty Args.
func DecodeArgs(v any) models.Args {
	switch a := v.(type) {
	case nil:
		return models.Args{}
	case models.Args:
		return a
	case map[string]any:
		return models.Args(a)
	case json.RawMessage:
		return decodeString(string(a))
	case []byte:
		return decodeString(string(a))
	case string:
		return decodeString(a)
	default:
		raw, err := json.Marshal(a)
		if err != nil {
			return models.Args{}
		}
		return decodeString(string(raw))
	}
}

func decodeString(s string) models.Args {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.Args{}
	}
	if args, err := unmarshalArgs(s); err == nil {
		return args
	}
	// Some models wrap the object in prose or code fences.
	if raw, err := data.ExtractObject(s); err == nil {
		if args, err := unmarshalArgs(raw); err == nil {
			return args
		}
	}
	log.Debug().Str("arguments", s).Msg("could not decode tool arguments")
	return models.Args{}
}

func unmarshalArgs(s string) (models.Args, error) {
	var args models.Args
	if err := json.Unmarshal([]byte(s), &args); err != nil {
		return nil, goerr.Wrap(err, "invalid arguments")
	}
	if args == nil {
		return nil, goerr.New("arguments are not an object")
	}
	return args, nil
}
