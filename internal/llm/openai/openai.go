// Package openai talks to any OpenAI compatible chat completions endpoint,
// including Workers AI, through langchaingo.
package openai

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
	"go-toolchat/internal/llm"
)

type Config struct {
	BaseURL      string
	APIKey       string
	DefaultModel string
}

type Client struct {
	model llms.Model
}

func New(cfg Config) (*Client, error) {
	opts := []lcopenai.Option{
		lcopenai.WithToken(cfg.APIKey),
		lcopenai.WithModel(cfg.DefaultModel),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, lcopenai.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")))
	}
	model, err := lcopenai.New(opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create openai client", goerr.V("base_url", cfg.BaseURL))
	}
	return &Client{model: model}, nil
}

func (c *Client) Propose(ctx context.Context, req llm.Request) (*llm.Response, error) {
	resp, err := c.model.GenerateContent(ctx, messages(req), options(req)...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content", goerr.V("model", req.Model))
	}
	if len(resp.Choices) == 0 {
		return nil, goerr.New("no choices in response", goerr.V("model", req.Model))
	}

	choice := resp.Choices[0]
	out := &llm.Response{Content: choice.Content}
	for _, call := range choice.ToolCalls {
		if call.FunctionCall == nil {
			continue
		}
		out.Proposals = append(out.Proposals, llm.Proposal{
			Name:      call.FunctionCall.Name,
			Arguments: call.FunctionCall.Arguments,
		})
	}
	return out, nil
}

func (c *Client) Stream(ctx context.Context, req llm.Request, fn llm.StreamFunc) (string, error) {
	var sb strings.Builder
	opts := append(options(req), llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
		if len(chunk) == 0 {
			return nil
		}
		sb.Write(chunk)
		return fn(string(chunk))
	}))

	if _, err := c.model.GenerateContent(ctx, messages(req), opts...); err != nil {
		return sb.String(), goerr.Wrap(err, "stream interrupted", goerr.V("model", req.Model))
	}
	return sb.String(), nil
}

func messages(req llm.Request) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(req.Messages)+1)
	if req.System != "" {
		out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, req.System))
	}
	for _, m := range req.Messages {
		kind := llms.ChatMessageTypeHuman
		if m.Role == llm.RoleAssistant {
			kind = llms.ChatMessageTypeAI
		}
		out = append(out, llms.TextParts(kind, m.Content))
	}
	return out
}

func options(req llm.Request) []llms.CallOption {
	opts := []llms.CallOption{llms.WithTemperature(req.Temperature)}
	if req.Model != "" {
		opts = append(opts, llms.WithModel(req.Model))
	}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}
	if len(req.Tools) > 0 {
		tools := make([]llms.Tool, 0, len(req.Tools))
		for _, t := range req.Tools {
			tools = append(tools, llms.Tool{
				Type: "function",
				Function: &llms.FunctionDefinition{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  t.Parameters,
				},
			})
		}
		opts = append(opts, llms.WithTools(tools))
	}
	return opts
}
