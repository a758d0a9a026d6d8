// Package gemini is the Gemini API backend built on google.golang.org/genai.
package gemini

import (
	"context"
	"iter"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"go-toolchat/internal/llm"
	"google.golang.org/genai"
)

type Config struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
}

type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

type Client struct {
	models       generator
	defaultModel string
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client")
	}
	return newClient(client.Models, cfg.DefaultModel), nil
}

func newClient(models generator, defaultModel string) *Client {
	if defaultModel == "" {
		defaultModel = "gemini-2.5-flash"
	}
	return &Client{models: models, defaultModel: defaultModel}
}

func (c *Client) model(req llm.Request) string {
	// Workers AI style ids mean nothing to Gemini.
	if req.Model == "" || strings.HasPrefix(req.Model, "@") {
		return c.defaultModel
	}
	return req.Model
}

func (c *Client) Propose(ctx context.Context, req llm.Request) (*llm.Response, error) {
	config, err := generateConfig(req)
	if err != nil {
		return nil, err
	}
	resp, err := c.models.GenerateContent(ctx, c.model(req), contents(req), config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content", goerr.V("model", c.model(req)))
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, goerr.New("no candidates in response", goerr.V("model", c.model(req)))
	}

	out := &llm.Response{}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		if part.FunctionCall != nil {
			out.Proposals = append(out.Proposals, llm.Proposal{
				Name:      part.FunctionCall.Name,
				Arguments: part.FunctionCall.Args,
			})
			continue
		}
		out.Content += part.Text
	}
	return out, nil
}

func (c *Client) Stream(ctx context.Context, req llm.Request, fn llm.StreamFunc) (string, error) {
	config, err := generateConfig(req)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for resp, err := range c.models.GenerateContentStream(ctx, c.model(req), contents(req), config) {
		if err != nil {
			return sb.String(), goerr.Wrap(err, "stream interrupted", goerr.V("model", c.model(req)))
		}
		text := resp.Text()
		if text == "" {
			continue
		}
		sb.WriteString(text)
		if err := fn(text); err != nil {
			return sb.String(), goerr.Wrap(err, "stream consumer failed")
		}
	}
	return sb.String(), nil
}

func contents(req llm.Request) []*genai.Content {
	out := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == llm.RoleAssistant {
			role = genai.RoleModel
		}
		out = append(out, genai.NewContentFromText(m.Content, role))
	}
	return out
}

func generateConfig(req llm.Request) (*genai.GenerateContentConfig, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			schema, err := convertSchema(t.Parameters)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to convert tool schema", goerr.V("tool", t.Name))
			}
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  schema,
			})
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	return config, nil
}
