// Package tools is the closed set of tools the planner can choose from. Each
// entry ties a tool identifier to its adapter, its argument validator, its
// summarizer and the schema presented to the model.
package tools

import (
	"context"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/rs/zerolog/log"
	"go-toolchat/internal/summary"
	"go-toolchat/internal/tools/adapter"
	"go-toolchat/internal/tools/encyclopedia"
	"go-toolchat/internal/tools/forecast"
	"go-toolchat/internal/tools/satellite"
	"go-toolchat/pkg/logger"
	"go-toolchat/pkg/models"
)

const msgCrashed = "Something went wrong while running that tool."

// Executor runs one tool call. Implementations fold every failure into the
// returned result.
type Executor interface {
	Execute(ctx context.Context, args models.Args, progress adapter.Progress) models.ToolResult
}

// Spec is one entry of the catalog presented to the model.
type Spec struct {
	Name        models.ToolName
	Description string
	Parameters  *jsonschema.Schema
}

type entry struct {
	spec     Spec
	exec     Executor
	validate func(models.Args) (models.Args, bool)
	ack      string
}

type Registry struct {
	entries map[models.ToolName]*entry
}

type Config struct {
	Timeout         time.Duration
	UserAgent       string
	GeocodingURL    string
	ForecastURL     string
	EncyclopediaURL string
	SatelliteURL    string
}

// FromConfig wires the three HTTP adapters.
func FromConfig(cfg Config) *Registry {
	return New(
		forecast.New(forecast.Config{
			GeocodingURL: cfg.GeocodingURL,
			ForecastURL:  cfg.ForecastURL,
			Timeout:      cfg.Timeout,
			UserAgent:    cfg.UserAgent,
		}),
		encyclopedia.New(encyclopedia.Config{
			BaseURL:   cfg.EncyclopediaURL,
			Timeout:   cfg.Timeout,
			UserAgent: cfg.UserAgent,
		}),
		satellite.New(satellite.Config{
			URL:       cfg.SatelliteURL,
			Timeout:   cfg.Timeout,
			UserAgent: cfg.UserAgent,
		}),
	)
}

func New(weather, wiki, iss Executor) *Registry {
	return &Registry{entries: map[models.ToolName]*entry{
		models.ToolForecast: {
			spec:     forecastSpec,
			exec:     weather,
			validate: acceptAll,
			ack:      "Let me check the forecast for you.",
		},
		models.ToolEncyclopedia: {
			spec:     encyclopediaSpec,
			exec:     wiki,
			validate: validateEncyclopedia,
			ack:      "Let me look that up.",
		},
		models.ToolSatellite: {
			spec:     satelliteSpec,
			exec:     iss,
			validate: noArgs,
			ack:      "Let me find where the ISS is right now.",
		},
	}}
}

// Catalog returns every tool spec in a stable order.
func (r *Registry) Catalog() []Spec {
	specs := make([]Spec, 0, len(r.entries))
	for _, name := range models.ToolNames {
		if e, ok := r.entries[name]; ok {
			specs = append(specs, e.spec)
		}
	}
	return specs
}

// Resolve maps a proposed name onto the closed set.
func (r *Registry) Resolve(name string) (models.ToolName, bool) {
	tool, ok := models.ParseToolName(strings.TrimSpace(name))
	if !ok {
		return models.ToolNone, false
	}
	_, ok = r.entries[tool]
	return tool, ok
}

// Validate applies the per tool argument policy. When ok is false the
// proposal must be discarded.
func (r *Registry) Validate(tool models.ToolName, args models.Args) (models.Args, bool) {
	e, ok := r.entries[tool]
	if !ok {
		return nil, false
	}
	return e.validate(args)
}

// Ack is the short assistant message sent before the tool runs.
func (r *Registry) Ack(tool models.ToolName) string {
	if e, ok := r.entries[tool]; ok {
		return e.ack
	}
	return ""
}

// Summarize renders the assistant reply for a finished tool call.
func (r *Registry) Summarize(tool models.ToolName, result models.ToolResult) string {
	if _, ok := r.entries[tool]; !ok {
		return summary.Failure("")
	}
	return summary.Summarize(tool, result)
}

// Execute runs tool. A panicking adapter is turned into a failure result.
func (r *Registry) Execute(ctx context.Context, tool models.ToolName, args models.Args, progress adapter.Progress) (res models.ToolResult) {
	e, ok := r.entries[tool]
	if !ok {
		log.Error().Err(goerr.New("unknown tool", goerr.V("tool", tool))).Msg("refusing to execute")
		return models.Failure(msgCrashed)
	}
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Str(logger.ToolField, string(tool)).Msg("tool adapter panicked")
			res = models.Failure(msgCrashed)
		}
	}()
	return e.exec.Execute(ctx, args, progress)
}

func acceptAll(args models.Args) (models.Args, bool) {
	if args == nil {
		args = models.Args{}
	}
	return args, true
}

func noArgs(models.Args) (models.Args, bool) {
	return models.Args{}, true
}

func validateEncyclopedia(args models.Args) (models.Args, bool) {
	q, _ := args["query"].(string)
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, false
	}
	out := models.Args{"query": q}
	if lang, ok := args["lang"].(string); ok {
		if lang = strings.TrimSpace(lang); lang != "" {
			out["lang"] = lang
		}
	}
	return out, true
}
