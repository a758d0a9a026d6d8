// Package satellite reports the live position of the International Space
// Station.
package satellite

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"go-toolchat/internal/tools/adapter"
	"go-toolchat/pkg/models"
)

const (
	DefaultURL = "https://api.wheretheiss.at/v1/satellites/25544"

	msgUnavailable = "The satellite tracking service is unavailable right now."
	msgMalformed   = "The satellite tracker returned data I couldn't read."
)

type Config struct {
	URL       string
	Timeout   time.Duration
	UserAgent string
}

type Client struct {
	url     string
	fetcher *adapter.Fetcher
	now     func() time.Time
}

func New(cfg Config) *Client {
	c := &Client{
		url: cfg.URL,
		fetcher: &adapter.Fetcher{
			Client:    adapter.NewHTTPClient(cfg.Timeout),
			UserAgent: cfg.UserAgent,
		},
		now: time.Now,
	}
	if c.url == "" {
		c.url = DefaultURL
	}
	return c
}

// Execute ignores raw: the tool takes no arguments.
func (c *Client) Execute(ctx context.Context, _ models.Args, progress adapter.Progress) models.ToolResult {
	pos, err := c.Position(ctx, progress)
	return adapter.Result(models.ToolSatellite, models.ToolResult{OK: true, Satellite: pos}, err)
}

func (c *Client) Position(ctx context.Context, progress adapter.Progress) (*models.SatellitePosition, error) {
	progress.Step("Contacting the satellite tracker")

	var body map[string]any
	if err := c.fetcher.GetJSON(ctx, c.url, &body); err != nil {
		f := adapter.Classify(err, msgUnavailable)
		if f.Kind == adapter.KindMalformed {
			f.Message = msgMalformed
		}
		return nil, f
	}
	fetchedAt := c.now().UnixMilli()

	lat, ok := adapter.JSONFloat(body["latitude"])
	if !ok {
		return nil, adapter.Fail(adapter.KindMalformed, msgMalformed, goerr.New("latitude missing or not numeric", goerr.V("value", body["latitude"])))
	}
	lon, ok := adapter.JSONFloat(body["longitude"])
	if !ok {
		return nil, adapter.Fail(adapter.KindMalformed, msgMalformed, goerr.New("longitude missing or not numeric", goerr.V("value", body["longitude"])))
	}

	pos := &models.SatellitePosition{
		Latitude:  lat,
		Longitude: lon,
		FetchedAt: fetchedAt,
	}
	if alt, ok := adapter.JSONFloat(body["altitude"]); ok {
		pos.Altitude = &alt
	}
	if vel, ok := adapter.JSONFloat(body["velocity"]); ok {
		pos.Velocity = &vel
	}
	if vis, ok := body["visibility"].(string); ok {
		pos.Visibility = vis
	}
	return pos, nil
}
