package models

import (
	"github.com/m-mizutani/goerr/v2"
)

// ToolName is the closed set of tools the planner may pick.
type ToolName string

const (
	ToolNone         ToolName = ""
	ToolForecast     ToolName = "get_weather"
	ToolEncyclopedia ToolName = "search_wikipedia"
	ToolSatellite    ToolName = "get_iss_position"
)

// ToolNames lists every known tool in catalog order.
var ToolNames = []ToolName{ToolForecast, ToolEncyclopedia, ToolSatellite}

// ParseToolName resolves s against the closed set.
func ParseToolName(s string) (ToolName, bool) {
	for _, n := range ToolNames {
		if string(n) == s {
			return n, true
		}
	}
	return ToolNone, false
}

// Args is the loosely typed argument payload decoded from a tool proposal.
type Args map[string]any

// ToolResult is either a success carrying exactly one payload for the tool
// that produced it, or a failure carrying a user presentable error.
type ToolResult struct {
	OK        bool               `json:"ok"`
	Error     string             `json:"error,omitempty"`
	Forecast  *Forecast          `json:"forecast,omitempty"`
	Article   *Article           `json:"article,omitempty"`
	Satellite *SatellitePosition `json:"satellite,omitempty"`
}

func Failure(msg string) ToolResult {
	return ToolResult{OK: false, Error: msg}
}

// Validate reports whether r is structurally complete for tool.
func (r ToolResult) Validate(tool ToolName) error {
	if !r.OK {
		if r.Error == "" {
			return goerr.New("failure result without error", goerr.V("tool", tool))
		}
		return nil
	}
	switch tool {
	case ToolForecast:
		if r.Forecast == nil {
			return goerr.New("missing forecast payload")
		}
		if r.Forecast.Location.Name == "" {
			return goerr.New("forecast without location name")
		}
	case ToolEncyclopedia:
		if r.Article == nil {
			return goerr.New("missing article payload")
		}
		if r.Article.Title == "" || r.Article.Extract == "" || r.Article.URL == "" {
			return goerr.New("incomplete article payload", goerr.V("title", r.Article.Title))
		}
	case ToolSatellite:
		if r.Satellite == nil {
			return goerr.New("missing satellite payload")
		}
		if r.Satellite.FetchedAt == 0 {
			return goerr.New("satellite position without fetch time")
		}
	default:
		return goerr.New("unknown tool", goerr.V("tool", tool))
	}
	return nil
}

type Location struct {
	Name      string  `json:"name"`
	Region    string  `json:"region,omitempty"`
	Country   string  `json:"country,omitempty"`
	Timezone  string  `json:"timezone,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Units string

const (
	Metric   Units = "metric"
	Imperial Units = "imperial"
)

// Forecast holds up to seven chronological day records.
type Forecast struct {
	Location Location    `json:"location"`
	Units    Units       `json:"units"`
	Days     []DayRecord `json:"days"`
}

// DayRecord is one forecast day. Missing temperatures stay nil.
type DayRecord struct {
	Date                     string   `json:"date"`
	High                     *float64 `json:"high,omitempty"`
	Low                      *float64 `json:"low,omitempty"`
	PrecipitationProbability float64  `json:"precipitationProbability"`
	WeatherCode              *int     `json:"weatherCode,omitempty"`
}

type Article struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Extract     string `json:"extract"`
	URL         string `json:"url"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	Lang        string `json:"lang"`
}

type SatellitePosition struct {
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	Altitude   *float64 `json:"altitude,omitempty"`
	Velocity   *float64 `json:"velocity,omitempty"`
	Visibility string   `json:"visibility,omitempty"`
	FetchedAt  int64    `json:"fetchedAt"`
}
