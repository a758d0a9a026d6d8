// Package summary renders tool results into plain sentences. Every function
// here is pure: the same result always yields the same text and no model is
// consulted, so numbers in the reply are always the numbers that were fetched.
package summary

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"go-toolchat/pkg/models"
)

const (
	MaxSnippet = 480
	Ellipsis   = "…"

	forecastDays = 7
)

// Summarize renders the result of tool. Failures always get the apology.
func Summarize(tool models.ToolName, res models.ToolResult) string {
	if !res.OK {
		return Failure(res.Error)
	}
	switch tool {
	case models.ToolForecast:
		return Forecast(res)
	case models.ToolEncyclopedia:
		return Article(res)
	case models.ToolSatellite:
		return Satellite(res)
	default:
		return Failure("")
	}
}

// Failure is the fixed apology sent when a tool fails.
func Failure(reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "Sorry, I couldn't complete that request."
	}
	if !strings.HasSuffix(reason, ".") && !strings.HasSuffix(reason, "!") && !strings.HasSuffix(reason, "?") {
		reason += "."
	}
	return "Sorry, I couldn't complete that request. " + reason
}

// Article renders "{title} — {snippet}".
func Article(res models.ToolResult) string {
	a := res.Article
	if a == nil {
		return Failure(res.Error)
	}
	extract := strings.TrimSpace(a.Extract)
	if extract == "" {
		return a.Title + " — summary unavailable."
	}
	return a.Title + " — " + Snippet(extract, MaxSnippet)
}

// Snippet cuts s to at most max characters. A cut snippet loses its trailing
// whitespace and gains an ellipsis.
func Snippet(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimRightFunc(string(runes[:max]), unicode.IsSpace) + Ellipsis
}

// Satellite renders one sentence with the current position.
func Satellite(res models.ToolResult) string {
	p := res.Satellite
	if p == nil {
		return Failure(res.Error)
	}
	altitude := "unknown"
	if p.Altitude != nil {
		altitude = fmt.Sprintf("%s km", whole(*p.Altitude))
	}
	velocity := "unknown"
	if p.Velocity != nil {
		velocity = fmt.Sprintf("%s km/h", whole(*p.Velocity))
	}
	visibility := p.Visibility
	if visibility == "" {
		visibility = "n/a"
	}
	return fmt.Sprintf("The ISS is at latitude %s, longitude %s (altitude: %s, velocity: %s, visibility: %s).",
		twoDecimals(p.Latitude), twoDecimals(p.Longitude), altitude, velocity, visibility)
}

func whole(v float64) string {
	r := math.Round(v)
	if r == 0 {
		r = 0
	}
	return fmt.Sprintf("%.0f", r)
}

func twoDecimals(v float64) string {
	r := math.Round(v*100) / 100
	if r == 0 {
		r = 0
	}
	return fmt.Sprintf("%.2f", r)
}
