package summary

import (
	"fmt"
	"math"
	"strings"

	"go-toolchat/pkg/models"
)

// Thresholds, in degrees Celsius and percent.
const (
	rainHigh     = 70.0
	rainModerate = 40.0

	hotHigh      = 30.0
	warmHigh     = 24.0
	coldLow      = 5.0
	wideRange    = 10.0
	freezingLow  = 0.0
	freezingRain = 50.0
)

// Stats are the extremes over the summarized days. HasHigh and HasLow are
// false when no day carried a finite value for that bound.
type Stats struct {
	Days    int
	High    float64
	Low     float64
	HasHigh bool
	HasLow  bool
	Rain    float64
}

// Extremes scans at most the first seven days.
func Extremes(days []models.DayRecord) Stats {
	if len(days) > forecastDays {
		days = days[:forecastDays]
	}
	s := Stats{Days: len(days)}
	for _, d := range days {
		if d.High != nil && finite(*d.High) && (!s.HasHigh || *d.High > s.High) {
			s.High, s.HasHigh = *d.High, true
		}
		if d.Low != nil && finite(*d.Low) && (!s.HasLow || *d.Low < s.Low) {
			s.Low, s.HasLow = *d.Low, true
		}
		if finite(d.PrecipitationProbability) && d.PrecipitationProbability > s.Rain {
			s.Rain = d.PrecipitationProbability
		}
	}
	return s
}

// Forecast renders the headline, rain, clothing and optional ice sentences.
func Forecast(res models.ToolResult) string {
	fc := res.Forecast
	if fc == nil {
		return Failure(res.Error)
	}
	place := Place(fc.Location)
	if len(fc.Days) == 0 {
		return fmt.Sprintf("No daily forecast found for %s.", place)
	}

	s := Extremes(fc.Days)
	unit := "°C"
	toCelsius := func(v float64) float64 { return v }
	if fc.Units == models.Imperial {
		unit = "°F"
		toCelsius = func(v float64) float64 { return (v - 32) * 5 / 9 }
	}

	sentences := []string{
		headline(place, s, unit),
		rainSentence(s.Rain),
		clothing(s, toCelsius),
	}
	if s.HasLow && toCelsius(s.Low) <= freezingLow && s.Rain >= freezingRain {
		sentences = append(sentences, "Watch out for ice: freezing temperatures with precipitation could make roads and paths slippery.")
	}
	return strings.Join(sentences, " ")
}

// Place joins name, region and country, skipping blanks and repeats.
func Place(loc models.Location) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{loc.Name, loc.Region, loc.Country} {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		dup := false
		for _, seen := range parts {
			if strings.EqualFold(seen, p) {
				dup = true
				break
			}
		}
		if !dup {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "the requested location"
	}
	return strings.Join(parts, ", ")
}

func headline(place string, s Stats, unit string) string {
	period := fmt.Sprintf("over the next %d days", s.Days)
	if s.Days == 1 {
		period = "today"
	}
	switch {
	case s.HasHigh && s.HasLow:
		return fmt.Sprintf("In %s, expect highs up to %s%s and lows around %s%s %s.", place, whole(s.High), unit, whole(s.Low), unit, period)
	case s.HasHigh:
		return fmt.Sprintf("In %s, expect highs up to %s%s %s.", place, whole(s.High), unit, period)
	case s.HasLow:
		return fmt.Sprintf("In %s, expect lows around %s%s %s.", place, whole(s.Low), unit, period)
	default:
		return fmt.Sprintf("In %s, temperature details are missing %s, so expect typical conditions for the season.", place, period)
	}
}

func rainSentence(rain float64) string {
	pct := whole(rain)
	switch {
	case rain >= rainHigh:
		return fmt.Sprintf("Rain is likely (up to %s%% chance), so bring an umbrella and waterproof gear.", pct)
	case rain >= rainModerate:
		return fmt.Sprintf("There is a moderate chance of rain (up to %s%%), so keep an umbrella handy.", pct)
	default:
		return fmt.Sprintf("The risk of rain is low (up to %s%%).", pct)
	}
}

func clothing(s Stats, toCelsius func(float64) float64) string {
	high, low := toCelsius(s.High), toCelsius(s.Low)
	switch {
	case s.HasHigh && high >= hotHigh:
		return "It will be hot, so wear light, breathable clothes, stay hydrated and use sun protection."
	case s.HasHigh && high >= warmHigh && s.Rain < rainModerate:
		return "It should be warm and dry, so light layers like a t-shirt with a thin overshirt will do."
	case s.HasLow && low <= coldLow:
		return "It will be cold, so pack warm layers, a coat, and maybe gloves and a hat."
	case s.HasHigh && s.HasLow && high-low >= wideRange:
		return "Temperatures swing a lot between day and night, so dress in layers you can add or remove."
	default:
		return "Temperatures look mild and steady, so a light jacket or sweater should be enough."
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
