package summary_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/m-mizutani/gt"
	"go-toolchat/internal/summary"
	"go-toolchat/pkg/models"
)

func ptr(v float64) *float64 { return &v }

func forecastResult(units models.Units, days ...models.DayRecord) models.ToolResult {
	return models.ToolResult{OK: true, Forecast: &models.Forecast{
		Location: models.Location{Name: "Tokyo", Region: "Tokyo", Country: "Japan"},
		Units:    units,
		Days:     days,
	}}
}

func TestForecastHeadline(t *testing.T) {
	out := summary.Summarize(models.ToolForecast, forecastResult(models.Metric,
		models.DayRecord{High: ptr(22.4), Low: ptr(15.2), PrecipitationProbability: 10},
		models.DayRecord{High: ptr(25.1), Low: ptr(14.6), PrecipitationProbability: 20},
	))

	gt.True(t, strings.HasPrefix(out, "In Tokyo, Japan, expect highs up to 25°C and lows around 15°C over the next 2 days."))
	gt.S(t, out).Contains("risk of rain is low (up to 20%)")
	gt.S(t, out).Contains("light layers")
	gt.S(t, out).NotContains("ice")
}

func TestForecastUsesOnlySuppliedDays(t *testing.T) {
	out := summary.Forecast(forecastResult(models.Metric,
		models.DayRecord{High: ptr(18), Low: ptr(12)},
	))
	gt.S(t, out).Contains("today")
	gt.S(t, out).Contains("mild and steady")
}

func TestForecastIgnoresDaysBeyondSeven(t *testing.T) {
	days := make([]models.DayRecord, 0, 9)
	for i := 0; i < 7; i++ {
		days = append(days, models.DayRecord{High: ptr(20), Low: ptr(12)})
	}
	days = append(days, models.DayRecord{High: ptr(40), Low: ptr(-10), PrecipitationProbability: 99})

	s := summary.Extremes(days)
	gt.Equal(t, s.Days, 7)
	gt.Equal(t, s.High, 20.0)
	gt.Equal(t, s.Low, 12.0)
	gt.Equal(t, s.Rain, 0.0)
}

func TestForecastZeroDays(t *testing.T) {
	out := summary.Forecast(forecastResult(models.Metric))
	gt.S(t, out).Contains("No daily forecast found")
	gt.S(t, out).Contains("Tokyo")
}

func TestForecastMissingBounds(t *testing.T) {
	onlyLow := summary.Forecast(forecastResult(models.Metric,
		models.DayRecord{Low: ptr(3), PrecipitationProbability: 45},
		models.DayRecord{},
	))
	gt.S(t, onlyLow).Contains("expect lows around 3°C")
	gt.S(t, onlyLow).NotContains("highs")
	gt.S(t, onlyLow).Contains("moderate chance of rain")
	gt.S(t, onlyLow).Contains("cold")

	none := summary.Forecast(forecastResult(models.Metric, models.DayRecord{}))
	gt.S(t, none).Contains("temperature details are missing")
	gt.S(t, none).Contains("mild and steady")
}

func TestForecastClothingOrder(t *testing.T) {
	testCases := map[string]struct {
		day  models.DayRecord
		want string
	}{
		"hot wins over cold": {
			day:  models.DayRecord{High: ptr(31), Low: ptr(2)},
			want: "It will be hot",
		},
		"warm and dry": {
			day:  models.DayRecord{High: ptr(26), Low: ptr(18), PrecipitationProbability: 30},
			want: "light layers",
		},
		"warm but wet falls to range": {
			day:  models.DayRecord{High: ptr(26), Low: ptr(14), PrecipitationProbability: 60},
			want: "dress in layers",
		},
		"cold": {
			day:  models.DayRecord{High: ptr(8), Low: ptr(4)},
			want: "It will be cold",
		},
		"steady": {
			day:  models.DayRecord{High: ptr(15), Low: ptr(10)},
			want: "mild and steady",
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			gt.S(t, summary.Forecast(forecastResult(models.Metric, tc.day))).Contains(tc.want)
		})
	}
}

func TestForecastFreezingWarning(t *testing.T) {
	out := summary.Forecast(forecastResult(models.Metric,
		models.DayRecord{High: ptr(2), Low: ptr(-3), PrecipitationProbability: 75},
	))
	gt.S(t, out).Contains("Rain is likely (up to 75% chance)")
	gt.True(t, strings.HasSuffix(out, "could make roads and paths slippery."))

	dry := summary.Forecast(forecastResult(models.Metric,
		models.DayRecord{High: ptr(2), Low: ptr(-3), PrecipitationProbability: 49},
	))
	gt.S(t, dry).NotContains("ice")
}

func TestForecastImperialThresholds(t *testing.T) {
	// 88°F is about 31°C.
	out := summary.Forecast(forecastResult(models.Imperial,
		models.DayRecord{High: ptr(88), Low: ptr(70)},
	))
	gt.S(t, out).Contains("highs up to 88°F")
	gt.S(t, out).Contains("It will be hot")
}

func TestArticleSnippetBoundary(t *testing.T) {
	exact := strings.Repeat("é", summary.MaxSnippet)
	out := summary.Article(models.ToolResult{OK: true, Article: &models.Article{Title: "Real Madrid CF", Extract: exact}})
	gt.Equal(t, out, "Real Madrid CF — "+exact)
	gt.False(t, strings.HasSuffix(out, summary.Ellipsis))

	long := strings.Repeat("a", summary.MaxSnippet) + "b"
	out = summary.Article(models.ToolResult{OK: true, Article: &models.Article{Title: "Real Madrid CF", Extract: long}})
	snippet := strings.TrimPrefix(out, "Real Madrid CF — ")
	gt.True(t, strings.HasSuffix(snippet, summary.Ellipsis))
	gt.Equal(t, utf8.RuneCountInString(snippet), summary.MaxSnippet+1)
}

func TestArticleTrimsBeforeEllipsis(t *testing.T) {
	text := strings.Repeat("a", summary.MaxSnippet-2) + "  tail"
	gt.Equal(t, summary.Snippet(text, summary.MaxSnippet), strings.Repeat("a", summary.MaxSnippet-2)+summary.Ellipsis)
}

func TestArticleEmptyExtract(t *testing.T) {
	out := summary.Article(models.ToolResult{OK: true, Article: &models.Article{Title: "Nothing"}})
	gt.Equal(t, out, "Nothing — summary unavailable.")
}

func TestSatellite(t *testing.T) {
	out := summary.Summarize(models.ToolSatellite, models.ToolResult{OK: true, Satellite: &models.SatellitePosition{
		Latitude:   12.3456,
		Longitude:  -45.678,
		Altitude:   ptr(420.6),
		Velocity:   ptr(27599.4),
		Visibility: "daylight",
	}})
	gt.Equal(t, out, "The ISS is at latitude 12.35, longitude -45.68 (altitude: 421 km, velocity: 27599 km/h, visibility: daylight).")

	bare := summary.Satellite(models.ToolResult{OK: true, Satellite: &models.SatellitePosition{Latitude: 1, Longitude: 2}})
	gt.Equal(t, bare, "The ISS is at latitude 1.00, longitude 2.00 (altitude: unknown, velocity: unknown, visibility: n/a).")
}

func TestFailure(t *testing.T) {
	out := summary.Summarize(models.ToolForecast, models.Failure("The weather service is unavailable right now."))
	gt.Equal(t, out, "Sorry, I couldn't complete that request. The weather service is unavailable right now.")
	gt.Equal(t, summary.Failure(""), "Sorry, I couldn't complete that request.")
	gt.Equal(t, summary.Failure("timeout"), "Sorry, I couldn't complete that request. timeout.")
}
