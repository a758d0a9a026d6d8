// Package forecast resolves a place name with the Open-Meteo geocoding API and
// fetches up to seven days of daily forecast for it.
package forecast

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"go-toolchat/internal/tools/adapter"
	"go-toolchat/pkg/models"
)

const (
	DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	DefaultForecastURL  = "https://api.open-meteo.com/v1/forecast"

	maxDays = 7

	msgUnavailable = "The weather service is unavailable right now."
	msgNoLocation  = "Please provide a location for the forecast."
)

type Config struct {
	GeocodingURL string
	ForecastURL  string
	Timeout      time.Duration
	UserAgent    string
}

type Client struct {
	geocodingURL string
	forecastURL  string
	fetcher      *adapter.Fetcher
}

func New(cfg Config) *Client {
	c := &Client{
		geocodingURL: cfg.GeocodingURL,
		forecastURL:  cfg.ForecastURL,
		fetcher: &adapter.Fetcher{
			Client:    adapter.NewHTTPClient(cfg.Timeout),
			UserAgent: cfg.UserAgent,
		},
	}
	if c.geocodingURL == "" {
		c.geocodingURL = DefaultGeocodingURL
	}
	if c.forecastURL == "" {
		c.forecastURL = DefaultForecastURL
	}
	return c
}

// Args are the decoded forecast arguments. Coordinates win over Location.
type Args struct {
	Location  string
	Latitude  *float64
	Longitude *float64
	Units     models.Units
}

// ParseArgs reads loosely typed proposal arguments, filling defaults.
func ParseArgs(raw models.Args) Args {
	a := Args{
		Location: adapter.String(raw, "location", "city", "place"),
		Units:    models.Metric,
	}
	if lat, ok := adapter.Number(raw, "latitude", "lat"); ok {
		a.Latitude = &lat
	}
	if lon, ok := adapter.Number(raw, "longitude", "lon", "lng"); ok {
		a.Longitude = &lon
	}
	switch strings.ToLower(adapter.String(raw, "unit", "units")) {
	case "imperial", "fahrenheit", "f", "us":
		a.Units = models.Imperial
	}
	return a
}

// Execute runs one forecast lookup. It never returns a Go error: every
// failure is folded into the returned result.
func (c *Client) Execute(ctx context.Context, raw models.Args, progress adapter.Progress) models.ToolResult {
	fc, err := c.Forecast(ctx, ParseArgs(raw), progress)
	return adapter.Result(models.ToolForecast, models.ToolResult{OK: true, Forecast: fc}, err)
}

func (c *Client) Forecast(ctx context.Context, args Args, progress adapter.Progress) (*models.Forecast, error) {
	var loc models.Location
	switch {
	case args.Latitude != nil && args.Longitude != nil:
		loc = models.Location{
			Name:      args.Location,
			Latitude:  *args.Latitude,
			Longitude: *args.Longitude,
		}
		if loc.Name == "" {
			loc.Name = fmt.Sprintf("%.2f, %.2f", loc.Latitude, loc.Longitude)
		}
	case args.Location != "":
		progress.Step(fmt.Sprintf("Looking up %s", args.Location))
		resolved, err := c.geocode(ctx, args.Location)
		if err != nil {
			return nil, err
		}
		loc = *resolved
	default:
		return nil, adapter.Fail(adapter.KindValidation, msgNoLocation, goerr.New("no location in arguments"))
	}

	progress.Step(fmt.Sprintf("Fetching the forecast for %s", loc.Name))
	return c.daily(ctx, loc, args.Units)
}

type geocodingResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Admin1    string  `json:"admin1"`
		Country   string  `json:"country"`
		Timezone  string  `json:"timezone"`
	} `json:"results"`
}

func (c *Client) geocode(ctx context.Context, name string) (*models.Location, error) {
	q := url.Values{}
	q.Set("name", name)
	q.Set("count", "1")
	q.Set("language", "en")
	q.Set("format", "json")

	var resp geocodingResponse
	if err := c.fetcher.GetJSON(ctx, c.geocodingURL+"?"+q.Encode(), &resp); err != nil {
		return nil, adapter.Classify(err, msgUnavailable)
	}
	if len(resp.Results) == 0 {
		return nil, adapter.Fail(adapter.KindNotFound,
			fmt.Sprintf("I couldn't find a place called %q.", name),
			goerr.New("no geocoding match", goerr.V("name", name)))
	}

	top := resp.Results[0]
	return &models.Location{
		Name:      top.Name,
		Region:    top.Admin1,
		Country:   top.Country,
		Timezone:  top.Timezone,
		Latitude:  top.Latitude,
		Longitude: top.Longitude,
	}, nil
}

type forecastResponse struct {
	Timezone string `json:"timezone"`
	Daily    *struct {
		Time                     []string   `json:"time"`
		TemperatureMax           []*float64 `json:"temperature_2m_max"`
		TemperatureMin           []*float64 `json:"temperature_2m_min"`
		PrecipitationProbability []*float64 `json:"precipitation_probability_max"`
		WeatherCode              []*float64 `json:"weather_code"`
	} `json:"daily"`
}

func (c *Client) daily(ctx context.Context, loc models.Location, units models.Units) (*models.Forecast, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
	q.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_probability_max,weather_code")
	q.Set("forecast_days", strconv.Itoa(maxDays))
	if loc.Timezone != "" {
		q.Set("timezone", loc.Timezone)
	} else {
		q.Set("timezone", "auto")
	}
	if units == models.Imperial {
		q.Set("temperature_unit", "fahrenheit")
		q.Set("precipitation_unit", "inch")
		q.Set("wind_speed_unit", "mph")
	}

	var resp forecastResponse
	if err := c.fetcher.GetJSON(ctx, c.forecastURL+"?"+q.Encode(), &resp); err != nil {
		return nil, adapter.Classify(err, msgUnavailable)
	}

	if loc.Timezone == "" {
		loc.Timezone = resp.Timezone
	}
	fc := &models.Forecast{Location: loc, Units: units, Days: []models.DayRecord{}}
	if resp.Daily == nil {
		return fc, nil
	}

	d := resp.Daily
	for i, date := range d.Time {
		if i >= maxDays {
			break
		}
		day := models.DayRecord{
			Date: date,
			High: at(d.TemperatureMax, i),
			Low:  at(d.TemperatureMin, i),
		}
		if p := at(d.PrecipitationProbability, i); p != nil {
			day.PrecipitationProbability = *p
		}
		if code := at(d.WeatherCode, i); code != nil {
			n := int(*code)
			day.WeatherCode = &n
		}
		fc.Days = append(fc.Days, day)
	}
	return fc, nil
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}
