package forecast_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"go-toolchat/internal/tools/forecast"
	"go-toolchat/pkg/models"
)

const tokyoForecast = `{
  "timezone": "Asia/Tokyo",
  "daily": {
    "time": ["2026-10-18", "2026-10-19", "2026-10-20"],
    "temperature_2m_max": [22.4, null, 25.1],
    "temperature_2m_min": [15.2, 14.8, null],
    "precipitation_probability_max": [10, null, 65],
    "weather_code": [3, 61, null]
  }
}`

func newUpstream(t *testing.T, geocoding, daily string) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			_, _ = w.Write([]byte(geocoding))
		case "/forecast":
			if r.URL.Query().Get("forecast_days") != "7" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_, _ = w.Write([]byte(daily))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(srv *httptest.Server) *forecast.Client {
	return forecast.New(forecast.Config{
		GeocodingURL: srv.URL + "/search",
		ForecastURL:  srv.URL + "/forecast",
		Timeout:      time.Second,
	})
}

func TestExecuteResolvesPlaceName(t *testing.T) {
	srv := newUpstream(t,
		`{"results":[{"name":"Tokyo","latitude":35.69,"longitude":139.69,"admin1":"Tokyo","country":"Japan","timezone":"Asia/Tokyo"},{"name":"Tokyo Bay","latitude":1,"longitude":1}]}`,
		tokyoForecast)

	var steps []string
	res := newClient(srv).Execute(context.Background(), models.Args{"location": "Tokyo"}, func(s string) {
		steps = append(steps, s)
	})

	gt.True(t, res.OK)
	gt.NoError(t, res.Validate(models.ToolForecast))
	fc := res.Forecast
	gt.Equal(t, fc.Location.Name, "Tokyo")
	gt.Equal(t, fc.Location.Country, "Japan")
	gt.Equal(t, fc.Units, models.Metric)
	gt.A(t, fc.Days).Length(3)

	gt.Equal(t, fc.Days[0].Date, "2026-10-18")
	gt.Equal(t, *fc.Days[0].High, 22.4)
	gt.Equal(t, *fc.Days[0].WeatherCode, 3)

	gt.True(t, fc.Days[1].High == nil)
	gt.Equal(t, fc.Days[1].PrecipitationProbability, 0.0)

	gt.True(t, fc.Days[2].Low == nil)
	gt.True(t, fc.Days[2].WeatherCode == nil)
	gt.Equal(t, fc.Days[2].PrecipitationProbability, 65.0)

	gt.A(t, steps).Length(2)
}

func TestExecuteCoordinatesSkipGeocoding(t *testing.T) {
	srv := newUpstream(t, `{"results":[]}`, tokyoForecast)

	res := newClient(srv).Execute(context.Background(), models.Args{"latitude": "35.6", "longitude": 139.7, "units": "fahrenheit"}, nil)
	gt.True(t, res.OK)
	gt.Equal(t, res.Forecast.Location.Name, "35.60, 139.70")
	gt.Equal(t, res.Forecast.Location.Timezone, "Asia/Tokyo")
	gt.Equal(t, res.Forecast.Units, models.Imperial)
}

func TestExecuteFailures(t *testing.T) {
	t.Run("no location", func(t *testing.T) {
		srv := newUpstream(t, `{}`, tokyoForecast)
		res := newClient(srv).Execute(context.Background(), models.Args{}, nil)
		gt.Equal(t, res.OK, false)
		gt.S(t, res.Error).Contains("provide a location")
	})

	t.Run("unknown place", func(t *testing.T) {
		srv := newUpstream(t, `{"generationtime_ms": 0.5}`, tokyoForecast)
		res := newClient(srv).Execute(context.Background(), models.Args{"location": "Atlantis"}, nil)
		gt.Equal(t, res.OK, false)
		gt.S(t, res.Error).Contains("Atlantis")
	})

	t.Run("upstream error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("internal detail"))
		}))
		defer srv.Close()

		res := newClient(srv).Execute(context.Background(), models.Args{"location": "Tokyo"}, nil)
		gt.Equal(t, res.OK, false)
		gt.Equal(t, res.Error, "The weather service is unavailable right now.")
		gt.S(t, res.Error).NotContains("500")
	})
}

func TestExecuteWithoutDaily(t *testing.T) {
	srv := newUpstream(t, `{"results":[{"name":"Nowhere","latitude":0,"longitude":0}]}`, `{"timezone":"GMT"}`)
	res := newClient(srv).Execute(context.Background(), models.Args{"location": "Nowhere"}, nil)
	gt.True(t, res.OK)
	gt.A(t, res.Forecast.Days).Length(0)
}

func TestParseArgs(t *testing.T) {
	a := forecast.ParseArgs(models.Args{"city": "  Paris ", "unit": "Imperial"})
	gt.Equal(t, a.Location, "Paris")
	gt.Equal(t, a.Units, models.Imperial)
	gt.True(t, a.Latitude == nil)

	a = forecast.ParseArgs(models.Args{"lat": "abc", "lon": 2.35})
	gt.True(t, a.Latitude == nil)
	gt.Equal(t, *a.Longitude, 2.35)
	gt.Equal(t, a.Units, models.Metric)
}
