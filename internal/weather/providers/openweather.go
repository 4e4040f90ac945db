package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/weather-bot/internal/common"
	"github.com/i474232898/weather-bot/internal/weather"
)

const (
	DefaultOpenWeatherBaseURL = "https://api.openweathermap.org/data/2.5"

	currentPath     = "/weather"
	timeMachinePath = "/onecall/timemachine"
	forecastPath    = "/forecast"

	// The forecast list is sampled every 3 hours, so entry 8 is 24h ahead.
	tomorrowIndex = 8

	labelLayout = "02 Jan 15:04"

	// Replies are Russian and temperatures are shown in °C.
	requestUnits = "metric"
	requestLang  = "ru"
)

// OpenWeatherConfig holds the provider settings taken from AppConfig.
type OpenWeatherConfig struct {
	APIKey            string
	BaseURL           string
	RequestsPerMinute int
}

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	now     func() time.Time
}

var _ weather.Provider = (*OpenWeatherProvider)(nil)

func NewOpenWeatherProvider(client *http.Client, cfg OpenWeatherConfig) *OpenWeatherProvider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultOpenWeatherBaseURL
	}

	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Limiter: NewLimiter(cfg.RequestsPerMinute),
		},
		now: time.Now,
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

type owCondition struct {
	Description string `json:"description"`
}

type owMain struct {
	Temp *float64 `json:"temp"`
}

// owReading is the shape of /weather and of every /forecast list entry.
type owReading struct {
	Dt      int64         `json:"dt"`
	Main    *owMain       `json:"main"`
	Weather []owCondition `json:"weather"`
}

// owPoint is the flat shape used by the one-call endpoints.
type owPoint struct {
	Temp    *float64      `json:"temp"`
	Weather []owCondition `json:"weather"`
}

type owTimeMachine struct {
	owReading
	Current *owPoint  `json:"current"`
	Data    []owPoint `json:"data"`
}

type owForecast struct {
	List []owReading `json:"list"`
	City struct {
		Timezone *int `json:"timezone"`
	} `json:"city"`
}

func (p *OpenWeatherProvider) Weather(ctx context.Context, loc weather.Location, when weather.When) (weather.Snapshot, error) {
	if p.apiKey == "" {
		return weather.Snapshot{}, &weather.FetchError{Op: "weather", Reason: "openweather api key is not configured"}
	}

	switch when {
	case weather.Now:
		var payload owReading
		if err := doRequest(ctx, "current", p.httpCfg, p.buildURL(currentPath, loc, nil), &payload); err != nil {
			return weather.Snapshot{}, err
		}
		return snapshotFromReading("current", payload)

	case weather.Yesterday:
		extra := url.Values{}
		extra.Set("dt", strconv.FormatInt(p.now().Add(-24*time.Hour).Unix(), 10))

		var payload owTimeMachine
		if err := doRequest(ctx, "timemachine", p.httpCfg, p.buildURL(timeMachinePath, loc, extra), &payload); err != nil {
			return weather.Snapshot{}, err
		}
		switch {
		case payload.Main != nil:
			return snapshotFromReading("timemachine", payload.owReading)
		case payload.Current != nil:
			return snapshotFromPoint("timemachine", *payload.Current)
		case len(payload.Data) > 0:
			return snapshotFromPoint("timemachine", payload.Data[0])
		default:
			return weather.Snapshot{}, &weather.FetchError{Op: "timemachine", Reason: "payload has no temperature reading"}
		}

	case weather.Tomorrow:
		payload, err := p.fetchForecast(ctx, loc)
		if err != nil {
			return weather.Snapshot{}, err
		}
		if len(payload.List) <= tomorrowIndex {
			return weather.Snapshot{}, &weather.FetchError{
				Op:     "forecast",
				Reason: fmt.Sprintf("forecast list has %d entries, need at least %d", len(payload.List), tomorrowIndex+1),
			}
		}
		return snapshotFromReading("forecast", payload.List[tomorrowIndex])

	default:
		return weather.Snapshot{}, &weather.FetchError{Op: "weather", Reason: fmt.Sprintf("unsupported moment %s", when)}
	}
}

func (p *OpenWeatherProvider) Series(ctx context.Context, loc weather.Location) ([]weather.ForecastPoint, error) {
	if p.apiKey == "" {
		return nil, &weather.FetchError{Op: "forecast", Reason: "openweather api key is not configured"}
	}

	payload, err := p.fetchForecast(ctx, loc)
	if err != nil {
		return nil, err
	}
	if len(payload.List) == 0 {
		return nil, &weather.FetchError{Op: "forecast", Reason: "forecast list is empty"}
	}

	zone := time.UTC
	if payload.City.Timezone != nil {
		zone = time.FixedZone("", *payload.City.Timezone)
	}

	points := make([]weather.ForecastPoint, 0, len(payload.List))
	for i, entry := range payload.List {
		if entry.Main == nil || entry.Main.Temp == nil {
			return nil, &weather.FetchError{Op: "forecast", Reason: fmt.Sprintf("entry %d has no main.temp", i)}
		}
		if entry.Dt == 0 {
			return nil, &weather.FetchError{Op: "forecast", Reason: fmt.Sprintf("entry %d has no dt", i)}
		}
		ts := time.Unix(entry.Dt, 0).In(zone)
		points = append(points, weather.ForecastPoint{
			Label:        ts.Format(labelLayout),
			Time:         ts,
			TemperatureC: *entry.Main.Temp,
		})
	}
	return points, nil
}

func (p *OpenWeatherProvider) fetchForecast(ctx context.Context, loc weather.Location) (owForecast, error) {
	var payload owForecast
	err := doRequest(ctx, "forecast", p.httpCfg, p.buildURL(forecastPath, loc, nil), &payload)
	return payload, err
}

func (p *OpenWeatherProvider) buildURL(path string, loc weather.Location, extra url.Values) string {
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
	for k, vs := range extra {
		for _, v := range vs {
			values.Add(k, v)
		}
	}
	values.Set("appid", p.apiKey)
	values.Set("units", requestUnits)
	values.Set("lang", requestLang)

	return fmt.Sprintf("%s%s?%s", p.baseURL, path, values.Encode())
}

func snapshotFromReading(op string, r owReading) (weather.Snapshot, error) {
	if r.Main == nil || r.Main.Temp == nil {
		return weather.Snapshot{}, &weather.FetchError{Op: op, Reason: "payload has no main.temp"}
	}
	return snapshotFromPoint(op, owPoint{Temp: r.Main.Temp, Weather: r.Weather})
}

func snapshotFromPoint(op string, pt owPoint) (weather.Snapshot, error) {
	if pt.Temp == nil {
		return weather.Snapshot{}, &weather.FetchError{Op: op, Reason: "payload has no temperature"}
	}
	if len(pt.Weather) == 0 {
		return weather.Snapshot{}, &weather.FetchError{Op: op, Reason: "payload has no weather description"}
	}
	return weather.Snapshot{
		TemperatureC: *pt.Temp,
		Description:  common.Capitalize(pt.Weather[0].Description),
	}, nil
}
