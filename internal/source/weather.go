package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/berthwatch-io/berthwatch/pkg/protocol"
)

// Wind thresholds in knots for cargo operations at the jetties.
const (
	windWarnKt     = 25.0
	windCriticalKt = 35.0
)

const openWeatherURL = "https://api.openweathermap.org/data/2.5/weather"

// Weather reads current conditions from OpenWeather. Weather is display
// garnish: any failure returns nil and the report omits the block.
type Weather struct {
	apiKey   string
	location string
	baseURL  string
	client   *http.Client
	retry    Retry
	logger   *slog.Logger
}

// NewWeather builds a weather client for a "City,CC" location.
func NewWeather(apiKey, location string, retry Retry, logger *slog.Logger) *Weather {
	if logger == nil {
		logger = slog.Default()
	}
	return &Weather{
		apiKey:   apiKey,
		location: location,
		baseURL:  openWeatherURL,
		client:   &http.Client{Timeout: 15 * time.Second},
		retry:    retry,
		logger:   logger,
	}
}

type openWeatherResponse struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"` // m/s
		Deg   float64 `json:"deg"`
	} `json:"wind"`
	Visibility float64 `json:"visibility"` // metres
	Weather    []struct {
		Description string `json:"description"`
	} `json:"weather"`
	DT int64 `json:"dt"`
}

// Current fetches and grades the current conditions, or nil on failure.
func (w *Weather) Current(ctx context.Context) *protocol.WeatherConditions {
	if w.apiKey == "" {
		return nil
	}
	var resp openWeatherResponse
	err := w.retry.Do(ctx, func() error {
		return w.get(ctx, &resp)
	})
	if err != nil {
		w.logger.Warn("weather fetch failed", "error", err)
		return nil
	}

	kt := resp.Wind.Speed * 1.94384
	status, operational := "NORMAL", "Normal operations"
	safe := true
	switch {
	case kt >= windCriticalKt:
		status, operational, safe = "CRITICAL", "Suspend cargo operations", false
	case kt >= windWarnKt:
		status, operational = "WARNING", "Monitor conditions"
	}

	conditions := ""
	if len(resp.Weather) > 0 {
		conditions = resp.Weather[0].Description
	}
	return &protocol.WeatherConditions{
		Temperature:       resp.Main.Temp,
		FeelsLike:         resp.Main.FeelsLike,
		WindSpeedKt:       round1(kt),
		WindDirection:     windDirection(resp.Wind.Deg),
		WindStatus:        status,
		VisibilityKm:      resp.Visibility / 1000,
		Conditions:        conditions,
		SafeForOperations: safe,
		OperationalStatus: operational,
		ObservedAt:        time.Unix(resp.DT, 0).UTC().Format("2006-01-02 15:04"),
	}
}

func (w *Weather) get(ctx context.Context, v any) error {
	q := url.Values{}
	q.Set("q", w.location)
	q.Set("appid", w.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openweather returned %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

var compassPoints = []string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// windDirection maps degrees onto the 16-point compass.
func windDirection(deg float64) string {
	idx := int((deg/22.5)+0.5) % 16
	if idx < 0 {
		idx += 16
	}
	return compassPoints[idx]
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
