package weerlive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/yanqian/carwash-advisor/internal/domain/washadvisor"
)

const (
	defaultBaseURL       = "https://weerlive.nl/api/weerlive_api_v2.php"
	defaultLocation      = "Amsterdam"
	defaultAlarmHeadline = "weather alarm active"
	maxForecastDays      = 3
)

var (
	errCircuitOpen = errors.New("weerlive circuit breaker open")
	errNoData      = errors.New("no weather data received from weerlive")
)

// BreakerConfig tunes the circuit breaker around API calls.
type BreakerConfig struct {
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
}

// Config holds the client settings.
type Config struct {
	APIKey   string
	BaseURL  string
	Location string
	Timeout  time.Duration
	Breaker  BreakerConfig
}

// Client fetches current weather and the daily outlook from weerlive.nl.
type Client struct {
	apiKey     string
	baseURL    string
	location   string
	httpClient *http.Client
	circuit    *gobreaker.CircuitBreaker
}

// NewClient builds an API client.
func NewClient(cfg Config) *Client {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	location := strings.TrimSpace(cfg.Location)
	if location == "" {
		location = defaultLocation
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	settings := gobreaker.Settings{
		Name:        "weerlive",
		MaxRequests: cfg.Breaker.MaxRequests,
		Interval:    cfg.Breaker.Interval,
		Timeout:     cfg.Breaker.Timeout,
	}
	if settings.MaxRequests == 0 {
		settings.MaxRequests = 1
	}
	if settings.Timeout <= 0 {
		settings.Timeout = time.Minute
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    base,
		location:   location,
		httpClient: &http.Client{Timeout: timeout},
		circuit:    gobreaker.NewCircuitBreaker(settings),
	}
}

// Fetch implements washadvisor.WeatherSource.
func (c *Client) Fetch(ctx context.Context) (washadvisor.WeatherSnapshot, error) {
	values := url.Values{}
	values.Set("key", c.apiKey)
	values.Set("locatie", c.location)
	endpoint := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())

	result, err := c.circuit.Execute(func() (interface{}, error) {
		return c.get(ctx, endpoint)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return washadvisor.WeatherSnapshot{}, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return washadvisor.WeatherSnapshot{}, err
	}
	body, ok := result.([]byte)
	if !ok {
		return washadvisor.WeatherSnapshot{}, fmt.Errorf("unexpected result type from circuit breaker")
	}

	var raw apiResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return washadvisor.WeatherSnapshot{}, fmt.Errorf("decode weerlive response: %w", err)
	}
	return toSnapshot(raw)
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build weerlive request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weerlive request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("weerlive request error: status=%d body=%s", resp.StatusCode, string(payload))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read weerlive response: %w", err)
	}
	return body, nil
}

type apiResponse struct {
	LiveWeer []liveWeather `json:"liveweer"`
	Forecast []dayForecast `json:"wk_verw"`
}

type liveWeather struct {
	Place         string     `json:"plaats"`
	Timestamp     flexNumber `json:"timestamp"`
	Temperature   flexNumber `json:"temp"`
	Description   string     `json:"samenv"`
	Humidity      flexNumber `json:"lv"`
	WindDirection string     `json:"windr"`
	WindKmh       flexNumber `json:"windkmh"`
	Pressure      flexNumber `json:"luchtd"`
	Radiation     flexNumber `json:"gr"`
	Alarm         flexNumber `json:"alarm"`
	AlarmHeadline string     `json:"lkop"`
}

type dayForecast struct {
	Day        string     `json:"dag"`
	MaxTemp    flexNumber `json:"max_temp"`
	MinTemp    flexNumber `json:"min_temp"`
	WindKmh    flexNumber `json:"windkmh"`
	RainChance flexNumber `json:"neersl_perc_dag"`
	SunChance  flexNumber `json:"zond_perc_dag"`
}

// flexNumber accepts JSON numbers as well as numeric strings.
type flexNumber struct {
	Value float64
	Valid bool
}

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*n = flexNumber{}
		return nil
	}
	raw = strings.Trim(raw, `"`)
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if raw == "" || raw == "-" {
		*n = flexNumber{}
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("parse number %q: %w", raw, err)
	}
	*n = flexNumber{Value: value, Valid: true}
	return nil
}

// toSnapshot maps a weerlive payload. wk_verw[0] is today; later entries
// become the forecast, starting with tomorrow.
func toSnapshot(raw apiResponse) (washadvisor.WeatherSnapshot, error) {
	if len(raw.LiveWeer) == 0 {
		return washadvisor.WeatherSnapshot{}, errNoData
	}
	live := raw.LiveWeer[0]
	current := math.Round(live.Temperature.Value)

	snapshot := washadvisor.WeatherSnapshot{
		Location:         live.Place,
		Temperature:      current,
		DayTemperature:   current,
		NightTemperature: current,
		Description:      live.Description,
		WindSpeed:        math.Round(live.WindKmh.Value),
		WindDirection:    live.WindDirection,
		Humidity:         math.Round(live.Humidity.Value),
		Pressure:         live.Pressure.Value,
		Warnings:         []string{},
		Forecast:         []washadvisor.ForecastDay{},
	}
	if live.Timestamp.Valid {
		snapshot.ObservedAt = time.Unix(int64(live.Timestamp.Value), 0).UTC()
	}
	if live.Radiation.Valid {
		uv := math.Min(math.Round(live.Radiation.Value/25), 11)
		snapshot.UVIndex = &uv
	}
	if live.Alarm.Value > 0 {
		headline := strings.TrimSpace(live.AlarmHeadline)
		if headline == "" {
			headline = defaultAlarmHeadline
		}
		snapshot.Warnings = append(snapshot.Warnings, headline)
	}

	sunPercent := 50.0
	if len(raw.Forecast) > 0 {
		today := raw.Forecast[0]
		if today.MaxTemp.Valid {
			snapshot.DayTemperature = today.MaxTemp.Value
		}
		if today.MinTemp.Valid {
			snapshot.NightTemperature = today.MinTemp.Value
		}
		if today.SunChance.Valid {
			sunPercent = today.SunChance.Value
		}
	}
	for _, day := range raw.Forecast {
		if day.RainChance.Value > 30 {
			snapshot.RainExpected = true
		}
	}
	for i := 1; i < len(raw.Forecast) && len(snapshot.Forecast) < maxForecastDays; i++ {
		day := raw.Forecast[i]
		snapshot.Forecast = append(snapshot.Forecast, washadvisor.ForecastDay{
			Label:             day.Day,
			RainChancePercent: day.RainChance.Value,
			WindKmh:           day.WindKmh.Value,
			SunPercent:        day.SunChance.Value,
			MinTemperature:    day.MinTemp.Value,
			MaxTemperature:    day.MaxTemp.Value,
		})
	}

	description := strings.ToLower(live.Description)
	snapshot.Cloudy = strings.Contains(description, "bewolkt") ||
		strings.Contains(description, "wolken") ||
		sunPercent < 60
	return snapshot, nil
}

var _ washadvisor.WeatherSource = (*Client)(nil)
