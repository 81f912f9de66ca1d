// Package weather fetches current conditions and a short forecast from OpenWeatherMap.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"morningbrief/throttle"
	"morningbrief/types"
)

const (
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"
	forecastSlots  = 4
	requestTimeout = 10 * time.Second
)

// ErrInvalidKey is returned for a 401 and is never retried
var ErrInvalidKey = errors.New("weather API error: invalid API key")

// Client is an OpenWeatherMap client for one location
type Client struct {
	APIKey      string
	City        string
	CountryCode string
	Units       string
	BaseURL     string
	MaxRetries  int
	HTTP        *http.Client
	Logger      *slog.Logger

	backoff func(attempt int) time.Duration
}

// NewClient creates a client with imperial units and three attempts
func NewClient(apiKey, city, countryCode string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		APIKey:      apiKey,
		City:        city,
		CountryCode: countryCode,
		Units:       "imperial",
		BaseURL:     DefaultBaseURL,
		MaxRetries:  3,
		HTTP:        &http.Client{Timeout: requestTimeout},
		Logger:      logger,
		backoff:     func(attempt int) time.Duration { return time.Duration(1<<attempt) * time.Second },
	}
}

type currentResponse struct {
	Name string `json:"name"`
	Main *struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

type forecastResponse struct {
	List []struct {
		Dt   int64   `json:"dt"`
		Pop  float64 `json:"pop"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Main string `json:"main"`
			Icon string `json:"icon"`
		} `json:"weather"`
	} `json:"list"`
}

// Current returns current conditions with the next forecast slots attached.
// A forecast failure is logged and leaves Forecast empty.
func (c *Client) Current(ctx context.Context) (*types.Weather, error) {
	var cur currentResponse
	if err := c.get(ctx, "weather", nil, &cur); err != nil {
		return nil, err
	}
	if cur.Main == nil || len(cur.Weather) == 0 {
		return nil, errors.New("weather API error: malformed response")
	}

	w := &types.Weather{
		City:        c.City,
		Temperature: cur.Main.Temp,
		FeelsLike:   cur.Main.FeelsLike,
		TempMin:     cur.Main.TempMin,
		TempMax:     cur.Main.TempMax,
		Humidity:    cur.Main.Humidity,
		WindSpeed:   cur.Wind.Speed,
		Condition:   cur.Weather[0].Main,
		Description: cur.Weather[0].Description,
		Units:       c.Units,
	}
	if cur.Name != "" {
		w.City = cur.Name
	}

	forecast, err := c.Forecast(ctx)
	if err != nil {
		c.Logger.Warn("forecast unavailable", "error", err)
	}
	w.Forecast = forecast
	return w, nil
}

// Forecast returns the next few 3-hour forecast slots
func (c *Client) Forecast(ctx context.Context) ([]types.ForecastSlot, error) {
	var fr forecastResponse
	if err := c.get(ctx, "forecast", url.Values{"cnt": {"8"}}, &fr); err != nil {
		return nil, err
	}

	var slots []types.ForecastSlot
	for _, entry := range fr.List {
		if len(slots) == forecastSlots {
			break
		}
		slot := types.ForecastSlot{
			Time:        time.Unix(entry.Dt, 0),
			Temperature: entry.Main.Temp,
			RainChance:  int(entry.Pop * 100),
		}
		if len(entry.Weather) > 0 {
			slot.Condition = entry.Weather[0].Main
			slot.Icon = entry.Weather[0].Icon
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

func (c *Client) get(ctx context.Context, endpoint string, extra url.Values, out any) error {
	q := url.Values{}
	q.Set("q", c.location())
	q.Set("appid", c.APIKey)
	q.Set("units", c.Units)
	for k, v := range extra {
		q[k] = v
	}
	reqURL := fmt.Sprintf("%s/%s?%s", c.BaseURL, endpoint, q.Encode())

	attempts := c.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := throttle.Sleep(ctx, c.backoff(attempt-1)); err != nil {
				return err
			}
		}

		retry, err := c.do(ctx, reqURL, endpoint, out)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
		c.Logger.Debug("weather request failed", "endpoint", endpoint, "attempt", attempt+1, "error", err)
	}
	return fmt.Errorf("failed to fetch %s after %d attempts: %w", endpoint, attempts, lastErr)
}

// do makes one request and reports whether a failure may be retried
func (c *Client) do(ctx context.Context, reqURL, endpoint string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return false, ErrInvalidKey
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return true, fmt.Errorf("weather API error: status code %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return false, fmt.Errorf("%s API error: status code %d", endpoint, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("weather API error: malformed response: %w", err)
	}
	return false, nil
}

func (c *Client) location() string {
	if c.CountryCode == "" {
		return c.City
	}
	return c.City + "," + c.CountryCode
}
