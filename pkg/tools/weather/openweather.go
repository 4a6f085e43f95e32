// Package weather looks up current conditions from OpenWeatherMap.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"wine-concierge-be/pkg/apperr"

	"github.com/patrickmn/go-cache"
)

const Name = "weather"

type Config struct {
	APIKey          string
	BaseURL         string
	Timeout         time.Duration
	CacheTTL        time.Duration
	DefaultLocation string
}

type Conditions struct {
	Location    string
	Description string
	Temp        float64
	FeelsLike   float64
}

// String renders conditions the way the concierge reports them.
func (c Conditions) String() string {
	return fmt.Sprintf("Weather in %s: %s, %s°C (feels like %s°C)",
		c.Location, c.Description, formatTemp(c.Temp), formatTemp(c.FeelsLike))
}

type Tool struct {
	cfg    Config
	client *http.Client
	cache  *cache.Cache
}

type owmResponse struct {
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
	} `json:"main"`
	Message string `json:"message"`
}

func New(cfg Config) *Tool {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://api.openweathermap.org"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	if cfg.DefaultLocation == "" {
		cfg.DefaultLocation = "Napa Valley"
	}
	return &Tool{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		cache:  cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
	}
}

func (t *Tool) Name() string {
	return Name
}

func (t *Tool) DefaultLocation() string {
	return t.cfg.DefaultLocation
}

// Invoke reports the current weather for location (default when blank).
func (t *Tool) Invoke(ctx context.Context, location string) (string, error) {
	c, err := t.Current(ctx, location)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

func (t *Tool) Current(ctx context.Context, location string) (*Conditions, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		location = t.cfg.DefaultLocation
	}
	if t.cfg.APIKey == "" {
		return nil, apperr.ErrWeatherNoKey
	}

	cacheKey := strings.ToLower(location)
	if x, found := t.cache.Get(cacheKey); found {
		// cached entries are shared; report the location as this caller wrote it
		c := *x.(*Conditions)
		c.Location = location
		return &c, nil
	}

	params := url.Values{}
	params.Add("q", location)
	params.Add("appid", t.cfg.APIKey)
	params.Add("units", "metric")

	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.cfg.BaseURL+"/data/2.5/weather?"+params.Encode(), nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrWeatherFailed, err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrWeatherFailed, redactKey(err, t.cfg.APIKey))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrWeatherFailed, err)
	}

	var data owmResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, apperr.Wrap(apperr.ErrWeatherFailed, fmt.Errorf("decoding response (status %d): %w", resp.StatusCode, err))
	}

	// the provider signals failures in the payload, not only via status
	if len(data.Weather) == 0 {
		msg := data.Message
		if msg == "" {
			msg = "unknown error"
		}
		return nil, apperr.New(apperr.ErrWeatherProvider, http.StatusBadGateway, msg)
	}

	c := &Conditions{
		Location:    location,
		Description: data.Weather[0].Description,
		Temp:        data.Main.Temp,
		FeelsLike:   data.Main.FeelsLike,
	}
	cached := *c
	t.cache.Set(cacheKey, &cached, cache.DefaultExpiration)
	return c, nil
}

func formatTemp(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// redactKey keeps the API key out of error text, since url.Error embeds the full URL.
func redactKey(err error, key string) error {
	if key == "" {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(err.Error(), key, "REDACTED"))
}
