package biller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
)

// ErrSiteNotFound is returned when the config service has no site for the id.
var ErrSiteNotFound = errors.New("site not found")

// Service names gated by site configuration.
const (
	ServiceBinRouting = "bin-routing"
	ServiceFraud      = "fraud"
	ServiceEmail      = "email"
)

// Site is the per-site configuration served by the config service.
type Site struct {
	ID              string          `json:"site_id"`
	BusinessGroupID string          `json:"business_group_id"`
	PublicKeys      []string        `json:"public_keys"`
	AllowedAttempts int             `json:"allowed_attempts"`
	EnabledServices map[string]bool `json:"enabled_services"`
}

// ServiceEnabled reports whether the named service is switched on for the site.
func (s *Site) ServiceEnabled(name string) bool {
	return s != nil && s.EnabledServices[name]
}

// ConfigClient talks to the config service.
type ConfigClient struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewConfigClient creates a config-service client over the given base URL.
func NewConfigClient(baseURL string, logger *slog.Logger) *ConfigClient {
	return &ConfigClient{
		http:    resty.New().SetBaseURL(baseURL),
		breaker: newBreaker("config-service"),
		logger:  logger,
	}
}

// GetSite fetches the configuration for one site.
func (c *ConfigClient) GetSite(ctx context.Context, siteID string) (*Site, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		var site Site
		resp, err := c.http.R().
			SetContext(ctx).
			SetResult(&site).
			Get("/api/v1/sites/" + siteID)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() == 404 {
			return nil, ErrSiteNotFound
		}
		if resp.IsError() {
			return nil, fmt.Errorf("config service returned %d", resp.StatusCode())
		}
		return &site, nil
	})
	if err != nil {
		if errors.Is(err, ErrSiteNotFound) {
			return nil, ErrSiteNotFound
		}
		return nil, fmt.Errorf("fetching site %s: %w", siteID, err)
	}
	return result.(*Site), nil
}
