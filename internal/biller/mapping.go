package biller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
)

// MappingError is returned when a biller mapping cannot be retrieved.
type MappingError struct {
	BillerName string
	SiteID     string
	cause      error
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("retrieving biller mapping for %s on site %s: %v", e.BillerName, e.SiteID, e.cause)
}

func (e *MappingError) Unwrap() error { return e.cause }

// BillerMapping is the biller-specific credential/field set for one site.
type BillerMapping struct {
	BillerName      string            `json:"biller_name"`
	MerchantID      string            `json:"merchant_id"`
	MerchantAccount string            `json:"merchant_account"`
	Fields          map[string]string `json:"fields"`
}

// MappingClient talks to the biller-mapping service.
type MappingClient struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewMappingClient creates a biller-mapping client over the given base URL.
func NewMappingClient(baseURL string, logger *slog.Logger) *MappingClient {
	return &MappingClient{
		http:    resty.New().SetBaseURL(baseURL),
		breaker: newBreaker("biller-mapping-service"),
		logger:  logger,
	}
}

// RetrieveBillerMapping resolves the credential set to submit with.
func (c *MappingClient) RetrieveBillerMapping(ctx context.Context, billerName, businessGroupID, siteID, currencyCode, sessionID string) (*BillerMapping, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		var mapping BillerMapping
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"billerName":      billerName,
				"businessGroupId": businessGroupID,
				"siteId":          siteID,
				"currencyCode":    currencyCode,
				"sessionId":       sessionID,
			}).
			SetResult(&mapping).
			Get("/api/v1/biller-mappings")
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("biller mapping service returned %d", resp.StatusCode())
		}
		return &mapping, nil
	})
	if err != nil {
		return nil, &MappingError{BillerName: billerName, SiteID: siteID, cause: err}
	}
	return result.(*BillerMapping), nil
}
