package biller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"

	"github.com/kostush/purchase-gateway-sub009/internal/domain"
)

// Bin-routing failures are distinct so callers can tell "remote said no" from
// "remote is unreachable" from "we received garbage".
var (
	// ErrRoutingAPI means the bin-routing service could not be reached or
	// answered outside its contract.
	ErrRoutingAPI = errors.New("bin routing api failure")

	// ErrRoutingResponse means the service answered with a structured error.
	ErrRoutingResponse = errors.New("bin routing error response")

	// ErrRoutingType means the response did not match any expected shape.
	ErrRoutingType = errors.New("unexpected bin routing response type")
)

// BinRouting is one routing code resolved for a bin and attempt number.
type BinRouting struct {
	Attempt     int    `json:"attempt"`
	RoutingCode string `json:"routing_code"`
	BankName    string `json:"bank_name"`
}

// BinRoutingCollection indexes routing codes by "{itemId}_{attempt}" for
// later retrieval by the transaction layer.
type BinRoutingCollection map[string]BinRouting

// RoutingKey builds the collection index for an item and attempt number.
func RoutingKey(itemID string, attempt int) string {
	return fmt.Sprintf("%s_%d", itemID, attempt)
}

// Get looks up the routing code for an item and attempt.
func (c BinRoutingCollection) Get(itemID string, attempt int) (BinRouting, bool) {
	r, ok := c[RoutingKey(itemID, attempt)]
	return r, ok
}

// BinRoutingRequest resolves routing codes for one submission attempt.
type BinRoutingRequest struct {
	Site             *Site
	Item             *domain.InitializedItem
	Payment          domain.PaymentInfo
	Currency         string
	MerchantAccount  string
	JoinSubmitNumber int
	SessionID        string
}

type binRoutingWire struct {
	Result []BinRouting `json:"result,omitempty"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// BinRoutingClient resolves bank-routing codes for card bins.
type BinRoutingClient struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewBinRoutingClient creates a bin-routing client over the given base URL.
func NewBinRoutingClient(baseURL string, logger *slog.Logger) *BinRoutingClient {
	return &BinRoutingClient{
		http:    resty.New().SetBaseURL(baseURL),
		breaker: newBreaker("bin-routing-service"),
		logger:  logger,
	}
}

// Lookup resolves routing codes for the attempt.
//
// Decision order:
//  1. service disabled at the site level: empty collection, feature off.
//  2. a stored payment template already carries a routing code (recurring or
//     secondary purchase): reuse it, keyed by the current submit attempt.
//  3. otherwise call the service and translate the typed response.
func (c *BinRoutingClient) Lookup(ctx context.Context, req BinRoutingRequest) (BinRoutingCollection, error) {
	if !req.Site.ServiceEnabled(ServiceBinRouting) {
		return BinRoutingCollection{}, nil
	}

	attempt := req.JoinSubmitNumber
	if attempt < 1 {
		attempt = 1
	}

	if req.Payment.UsesTemplate() && req.Payment.TemplateRoutingCode != "" {
		return BinRoutingCollection{
			RoutingKey(req.Item.ItemID, attempt): {
				Attempt:     attempt,
				RoutingCode: req.Payment.TemplateRoutingCode,
			},
		}, nil
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		var wire binRoutingWire
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(map[string]any{
				"bin":              req.Payment.Bin,
				"merchantAccount":  req.MerchantAccount,
				"businessGroupId":  req.Site.BusinessGroupID,
				"currency":         req.Currency,
				"joinSubmitNumber": attempt,
				"sessionId":        req.SessionID,
			}).
			SetResult(&wire).
			SetError(&wire).
			Post("/api/v1/routing-codes")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRoutingAPI, err)
		}
		if resp.StatusCode() == http.StatusMethodNotAllowed {
			return nil, fmt.Errorf("%w: method not allowed", ErrRoutingResponse)
		}
		if wire.Error != nil {
			return nil, fmt.Errorf("%w: %s %s", ErrRoutingResponse, wire.Error.Code, wire.Error.Message)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("%w: status %d", ErrRoutingAPI, resp.StatusCode())
		}
		if wire.Result == nil {
			return nil, fmt.Errorf("%w: empty body", ErrRoutingType)
		}
		return wire.Result, nil
	})
	if err != nil {
		if errors.Is(err, ErrRoutingAPI) || errors.Is(err, ErrRoutingResponse) || errors.Is(err, ErrRoutingType) {
			return nil, err
		}
		// Breaker-open and other infrastructure failures are API-level.
		return nil, fmt.Errorf("%w: %v", ErrRoutingAPI, err)
	}

	routings, ok := result.([]BinRouting)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrRoutingType, result)
	}

	collection := make(BinRoutingCollection, len(routings))
	for _, r := range routings {
		collection[RoutingKey(req.Item.ItemID, r.Attempt)] = r
	}
	return collection, nil
}
