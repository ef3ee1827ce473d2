package biller

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"

	"github.com/kostush/purchase-gateway-sub009/internal/domain"
)

type transactionWire struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	BillerName    string `json:"biller_name"`
	IsNSF         bool   `json:"is_nsf"`
	DeclineCode   string `json:"decline_code,omitempty"`
	RedirectTo    string `json:"redirect_to,omitempty"`

	ACS          string `json:"acs,omitempty"`
	PAReq        string `json:"pareq,omitempty"`
	ThreeDVer    int    `json:"threed_version,omitempty"`
	StepUpURL    string `json:"step_up_url,omitempty"`
	StepUpJWT    string `json:"step_up_jwt,omitempty"`
	MD           string `json:"md,omitempty"`
	Frictionless bool   `json:"frictionless,omitempty"`

	CrossSales []CrossSaleResult `json:"cross_sales,omitempty"`
}

func (w *transactionWire) result() *TransactionResult {
	outcome := Outcome(w.Status)
	switch outcome {
	case OutcomeApproved, OutcomeDeclined, OutcomePending, OutcomeAborted:
	default:
		outcome = OutcomeAborted
	}
	return &TransactionResult{
		Outcome:       outcome,
		TransactionID: w.TransactionID,
		BillerName:    w.BillerName,
		NSF:           w.IsNSF,
		DeclineCode:   w.DeclineCode,
		RedirectTo:    w.RedirectTo,
		ThreeD: domain.ThreeDInfo{
			ACS:          w.ACS,
			PAReq:        w.PAReq,
			Version:      w.ThreeDVer,
			StepUpURL:    w.StepUpURL,
			StepUpJWT:    w.StepUpJWT,
			MD:           w.MD,
			Frictionless: w.Frictionless,
		},
		CrossSales: w.CrossSales,
	}
}

// Client talks to the external transaction service over HTTP. Service
// unavailability surfaces as OutcomeTransientFailure, never as an error, so
// handlers treat it as one more decline variant.
type Client struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewClient creates a transaction-service client over the given base URL.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		http:    resty.New().SetBaseURL(baseURL),
		breaker: newBreaker("transaction-service"),
		logger:  logger,
	}
}

// Lookup performs the initial submission with a 3-D Secure lookup.
func (c *Client) Lookup(ctx context.Context, req LookupRequest) (*TransactionResult, error) {
	body := map[string]any{
		"session_id":            req.SessionID,
		"site_id":               req.Site.ID,
		"biller_name":           req.Biller.Name,
		"item":                  req.Item,
		"cross_sales":           req.CrossSales,
		"payment":               req.Payment,
		"user":                  req.User,
		"fraud_advice":          req.Fraud,
		"redirect_url":          req.RedirectURL,
		"control_keyword":       req.ControlKeyword,
		"device_fingerprint_id": req.DeviceFingerprintID,
		"nsf_supported":         req.NSFSupported,
		"join_submit_number":    req.JoinSubmitNumber,
	}
	if routing, ok := req.Routing.Get(req.Item.ItemID, req.JoinSubmitNumber); ok {
		body["routing_code"] = routing.RoutingCode
	}
	return c.post(ctx, "/api/v1/transactions/lookup", body)
}

// CompleteThreeD finalizes authentication after the ACS challenge.
func (c *Client) CompleteThreeD(ctx context.Context, req CompleteThreeDRequest) (*TransactionResult, error) {
	return c.post(ctx, "/api/v1/transactions/"+req.TransactionID+"/authenticate", map[string]any{
		"session_id":  req.SessionID,
		"biller_name": req.Biller.Name,
		"pares":       req.PARes,
		"md":          req.MD,
	})
}

// SubmitThirdParty submits the purchase to a redirect-based biller.
func (c *Client) SubmitThirdParty(ctx context.Context, req ThirdPartyRequest) (*TransactionResult, error) {
	return c.post(ctx, "/api/v1/transactions/third-party", map[string]any{
		"session_id":   req.SessionID,
		"site_id":      req.Site.ID,
		"biller_name":  req.Biller.Name,
		"mapping":      req.Mapping,
		"item":         req.Item,
		"cross_sales":  req.CrossSales,
		"payment":      req.Payment,
		"user":         req.User,
		"redirect_url": req.RedirectURL,
	})
}

// ResolveThirdParty fetches the final outcome after the return/postback leg
// and records the biller interaction.
func (c *Client) ResolveThirdParty(ctx context.Context, req ResolveThirdPartyRequest) (*TransactionResult, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		var wire transactionWire
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(map[string]any{
				"session_id":  req.SessionID,
				"biller_name": req.Biller.Name,
			}).
			SetResult(&wire).
			Post("/api/v1/transactions/" + req.TransactionID + "/interactions")
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() == http.StatusConflict {
			return nil, ErrTransactionAlreadyProcessed
		}
		if resp.IsError() {
			return nil, fmt.Errorf("transaction service returned %d", resp.StatusCode())
		}
		return wire.result(), nil
	})
	if err != nil {
		if err == ErrTransactionAlreadyProcessed {
			return nil, err
		}
		c.logger.Error("transaction service unavailable", "session_id", req.SessionID, "error", err)
		return &TransactionResult{Outcome: OutcomeTransientFailure, TransactionID: req.TransactionID, BillerName: req.Biller.Name}, nil
	}
	return result.(*TransactionResult), nil
}

func (c *Client) post(ctx context.Context, path string, body map[string]any) (*TransactionResult, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		var wire transactionWire
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(body).
			SetResult(&wire).
			Post(path)
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("transaction service returned %d", resp.StatusCode())
		}
		return wire.result(), nil
	})
	if err != nil {
		c.logger.Error("transaction service unavailable", "path", path, "error", err)
		return &TransactionResult{Outcome: OutcomeTransientFailure}, nil
	}
	return result.(*TransactionResult), nil
}
