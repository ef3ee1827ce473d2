package biller

import (
	"context"
	"errors"

	"github.com/kostush/purchase-gateway-sub009/internal/domain"
)

// ErrTransactionAlreadyProcessed is returned when the biller reports the
// referenced transaction as already settled.
var ErrTransactionAlreadyProcessed = errors.New("transaction already processed at biller")

// Outcome classifies a transaction-service response. Handlers switch on the
// variant instead of dispatching on error types.
type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeDeclined Outcome = "declined"
	OutcomePending  Outcome = "pending"
	OutcomeAborted  Outcome = "aborted"

	// OutcomeTransientFailure means the service was unreachable or tripped
	// the breaker; the attempt may be retried against the next biller.
	OutcomeTransientFailure Outcome = "transient_failure"
)

// CrossSaleResult is the per-cross-sale outcome bundled with a response.
type CrossSaleResult struct {
	ItemID        string  `json:"item_id"`
	TransactionID string  `json:"transaction_id"`
	Outcome       Outcome `json:"status"`
	NSF           bool    `json:"is_nsf"`
}

// TransactionResult is one transaction-service response.
type TransactionResult struct {
	Outcome       Outcome
	TransactionID string
	BillerName    string
	NSF           bool
	DeclineCode   string
	ThreeD        domain.ThreeDInfo
	RedirectTo    string // third-party hosted payment page, when the biller requires one
	CrossSales    []CrossSaleResult
}

// State maps the outcome onto a domain transaction state. Transient failures
// count as aborted so the cascade can move on.
func (r *TransactionResult) State() domain.TransactionState {
	switch r.Outcome {
	case OutcomeApproved:
		return domain.TransactionApproved
	case OutcomeDeclined:
		return domain.TransactionDeclined
	case OutcomePending:
		return domain.TransactionPending
	default:
		return domain.TransactionAborted
	}
}

// LookupRequest initiates a biller submission with a 3-D Secure lookup.
type LookupRequest struct {
	SessionID           string
	Site                *Site
	Biller              domain.Biller
	Item                *domain.InitializedItem
	CrossSales          []*domain.InitializedItem
	Payment             domain.PaymentInfo
	User                domain.UserInfo
	Fraud               domain.FraudAdvice
	RedirectURL         string
	ControlKeyword      string
	DeviceFingerprintID string
	NSFSupported        bool
	Routing             BinRoutingCollection
	JoinSubmitNumber    int
}

// CompleteThreeDRequest finalizes authentication after the ACS challenge.
type CompleteThreeDRequest struct {
	SessionID     string
	TransactionID string
	Biller        domain.Biller
	PARes         string
	MD            string
}

// ThirdPartyRequest submits the purchase to a redirect-based biller.
type ThirdPartyRequest struct {
	SessionID   string
	Site        *Site
	Biller      domain.Biller
	Mapping     *BillerMapping
	Item        *domain.InitializedItem
	CrossSales  []*domain.InitializedItem
	Payment     domain.PaymentInfo
	User        domain.UserInfo
	RedirectURL string
}

// ResolveThirdPartyRequest fetches the final outcome after the return or
// postback leg and records the biller interaction.
type ResolveThirdPartyRequest struct {
	SessionID     string
	TransactionID string
	Biller        domain.Biller
}

// TransactionService is the external transaction/biller-routing collaborator.
// All calls are synchronous and must honor the caller's context deadline: a
// hang here holds the session lock for the full timeout.
type TransactionService interface {
	Lookup(ctx context.Context, req LookupRequest) (*TransactionResult, error)
	CompleteThreeD(ctx context.Context, req CompleteThreeDRequest) (*TransactionResult, error)
	SubmitThirdParty(ctx context.Context, req ThirdPartyRequest) (*TransactionResult, error)
	ResolveThirdParty(ctx context.Context, req ResolveThirdPartyRequest) (*TransactionResult, error)
}
