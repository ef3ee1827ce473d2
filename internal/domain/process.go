package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrMissingRedirectURL indicates a transition that depends on a
	// third-party redirect was attempted before a redirect URL was stored.
	ErrMissingRedirectURL = errors.New("purchase process has no redirect url")

	// ErrTransactionStillPending indicates post-processing ran before the
	// biller reached a final outcome.
	ErrTransactionStillPending = errors.New("main transaction is still pending")

	// ErrNoMainItem indicates a process without exactly one main item.
	ErrNoMainItem = errors.New("purchase process has no main item")
)

// AlreadyProcessedError is returned when a transition is driven against a
// session that has moved past the expected state. It carries the stored
// redirect URL so the caller can replay the client instead of failing blind.
type AlreadyProcessedError struct {
	RedirectURL string
}

func (e *AlreadyProcessedError) Error() string {
	return "session already processed"
}

// InvalidTransitionError is returned when a state change violates the
// transition table.
type InvalidTransitionError struct {
	From State
	To   State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

// ProcessOutcome classifies what post-processing decided, so callers switch
// on a value instead of dispatching on error types.
type ProcessOutcome string

const (
	OutcomeApproved        ProcessOutcome = "approved"
	OutcomeRetryNextBiller ProcessOutcome = "retry_next_biller"
	OutcomeExhausted       ProcessOutcome = "cascade_billers_exhausted"
)

// Purchase is the finalized projection built once a process reaches its
// terminal state.
type Purchase struct {
	PurchaseID    string `json:"purchase_id"`
	MemberID      string `json:"member_id"`
	TransactionID string `json:"transaction_id"`
	Success       bool   `json:"success"`
}

// PurchaseProcess is the aggregate root for one purchase workflow instance.
// It is loaded from the session store at the start of a command, mutated by
// exactly one handler under the duplicate-request guard, and written back once
// at the end.
type PurchaseProcess struct {
	SessionID           string
	State               State
	Cascade             *Cascade
	GatewaySubmitNumber int
	RedirectURL         string
	Payment             PaymentInfo
	User                UserInfo
	Fraud               FraudAdvice
	MemberID            string
	EntrySiteID         string
	Items               []*InitializedItem
	Purchase            *Purchase
}

// NewPurchaseProcess creates a process in the pending state. The main item
// must not be flagged as a cross-sale; every additional item must be.
func NewPurchaseProcess(entrySiteID string, cascade *Cascade, payment PaymentInfo, user UserInfo, fraud FraudAdvice, main *InitializedItem, crossSales ...*InitializedItem) (*PurchaseProcess, error) {
	if main == nil || main.IsCrossSale {
		return nil, ErrNoMainItem
	}
	for _, cs := range crossSales {
		if !cs.IsCrossSale {
			return nil, fmt.Errorf("item %s: only the main item may be non-cross-sale", cs.ItemID)
		}
	}
	items := append([]*InitializedItem{main}, crossSales...)
	return &PurchaseProcess{
		SessionID:           uuid.NewString(),
		State:               StatePending,
		Cascade:             cascade,
		GatewaySubmitNumber: 1,
		Payment:             payment,
		User:                user,
		Fraud:               fraud,
		EntrySiteID:         entrySiteID,
		Items:               items,
	}, nil
}

// MainItem returns the single non-cross-sale item.
func (p *PurchaseProcess) MainItem() (*InitializedItem, error) {
	for _, item := range p.Items {
		if !item.IsCrossSale {
			return item, nil
		}
	}
	return nil, ErrNoMainItem
}

// CrossSaleItems returns the cross-sale items in initialization order.
func (p *PurchaseProcess) CrossSaleItems() []*InitializedItem {
	var result []*InitializedItem
	for _, item := range p.Items {
		if item.IsCrossSale {
			result = append(result, item)
		}
	}
	return result
}

// IsPending reports whether the process still accepts a fresh submission.
func (p *PurchaseProcess) IsPending() bool {
	return p.State == StatePending || p.State == StateValid
}

// IsProcessed reports whether the process reached its terminal state.
func (p *PurchaseProcess) IsProcessed() bool {
	return p.State == StateProcessed
}

// WasSuccessful reports whether the finalized purchase was approved.
func (p *PurchaseProcess) WasSuccessful() bool {
	return p.Purchase != nil && p.Purchase.Success
}

func (p *PurchaseProcess) moveTo(target State) error {
	if !p.State.CanTransition(target) {
		return &InvalidTransitionError{From: p.State, To: target}
	}
	p.State = target
	return nil
}

// ValidateSession enforces the entry-handler guard: a redirect URL must be
// stored and the process must still accept submissions.
func (p *PurchaseProcess) ValidateSession() error {
	return p.ValidateSessionFor(StatePending, StateValid)
}

// ValidateSessionFor enforces the guard for continuation handlers that
// operate on a specific intermediate state. Driving a transition against a
// consumed session fails with AlreadyProcessedError, never a silent no-op,
// because billers and BI must not double-count.
func (p *PurchaseProcess) ValidateSessionFor(expected ...State) error {
	if p.RedirectURL == "" {
		return ErrMissingRedirectURL
	}
	for _, s := range expected {
		if p.State == s {
			return nil
		}
	}
	return &AlreadyProcessedError{RedirectURL: p.RedirectURL}
}

// Validate moves a pending process to valid once payment and user info have
// passed validation.
func (p *PurchaseProcess) Validate() error {
	if p.State == StateValid {
		return nil
	}
	return p.moveTo(StateValid)
}

// PerformThreeDLookup records a 3-D Secure lookup that produced a challenge.
// It is only callable when the lookup transaction carries a 3DS version and
// the biller did not silently switch to a non-3DS flow, or when frictionless
// authentication occurred.
func (p *PurchaseProcess) PerformThreeDLookup(tx *Transaction) error {
	if tx.ThreeD.Version == 0 && !tx.ThreeD.Frictionless {
		return fmt.Errorf("transaction %s: lookup carries no 3DS version", tx.ID)
	}
	return p.moveTo(StateThreeDLookupDone)
}

// AuthenticateThreeD records completion of the ACS challenge.
func (p *PurchaseProcess) AuthenticateThreeD() error {
	return p.moveTo(StateThreeDAuthenticated)
}

// Redirect records that a third-party biller sent the browser away.
func (p *PurchaseProcess) Redirect() error {
	if p.RedirectURL == "" {
		return ErrMissingRedirectURL
	}
	return p.moveTo(StateRedirected)
}

// PostProcessing advances bookkeeping once the main transaction is no longer
// pending, regardless of the NSF flag. Approval finalizes the purchase; a
// decline advances the cascade or, when no candidate remains, finalizes with
// failure. Exhaustion is a business outcome, not an error.
func (p *PurchaseProcess) PostProcessing() (ProcessOutcome, error) {
	main, err := p.MainItem()
	if err != nil {
		return "", err
	}
	last, err := main.LastTransaction()
	if err != nil {
		return "", err
	}
	if last.Pending() {
		return "", ErrTransactionStillPending
	}

	if last.Approved() {
		if err := p.finish(true, last.ID); err != nil {
			return "", err
		}
		return OutcomeApproved, nil
	}

	if _, err := p.Cascade.NextBiller(); err != nil {
		if errors.Is(err, ErrCascadeExhausted) {
			if ferr := p.finish(false, last.ID); ferr != nil {
				return "", ferr
			}
			return OutcomeExhausted, nil
		}
		return "", err
	}

	// Another candidate exists; fall back to a submittable state where the
	// transition table permits it.
	if p.State != StateValid && p.State.CanTransition(StateValid) {
		if err := p.moveTo(StateValid); err != nil {
			return "", err
		}
	}
	return OutcomeRetryNextBiller, nil
}

// FinishProcessingOrValidate completes the workflow once the redirected
// transaction resolved. A return leg that arrives before the postback marks
// the attempt aborted so the cascade can move on.
func (p *PurchaseProcess) FinishProcessingOrValidate() (ProcessOutcome, error) {
	main, err := p.MainItem()
	if err != nil {
		return "", err
	}
	if main.Unresolved() {
		last, lerr := main.LastTransaction()
		if lerr != nil {
			return "", lerr
		}
		last.Resolve(TransactionAborted, false)
	}
	return p.PostProcessing()
}

// IncrementGatewaySubmitNumberIfValid bumps the submit counter only when the
// process is in a state where a submission actually occurred. Safe to call
// from deferred completion paths, including after a handler error.
func (p *PurchaseProcess) IncrementGatewaySubmitNumberIfValid() {
	if p.State == StateValid {
		p.GatewaySubmitNumber++
	}
}

func (p *PurchaseProcess) finish(success bool, transactionID string) error {
	if err := p.moveTo(StateProcessed); err != nil {
		return err
	}
	p.Purchase = &Purchase{
		PurchaseID:    uuid.NewString(),
		MemberID:      p.MemberID,
		TransactionID: transactionID,
		Success:       success,
	}
	return nil
}
