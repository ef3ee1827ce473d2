package domain

import "github.com/google/uuid"

// TransactionState is the outcome of a single biller interaction.
type TransactionState string

const (
	TransactionApproved TransactionState = "approved"
	TransactionDeclined TransactionState = "declined"
	TransactionPending  TransactionState = "pending"
	TransactionAborted  TransactionState = "aborted"
)

// ThreeDInfo carries the 3-D Secure handshake fields returned by a lookup.
// A zero Version means the biller silently switched to a non-3DS flow.
type ThreeDInfo struct {
	ACS          string `json:"acs,omitempty"`
	PAReq        string `json:"pareq,omitempty"`
	Version      int    `json:"version,omitempty"`
	StepUpURL    string `json:"step_up_url,omitempty"`
	StepUpJWT    string `json:"step_up_jwt,omitempty"`
	MD           string `json:"md,omitempty"`
	Frictionless bool   `json:"frictionless,omitempty"`
}

// Challenge reports whether the lookup requires a user-visible ACS challenge.
func (t ThreeDInfo) Challenge() bool {
	return t.Version > 0 && !t.Frictionless
}

// Transaction records one biller-interaction attempt for one item. Apart from
// the 3DS fields, which are filled in during the lookup/authenticate sub-flow,
// a transaction is immutable once appended to an item.
type Transaction struct {
	ID            string           `json:"transaction_id"`
	State         TransactionState `json:"state"`
	BillerName    string           `json:"biller_name"`
	NSF           bool             `json:"is_nsf"`
	SubmitAttempt int              `json:"submit_attempt,omitempty"` // gateway submit number this attempt was made under
	ThreeD        ThreeDInfo       `json:"threed,omitempty"`
	RoutingCode   string           `json:"routing_code,omitempty"` // successful bin routing, if any
}

// NewTransaction creates a transaction for the given biller in the given state.
func NewTransaction(billerName string, state TransactionState) *Transaction {
	return &Transaction{
		ID:         uuid.NewString(),
		State:      state,
		BillerName: billerName,
	}
}

// Approved reports whether the transaction was approved by the biller.
func (t *Transaction) Approved() bool {
	return t.State == TransactionApproved
}

// Pending reports whether the biller has not reached a final outcome yet.
func (t *Transaction) Pending() bool {
	return t.State == TransactionPending
}

// SetThreeD attaches the 3DS handshake fields produced by a lookup.
func (t *Transaction) SetThreeD(info ThreeDInfo) {
	t.ThreeD = info
}

// Resolve moves a pending transaction to its final state. Resolving an
// already-final transaction is a no-op so postbacks can be replayed safely.
func (t *Transaction) Resolve(state TransactionState, nsf bool) {
	if !t.Pending() {
		return
	}
	t.State = state
	t.NSF = nsf
}
