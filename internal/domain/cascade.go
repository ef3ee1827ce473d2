package domain

import "errors"

// ErrCascadeExhausted is returned when every candidate biller has been tried.
var ErrCascadeExhausted = errors.New("cascade billers exhausted")

// Biller is one processing candidate inside a cascade.
type Biller struct {
	Name string `json:"name"`

	// ThirdParty billers require a browser redirect and a return/postback leg.
	ThirdParty bool `json:"third_party"`

	// SupportsThreeD gates whether a 3-D Secure lookup is attempted.
	SupportsThreeD bool `json:"supports_threed"`

	// PaymentMethods, when non-empty, enumerates the methods this biller
	// accepts instead of accepting whatever the process carries. Submitting
	// to such a biller requires member info from the profile gateway first.
	PaymentMethods []string `json:"payment_methods,omitempty"`
}

// EnumeratesPaymentMethods reports whether the biller restricts payment
// methods to an explicit list.
func (b Biller) EnumeratesPaymentMethods() bool {
	return len(b.PaymentMethods) > 0
}

// AcceptsMethod reports whether the biller can process the given method.
// Billers without an enumeration accept everything.
func (b Biller) AcceptsMethod(method string) bool {
	if !b.EnumeratesPaymentMethods() {
		return true
	}
	for _, m := range b.PaymentMethods {
		if m == method {
			return true
		}
	}
	return false
}

// Cascade is the ordered biller-attempt policy for one purchase process: the
// candidate list, the current position, and the per-biller submit counter that
// feeds the bin-routing join-submit-number.
type Cascade struct {
	Billers       []Biller `json:"billers"`
	Position      int      `json:"position"`
	CurrentSubmit int      `json:"current_submit"`
}

// NewCascade builds a cascade over the ordered candidate billers.
func NewCascade(billers []Biller) *Cascade {
	return &Cascade{Billers: billers, Position: 0, CurrentSubmit: 1}
}

// Exhausted reports whether every candidate biller has been consumed.
func (c *Cascade) Exhausted() bool {
	return c.Position >= len(c.Billers)
}

// CurrentBiller returns the biller the next submission targets.
func (c *Cascade) CurrentBiller() (Biller, error) {
	if c.Exhausted() {
		return Biller{}, ErrCascadeExhausted
	}
	return c.Billers[c.Position], nil
}

// CurrentBillerSubmit returns the attempt counter for the current biller.
// Routing codes can differ by attempt number for the same biller and card,
// so this value travels with every bin-routing request. Defaults to 1.
func (c *Cascade) CurrentBillerSubmit() int {
	if c.CurrentSubmit < 1 {
		return 1
	}
	return c.CurrentSubmit
}

// RecordSubmit bumps the per-biller attempt counter after a submission.
func (c *Cascade) RecordSubmit() {
	c.CurrentSubmit = c.CurrentBillerSubmit() + 1
}

// NextBiller advances the cascade after a decline, resetting the per-biller
// counter. Returns ErrCascadeExhausted when no candidate remains.
func (c *Cascade) NextBiller() (Biller, error) {
	if c.Exhausted() {
		return Biller{}, ErrCascadeExhausted
	}
	c.Position++
	c.CurrentSubmit = 1
	return c.CurrentBiller()
}
