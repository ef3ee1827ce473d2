package domain

// PaymentType discriminates the polymorphic payment info attached to a process.
type PaymentType string

const (
	PaymentNewCard  PaymentType = "new_cc"
	PaymentTemplate PaymentType = "existing_cc" // previously tokenized payment template
	PaymentCheck    PaymentType = "check"
)

// PaymentInfo is the payment instrument for one purchase process. Exactly one
// of the type-specific field groups is populated, selected by Type.
type PaymentInfo struct {
	Type   PaymentType `json:"type"`
	Method string      `json:"method"` // cc, checks, ...

	// New card fields. Only the bin and last four survive serialization;
	// full PANs never enter the session store.
	Bin      string `json:"bin,omitempty"`
	LastFour string `json:"last_four,omitempty"`
	ExpMonth int    `json:"exp_month,omitempty"`
	ExpYear  int    `json:"exp_year,omitempty"`

	// Payment template fields (secondary/recurring purchases).
	TemplateID          string `json:"template_id,omitempty"`
	TemplateRoutingCode string `json:"template_routing_code,omitempty"`

	// Check fields.
	AccountNumberLastFour string `json:"account_last_four,omitempty"`
	RoutingNumber         string `json:"routing_number,omitempty"`
}

// UsesTemplate reports whether the purchase reuses a stored payment template.
func (p PaymentInfo) UsesTemplate() bool {
	return p.Type == PaymentTemplate && p.TemplateID != ""
}

// Card reports whether the instrument is card-based, which is what gates
// bin-routing lookups.
func (p PaymentInfo) Card() bool {
	return p.Type == PaymentNewCard || p.Type == PaymentTemplate
}

// UserInfo is the member-entered identity attached to the purchase.
type UserInfo struct {
	Username    string `json:"username,omitempty"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	CountryCode string `json:"country_code"`
	ZipCode     string `json:"zip_code,omitempty"`
	IPAddress   string `json:"ip_address,omitempty"`
}

// FraudAdvice is the fraud service's verdict captured at init time.
type FraudAdvice struct {
	ForceThreeD         bool   `json:"force_threed"`
	Captcha             bool   `json:"captcha"`
	Blacklist           bool   `json:"blacklist"`
	DeviceFingerprintID string `json:"device_fingerprint_id,omitempty"`
	RecommendedAction   string `json:"recommended_action,omitempty"`
}
