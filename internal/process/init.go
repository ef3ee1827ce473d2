package process

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/kostush/purchase-gateway-sub009/internal/domain"
)

// CascadeProvider supplies the ordered biller candidates for a site.
type CascadeProvider interface {
	BillersFor(siteID string) []domain.Biller
}

// ItemInput describes one purchasable item at init time. Amounts arrive as
// decimal strings to avoid float rounding on money.
type ItemInput struct {
	BundleID     string `json:"bundle_id"`
	AddonID      string `json:"addon_id,omitempty"`
	SiteID       string `json:"site_id"`
	Amount       string `json:"amount"`
	TaxAmount    string `json:"tax_amount,omitempty"`
	Currency     string `json:"currency"`
	DurationDays int    `json:"duration_days"`
}

// InitInput creates a new purchase process.
type InitInput struct {
	SiteID      string             `json:"site_id"`
	RedirectURL string             `json:"redirect_url"`
	MemberID    string             `json:"member_id,omitempty"`
	Payment     domain.PaymentInfo `json:"payment"`
	User        domain.UserInfo    `json:"user"`
	Fraud       domain.FraudAdvice `json:"fraud_advice"`
	MainItem    ItemInput          `json:"main_item"`
	CrossSales  []ItemInput        `json:"cross_sales,omitempty"`
}

func badRequest(message string, cause error) *Error {
	return &Error{
		Kind:       KindInternal,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		cause:      cause,
	}
}

func buildItem(in ItemInput, crossSale bool) (*domain.InitializedItem, error) {
	amount, err := decimal.NewFromString(in.Amount)
	if err != nil {
		return nil, badRequest("invalid amount "+in.Amount, err)
	}
	tax := decimal.Zero
	if in.TaxAmount != "" {
		tax, err = decimal.NewFromString(in.TaxAmount)
		if err != nil {
			return nil, badRequest("invalid tax amount "+in.TaxAmount, err)
		}
	}
	return &domain.InitializedItem{
		ItemID:      newItemID(),
		BundleID:    in.BundleID,
		AddonID:     in.AddonID,
		SiteID:      in.SiteID,
		IsCrossSale: crossSale,
		Charge: domain.ChargeInformation{
			Amount:       amount,
			TaxAmount:    tax,
			Currency:     in.Currency,
			DurationDays: in.DurationDays,
		},
	}, nil
}

// Init creates a purchase process in the pending state and persists it. The
// returned session id keys every subsequent command.
func (s *Service) Init(ctx context.Context, in InitInput) (*Result, error) {
	if in.RedirectURL == "" {
		return nil, missingRedirectURL(nil)
	}
	billers := s.cascades.BillersFor(in.SiteID)
	if len(billers) == 0 {
		return nil, badRequest("no cascade configured for site "+in.SiteID, nil)
	}

	main, err := buildItem(in.MainItem, false)
	if err != nil {
		return nil, err
	}
	var crossSales []*domain.InitializedItem
	for _, cs := range in.CrossSales {
		item, berr := buildItem(cs, true)
		if berr != nil {
			return nil, berr
		}
		crossSales = append(crossSales, item)
	}

	p, err := domain.NewPurchaseProcess(in.SiteID, domain.NewCascade(billers), in.Payment, in.User, in.Fraud, main, crossSales...)
	if err != nil {
		return nil, badRequest("invalid purchase items", err)
	}
	p.RedirectURL = in.RedirectURL
	p.MemberID = in.MemberID

	if err := s.sessions.Update(ctx, p); err != nil {
		return nil, s.fail(p.SessionID, err)
	}

	s.logger.Info("purchase process initialized",
		"session_id", p.SessionID,
		"site_id", in.SiteID,
		"cross_sales", len(crossSales),
	)
	return &Result{
		SessionID:           p.SessionID,
		State:               string(p.State),
		GatewaySubmitNumber: p.GatewaySubmitNumber,
		NextAction:          &NextActionDTO{Type: string(NextActionRenderGateway)},
	}, nil
}
