package session

import (
	"encoding/json"
	"fmt"

	"github.com/kostush/purchase-gateway-sub009/internal/domain"
)

// processPayload is the flat JSON shape a purchase process serializes to.
// Marshal and Restore must round-trip every observable field.
type processPayload struct {
	SessionID           string                    `json:"session_id"`
	State               string                    `json:"state"`
	GatewaySubmitNumber int                       `json:"gateway_submit_number"`
	RedirectURL         string                    `json:"redirect_url,omitempty"`
	MemberID            string                    `json:"member_id,omitempty"`
	EntrySiteID         string                    `json:"entry_site_id"`
	Payment             domain.PaymentInfo        `json:"payment"`
	User                domain.UserInfo           `json:"user"`
	Fraud               domain.FraudAdvice        `json:"fraud_advice"`
	Cascade             *domain.Cascade           `json:"cascade"`
	Items               []*domain.InitializedItem `json:"items"`
	Purchase            *domain.Purchase          `json:"purchase,omitempty"`
}

// Marshal serializes a purchase process for storage.
func Marshal(p *domain.PurchaseProcess) ([]byte, error) {
	payload := processPayload{
		SessionID:           p.SessionID,
		State:               string(p.State),
		GatewaySubmitNumber: p.GatewaySubmitNumber,
		RedirectURL:         p.RedirectURL,
		MemberID:            p.MemberID,
		EntrySiteID:         p.EntrySiteID,
		Payment:             p.Payment,
		User:                p.User,
		Fraud:               p.Fraud,
		Cascade:             p.Cascade,
		Items:               p.Items,
		Purchase:            p.Purchase,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("serializing session %s: %w", p.SessionID, err)
	}
	return data, nil
}

// Restore deserializes a stored payload back into a purchase process.
func Restore(data []byte) (*domain.PurchaseProcess, error) {
	var payload processPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parsing session payload: %w", err)
	}
	state, ok := domain.ParseState(payload.State)
	if !ok {
		return nil, fmt.Errorf("session %s: unknown state %q", payload.SessionID, payload.State)
	}
	return &domain.PurchaseProcess{
		SessionID:           payload.SessionID,
		State:               state,
		GatewaySubmitNumber: payload.GatewaySubmitNumber,
		RedirectURL:         payload.RedirectURL,
		MemberID:            payload.MemberID,
		EntrySiteID:         payload.EntrySiteID,
		Payment:             payload.Payment,
		User:                payload.User,
		Fraud:               payload.Fraud,
		Cascade:             payload.Cascade,
		Items:               payload.Items,
		Purchase:            payload.Purchase,
	}, nil
}
