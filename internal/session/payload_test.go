package session

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/kostush/purchase-gateway-sub009/internal/domain"
)

func samplePurchaseProcess(t *testing.T, state domain.State) *domain.PurchaseProcess {
	t.Helper()
	main := &domain.InitializedItem{
		ItemID:   "item-main",
		BundleID: "bundle-001",
		SiteID:   "dev-site",
		Charge: domain.ChargeInformation{
			Amount:       decimal.NewFromFloat(29.95),
			TaxAmount:    decimal.NewFromFloat(2.10),
			Currency:     "USD",
			DurationDays: 30,
		},
		Transactions: []*domain.Transaction{
			{
				ID:          "tx-1",
				State:       domain.TransactionDeclined,
				BillerName:  "rocketgate",
				NSF:         true,
				RoutingCode: "route-77",
				ThreeD:      domain.ThreeDInfo{Version: 2, ACS: "https://acs.example", PAReq: "pareq", MD: "md-1"},
			},
		},
	}
	cross := &domain.InitializedItem{
		ItemID:      "item-cross",
		BundleID:    "bundle-002",
		AddonID:     "addon-01",
		SiteID:      "dev-site",
		IsCrossSale: true,
		Charge: domain.ChargeInformation{
			Amount:    decimal.NewFromFloat(1.00),
			TaxAmount: decimal.NewFromInt(0),
			Currency:  "USD",
		},
	}
	return &domain.PurchaseProcess{
		SessionID:           "session-123",
		State:               state,
		GatewaySubmitNumber: 2,
		RedirectURL:         "https://merchant.example/return",
		MemberID:            "member-9",
		EntrySiteID:         "dev-site",
		Payment: domain.PaymentInfo{
			Type:     domain.PaymentNewCard,
			Method:   "cc",
			Bin:      "411111",
			LastFour: "1111",
			ExpMonth: 4,
			ExpYear:  2028,
		},
		User:  domain.UserInfo{Email: "member@example.test", FirstName: "Ana", LastName: "Silva", CountryCode: "US"},
		Fraud: domain.FraudAdvice{ForceThreeD: true, DeviceFingerprintID: "fp-1"},
		Cascade: &domain.Cascade{
			Billers: []domain.Biller{
				{Name: "rocketgate", SupportsThreeD: true, PaymentMethods: []string{"cc"}},
				{Name: "epoch", ThirdParty: true},
			},
			Position:      1,
			CurrentSubmit: 2,
		},
		Items: []*domain.InitializedItem{main, cross},
	}
}

func TestPayloadRoundTrip_AllReachableStates(t *testing.T) {
	states := []domain.State{
		domain.StatePending,
		domain.StateValid,
		domain.StateThreeDLookupDone,
		domain.StateThreeDAuthenticated,
		domain.StateRedirected,
		domain.StateProcessed,
	}

	for _, state := range states {
		t.Run(string(state), func(t *testing.T) {
			original := samplePurchaseProcess(t, state)
			if state == domain.StateProcessed {
				original.Purchase = &domain.Purchase{
					PurchaseID:    "purchase-1",
					MemberID:      "member-9",
					TransactionID: "tx-1",
					Success:       true,
				}
			}

			data, err := Marshal(original)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			restored, err := Restore(data)
			if err != nil {
				t.Fatalf("restore: %v", err)
			}

			if !reflect.DeepEqual(original, restored) {
				t.Errorf("round trip altered the process:\n got %+v\nwant %+v", restored, original)
			}
		})
	}
}

func TestRestore_RejectsUnknownState(t *testing.T) {
	if _, err := Restore([]byte(`{"session_id":"s","state":"bogus"}`)); err == nil {
		t.Fatal("unknown state must not restore")
	}
}

func TestRestore_RejectsMalformedPayload(t *testing.T) {
	if _, err := Restore([]byte(`{not json`)); err == nil {
		t.Fatal("malformed payload must not restore")
	}
}
