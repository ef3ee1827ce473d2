package biller

import (
	"context"
	"testing"

	"github.com/kostush/purchase-gateway-sub009/internal/domain"
)

func simulatorLookupRequest(forceThreeD bool) LookupRequest {
	return LookupRequest{
		SessionID: "session-1",
		Site:      routingSite(),
		Biller:    domain.Biller{Name: "rocketgate", SupportsThreeD: true},
		Item:      &domain.InitializedItem{ItemID: "item-1"},
		Payment:   domain.PaymentInfo{Type: domain.PaymentNewCard, Method: "cc"},
		Fraud:     domain.FraudAdvice{ForceThreeD: forceThreeD},
	}
}

func TestSimulator_ForcedThreeDChallenges(t *testing.T) {
	sim := NewSimulator(1)
	res, err := sim.Lookup(context.Background(), simulatorLookupRequest(true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomePending {
		t.Fatalf("forced 3DS should answer pending, got %s", res.Outcome)
	}
	if !res.ThreeD.Challenge() {
		t.Errorf("expected a challenge, got %+v", res.ThreeD)
	}
	if res.TransactionID == "" {
		t.Error("challenge must carry a transaction id")
	}
}

func TestSimulator_ApprovalRateZeroAlwaysDeclines(t *testing.T) {
	sim := NewSimulator(1)
	sim.SetApprovalRate("rocketgate", 0)

	for i := 0; i < 20; i++ {
		res, err := sim.Lookup(context.Background(), simulatorLookupRequest(false))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Outcome != OutcomeDeclined {
			t.Fatalf("rate 0 must always decline, got %s", res.Outcome)
		}
		if res.DeclineCode == "" {
			t.Error("declines must carry a decline code")
		}
	}
}

func TestSimulator_ApprovalRateOneAlwaysApproves(t *testing.T) {
	sim := NewSimulator(1)
	sim.SetApprovalRate("rocketgate", 1)

	for i := 0; i < 20; i++ {
		res, err := sim.Lookup(context.Background(), simulatorLookupRequest(false))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Outcome != OutcomeApproved {
			t.Fatalf("rate 1 must always approve, got %s", res.Outcome)
		}
	}
}

func TestSimulator_CrossSalesGetOutcomes(t *testing.T) {
	sim := NewSimulator(7)
	sim.SetApprovalRate("rocketgate", 1)
	req := simulatorLookupRequest(false)
	req.CrossSales = []*domain.InitializedItem{
		{ItemID: "cs-1", IsCrossSale: true},
		{ItemID: "cs-2", IsCrossSale: true},
	}

	res, err := sim.Lookup(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.CrossSales) != 2 {
		t.Fatalf("expected 2 cross-sale outcomes, got %d", len(res.CrossSales))
	}
	for _, cs := range res.CrossSales {
		if cs.ItemID != "cs-1" && cs.ItemID != "cs-2" {
			t.Errorf("unexpected cross-sale item %s", cs.ItemID)
		}
		if cs.Outcome != OutcomeApproved {
			t.Errorf("rate 1 should approve cross-sales, got %s", cs.Outcome)
		}
	}
}

func TestSimulator_ThirdPartyFlow(t *testing.T) {
	sim := NewSimulator(3)
	sim.SetApprovalRate("epoch", 1)

	res, err := sim.SubmitThirdParty(context.Background(), ThirdPartyRequest{
		SessionID: "session-1",
		Site:      routingSite(),
		Biller:    domain.Biller{Name: "epoch", ThirdParty: true},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomePending {
		t.Fatalf("third-party submit should be pending, got %s", res.Outcome)
	}
	if res.RedirectTo == "" {
		t.Fatal("third-party submit must carry a hosted-page url")
	}

	final, err := sim.ResolveThirdParty(context.Background(), ResolveThirdPartyRequest{
		SessionID:     "session-1",
		TransactionID: res.TransactionID,
		Biller:        domain.Biller{Name: "epoch", ThirdParty: true},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if final.Outcome != OutcomeApproved {
		t.Fatalf("rate 1 should approve on the return leg, got %s", final.Outcome)
	}
	if final.TransactionID != res.TransactionID {
		t.Error("resolution must reference the submitted transaction")
	}
}
