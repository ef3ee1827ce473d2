package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func newTestItem(crossSale bool) *InitializedItem {
	return &InitializedItem{
		ItemID:      "item-" + map[bool]string{false: "main", true: "cross"}[crossSale],
		BundleID:    "bundle-001",
		SiteID:      "dev-site",
		IsCrossSale: crossSale,
		Charge: ChargeInformation{
			Amount:       decimal.NewFromFloat(14.95),
			Currency:     "USD",
			DurationDays: 30,
		},
	}
}

func newTestProcess(t *testing.T) *PurchaseProcess {
	t.Helper()
	p, err := NewPurchaseProcess("dev-site", NewCascade([]Biller{
		{Name: "rocketgate", SupportsThreeD: true},
		{Name: "netbilling"},
	}), PaymentInfo{Type: PaymentNewCard, Method: "cc", Bin: "411111", LastFour: "1111"}, UserInfo{Email: "member@example.test"}, FraudAdvice{}, newTestItem(false))
	if err != nil {
		t.Fatalf("creating process: %v", err)
	}
	p.RedirectURL = "https://merchant.example/return"
	return p
}

func TestNewPurchaseProcess_RequiresMainItem(t *testing.T) {
	if _, err := NewPurchaseProcess("dev-site", twoBillerCascade(), PaymentInfo{}, UserInfo{}, FraudAdvice{}, nil); !errors.Is(err, ErrNoMainItem) {
		t.Errorf("nil main item should fail with ErrNoMainItem, got %v", err)
	}
	if _, err := NewPurchaseProcess("dev-site", twoBillerCascade(), PaymentInfo{}, UserInfo{}, FraudAdvice{}, newTestItem(true)); !errors.Is(err, ErrNoMainItem) {
		t.Errorf("cross-sale main item should fail with ErrNoMainItem, got %v", err)
	}
	if _, err := NewPurchaseProcess("dev-site", twoBillerCascade(), PaymentInfo{}, UserInfo{}, FraudAdvice{}, newTestItem(false), newTestItem(false)); err == nil {
		t.Error("second non-cross-sale item should be rejected")
	}
}

func TestValidateSession_RequiresRedirectURL(t *testing.T) {
	p := newTestProcess(t)
	p.RedirectURL = ""
	if err := p.ValidateSession(); !errors.Is(err, ErrMissingRedirectURL) {
		t.Fatalf("expected ErrMissingRedirectURL, got %v", err)
	}
}

func TestValidateSession_AlreadyProcessedCarriesRedirectURL(t *testing.T) {
	p := newTestProcess(t)
	if err := p.moveTo(StateProcessed); err != nil {
		t.Fatalf("moving to processed: %v", err)
	}

	err := p.ValidateSession()
	var processed *AlreadyProcessedError
	if !errors.As(err, &processed) {
		t.Fatalf("expected AlreadyProcessedError, got %v", err)
	}
	if processed.RedirectURL != p.RedirectURL {
		t.Errorf("error should carry stored redirect url, got %q", processed.RedirectURL)
	}
}

func TestValidateSessionFor_IntermediateState(t *testing.T) {
	p := newTestProcess(t)
	p.State = StateThreeDLookupDone
	if err := p.ValidateSessionFor(StateThreeDLookupDone); err != nil {
		t.Errorf("expected state to be accepted, got %v", err)
	}
	if err := p.ValidateSessionFor(StateRedirected); err == nil {
		t.Error("mismatched state should fail")
	}
}

func TestPerformThreeDLookup_RequiresVersion(t *testing.T) {
	p := newTestProcess(t)
	if err := p.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	tx := NewTransaction("rocketgate", TransactionPending)
	if err := p.PerformThreeDLookup(tx); err == nil {
		t.Fatal("lookup without a 3DS version should fail")
	}

	tx.SetThreeD(ThreeDInfo{Version: 2, ACS: "https://acs.example", PAReq: "pareq"})
	if err := p.PerformThreeDLookup(tx); err != nil {
		t.Fatalf("lookup with 3DS version should succeed: %v", err)
	}
	if p.State != StateThreeDLookupDone {
		t.Errorf("expected state %s, got %s", StateThreeDLookupDone, p.State)
	}
}

func TestPerformThreeDLookup_AcceptsFrictionless(t *testing.T) {
	p := newTestProcess(t)
	if err := p.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	tx := NewTransaction("rocketgate", TransactionPending)
	tx.SetThreeD(ThreeDInfo{Frictionless: true})
	if err := p.PerformThreeDLookup(tx); err != nil {
		t.Fatalf("frictionless lookup should be accepted: %v", err)
	}
	if p.State != StateThreeDLookupDone {
		t.Errorf("expected state %s, got %s", StateThreeDLookupDone, p.State)
	}
}

func TestPostProcessing_ApprovedFinalizes(t *testing.T) {
	p := newTestProcess(t)
	p.MemberID = "member-42"
	main, _ := p.MainItem()
	tx := NewTransaction("rocketgate", TransactionApproved)
	main.AddTransaction(tx)

	outcome, err := p.PostProcessing()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeApproved {
		t.Fatalf("expected approved outcome, got %s", outcome)
	}
	if p.State != StateProcessed {
		t.Errorf("expected processed state, got %s", p.State)
	}
	if p.Purchase == nil || !p.Purchase.Success {
		t.Fatal("purchase projection should record success")
	}
	if p.Purchase.TransactionID != tx.ID {
		t.Errorf("purchase should reference the approving transaction")
	}
	if p.Purchase.MemberID != "member-42" {
		t.Errorf("purchase should carry the member id, got %q", p.Purchase.MemberID)
	}
}

func TestPostProcessing_DeclinedAdvancesCascade(t *testing.T) {
	p := newTestProcess(t)
	main, _ := p.MainItem()
	main.AddTransaction(NewTransaction("rocketgate", TransactionDeclined))

	outcome, err := p.PostProcessing()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeRetryNextBiller {
		t.Fatalf("expected retry outcome, got %s", outcome)
	}
	b, err := p.Cascade.CurrentBiller()
	if err != nil {
		t.Fatalf("cascade should have a candidate left: %v", err)
	}
	if b.Name != "netbilling" {
		t.Errorf("expected cascade to point at netbilling, got %s", b.Name)
	}
}

func TestPostProcessing_SecondDeclineExhausts(t *testing.T) {
	p := newTestProcess(t)
	main, _ := p.MainItem()
	main.AddTransaction(NewTransaction("rocketgate", TransactionDeclined))
	if _, err := p.PostProcessing(); err != nil {
		t.Fatalf("first decline: %v", err)
	}

	last := NewTransaction("netbilling", TransactionDeclined)
	main.AddTransaction(last)
	outcome, err := p.PostProcessing()
	if err != nil {
		t.Fatalf("second decline: %v", err)
	}
	if outcome != OutcomeExhausted {
		t.Fatalf("expected exhausted outcome, got %s", outcome)
	}
	if p.State != StateProcessed {
		t.Errorf("exhaustion should finalize the process, got state %s", p.State)
	}
	if p.Purchase == nil || p.Purchase.Success {
		t.Error("exhausted purchase should record failure")
	}
	if p.Purchase.TransactionID != last.ID {
		t.Error("exhausted purchase should reference the last declined transaction")
	}
}

func TestPostProcessing_PendingTransactionRejected(t *testing.T) {
	p := newTestProcess(t)
	main, _ := p.MainItem()
	main.AddTransaction(NewTransaction("rocketgate", TransactionPending))

	if _, err := p.PostProcessing(); !errors.Is(err, ErrTransactionStillPending) {
		t.Fatalf("expected ErrTransactionStillPending, got %v", err)
	}
}

func TestPostProcessing_RetryFromRedirectedFallsBackToValid(t *testing.T) {
	p := newTestProcess(t)
	main, _ := p.MainItem()
	if err := p.Redirect(); err != nil {
		t.Fatalf("redirect: %v", err)
	}
	main.AddTransaction(NewTransaction("rocketgate", TransactionDeclined))

	outcome, err := p.PostProcessing()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeRetryNextBiller {
		t.Fatalf("expected retry outcome, got %s", outcome)
	}
	if p.State != StateValid {
		t.Errorf("process should fall back to valid for the next submission, got %s", p.State)
	}
}

func TestFinishProcessingOrValidate_AbortsUnresolvedReturn(t *testing.T) {
	p := newTestProcess(t)
	main, _ := p.MainItem()
	if err := p.Redirect(); err != nil {
		t.Fatalf("redirect: %v", err)
	}
	tx := NewTransaction("rocketgate", TransactionPending)
	main.AddTransaction(tx)

	outcome, err := p.FinishProcessingOrValidate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.State != TransactionAborted {
		t.Errorf("returning before the postback should abort the attempt, got %s", tx.State)
	}
	if outcome != OutcomeRetryNextBiller {
		t.Errorf("aborted attempt should cascade, got %s", outcome)
	}
}

func TestIncrementGatewaySubmitNumberIfValid(t *testing.T) {
	p := newTestProcess(t)
	if p.GatewaySubmitNumber != 1 {
		t.Fatalf("submit number should start at 1, got %d", p.GatewaySubmitNumber)
	}

	p.IncrementGatewaySubmitNumberIfValid()
	if p.GatewaySubmitNumber != 1 {
		t.Error("pending process should not increment")
	}

	if err := p.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	p.IncrementGatewaySubmitNumberIfValid()
	if p.GatewaySubmitNumber != 2 {
		t.Errorf("valid process should increment, got %d", p.GatewaySubmitNumber)
	}
}

func TestTransaction_ResolveIsReplaySafe(t *testing.T) {
	tx := NewTransaction("epoch", TransactionPending)
	tx.Resolve(TransactionApproved, false)
	tx.Resolve(TransactionDeclined, true)
	if tx.State != TransactionApproved {
		t.Errorf("second resolve should be a no-op, got %s", tx.State)
	}
	if tx.NSF {
		t.Error("second resolve should not flip the NSF flag")
	}
}

func TestThreeDInfo_Challenge(t *testing.T) {
	if (ThreeDInfo{}).Challenge() {
		t.Error("zero version should not challenge")
	}
	if !(ThreeDInfo{Version: 2}).Challenge() {
		t.Error("versioned lookup should challenge")
	}
	if (ThreeDInfo{Version: 2, Frictionless: true}).Challenge() {
		t.Error("frictionless authentication should not challenge")
	}
}
