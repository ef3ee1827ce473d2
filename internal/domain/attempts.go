package domain

// AllowedAttempts bounds how many total submit attempts are considered
// expected for audit classification. Exceeding it flags a fallback biller.
const AllowedAttempts = 2

// AttemptedTransaction is one biller-attempt line in the attempt report.
type AttemptedTransaction struct {
	TransactionID string `json:"transaction_id"`
	RoutingCode   string `json:"routing_code,omitempty"`
	IsCrossSale   bool   `json:"is_cross_sale"`
	Success       bool   `json:"success"`
	IsNSF         bool   `json:"is_nsf"`
}

// AttemptReport is a read-only projection of one submit attempt, derived from
// process state for audit purposes. Building it never mutates the process and
// performs no I/O.
type AttemptReport struct {
	SubmitAttempt               int                    `json:"submit_attempt"`
	BillerName                  string                 `json:"biller_name"`
	Success                     bool                   `json:"success"`
	ExistingPaymentTemplateUsed bool                   `json:"existing_payment_template_used"`
	DefaultBiller               bool                   `json:"default_biller"`
	ConfiguredAllowedAttempts   int                    `json:"configured_allowed_attempts"`
	Transactions                []AttemptedTransaction `json:"transactions"`
}

// NewAttemptReport derives the report for one submit attempt.
//
// Derivation rules:
//   - success mirrors the main transaction's approval.
//   - a failed attempt reports submitAttempt+1, representing this failure
//     plus the upcoming retry.
//   - defaultBiller is computed from the submit attempt as supplied, before
//     any increment: a value above 1 means a fallback biller was in play.
//   - only transactions matching the attempt's biller and no longer pending
//     are listed, across the main item and every cross-sale.
func NewAttemptReport(submitAttempt int, billerName string, mainState TransactionState, main []*Transaction, crossSales [][]*Transaction, paymentTemplateID string) AttemptReport {
	report := AttemptReport{
		SubmitAttempt:               submitAttempt,
		BillerName:                  billerName,
		Success:                     mainState == TransactionApproved,
		ExistingPaymentTemplateUsed: paymentTemplateID != "",
		DefaultBiller:               submitAttempt > 1,
		ConfiguredAllowedAttempts:   AllowedAttempts,
	}
	if !report.Success {
		report.SubmitAttempt++
	}

	report.Transactions = appendAttempted(report.Transactions, main, billerName, false)
	for _, txs := range crossSales {
		report.Transactions = appendAttempted(report.Transactions, txs, billerName, true)
	}
	return report
}

// AttemptReportFor builds the report for the process's current submit attempt
// against the current (or last attempted) biller.
func AttemptReportFor(p *PurchaseProcess) (AttemptReport, error) {
	main, err := p.MainItem()
	if err != nil {
		return AttemptReport{}, err
	}

	// The process counter is already bumped for the upcoming retry by the
	// time a report is requested, so the attempt number comes from the
	// transaction that was actually submitted.
	submitAttempt := p.GatewaySubmitNumber
	var mainState TransactionState
	billerName := ""
	if last, lerr := main.LastTransaction(); lerr == nil {
		mainState = last.State
		billerName = last.BillerName
		if last.SubmitAttempt > 0 {
			submitAttempt = last.SubmitAttempt
		}
	} else if biller, berr := p.Cascade.CurrentBiller(); berr == nil {
		billerName = biller.Name
	}

	var crossSales [][]*Transaction
	for _, cs := range p.CrossSaleItems() {
		crossSales = append(crossSales, cs.Transactions)
	}

	templateID := ""
	if p.Payment.UsesTemplate() {
		templateID = p.Payment.TemplateID
	}
	return NewAttemptReport(submitAttempt, billerName, mainState, main.Transactions, crossSales, templateID), nil
}

func appendAttempted(dst []AttemptedTransaction, txs []*Transaction, billerName string, isCrossSale bool) []AttemptedTransaction {
	for _, tx := range txs {
		if tx.BillerName != billerName || tx.Pending() {
			continue
		}
		dst = append(dst, AttemptedTransaction{
			TransactionID: tx.ID,
			RoutingCode:   tx.RoutingCode,
			IsCrossSale:   isCrossSale,
			Success:       tx.Approved(),
			IsNSF:         tx.NSF,
		})
	}
	return dst
}
