package process

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/kostush/purchase-gateway-sub009/internal/biller"
	"github.com/kostush/purchase-gateway-sub009/internal/domain"
	"github.com/kostush/purchase-gateway-sub009/internal/event"
	"github.com/kostush/purchase-gateway-sub009/internal/session"
)

// SiteResolver resolves per-site configuration.
type SiteResolver interface {
	GetSite(ctx context.Context, siteID string) (*biller.Site, error)
}

// MappingResolver resolves biller credential sets.
type MappingResolver interface {
	RetrieveBillerMapping(ctx context.Context, billerName, businessGroupID, siteID, currencyCode, sessionID string) (*biller.BillerMapping, error)
}

// RoutingResolver resolves bin-routing codes for a submission attempt.
type RoutingResolver interface {
	Lookup(ctx context.Context, req biller.BinRoutingRequest) (biller.BinRoutingCollection, error)
}

// NextActionDTO tells the client what to do next.
type NextActionDTO struct {
	Type   string `json:"type"`
	Reason string `json:"reason,omitempty"`
}

// Result is the DTO returned by every command handler.
type Result struct {
	SessionID           string             `json:"session_id"`
	Success             bool               `json:"success"`
	State               string             `json:"state"`
	GatewaySubmitNumber int                `json:"gateway_submit_number"`
	TransactionID       string             `json:"transaction_id,omitempty"`
	ThreeD              *domain.ThreeDInfo `json:"threed,omitempty"`
	RedirectTo          string             `json:"redirect_to,omitempty"`
	Purchase            *domain.Purchase   `json:"purchase,omitempty"`
	NextAction          *NextActionDTO     `json:"next_action,omitempty"`
}

// Lookup3DSInput carries the request fields for a 3-D Secure lookup.
type Lookup3DSInput struct {
	DeviceFingerprintID string `json:"device_fingerprint_id,omitempty"`
	NSFSupported        bool   `json:"nsf_supported,omitempty"`
}

// Complete3DSInput carries the ACS challenge response.
type Complete3DSInput struct {
	PARes string `json:"pares"`
	MD    string `json:"md"`
}

// Service orchestrates one HTTP-triggered transition of the purchase-process
// state machine: acquire the duplicate-request lock, load the process,
// validate applicability, call the external biller services, apply the
// transition, and persist. Persisting and releasing the lock happen
// unconditionally, success or failure.
type Service struct {
	sessions     session.Store
	guard        *session.Guard
	transactions biller.TransactionService
	sites        SiteResolver
	mappings     MappingResolver
	routing      RoutingResolver
	cascades     CascadeProvider
	keywords     *domain.ControlKeywords
	events       *event.Publisher
	logger       *slog.Logger
}

// NewService wires a purchase-process command service.
func NewService(sessions session.Store, guard *session.Guard, transactions biller.TransactionService, sites SiteResolver, mappings MappingResolver, routing RoutingResolver, cascades CascadeProvider, keywords *domain.ControlKeywords, events *event.Publisher, logger *slog.Logger) *Service {
	return &Service{
		sessions:     sessions,
		guard:        guard,
		transactions: transactions,
		sites:        sites,
		mappings:     mappings,
		routing:      routing,
		cascades:     cascades,
		keywords:     keywords,
		events:       events,
		logger:       logger,
	}
}

func newItemID() string {
	return uuid.NewString()
}

type operation func(ctx context.Context, p *domain.PurchaseProcess) (*Result, error)

// run is the shared command skeleton. The deferred block persists whatever
// process state exists and releases the lock even when the operation failed;
// a partially-updated process is acceptable because the state machine's
// invariants are re-checked on the next request.
func (s *Service) run(ctx context.Context, sessionID string, op operation) (result *Result, err error) {
	if gerr := s.guard.Begin(ctx, sessionID); gerr != nil {
		return nil, s.fail(sessionID, gerr)
	}

	p, lerr := s.sessions.Load(ctx, sessionID)
	if lerr != nil {
		s.guard.Finish(ctx, sessionID)
		return nil, s.fail(sessionID, lerr)
	}

	defer func() {
		var tagged *Error
		if err != nil && errors.As(err, &tagged) && tagged.IncrementsAttempts {
			p.IncrementGatewaySubmitNumberIfValid()
		}
		if uerr := s.sessions.Update(ctx, p); uerr != nil {
			s.logger.Error("persisting session failed", "session_id", sessionID, "error", uerr)
		}
		s.guard.Finish(ctx, sessionID)
	}()

	result, err = op(ctx, p)
	if err != nil {
		err = s.fail(sessionID, err)
	}
	return result, err
}

// fail logs and tags a command failure. Every failure is logged and
// re-surfaced, never swallowed.
func (s *Service) fail(sessionID string, err error) *Error {
	tagged := translate(sessionID, err)
	s.logger.Error("purchase process command failed",
		"session_id", sessionID,
		"error_kind", string(tagged.Kind),
		"error", err,
	)
	return tagged
}

// Lookup3DS submits the purchase to the cascade's current biller with a 3-D
// Secure lookup. A challenge pauses the process awaiting the ACS response;
// anything else resolves immediately through post-processing.
func (s *Service) Lookup3DS(ctx context.Context, sessionID string, in Lookup3DSInput) (*Result, error) {
	return s.run(ctx, sessionID, func(ctx context.Context, p *domain.PurchaseProcess) (*Result, error) {
		if err := p.ValidateSession(); err != nil {
			return nil, err
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		main, err := p.MainItem()
		if err != nil {
			return nil, err
		}
		currentBiller, err := p.Cascade.CurrentBiller()
		if err != nil {
			return s.exhausted(p), nil
		}
		if !currentBiller.AcceptsMethod(p.Payment.Method) {
			return nil, unsupportedPaymentMethod(currentBiller.Name, p.Payment.Method)
		}

		site, err := s.sites.GetSite(ctx, p.EntrySiteID)
		if err != nil {
			return nil, internal("resolving site "+p.EntrySiteID, err)
		}

		var routing biller.BinRoutingCollection
		controlKeyword := ""
		if p.Payment.Card() {
			mapping, merr := s.mappings.RetrieveBillerMapping(ctx, currentBiller.Name, site.BusinessGroupID, site.ID, main.Charge.Currency, p.SessionID)
			if merr != nil {
				return nil, merr
			}
			if kw, kerr := s.keywords.Lookup(mapping.MerchantID); kerr == nil {
				controlKeyword = kw
			}

			routing, err = s.routing.Lookup(ctx, biller.BinRoutingRequest{
				Site:             site,
				Item:             main,
				Payment:          p.Payment,
				Currency:         main.Charge.Currency,
				MerchantAccount:  mapping.MerchantAccount,
				JoinSubmitNumber: p.Cascade.CurrentBillerSubmit(),
				SessionID:        p.SessionID,
			})
			if err != nil {
				return nil, err
			}
		}

		res, err := s.transactions.Lookup(ctx, biller.LookupRequest{
			SessionID:           p.SessionID,
			Site:                site,
			Biller:              currentBiller,
			Item:                main,
			CrossSales:          p.CrossSaleItems(),
			Payment:             p.Payment,
			User:                p.User,
			Fraud:               p.Fraud,
			RedirectURL:         p.RedirectURL,
			ControlKeyword:      controlKeyword,
			DeviceFingerprintID: in.DeviceFingerprintID,
			NSFSupported:        in.NSFSupported,
			Routing:             routing,
			JoinSubmitNumber:    p.Cascade.CurrentBillerSubmit(),
		})
		if err != nil {
			return nil, err
		}

		tx := s.applyResult(p, main, currentBiller, res, routing)
		p.Cascade.RecordSubmit()

		if res.Outcome == biller.OutcomePending && res.ThreeD.Challenge() {
			if err := p.PerformThreeDLookup(tx); err != nil {
				return nil, err
			}
			s.events.Publish(event.TypeLookupPerformed, p.SessionID, currentBiller.Name, p.GatewaySubmitNumber, false)
			return &Result{
				SessionID:           p.SessionID,
				State:               string(p.State),
				GatewaySubmitNumber: p.GatewaySubmitNumber,
				TransactionID:       tx.ID,
				ThreeD:              &tx.ThreeD,
				NextAction:          &NextActionDTO{Type: string(NextActionAuthenticate3D)},
			}, nil
		}

		// Frictionless 3DS authenticates without a browser challenge, so the
		// lookup and authenticate legs collapse into one request.
		if res.Outcome == biller.OutcomePending && res.ThreeD.Frictionless {
			if err := p.PerformThreeDLookup(tx); err != nil {
				return nil, err
			}
			s.events.Publish(event.TypeLookupPerformed, p.SessionID, currentBiller.Name, p.GatewaySubmitNumber, false)

			auth, aerr := s.transactions.CompleteThreeD(ctx, biller.CompleteThreeDRequest{
				SessionID:     p.SessionID,
				TransactionID: tx.ID,
				Biller:        currentBiller,
			})
			if aerr != nil {
				return nil, aerr
			}
			if err := p.AuthenticateThreeD(); err != nil {
				return nil, err
			}
			tx.Resolve(auth.State(), auth.NSF)
			s.events.Publish(event.TypeThreeDAuthenticated, p.SessionID, currentBiller.Name, p.GatewaySubmitNumber, tx.Approved())
			return s.finishAttempt(p, tx)
		}

		return s.finishAttempt(p, tx)
	})
}

// Complete3DS finalizes the ACS challenge and resolves the paused attempt.
func (s *Service) Complete3DS(ctx context.Context, sessionID string, in Complete3DSInput) (*Result, error) {
	return s.run(ctx, sessionID, func(ctx context.Context, p *domain.PurchaseProcess) (*Result, error) {
		if err := p.ValidateSessionFor(domain.StateThreeDLookupDone); err != nil {
			return nil, err
		}
		main, err := p.MainItem()
		if err != nil {
			return nil, err
		}
		last, err := main.LastTransaction()
		if err != nil {
			return nil, err
		}
		currentBiller, err := p.Cascade.CurrentBiller()
		if err != nil {
			return s.exhausted(p), nil
		}

		res, err := s.transactions.CompleteThreeD(ctx, biller.CompleteThreeDRequest{
			SessionID:     p.SessionID,
			TransactionID: last.ID,
			Biller:        currentBiller,
			PARes:         in.PARes,
			MD:            in.MD,
		})
		if err != nil {
			return nil, err
		}

		if err := p.AuthenticateThreeD(); err != nil {
			return nil, err
		}
		last.Resolve(res.State(), res.NSF)
		s.events.Publish(event.TypeThreeDAuthenticated, p.SessionID, currentBiller.Name, p.GatewaySubmitNumber, last.Approved())

		return s.finishAttempt(p, last)
	})
}

// ThirdPartyRedirect submits the purchase to a redirect-based biller and
// hands the browser its hosted payment page.
func (s *Service) ThirdPartyRedirect(ctx context.Context, sessionID string) (*Result, error) {
	return s.run(ctx, sessionID, func(ctx context.Context, p *domain.PurchaseProcess) (*Result, error) {
		if err := p.ValidateSession(); err != nil {
			return nil, err
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		main, err := p.MainItem()
		if err != nil {
			return nil, err
		}
		currentBiller, err := p.Cascade.CurrentBiller()
		if err != nil {
			return s.exhausted(p), nil
		}
		if !currentBiller.ThirdParty {
			return nil, &Error{
				Kind:       KindInternal,
				Message:    "current biller " + currentBiller.Name + " does not use a third-party redirect",
				HTTPStatus: http.StatusBadRequest,
			}
		}

		site, err := s.sites.GetSite(ctx, p.EntrySiteID)
		if err != nil {
			return nil, internal("resolving site "+p.EntrySiteID, err)
		}
		mapping, err := s.mappings.RetrieveBillerMapping(ctx, currentBiller.Name, site.BusinessGroupID, site.ID, main.Charge.Currency, p.SessionID)
		if err != nil {
			return nil, err
		}

		res, err := s.transactions.SubmitThirdParty(ctx, biller.ThirdPartyRequest{
			SessionID:   p.SessionID,
			Site:        site,
			Biller:      currentBiller,
			Mapping:     mapping,
			Item:        main,
			CrossSales:  p.CrossSaleItems(),
			Payment:     p.Payment,
			User:        p.User,
			RedirectURL: p.RedirectURL,
		})
		if err != nil {
			return nil, err
		}

		tx := s.applyResult(p, main, currentBiller, res, nil)
		p.Cascade.RecordSubmit()

		if res.Outcome == biller.OutcomePending && res.RedirectTo != "" {
			if err := p.Redirect(); err != nil {
				return nil, err
			}
			s.events.Publish(event.TypeRedirected, p.SessionID, currentBiller.Name, p.GatewaySubmitNumber, false)
			return &Result{
				SessionID:           p.SessionID,
				State:               string(p.State),
				GatewaySubmitNumber: p.GatewaySubmitNumber,
				TransactionID:       tx.ID,
				RedirectTo:          res.RedirectTo,
				NextAction:          &NextActionDTO{Type: string(NextActionRedirectToURL)},
			}, nil
		}

		return s.finishAttempt(p, tx)
	})
}

// ThirdPartyReturn handles the return/postback leg: it resolves the redirected
// transaction's final outcome and completes or cascades the workflow.
func (s *Service) ThirdPartyReturn(ctx context.Context, sessionID string) (*Result, error) {
	return s.run(ctx, sessionID, func(ctx context.Context, p *domain.PurchaseProcess) (*Result, error) {
		if err := p.ValidateSessionFor(domain.StateRedirected); err != nil {
			return nil, err
		}
		main, err := p.MainItem()
		if err != nil {
			return nil, err
		}
		last, err := main.LastTransaction()
		if err != nil {
			return nil, err
		}
		currentBiller, err := p.Cascade.CurrentBiller()
		if err != nil {
			return s.exhausted(p), nil
		}

		res, err := s.transactions.ResolveThirdParty(ctx, biller.ResolveThirdPartyRequest{
			SessionID:     p.SessionID,
			TransactionID: last.ID,
			Biller:        currentBiller,
		})
		if err != nil {
			return nil, err
		}

		last.Resolve(res.State(), res.NSF)
		outcome, err := p.FinishProcessingOrValidate()
		if err != nil {
			return nil, err
		}
		return s.outcomeResult(p, last, outcome), nil
	})
}

// GetProcess loads a process for inspection. Read-only, no lock taken.
func (s *Service) GetProcess(ctx context.Context, sessionID string) (*domain.PurchaseProcess, error) {
	p, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, s.fail(sessionID, err)
	}
	return p, nil
}

// Attempts derives the attempt report for a session. Read-only, no lock.
func (s *Service) Attempts(ctx context.Context, sessionID string) (domain.AttemptReport, error) {
	p, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return domain.AttemptReport{}, s.fail(sessionID, err)
	}
	report, err := domain.AttemptReportFor(p)
	if err != nil {
		return domain.AttemptReport{}, s.fail(sessionID, err)
	}
	return report, nil
}

// applyResult appends the attempt's transactions to the process items.
func (s *Service) applyResult(p *domain.PurchaseProcess, main *domain.InitializedItem, b domain.Biller, res *biller.TransactionResult, routing biller.BinRoutingCollection) *domain.Transaction {
	tx := domain.NewTransaction(b.Name, res.State())
	if res.TransactionID != "" {
		tx.ID = res.TransactionID
	}
	tx.NSF = res.NSF
	tx.SubmitAttempt = p.GatewaySubmitNumber
	tx.SetThreeD(res.ThreeD)
	if r, ok := routing.Get(main.ItemID, p.Cascade.CurrentBillerSubmit()); ok && tx.Approved() {
		tx.RoutingCode = r.RoutingCode
	}
	main.AddTransaction(tx)

	crossSales := p.CrossSaleItems()
	for _, csRes := range res.CrossSales {
		for _, item := range crossSales {
			if item.ItemID != csRes.ItemID {
				continue
			}
			csTx := domain.NewTransaction(b.Name, (&biller.TransactionResult{Outcome: csRes.Outcome}).State())
			if csRes.TransactionID != "" {
				csTx.ID = csRes.TransactionID
			}
			csTx.NSF = csRes.NSF
			csTx.SubmitAttempt = p.GatewaySubmitNumber
			item.AddTransaction(csTx)
		}
	}
	return tx
}

// finishAttempt runs post-processing on a resolved attempt and maps the
// outcome to a DTO.
func (s *Service) finishAttempt(p *domain.PurchaseProcess, tx *domain.Transaction) (*Result, error) {
	outcome, err := p.PostProcessing()
	if err != nil {
		return nil, err
	}
	return s.outcomeResult(p, tx, outcome), nil
}

func (s *Service) outcomeResult(p *domain.PurchaseProcess, tx *domain.Transaction, outcome domain.ProcessOutcome) *Result {
	result := &Result{
		SessionID:     p.SessionID,
		State:         string(p.State),
		TransactionID: tx.ID,
	}

	switch outcome {
	case domain.OutcomeApproved:
		result.Success = true
		result.Purchase = p.Purchase
		result.NextAction = &NextActionDTO{Type: string(NextActionFinishProcess)}
		s.events.Publish(event.TypeApproved, p.SessionID, tx.BillerName, p.GatewaySubmitNumber, true)

	case domain.OutcomeRetryNextBiller:
		p.IncrementGatewaySubmitNumberIfValid()
		result.NextAction = &NextActionDTO{Type: string(NextActionRenderGateway)}
		s.events.Publish(event.TypeDeclined, p.SessionID, tx.BillerName, p.GatewaySubmitNumber, false)

	case domain.OutcomeExhausted:
		result.NextAction = &NextActionDTO{Type: string(NextActionFinishProcess), Reason: "cascadeBillersExhausted"}
		s.events.Publish(event.TypeCascadeExhausted, p.SessionID, tx.BillerName, p.GatewaySubmitNumber, false)
	}

	result.GatewaySubmitNumber = p.GatewaySubmitNumber
	return result
}

// exhausted reports a cascade with no candidate left as a business outcome.
func (s *Service) exhausted(p *domain.PurchaseProcess) *Result {
	s.events.Publish(event.TypeCascadeExhausted, p.SessionID, "", p.GatewaySubmitNumber, false)
	return &Result{
		SessionID:           p.SessionID,
		State:               string(p.State),
		GatewaySubmitNumber: p.GatewaySubmitNumber,
		NextAction:          &NextActionDTO{Type: string(NextActionFinishProcess), Reason: "cascadeBillersExhausted"},
	}
}
