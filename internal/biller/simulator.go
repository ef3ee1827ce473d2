package biller

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"github.com/kostush/purchase-gateway-sub009/internal/domain"
)

// defaultApprovalRate applies to billers without a configured rate.
const defaultApprovalRate = 0.7

// Simulator implements TransactionService deterministically for dev mode and
// tests: a fixed seed reproduces the same sequence of outcomes.
type Simulator struct {
	mu            sync.Mutex
	rng           *rand.Rand
	approvalRates map[string]float64
}

// NewSimulator creates a biller simulator with the given seed.
func NewSimulator(seed int64) *Simulator {
	return &Simulator{
		rng:           rand.New(rand.NewSource(seed)),
		approvalRates: make(map[string]float64),
	}
}

// SetApprovalRate overrides the approval probability for one biller.
// A rate of 0 makes every submission decline, 1 approves everything.
func (s *Simulator) SetApprovalRate(billerName string, rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.approvalRates[billerName] = rate
}

func (s *Simulator) roll(billerName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rate, ok := s.approvalRates[billerName]
	if !ok {
		rate = defaultApprovalRate
	}
	return s.rng.Float64() < rate
}

// Lookup simulates the initial submission. Billers supporting 3-D Secure
// answer with a pending challenge when fraud advice forces it; everything
// else resolves immediately.
func (s *Simulator) Lookup(_ context.Context, req LookupRequest) (*TransactionResult, error) {
	txID := uuid.NewString()

	if req.Biller.SupportsThreeD && req.Fraud.ForceThreeD {
		return &TransactionResult{
			Outcome:       OutcomePending,
			TransactionID: txID,
			BillerName:    req.Biller.Name,
			ThreeD: domain.ThreeDInfo{
				ACS:       "https://acs.simulator.test/challenge",
				PAReq:     "sim-pareq-" + txID[:8],
				Version:   2,
				StepUpURL: "https://acs.simulator.test/step-up",
				StepUpJWT: "sim-jwt-" + txID[:8],
				MD:        txID,
			},
		}, nil
	}

	result := s.finalResult(txID, req.Biller.Name)
	for _, cs := range req.CrossSales {
		csResult := s.finalResult(uuid.NewString(), req.Biller.Name)
		result.CrossSales = append(result.CrossSales, CrossSaleResult{
			ItemID:        cs.ItemID,
			TransactionID: csResult.TransactionID,
			Outcome:       csResult.Outcome,
			NSF:           csResult.NSF,
		})
	}
	return result, nil
}

// CompleteThreeD simulates the post-challenge authentication result.
func (s *Simulator) CompleteThreeD(_ context.Context, req CompleteThreeDRequest) (*TransactionResult, error) {
	return s.finalResult(req.TransactionID, req.Biller.Name), nil
}

// SubmitThirdParty always answers pending with a hosted-page redirect; the
// outcome arrives on the return leg.
func (s *Simulator) SubmitThirdParty(_ context.Context, req ThirdPartyRequest) (*TransactionResult, error) {
	txID := uuid.NewString()
	return &TransactionResult{
		Outcome:       OutcomePending,
		TransactionID: txID,
		BillerName:    req.Biller.Name,
		RedirectTo:    fmt.Sprintf("https://pay.simulator.test/%s/%s", req.Biller.Name, txID),
	}, nil
}

// ResolveThirdParty simulates the postback outcome.
func (s *Simulator) ResolveThirdParty(_ context.Context, req ResolveThirdPartyRequest) (*TransactionResult, error) {
	return s.finalResult(req.TransactionID, req.Biller.Name), nil
}

func (s *Simulator) finalResult(txID, billerName string) *TransactionResult {
	if s.roll(billerName) {
		return &TransactionResult{
			Outcome:       OutcomeApproved,
			TransactionID: txID,
			BillerName:    billerName,
		}
	}
	result := &TransactionResult{
		Outcome:       OutcomeDeclined,
		TransactionID: txID,
		BillerName:    billerName,
		DeclineCode:   "do_not_honor",
	}
	// A slice of declines are NSF, which reporting treats separately.
	s.mu.Lock()
	if s.rng.Float64() < 0.2 {
		result.NSF = true
		result.DeclineCode = "insufficient_funds"
	}
	s.mu.Unlock()
	return result
}
