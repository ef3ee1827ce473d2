package seed

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/kostush/purchase-gateway-sub009/internal/domain"
	"github.com/kostush/purchase-gateway-sub009/internal/process"
)

var (
	currencies = []string{"USD", "EUR", "CAD", "GBP"}
	firstNames = []string{"Ana", "Bruno", "Carla", "Diego", "Eva", "Felix"}
	lastNames  = []string{"Moreau", "Silva", "Keller", "Nguyen", "Ortiz"}
	cardBins   = []string{"411111", "455673", "520082", "371449"}

	// Monthly membership price points, in cents.
	pricePoints = []int{995, 1495, 2995, 4995}
)

// GenerateInits produces a deterministic batch of purchase-session inputs
// for local development. The same seed yields the same sessions.
func GenerateInits(count int, seed int64, siteID string) []process.InitInput {
	rng := rand.New(rand.NewSource(seed))
	inputs := make([]process.InitInput, 0, count)

	for i := 0; i < count; i++ {
		currency := currencies[rng.Intn(len(currencies))]
		cents := pricePoints[rng.Intn(len(pricePoints))]
		first := firstNames[rng.Intn(len(firstNames))]
		last := lastNames[rng.Intn(len(lastNames))]

		in := process.InitInput{
			SiteID:      siteID,
			RedirectURL: fmt.Sprintf("https://dev.gateway.test/return/%d", i+1),
			Payment: domain.PaymentInfo{
				Type:     domain.PaymentNewCard,
				Method:   "cc",
				Bin:      cardBins[rng.Intn(len(cardBins))],
				LastFour: fmt.Sprintf("%04d", rng.Intn(10000)),
				ExpMonth: 1 + rng.Intn(12),
				ExpYear:  2027 + rng.Intn(4),
			},
			User: domain.UserInfo{
				FirstName:   first,
				LastName:    last,
				Email:       fmt.Sprintf("%s.%s.%d@example.test", first, last, i+1),
				CountryCode: "US",
			},
			MainItem: process.ItemInput{
				BundleID:     fmt.Sprintf("bundle-%03d", rng.Intn(40)+1),
				SiteID:       siteID,
				Amount:       fmt.Sprintf("%d.%02d", cents/100, cents%100),
				Currency:     currency,
				DurationDays: 30,
			},
		}

		// Roughly one in five carries a cross-sale offer.
		if rng.Float64() < 0.20 {
			in.CrossSales = []process.ItemInput{{
				BundleID:     fmt.Sprintf("bundle-%03d", rng.Intn(40)+1),
				AddonID:      fmt.Sprintf("addon-%02d", rng.Intn(10)+1),
				SiteID:       siteID,
				Amount:       "1.00",
				Currency:     currency,
				DurationDays: 3,
			}}
		}

		// Some sessions arrive pre-flagged by the fraud advice service.
		if rng.Float64() < 0.15 {
			in.Fraud = domain.FraudAdvice{ForceThreeD: true}
		}

		inputs = append(inputs, in)
	}

	return inputs
}

// Sessions initializes count demo purchase sessions against the service and
// returns their session ids.
func Sessions(ctx context.Context, svc *process.Service, count int, seed int64, siteID string) ([]string, error) {
	ids := make([]string, 0, count)
	for _, in := range GenerateInits(count, seed, siteID) {
		result, err := svc.Init(ctx, in)
		if err != nil {
			return ids, fmt.Errorf("seeding session %d: %w", len(ids)+1, err)
		}
		ids = append(ids, result.SessionID)
	}
	return ids, nil
}
