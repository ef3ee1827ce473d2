package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kostush/purchase-gateway-sub009/internal/biller"
	"github.com/kostush/purchase-gateway-sub009/internal/domain"
)

// BillerConfig is the JSON representation of one cascade candidate.
type BillerConfig struct {
	Name           string   `json:"name"`
	ThirdParty     bool     `json:"third_party"`
	SupportsThreeD bool     `json:"supports_threed"`
	PaymentMethods []string `json:"payment_methods,omitempty"`
}

// SiteConfig is the static site entry used when no config service is wired.
type SiteConfig struct {
	BusinessGroupID string          `json:"business_group_id"`
	PublicKeys      []string        `json:"public_keys,omitempty"`
	AllowedAttempts int             `json:"allowed_attempts,omitempty"`
	EnabledServices map[string]bool `json:"enabled_services,omitempty"`
}

// Policy is the gateway policy file: cascade composition per site, static
// site config for dev mode, and the account control-keyword map.
type Policy struct {
	Cascades        map[string][]BillerConfig `json:"cascades"`
	Sites           map[string]SiteConfig     `json:"sites,omitempty"`
	ControlKeywords map[string]string         `json:"control_keywords,omitempty"`
}

// LoadPolicy reads and validates a JSON policy file. An empty path yields
// the built-in default policy.
func LoadPolicy(path string) (*Policy, error) {
	if path == "" {
		return DefaultPolicy(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy %s: %w", path, err)
	}

	var policy Policy
	if err := json.Unmarshal(data, &policy); err != nil {
		return nil, fmt.Errorf("parsing policy %s: %w", path, err)
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &policy, nil
}

// DefaultPolicy returns the policy used when no file is supplied: a
// two-biller cascade on a single dev site.
func DefaultPolicy() *Policy {
	return &Policy{
		Cascades: map[string][]BillerConfig{
			"dev-site": {
				{Name: "rocketgate", SupportsThreeD: true, PaymentMethods: []string{"cc"}},
				{Name: "netbilling", PaymentMethods: []string{"cc", "checks"}},
			},
		},
		Sites: map[string]SiteConfig{
			"dev-site": {
				BusinessGroupID: "dev-bg",
				AllowedAttempts: domain.AllowedAttempts,
				EnabledServices: map[string]bool{biller.ServiceBinRouting: true},
			},
		},
	}
}

// Validate checks structural policy invariants.
func (p *Policy) Validate() error {
	for siteID, billers := range p.Cascades {
		if len(billers) == 0 {
			return fmt.Errorf("site %s: cascade must list at least one biller", siteID)
		}
		seen := make(map[string]bool, len(billers))
		for _, b := range billers {
			if b.Name == "" {
				return fmt.Errorf("site %s: cascade contains a biller without a name", siteID)
			}
			if seen[b.Name] {
				return fmt.Errorf("site %s: biller %s appears twice in the cascade", siteID, b.Name)
			}
			seen[b.Name] = true
		}
	}
	for siteID, site := range p.Sites {
		if site.AllowedAttempts < 0 {
			return fmt.Errorf("site %s: allowed_attempts must not be negative", siteID)
		}
	}
	return nil
}

// BillersFor returns the ordered cascade candidates for a site.
func (p *Policy) BillersFor(siteID string) []domain.Biller {
	configs, ok := p.Cascades[siteID]
	if !ok {
		return nil
	}
	billers := make([]domain.Biller, 0, len(configs))
	for _, c := range configs {
		billers = append(billers, domain.Biller{
			Name:           c.Name,
			ThirdParty:     c.ThirdParty,
			SupportsThreeD: c.SupportsThreeD,
			PaymentMethods: c.PaymentMethods,
		})
	}
	return billers
}

// Keywords builds the injected control-keyword lookup.
func (p *Policy) Keywords() *domain.ControlKeywords {
	return domain.NewControlKeywords(p.ControlKeywords)
}

// StaticSites builds a site resolver over the policy's static site entries,
// used when no config service is deployed.
func (p *Policy) StaticSites() *biller.StaticSiteResolver {
	sites := make(map[string]*biller.Site, len(p.Sites))
	for id, s := range p.Sites {
		attempts := s.AllowedAttempts
		if attempts == 0 {
			attempts = domain.AllowedAttempts
		}
		sites[id] = &biller.Site{
			ID:              id,
			BusinessGroupID: s.BusinessGroupID,
			PublicKeys:      s.PublicKeys,
			AllowedAttempts: attempts,
			EnabledServices: s.EnabledServices,
		}
	}
	return biller.NewStaticSiteResolver(sites)
}
