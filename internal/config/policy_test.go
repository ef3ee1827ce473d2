package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kostush/purchase-gateway-sub009/internal/biller"
)

func TestLoadPolicy_EmptyPathUsesDefault(t *testing.T) {
	policy, err := LoadPolicy("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	billers := policy.BillersFor("dev-site")
	if len(billers) != 2 {
		t.Fatalf("default policy should cascade over 2 billers, got %d", len(billers))
	}
	if billers[0].Name != "rocketgate" || billers[1].Name != "netbilling" {
		t.Errorf("unexpected cascade order: %v", billers)
	}
}

func TestLoadPolicy_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.json")
	raw := `{
		"cascades": {
			"site-a": [
				{"name": "rocketgate", "supports_threed": true, "payment_methods": ["cc"]},
				{"name": "epoch", "third_party": true}
			]
		},
		"sites": {
			"site-a": {"business_group_id": "bg-1", "allowed_attempts": 2, "enabled_services": {"bin-routing": true}}
		},
		"control_keywords": {"acct-1": "kw-1"}
	}`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("writing policy file: %v", err)
	}

	policy, err := LoadPolicy(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	billers := policy.BillersFor("site-a")
	if len(billers) != 2 || !billers[0].SupportsThreeD || !billers[1].ThirdParty {
		t.Errorf("cascade not parsed as configured: %+v", billers)
	}
	if policy.BillersFor("unknown-site") != nil {
		t.Error("unknown site should have no cascade")
	}

	kw, err := policy.Keywords().Lookup("acct-1")
	if err != nil || kw != "kw-1" {
		t.Errorf("expected keyword kw-1, got %q %v", kw, err)
	}
	if _, err := policy.Keywords().Lookup("acct-unknown"); err == nil {
		t.Error("unknown account should fail the keyword lookup")
	}

	site, err := policy.StaticSites().GetSite(context.Background(), "site-a")
	if err != nil {
		t.Fatalf("static site resolver: %v", err)
	}
	if !site.ServiceEnabled(biller.ServiceBinRouting) {
		t.Error("bin routing should be enabled on site-a")
	}
}

func TestLoadPolicy_MissingFile(t *testing.T) {
	if _, err := LoadPolicy(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("missing file should fail")
	}
}

func TestPolicyValidate(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		valid  bool
	}{
		{
			"empty cascade",
			Policy{Cascades: map[string][]BillerConfig{"s": {}}},
			false,
		},
		{
			"unnamed biller",
			Policy{Cascades: map[string][]BillerConfig{"s": {{Name: ""}}}},
			false,
		},
		{
			"duplicate biller",
			Policy{Cascades: map[string][]BillerConfig{"s": {{Name: "rocketgate"}, {Name: "rocketgate"}}}},
			false,
		},
		{
			"negative attempts",
			Policy{Sites: map[string]SiteConfig{"s": {AllowedAttempts: -1}}},
			false,
		},
		{
			"well formed",
			Policy{
				Cascades: map[string][]BillerConfig{"s": {{Name: "rocketgate"}}},
				Sites:    map[string]SiteConfig{"s": {AllowedAttempts: 2}},
			},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if tt.valid && err != nil {
				t.Errorf("expected valid policy, got %v", err)
			}
			if !tt.valid && err == nil {
				t.Error("expected validation failure")
			}
		})
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.SessionTTL <= 0 || cfg.LockTTL <= 0 || cfg.SweepInterval <= 0 {
		t.Errorf("durations should default to positive values: %+v", cfg)
	}
}
