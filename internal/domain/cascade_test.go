package domain

import (
	"errors"
	"testing"
)

func twoBillerCascade() *Cascade {
	return NewCascade([]Biller{
		{Name: "rocketgate", SupportsThreeD: true, PaymentMethods: []string{"cc"}},
		{Name: "netbilling", PaymentMethods: []string{"cc", "checks"}},
	})
}

func TestCascade_CurrentBiller(t *testing.T) {
	c := twoBillerCascade()
	b, err := c.CurrentBiller()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Name != "rocketgate" {
		t.Errorf("expected rocketgate first, got %s", b.Name)
	}
}

func TestCascade_NextBillerAdvancesAndResetsSubmit(t *testing.T) {
	c := twoBillerCascade()
	c.RecordSubmit()
	c.RecordSubmit()
	if c.CurrentBillerSubmit() != 3 {
		t.Fatalf("expected submit counter 3, got %d", c.CurrentBillerSubmit())
	}

	b, err := c.NextBiller()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Name != "netbilling" {
		t.Errorf("expected netbilling after advance, got %s", b.Name)
	}
	if c.CurrentBillerSubmit() != 1 {
		t.Errorf("submit counter should reset to 1, got %d", c.CurrentBillerSubmit())
	}
}

func TestCascade_Exhaustion(t *testing.T) {
	c := twoBillerCascade()
	if _, err := c.NextBiller(); err != nil {
		t.Fatalf("first advance should succeed: %v", err)
	}
	if _, err := c.NextBiller(); !errors.Is(err, ErrCascadeExhausted) {
		t.Fatalf("expected ErrCascadeExhausted, got %v", err)
	}
	if !c.Exhausted() {
		t.Error("cascade should report exhausted")
	}
	if _, err := c.CurrentBiller(); !errors.Is(err, ErrCascadeExhausted) {
		t.Errorf("CurrentBiller on exhausted cascade should fail, got %v", err)
	}
}

func TestCascade_CurrentBillerSubmitDefaultsToOne(t *testing.T) {
	c := &Cascade{Billers: []Biller{{Name: "rocketgate"}}}
	if c.CurrentBillerSubmit() != 1 {
		t.Errorf("zero-value submit counter should read as 1, got %d", c.CurrentBillerSubmit())
	}
}

func TestBiller_AcceptsMethod(t *testing.T) {
	tests := []struct {
		name     string
		biller   Biller
		method   string
		accepted bool
	}{
		{"no enumeration accepts anything", Biller{Name: "epoch"}, "crypto", true},
		{"listed method", Biller{Name: "netbilling", PaymentMethods: []string{"cc", "checks"}}, "checks", true},
		{"unlisted method", Biller{Name: "rocketgate", PaymentMethods: []string{"cc"}}, "checks", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.biller.AcceptsMethod(tt.method); got != tt.accepted {
				t.Errorf("AcceptsMethod(%s) = %v, want %v", tt.method, got, tt.accepted)
			}
		})
	}
}
