package domain

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from    State
		to      State
		allowed bool
	}{
		{StatePending, StateValid, true},
		{StatePending, StateThreeDLookupDone, true},
		{StatePending, StateRedirected, true},
		{StatePending, StateProcessed, true},
		{StateValid, StateThreeDLookupDone, true},
		{StateValid, StatePending, false},
		{StateThreeDLookupDone, StateThreeDAuthenticated, true},
		{StateThreeDLookupDone, StateValid, false},
		{StateThreeDLookupDone, StateRedirected, false},
		{StateThreeDAuthenticated, StateValid, true},
		{StateThreeDAuthenticated, StateProcessed, true},
		{StateRedirected, StateValid, true},
		{StateRedirected, StateProcessed, true},
		{StateProcessed, StateValid, false},
		{StateProcessed, StateProcessed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.allowed {
				t.Errorf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
			}
		})
	}
}

func TestTerminal(t *testing.T) {
	if !StateProcessed.Terminal() {
		t.Error("processed should be terminal")
	}
	for _, s := range []State{StatePending, StateValid, StateThreeDLookupDone, StateThreeDAuthenticated, StateRedirected} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestParseState(t *testing.T) {
	for _, raw := range []string{"pending", "valid", "threed_lookup_performed", "threed_authenticated", "redirected", "processed"} {
		if _, ok := ParseState(raw); !ok {
			t.Errorf("ParseState(%q) should succeed", raw)
		}
	}
	if _, ok := ParseState("cancelled"); ok {
		t.Error("ParseState should reject unknown states")
	}
	if _, ok := ParseState(""); ok {
		t.Error("ParseState should reject the empty string")
	}
}
