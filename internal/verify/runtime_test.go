package verify

import (
	"context"
	"testing"

	"github.com/ppiankov/claimgate/internal/model"
)

func TestRuntimeVerifier_EnvPresence(t *testing.T) {
	t.Setenv("CLAIMGATE_TEST_PRESENT", "value")

	v := NewRuntimeVerifier()

	ev := v.Verify(context.Background(), model.Claim{Type: model.ClaimEnvVariable, Value: "CLAIMGATE_TEST_PRESENT"})
	if !ev.Verified || ev.Confidence != 0.99 {
		t.Fatalf("Expected presence hit at 0.99, got %+v", ev)
	}
	for key, value := range ev.Details {
		if s, ok := value.(string); ok && s == "value" {
			t.Errorf("Evidence must never expose the variable value (leaked via %q)", key)
		}
	}
	// Only presence is exposed; length or any other value-derived detail leaks
	if _, ok := ev.Details["length"]; ok {
		t.Error("Evidence must not expose the variable length")
	}
	if len(ev.Details) != 1 || ev.Details["present"] != true {
		t.Errorf("Expected presence-only details, got %v", ev.Details)
	}

	ev = v.Verify(context.Background(), model.Claim{Type: model.ClaimEnvVariable, Value: "CLAIMGATE_TEST_DEFINITELY_ABSENT"})
	if ev.Verified {
		t.Fatalf("Expected miss for absent variable, got %+v", ev)
	}
	if ev.Confidence != 0.99 {
		t.Errorf("Runtime absence is definitive, expected 0.99, got %v", ev.Confidence)
	}
}

func TestRuntimeVerifier_EndpointIsLowTrust(t *testing.T) {
	v := NewRuntimeVerifier()

	ev := v.Verify(context.Background(), model.Claim{Type: model.ClaimAPIEndpoint, Value: "/api/users"})
	if ev.Verified || ev.Confidence != 0.3 {
		t.Fatalf("Expected low-trust non-answer, got %+v", ev)
	}
	if ev.Details["low_trust"] != true {
		t.Errorf("Expected low_trust label, got %v", ev.Details)
	}
}
