package verify

import (
	"context"
	"testing"
	"time"

	"github.com/ppiankov/claimgate/internal/cache"
	"github.com/ppiankov/claimgate/internal/model"
)

func TestTruthpackVerifier_RouteMatching(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, "routes.json", `["/api/users/:id","GET /health"]`)
	writeProjectFile(t, dir, "env.json", `["API_KEY"]`)

	v := NewTruthpackVerifier(dir, nil, 0)

	ev := v.Verify(context.Background(), model.Claim{Type: model.ClaimAPIEndpoint, Value: "/api/users/42"})
	if !ev.Verified || ev.Confidence != 1.0 {
		t.Fatalf("Expected route hit at 1.0, got %+v", ev)
	}

	ev = v.Verify(context.Background(), model.Claim{Type: model.ClaimAPIEndpoint, Value: "/api/orders"})
	if ev.Verified || ev.Confidence != 0.95 {
		t.Fatalf("Expected miss at 0.95, got %+v", ev)
	}
}

func TestTruthpackVerifier_EmptyRegistryConfidences(t *testing.T) {
	v := NewTruthpackVerifier(t.TempDir(), nil, 0)

	cases := []struct {
		claimType model.ClaimType
		want      float64
	}{
		{claimType: model.ClaimAPIEndpoint, want: 0.5},
		{claimType: model.ClaimEnvVariable, want: 0.3},
		{claimType: model.ClaimTypeReference, want: 0.7},
	}

	for _, tc := range cases {
		t.Run(string(tc.claimType), func(t *testing.T) {
			ev := v.Verify(context.Background(), model.Claim{Type: tc.claimType, Value: "anything"})
			if ev.Verified {
				t.Fatalf("Empty registry must not verify, got %+v", ev)
			}
			if ev.Confidence != tc.want {
				t.Errorf("Expected confidence %v, got %v", tc.want, ev.Confidence)
			}
			if ev.Details["registry_empty"] != true {
				t.Errorf("Expected registry_empty detail, got %v", ev.Details)
			}
		})
	}
}

func TestTruthpackVerifier_DirectoryInvalidationServesFreshRegistry(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, "routes.json", `["/api/old"]`)

	c := cache.NewMemoryCache(time.Minute, time.Minute)
	v := NewTruthpackVerifier(dir, c, time.Minute)

	ev := v.Verify(context.Background(), model.Claim{Type: model.ClaimAPIEndpoint, Value: "/api/old"})
	if !ev.Verified {
		t.Fatalf("Expected hit before rewrite, got %+v", ev)
	}

	writeProjectFile(t, dir, "routes.json", `["/api/new"]`)

	// Without invalidation the cached registry keeps answering
	ev = v.Verify(context.Background(), model.Claim{Type: model.ClaimAPIEndpoint, Value: "/api/new"})
	if ev.Verified {
		t.Fatalf("Cached registry should still miss the new route, got %+v", ev)
	}

	// The watcher maps a file event to its owning directory key
	if err := c.Invalidate(dir); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	ev = v.Verify(context.Background(), model.Claim{Type: model.ClaimAPIEndpoint, Value: "/api/new"})
	if !ev.Verified {
		t.Errorf("Expected fresh registry after invalidation, got %+v", ev)
	}
}

func TestTruthpackVerifier_EnvAndContracts(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, "env.json", `["DATABASE_URL"]`)
	writeProjectFile(t, dir, "contracts.json", `["UserProfile"]`)
	writeProjectFile(t, dir, "auth.json", `["SessionToken"]`)

	v := NewTruthpackVerifier(dir, nil, 0)

	ev := v.Verify(context.Background(), model.Claim{Type: model.ClaimEnvVariable, Value: "DATABASE_URL"})
	if !ev.Verified {
		t.Fatalf("Expected env hit, got %+v", ev)
	}

	// Auth identifiers count as type references too
	ev = v.Verify(context.Background(), model.Claim{Type: model.ClaimTypeReference, Value: "SessionToken"})
	if !ev.Verified {
		t.Fatalf("Expected auth contract hit, got %+v", ev)
	}
}
