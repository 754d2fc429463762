package verify

import (
	"context"
	"os"
	"time"

	"github.com/ppiankov/claimgate/internal/model"
)

// RuntimeVerifier checks claims against the live process environment. It is
// the only verifier whose answer depends on process state rather than project
// files, and it is explicitly labeled low-trust for anything beyond env
// variable presence. Values are never exposed, only presence/non-emptiness.
type RuntimeVerifier struct{}

// NewRuntimeVerifier creates a runtime verifier
func NewRuntimeVerifier() *RuntimeVerifier {
	return &RuntimeVerifier{}
}

// Source returns the verifier identity
func (v *RuntimeVerifier) Source() model.Source {
	return model.SourceRuntime
}

// Supports reports the claim types the runtime can judge
func (v *RuntimeVerifier) Supports(claimType model.ClaimType) bool {
	return claimType == model.ClaimEnvVariable || claimType == model.ClaimAPIEndpoint
}

// Verify checks one claim against process state
func (v *RuntimeVerifier) Verify(ctx context.Context, claim model.Claim) model.SourceEvidence {
	start := time.Now()

	switch claim.Type {
	case model.ClaimEnvVariable:
		value, present := os.LookupEnv(claim.Value)
		if present && value != "" {
			return evidence(v.Source(), true, 0.99, map[string]interface{}{
				"present": true,
			}, start)
		}
		// The runtime is authoritative either way: absence is a definitive miss
		return evidence(v.Source(), false, 0.99, map[string]interface{}{"present": present}, start)

	case model.ClaimAPIEndpoint:
		// No live probing: endpoint claims get a low-trust non-answer
		return evidence(v.Source(), false, 0.3, map[string]interface{}{
			"low_trust": true,
			"note":      "runtime endpoint probing disabled",
		}, start)
	}

	return evidence(v.Source(), false, 0.3, map[string]interface{}{"unsupported": string(claim.Type)}, start)
}
