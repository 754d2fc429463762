// Package verify implements the independent source verifiers that check
// extracted claims against local ground truth: the truthpack registry,
// dependency manifests, the filesystem, pattern matching over source files,
// version control state, type declarations, and the live process environment.
//
// Verifiers never fail a batch: internal errors are converted into evidence
// with a non-empty Error field, which carries zero evidentiary weight.
package verify

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/claimgate/internal/model"
)

// SourceVerifier answers whether a claim type falls in its domain and, if so,
// independently produces evidence for one claim. Implementations are
// side-effect free beyond read-only file/process-state access.
type SourceVerifier interface {
	// Source returns the identity of this verifier
	Source() model.Source

	// Supports reports whether this verifier can judge the given claim type
	Supports(claimType model.ClaimType) bool

	// Verify produces evidence for one claim. It must not panic or return
	// errors to the caller; failures become error-evidence.
	Verify(ctx context.Context, claim model.Claim) model.SourceEvidence
}

// evidence builds a completed SourceEvidence with clamped confidence
func evidence(source model.Source, verified bool, confidence float64, details map[string]interface{}, start time.Time) model.SourceEvidence {
	return model.SourceEvidence{
		Source:     source,
		Verified:   verified,
		Confidence: clamp01(confidence),
		Details:    details,
		Timestamp:  time.Now().UTC(),
		DurationMs: time.Since(start).Milliseconds(),
	}
}

// errorEvidence builds zero-weight evidence for a failed verifier
func errorEvidence(source model.Source, err error, start time.Time) model.SourceEvidence {
	return model.SourceEvidence{
		Source:     source,
		Verified:   false,
		Confidence: 0,
		Error:      err.Error(),
		Timestamp:  time.Now().UTC(),
		DurationMs: time.Since(start).Milliseconds(),
	}
}

// runVerifier executes one verifier, converting panics and context
// cancellation into error-evidence so a single source can never abort a batch.
func runVerifier(ctx context.Context, v SourceVerifier, claim model.Claim) (ev model.SourceEvidence) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			ev = errorEvidence(v.Source(), fmt.Errorf("verifier panic: %v", r), start)
		}
	}()

	if err := ctx.Err(); err != nil {
		return errorEvidence(v.Source(), err, start)
	}

	ev = v.Verify(ctx, claim)
	ev.Confidence = clamp01(ev.Confidence)
	return ev
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
