// Package evidence combines the raw per-source signals for one claim into a
// single confidence score, a categorical verdict, and a prose explanation.
package evidence

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/claimgate/internal/model"
)

// Fixed per-source reliability weights used in confidence aggregation.
// They encode how often each source's verdict has historically been right,
// independent of the confidence it reports.
var sourceWeights = map[model.Source]float64{
	model.SourceRuntime:         0.99,
	model.SourcePackageManifest: 0.99,
	model.SourceTypeChecker:     0.98,
	model.SourceTruthpack:       0.95,
	model.SourcePatternMatch:    0.90,
	model.SourceFilesystem:      0.85,
	model.SourceVersionControl:  0.80,
}

// maxReasoningLen bounds the generated explanation
const maxReasoningLen = 480

// ChainBuilder builds evidence chains. Stateless; safe for concurrent use.
type ChainBuilder struct{}

// NewChainBuilder creates a new chain builder
func NewChainBuilder() *ChainBuilder {
	return &ChainBuilder{}
}

// Weight returns the reliability weight for a source (0 for unknown sources)
func Weight(source model.Source) float64 {
	return sourceWeights[source]
}

// Build combines all evidence for one claim into a chain. Errored evidence
// contributes a step with zero weight but never changes the score.
func (b *ChainBuilder) Build(claim model.Claim, evidence []model.SourceEvidence, start time.Time) model.EvidenceChain {
	var (
		weightedSum float64
		weightTotal float64
		verifiedCnt int
		validCnt    int
	)

	steps := make([]model.EvidenceStep, 0, len(evidence))
	for _, ev := range evidence {
		step := model.EvidenceStep{
			Source:     ev.Source,
			Verified:   ev.Verified,
			Confidence: ev.Confidence,
			Error:      ev.Error,
			DurationMs: ev.DurationMs,
		}

		if !ev.Failed() {
			weight := Weight(ev.Source)
			step.Weight = weight

			effective := ev.Confidence
			if !ev.Verified {
				effective = 1 - ev.Confidence
			}
			weightedSum += effective * weight
			weightTotal += weight

			validCnt++
			if ev.Verified {
				verifiedCnt++
			}
		}

		steps = append(steps, step)
	}

	confidence := 0.0
	if weightTotal > 0 {
		confidence = weightedSum / weightTotal
	}

	var ratio float64
	if validCnt > 0 {
		ratio = float64(verifiedCnt) / float64(validCnt)
	}

	verdict := classify(confidence, ratio)
	if validCnt == 0 {
		// No source produced a usable answer: nothing to classify on
		verdict = model.VerdictUncertain
	}

	return model.EvidenceChain{
		ID:         uuid.NewString(),
		ClaimID:    claim.ID,
		ClaimType:  claim.Type,
		ClaimValue: claim.Value,
		Verdict:    verdict,
		Confidence: confidence,
		Chain:      steps,
		Reasoning:  reasoning(claim, evidence, verdict, confidence),
		CreatedAt:  time.Now().UTC(),
		DurationMs: time.Since(start).Milliseconds(),
	}
}

// classify maps aggregate confidence and the verified-source ratio onto the
// five-level verdict scale.
func classify(confidence, ratio float64) model.Verdict {
	switch {
	case confidence >= 0.9 && ratio >= 0.8:
		return model.VerdictConfirmed
	case confidence >= 0.7 && ratio >= 0.6:
		return model.VerdictLikely
	case confidence >= 0.3 && ratio >= 0.3:
		return model.VerdictUncertain
	case confidence >= 0.1:
		return model.VerdictUnlikely
	default:
		return model.VerdictDismissed
	}
}

// verdictSentences closes the reasoning with a fixed sentence per verdict
var verdictSentences = map[model.Verdict]string{
	model.VerdictConfirmed: "The claim is confirmed by authoritative sources.",
	model.VerdictLikely:    "The claim is likely valid.",
	model.VerdictUncertain: "The claim could not be settled either way; manual review is advised.",
	model.VerdictUnlikely:  "The claim is unlikely to be valid.",
	model.VerdictDismissed: "This is likely a hallucination that should be fixed.",
}

// reasoning renders the deterministic explanation template: state the claim,
// list supporting vs opposing sources, report the confidence percentage, and
// close with the verdict sentence.
func reasoning(claim model.Claim, evidence []model.SourceEvidence, verdict model.Verdict, confidence float64) string {
	var supporting, opposing, failed []string
	for _, ev := range evidence {
		switch {
		case ev.Failed():
			failed = append(failed, string(ev.Source))
		case ev.Verified:
			supporting = append(supporting, string(ev.Source))
		default:
			opposing = append(opposing, string(ev.Source))
		}
	}
	sort.Strings(supporting)
	sort.Strings(opposing)
	sort.Strings(failed)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Claim %s %q: ", claim.Type, claim.Value)

	switch {
	case len(supporting) > 0 && len(opposing) > 0:
		fmt.Fprintf(&sb, "verified by %s; contradicted by %s. ", strings.Join(supporting, ", "), strings.Join(opposing, ", "))
	case len(supporting) > 0:
		fmt.Fprintf(&sb, "verified by %s. ", strings.Join(supporting, ", "))
	case len(opposing) > 0:
		fmt.Fprintf(&sb, "contradicted by %s. ", strings.Join(opposing, ", "))
	default:
		sb.WriteString("no source produced a usable answer. ")
	}

	if len(failed) > 0 {
		fmt.Fprintf(&sb, "Sources unavailable: %s. ", strings.Join(failed, ", "))
	}

	fmt.Fprintf(&sb, "Combined confidence: %.0f%%. ", confidence*100)
	sb.WriteString(verdictSentences[verdict])

	return truncate(sb.String(), maxReasoningLen)
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}
