// Package policy contains the default gate collaborators: the intent
// validator, the policy engine, and the unblock planner. The firewall accepts
// any implementation of their interfaces; these are the built-in ones.
package policy

import (
	"fmt"
	"strings"

	"github.com/ppiankov/claimgate/internal/model"
)

// Engine decides whether a request is allowed given its verified claims
type Engine struct {
	minConfidence float64
	maxUnlikely   int
}

// NewEngine creates a policy engine with the given thresholds
func NewEngine(cfg model.PolicyConfig) *Engine {
	return &Engine{
		minConfidence: cfg.MinConfidence,
		maxUnlikely:   cfg.MaxUnlikely,
	}
}

// Evaluate applies the gating rules to the evidence chains. Dismissed claims
// always block; unlikely claims block past a threshold; a low mean confidence
// across all claims blocks on its own.
func (e *Engine) Evaluate(request model.FirewallRequest, claims []model.Claim, chains []model.EvidenceChain) model.PolicyDecision {
	var violations []model.Violation
	var dismissed, unlikely int
	var confidenceSum float64

	for _, chain := range chains {
		confidenceSum += chain.Confidence
		switch chain.Verdict {
		case model.VerdictDismissed:
			dismissed++
			violations = append(violations, model.Violation{
				Rule:     "dismissed_claim",
				Severity: "critical",
				Message:  fmt.Sprintf("%s %q could not be verified by any source", chain.ClaimType, chain.ClaimValue),
				ClaimID:  chain.ClaimID,
			})
		case model.VerdictUnlikely:
			unlikely++
			violations = append(violations, model.Violation{
				Rule:     "unlikely_claim",
				Severity: "warning",
				Message:  fmt.Sprintf("%s %q is unlikely to be valid", chain.ClaimType, chain.ClaimValue),
				ClaimID:  chain.ClaimID,
			})
		}
	}

	confidence := 1.0
	if len(chains) > 0 {
		confidence = confidenceSum / float64(len(chains))
	}

	switch {
	case dismissed > 0:
		return model.PolicyDecision{
			Allowed:    false,
			Reason:     fmt.Sprintf("%d claim(s) dismissed as likely hallucinations", dismissed),
			Violations: violations,
			Confidence: confidence,
		}
	case unlikely > e.maxUnlikely:
		return model.PolicyDecision{
			Allowed:    false,
			Reason:     fmt.Sprintf("%d unlikely claim(s) exceed the threshold of %d", unlikely, e.maxUnlikely),
			Violations: violations,
			Confidence: confidence,
		}
	case len(chains) > 0 && confidence < e.minConfidence:
		violations = append(violations, model.Violation{
			Rule:     "low_confidence",
			Severity: "warning",
			Message:  fmt.Sprintf("mean confidence %.2f is below the %.2f threshold", confidence, e.minConfidence),
		})
		return model.PolicyDecision{
			Allowed:    false,
			Reason:     fmt.Sprintf("overall confidence %.2f is below the %.2f threshold", confidence, e.minConfidence),
			Violations: violations,
			Confidence: confidence,
		}
	}

	return model.PolicyDecision{
		Allowed:    true,
		Reason:     "all claims verified within policy thresholds",
		Violations: violations,
		Confidence: confidence,
	}
}

// Validator checks that a request's declared action and target are coherent
// before any expensive verification runs.
type Validator struct {
	projectRoot string
}

// NewValidator creates an intent validator scoped to a project root
func NewValidator(projectRoot string) *Validator {
	return &Validator{projectRoot: projectRoot}
}

// Validate rejects unknown actions, empty targets, and targets that escape
// the project root.
func (v *Validator) Validate(request model.FirewallRequest) (bool, string) {
	switch request.Action {
	case model.ActionRead, model.ActionWrite, model.ActionModify, model.ActionDelete, model.ActionExecute:
	default:
		return false, fmt.Sprintf("unknown action %q", request.Action)
	}

	if strings.TrimSpace(request.Target) == "" {
		return false, "request has no target"
	}
	if strings.Contains(request.Target, "..") {
		return false, fmt.Sprintf("target %q escapes the project root", request.Target)
	}

	return true, ""
}

// Planner generates remediation steps for blocked requests
type Planner struct{}

// NewPlanner creates an unblock planner
func NewPlanner() *Planner {
	return &Planner{}
}

// Plan turns a negative decision into concrete remediation steps
func (p *Planner) Plan(decision model.PolicyDecision) *model.UnblockPlan {
	if decision.Allowed {
		return nil
	}

	plan := &model.UnblockPlan{
		Summary: "Resolve the violations below, then resubmit the request.",
	}
	for _, v := range decision.Violations {
		switch v.Rule {
		case "dismissed_claim":
			plan.Steps = append(plan.Steps, fmt.Sprintf("Remove or correct the hallucinated reference: %s", v.Message))
		case "unlikely_claim":
			plan.Steps = append(plan.Steps, fmt.Sprintf("Double-check this reference against the codebase: %s", v.Message))
		case "low_confidence":
			plan.Steps = append(plan.Steps, "Add the missing declarations or dependencies so sources can verify the claims.")
		default:
			plan.Steps = append(plan.Steps, fmt.Sprintf("Address: %s", v.Message))
		}
	}
	if len(plan.Steps) == 0 {
		plan.Steps = append(plan.Steps, decision.Reason)
	}
	return plan
}
