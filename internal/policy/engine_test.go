package policy

import (
	"strings"
	"testing"

	"github.com/ppiankov/claimgate/internal/model"
)

func defaultEngine() *Engine {
	return NewEngine(model.PolicyConfig{MinConfidence: 0.5, MaxUnlikely: 2})
}

func chain(verdict model.Verdict, confidence float64) model.EvidenceChain {
	return model.EvidenceChain{
		ClaimID:    "c1",
		ClaimType:  model.ClaimImport,
		ClaimValue: "lodash",
		Verdict:    verdict,
		Confidence: confidence,
	}
}

func TestEvaluate_DismissedClaimBlocks(t *testing.T) {
	decision := defaultEngine().Evaluate(model.FirewallRequest{}, nil, []model.EvidenceChain{
		chain(model.VerdictConfirmed, 0.95),
		chain(model.VerdictDismissed, 0.05),
	})

	if decision.Allowed {
		t.Error("decision with a dismissed claim should block")
	}
	if !strings.Contains(decision.Reason, "hallucination") {
		t.Errorf("Reason = %q, want mention of hallucinations", decision.Reason)
	}
	if len(decision.Violations) != 1 || decision.Violations[0].Rule != "dismissed_claim" {
		t.Errorf("Violations = %+v, want one dismissed_claim", decision.Violations)
	}
	if decision.Violations[0].Severity != "critical" {
		t.Errorf("Severity = %q, want critical", decision.Violations[0].Severity)
	}
}

func TestEvaluate_UnlikelyThreshold(t *testing.T) {
	engine := defaultEngine()

	twoUnlikely := []model.EvidenceChain{
		chain(model.VerdictUnlikely, 0.6),
		chain(model.VerdictUnlikely, 0.6),
		chain(model.VerdictConfirmed, 0.95),
	}
	if d := engine.Evaluate(model.FirewallRequest{}, nil, twoUnlikely); !d.Allowed {
		t.Errorf("two unlikely claims should pass (threshold 2): %q", d.Reason)
	}

	threeUnlikely := append(twoUnlikely, chain(model.VerdictUnlikely, 0.6))
	if d := engine.Evaluate(model.FirewallRequest{}, nil, threeUnlikely); d.Allowed {
		t.Error("three unlikely claims should block")
	}
}

func TestEvaluate_LowMeanConfidenceBlocks(t *testing.T) {
	decision := defaultEngine().Evaluate(model.FirewallRequest{}, nil, []model.EvidenceChain{
		chain(model.VerdictUncertain, 0.4),
		chain(model.VerdictUncertain, 0.45),
	})

	if decision.Allowed {
		t.Error("low mean confidence should block")
	}
	found := false
	for _, v := range decision.Violations {
		if v.Rule == "low_confidence" {
			found = true
		}
	}
	if !found {
		t.Errorf("Violations = %+v, want low_confidence", decision.Violations)
	}
}

func TestEvaluate_NoClaimsIsAllowed(t *testing.T) {
	decision := defaultEngine().Evaluate(model.FirewallRequest{}, nil, nil)
	if !decision.Allowed {
		t.Errorf("empty request should pass: %q", decision.Reason)
	}
	if decision.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want 1.0 for no claims", decision.Confidence)
	}
}

func TestValidate(t *testing.T) {
	v := NewValidator("/project")

	tests := []struct {
		name    string
		request model.FirewallRequest
		valid   bool
	}{
		{"valid write", model.FirewallRequest{Action: model.ActionWrite, Target: "src/app.ts"}, true},
		{"unknown action", model.FirewallRequest{Action: "teleport", Target: "src/app.ts"}, false},
		{"empty target", model.FirewallRequest{Action: model.ActionWrite, Target: "  "}, false},
		{"escaping target", model.FirewallRequest{Action: model.ActionDelete, Target: "../etc/passwd"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, reason := v.Validate(tt.request)
			if valid != tt.valid {
				t.Errorf("Validate = %v (%q), want %v", valid, reason, tt.valid)
			}
			if !valid && reason == "" {
				t.Error("invalid request should carry a reason")
			}
		})
	}
}

func TestPlan(t *testing.T) {
	p := NewPlanner()

	if plan := p.Plan(model.PolicyDecision{Allowed: true}); plan != nil {
		t.Errorf("allowed decision should have no plan, got %+v", plan)
	}

	plan := p.Plan(model.PolicyDecision{
		Allowed: false,
		Reason:  "2 claim(s) dismissed as likely hallucinations",
		Violations: []model.Violation{
			{Rule: "dismissed_claim", Message: "import \"lodsh\" could not be verified by any source"},
			{Rule: "low_confidence", Message: "mean confidence 0.31 is below the 0.50 threshold"},
		},
	})
	if plan == nil {
		t.Fatal("blocked decision should produce a plan")
	}
	if len(plan.Steps) != 2 {
		t.Errorf("plan has %d steps, want 2", len(plan.Steps))
	}
	if !strings.Contains(plan.Steps[0], "lodsh") {
		t.Errorf("first step should reference the violation: %q", plan.Steps[0])
	}
}
