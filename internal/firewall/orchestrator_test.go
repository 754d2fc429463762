package firewall

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/claimgate/internal/model"
)

type stubExtractor struct {
	claims []model.Claim
}

func (s *stubExtractor) Extract(content, path, language string) []model.Claim {
	return s.claims
}

type stubValidator struct {
	valid  bool
	reason string
}

func (s *stubValidator) Validate(request model.FirewallRequest) (bool, string) {
	return s.valid, s.reason
}

type stubResolver struct {
	evidence map[string][]model.SourceEvidence
	err      error
}

func (s *stubResolver) ResolveAll(ctx context.Context, claims []model.Claim) (map[string][]model.SourceEvidence, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.evidence != nil {
		return s.evidence, nil
	}
	out := map[string][]model.SourceEvidence{}
	for _, c := range claims {
		out[c.ID] = []model.SourceEvidence{{Source: model.SourcePackageManifest, Verified: true, Confidence: 1.0}}
	}
	return out, nil
}

type stubBuilder struct{}

func (s *stubBuilder) Build(claim model.Claim, evidence []model.SourceEvidence, start time.Time) model.EvidenceChain {
	verdict := model.VerdictConfirmed
	confidence := 0.95
	for _, ev := range evidence {
		if !ev.Verified {
			verdict = model.VerdictDismissed
			confidence = 0.05
		}
	}
	return model.EvidenceChain{
		ClaimID:    claim.ID,
		ClaimType:  claim.Type,
		ClaimValue: claim.Value,
		Verdict:    verdict,
		Confidence: confidence,
	}
}

type passthroughCalibrator struct{}

func (passthroughCalibrator) Calibrate(raw float64, claimType model.ClaimType) float64 { return raw }

type stubEngine struct {
	decision model.PolicyDecision
}

func (s *stubEngine) Evaluate(request model.FirewallRequest, claims []model.Claim, chains []model.EvidenceChain) model.PolicyDecision {
	return s.decision
}

type stubPlanner struct{}

func (stubPlanner) Plan(decision model.PolicyDecision) *model.UnblockPlan {
	return &model.UnblockPlan{Summary: "fix it", Steps: []string{decision.Reason}}
}

type memoryAudit struct {
	mu      sync.Mutex
	entries []model.AuditEntry
}

func (a *memoryAudit) Record(entry model.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
	return nil
}

func (a *memoryAudit) last(t *testing.T) model.AuditEntry {
	t.Helper()
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.entries) == 0 {
		t.Fatal("no audit entries recorded")
	}
	return a.entries[len(a.entries)-1]
}

type fixture struct {
	orchestrator *Orchestrator
	extractor    *stubExtractor
	validator    *stubValidator
	resolver     *stubResolver
	engine       *stubEngine
	audit        *memoryAudit
}

func newFixture(t *testing.T, mode model.Mode) *fixture {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.Mode = mode

	f := &fixture{
		extractor: &stubExtractor{},
		validator: &stubValidator{valid: true},
		resolver:  &stubResolver{},
		engine:    &stubEngine{decision: model.PolicyDecision{Allowed: true, Reason: "ok", Confidence: 0.9}},
		audit:     &memoryAudit{},
	}

	orchestrator, err := NewOrchestrator(cfg, f.extractor, f.validator, f.resolver,
		&stubBuilder{}, passthroughCalibrator{}, f.engine, stubPlanner{}, f.audit, nil)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	f.orchestrator = orchestrator
	return f
}

func writeRequest() model.FirewallRequest {
	return model.FirewallRequest{
		ID:      "req-1",
		AgentID: "agent-1",
		Action:  model.ActionWrite,
		Target:  "src/app.ts",
		Content: "import x from 'lodash';",
	}
}

func TestEvaluate_LockdownBlocksWrites(t *testing.T) {
	f := newFixture(t, model.ModeLockdown)

	result, err := f.orchestrator.Evaluate(context.Background(), writeRequest())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if result.Allowed {
		t.Error("lockdown should block writes")
	}
	if result.Reason != "Lockdown mode: All write operations are blocked." {
		t.Errorf("Reason = %q", result.Reason)
	}
	// Blocked before any verification work
	if len(result.Claims) != 0 {
		t.Errorf("lockdown block should carry no claims, got %d", len(result.Claims))
	}
	if entry := f.audit.last(t); entry.Mode != model.ModeLockdown || entry.Allowed {
		t.Errorf("audit entry = %+v", entry)
	}
}

func TestEvaluate_LockdownAllowsReads(t *testing.T) {
	f := newFixture(t, model.ModeLockdown)

	request := writeRequest()
	request.Action = model.ActionRead
	result, err := f.orchestrator.Evaluate(context.Background(), request)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !result.Allowed {
		t.Errorf("lockdown should let reads through the pipeline: %q", result.Reason)
	}
}

func TestEvaluate_ObserveOverridesBlock(t *testing.T) {
	f := newFixture(t, model.ModeObserve)
	f.engine.decision = model.PolicyDecision{
		Allowed:    false,
		Reason:     "2 claim(s) dismissed as likely hallucinations",
		Violations: []model.Violation{{Rule: "dismissed_claim", Severity: "critical"}},
		Confidence: 0.1,
	}

	result, err := f.orchestrator.Evaluate(context.Background(), writeRequest())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !result.Allowed {
		t.Error("observe mode must force allowed=true")
	}
	want := "[OBSERVE MODE] Would have blocked: 2 claim(s) dismissed as likely hallucinations"
	if result.Reason != want {
		t.Errorf("Reason = %q, want %q", result.Reason, want)
	}
	// The underlying violations are still reported
	if len(result.Violations) != 1 {
		t.Errorf("Violations = %+v", result.Violations)
	}
	if entry := f.audit.last(t); !entry.Allowed {
		t.Error("audit entry should record the observed (allowed) outcome")
	}
}

func TestEvaluate_InvalidIntentBlocksInEnforce(t *testing.T) {
	f := newFixture(t, model.ModeEnforce)
	f.validator.valid = false
	f.validator.reason = "unknown action \"teleport\""

	result, err := f.orchestrator.Evaluate(context.Background(), writeRequest())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if result.Allowed {
		t.Error("invalid intent should block in enforce mode")
	}
	if !strings.HasPrefix(result.Reason, "Invalid intent:") {
		t.Errorf("Reason = %q", result.Reason)
	}
}

func TestEvaluate_InvalidIntentIgnoredInObserve(t *testing.T) {
	f := newFixture(t, model.ModeObserve)
	f.validator.valid = false
	f.validator.reason = "bad intent"

	result, err := f.orchestrator.Evaluate(context.Background(), writeRequest())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !result.Allowed {
		t.Errorf("observe mode should ignore invalid intent: %q", result.Reason)
	}
}

func TestEvaluate_ClaimCapBlocksInEnforce(t *testing.T) {
	f := newFixture(t, model.ModeEnforce)
	claims := make([]model.Claim, 51)
	for i := range claims {
		claims[i] = model.Claim{ID: "c", Type: model.ClaimImport, Value: "x"}
	}
	f.extractor.claims = claims

	result, err := f.orchestrator.Evaluate(context.Background(), writeRequest())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if result.Allowed {
		t.Error("51 claims should exceed the cap of 50")
	}
	if !strings.Contains(result.Reason, "break into smaller changes") {
		t.Errorf("Reason = %q, want remediation hint", result.Reason)
	}
}

func TestEvaluate_FailsClosedInEnforce(t *testing.T) {
	f := newFixture(t, model.ModeEnforce)
	f.resolver.err = errors.New("evidence resolution: context deadline exceeded")

	result, err := f.orchestrator.Evaluate(context.Background(), writeRequest())
	if err != nil {
		t.Fatalf("enforce mode should swallow the error into a block: %v", err)
	}
	if result.Allowed {
		t.Error("resolution failure should block in enforce mode")
	}
	if !strings.HasPrefix(result.Reason, "Evaluation error:") {
		t.Errorf("Reason = %q", result.Reason)
	}
	if entry := f.audit.last(t); entry.Allowed {
		t.Error("fail-closed block should be audited")
	}
}

func TestEvaluate_FailsClosedInLockdown(t *testing.T) {
	f := newFixture(t, model.ModeLockdown)
	f.resolver.err = errors.New("resolver exploded")

	request := writeRequest()
	request.Action = model.ActionRead
	result, err := f.orchestrator.Evaluate(context.Background(), request)
	if err != nil {
		t.Fatalf("lockdown mode should swallow the error into a block: %v", err)
	}
	if result.Allowed {
		t.Error("resolution failure should block in lockdown mode")
	}
	if !strings.HasPrefix(result.Reason, "Evaluation error:") {
		t.Errorf("Reason = %q", result.Reason)
	}
	if entry := f.audit.last(t); entry.Allowed {
		t.Error("fail-closed block should be audited")
	}
}

func TestEvaluate_ErrorPropagatesInObserve(t *testing.T) {
	f := newFixture(t, model.ModeObserve)
	f.resolver.err = errors.New("boom")

	if _, err := f.orchestrator.Evaluate(context.Background(), writeRequest()); err == nil {
		t.Error("observe mode should propagate internal errors")
	}
}

func TestEvaluate_BlockedRequestGetsUnblockPlan(t *testing.T) {
	f := newFixture(t, model.ModeEnforce)
	f.engine.decision = model.PolicyDecision{Allowed: false, Reason: "nope"}

	result, err := f.orchestrator.Evaluate(context.Background(), writeRequest())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if result.Unblock == nil {
		t.Fatal("blocked result should carry an unblock plan")
	}
	if len(result.Unblock.Steps) == 0 {
		t.Error("unblock plan has no steps")
	}
}

func TestEvaluate_CalibratesChainConfidence(t *testing.T) {
	f := newFixture(t, model.ModeEnforce)
	f.extractor.claims = []model.Claim{{ID: "c1", Type: model.ClaimImport, Value: "lodash"}}

	cfg := model.DefaultConfig()
	halver := calibratorFunc(func(raw float64, claimType model.ClaimType) float64 { return raw / 2 })
	orchestrator, err := NewOrchestrator(cfg, f.extractor, f.validator, f.resolver,
		&stubBuilder{}, halver, f.engine, stubPlanner{}, f.audit, nil)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}

	result, err := orchestrator.Evaluate(context.Background(), writeRequest())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(result.Chains) != 1 {
		t.Fatalf("Chains = %d, want 1", len(result.Chains))
	}
	if got := result.Chains[0].Confidence; got != 0.475 {
		t.Errorf("calibrated confidence = %v, want 0.475", got)
	}
}

type calibratorFunc func(float64, model.ClaimType) float64

func (f calibratorFunc) Calibrate(raw float64, claimType model.ClaimType) float64 {
	return f(raw, claimType)
}

func TestSetMode(t *testing.T) {
	f := newFixture(t, model.ModeEnforce)

	if err := f.orchestrator.SetMode(model.ModeLockdown); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	if got := f.orchestrator.Mode(); got != model.ModeLockdown {
		t.Errorf("Mode = %v, want lockdown", got)
	}
	if err := f.orchestrator.SetMode("panic"); err == nil {
		t.Error("invalid mode should be rejected")
	}
}

func TestNewOrchestrator_RejectsBadConfig(t *testing.T) {
	f := newFixture(t, model.ModeEnforce)

	cfg := model.DefaultConfig()
	cfg.Mode = "stealth"
	if _, err := NewOrchestrator(cfg, f.extractor, f.validator, f.resolver,
		&stubBuilder{}, passthroughCalibrator{}, f.engine, stubPlanner{}, f.audit, nil); err == nil {
		t.Error("invalid mode should fail construction")
	}

	cfg = model.DefaultConfig()
	if _, err := NewOrchestrator(cfg, nil, f.validator, f.resolver,
		&stubBuilder{}, passthroughCalibrator{}, f.engine, stubPlanner{}, f.audit, nil); err == nil {
		t.Error("missing extractor should fail construction")
	}
}
