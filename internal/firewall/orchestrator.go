// Package firewall gates agent actions behind claim verification. The
// orchestrator sequences intent validation, claim extraction, evidence
// resolution and policy evaluation, then applies mode semantics to the raw
// decision.
package firewall

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/claimgate/internal/model"
)

// ClaimExtractor turns request content into verifiable claims
type ClaimExtractor interface {
	Extract(content string, path string, language string) []model.Claim
}

// IntentValidator checks a request's declared intent before verification
type IntentValidator interface {
	Validate(request model.FirewallRequest) (valid bool, reason string)
}

// PolicyEngine turns verified claims into an allow/block decision
type PolicyEngine interface {
	Evaluate(request model.FirewallRequest, claims []model.Claim, chains []model.EvidenceChain) model.PolicyDecision
}

// UnblockPlanner generates remediation steps for blocked requests
type UnblockPlanner interface {
	Plan(decision model.PolicyDecision) *model.UnblockPlan
}

// EvidenceResolver gathers evidence for a batch of claims
type EvidenceResolver interface {
	ResolveAll(ctx context.Context, claims []model.Claim) (map[string][]model.SourceEvidence, error)
}

// ChainBuilder aggregates raw evidence into a verdict-bearing chain
type ChainBuilder interface {
	Build(claim model.Claim, evidence []model.SourceEvidence, start time.Time) model.EvidenceChain
}

// ConfidenceCalibrator corrects raw confidence using historical accuracy
type ConfidenceCalibrator interface {
	Calibrate(rawConfidence float64, claimType model.ClaimType) float64
}

// AuditSink records one entry per decision
type AuditSink interface {
	Record(entry model.AuditEntry) error
}

// Explainer produces an optional prose explanation of a result.
// Advisory only: it runs after the decision and can never change it.
type Explainer interface {
	Explain(ctx context.Context, result *model.FirewallResult) (*model.LLMExplanation, error)
}

// Orchestrator is the firewall state machine. The mode never changes except
// through SetMode; a mode change clears the short-lived result caches since
// results may differ under a new mode.
type Orchestrator struct {
	cfg        *model.Config
	extractor  ClaimExtractor
	validator  IntentValidator
	resolver   EvidenceResolver
	builder    ChainBuilder
	calibrator ConfidenceCalibrator
	engine     PolicyEngine
	planner    UnblockPlanner
	audit      AuditSink
	explainer  Explainer

	mu    sync.RWMutex
	mode  model.Mode
	quick *quickCache
}

// NewOrchestrator creates a firewall. The explainer may be nil; everything
// else is required. Configuration errors are fatal at construction time.
func NewOrchestrator(
	cfg *model.Config,
	extractor ClaimExtractor,
	validator IntentValidator,
	resolver EvidenceResolver,
	builder ChainBuilder,
	calibrator ConfidenceCalibrator,
	engine PolicyEngine,
	planner UnblockPlanner,
	audit AuditSink,
	explainer Explainer,
) (*Orchestrator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("firewall: config is required")
	}
	if !model.ValidMode(cfg.Mode) {
		return nil, fmt.Errorf("firewall: invalid mode %q", cfg.Mode)
	}
	if cfg.Firewall.MaxClaimsPerRequest <= 0 {
		return nil, fmt.Errorf("firewall: max_claims_per_request must be positive")
	}
	if extractor == nil || validator == nil || resolver == nil || builder == nil ||
		calibrator == nil || engine == nil || planner == nil || audit == nil {
		return nil, fmt.Errorf("firewall: missing collaborator")
	}

	return &Orchestrator{
		cfg:        cfg,
		extractor:  extractor,
		validator:  validator,
		resolver:   resolver,
		builder:    builder,
		calibrator: calibrator,
		engine:     engine,
		planner:    planner,
		audit:      audit,
		explainer:  explainer,
		mode:       cfg.Mode,
		quick:      newQuickCache(cfg.Firewall.QuickCheckTTL),
	}, nil
}

// Mode returns the current operating mode
func (o *Orchestrator) Mode() model.Mode {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.mode
}

// SetMode switches the operating mode and clears the result caches
func (o *Orchestrator) SetMode(mode model.Mode) error {
	if !model.ValidMode(mode) {
		return fmt.Errorf("firewall: invalid mode %q", mode)
	}
	o.mu.Lock()
	o.mode = mode
	o.mu.Unlock()
	o.quick.clear()
	return nil
}

// Evaluate runs the full gate over one request. In enforce and lockdown
// modes any internal failure becomes a block ("fail closed"); only observe
// returns the error to the caller.
func (o *Orchestrator) Evaluate(ctx context.Context, request model.FirewallRequest) (*model.FirewallResult, error) {
	start := time.Now()
	mode := o.Mode()

	result, err := o.evaluate(ctx, request, mode, start)
	if err != nil {
		if mode != model.ModeObserve {
			result = &model.FirewallResult{
				RequestID:  request.ID,
				Allowed:    false,
				Reason:     fmt.Sprintf("Evaluation error: %s", err.Error()),
				Mode:       mode,
				Timestamp:  time.Now().UTC(),
				DurationMs: time.Since(start).Milliseconds(),
			}
			o.record(request, result)
			return result, nil
		}
		return nil, err
	}

	o.explain(ctx, result)
	o.record(request, result)
	return result, nil
}

func (o *Orchestrator) evaluate(ctx context.Context, request model.FirewallRequest, mode model.Mode, start time.Time) (result *model.FirewallResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("panic during evaluation: %v", r)
		}
	}()

	finish := func(res *model.FirewallResult) *model.FirewallResult {
		res.RequestID = request.ID
		res.Mode = mode
		res.Timestamp = time.Now().UTC()
		res.DurationMs = time.Since(start).Milliseconds()
		return res
	}

	// Lockdown blocks all writes before any other work
	if mode == model.ModeLockdown && request.Action.IsWrite() {
		return finish(&model.FirewallResult{
			Allowed: false,
			Reason:  "Lockdown mode: All write operations are blocked.",
		}), nil
	}

	if valid, reason := o.validateIntent(ctx, request); !valid && mode != model.ModeObserve {
		return finish(&model.FirewallResult{
			Allowed: false,
			Reason:  fmt.Sprintf("Invalid intent: %s", reason),
		}), nil
	}

	claims := o.extractor.Extract(request.Content, request.Target, request.Meta["language"])
	if len(claims) > o.cfg.Firewall.MaxClaimsPerRequest && mode != model.ModeObserve {
		return finish(&model.FirewallResult{
			Allowed: false,
			Reason: fmt.Sprintf("Request contains %d claims (limit %d): break into smaller changes",
				len(claims), o.cfg.Firewall.MaxClaimsPerRequest),
			Claims: claims,
		}), nil
	}

	evidence, err := o.resolver.ResolveAll(ctx, claims)
	if err != nil {
		return nil, err
	}

	chains := make([]model.EvidenceChain, 0, len(claims))
	for _, claim := range claims {
		chain := o.builder.Build(claim, evidence[claim.ID], start)
		chain.Confidence = o.calibrator.Calibrate(chain.Confidence, chain.ClaimType)
		chains = append(chains, chain)
	}

	decision := o.engine.Evaluate(request, claims, chains)

	var unblock *model.UnblockPlan
	if !decision.Allowed {
		unblock = o.planner.Plan(decision)
	}

	allowed, reason := decision.Allowed, decision.Reason
	if mode == model.ModeObserve && !decision.Allowed {
		allowed = true
		reason = "[OBSERVE MODE] Would have blocked: " + decision.Reason
	}

	return finish(&model.FirewallResult{
		Allowed:    allowed,
		Reason:     reason,
		Claims:     claims,
		Chains:     chains,
		Violations: decision.Violations,
		Confidence: decision.Confidence,
		Unblock:    unblock,
	}), nil
}

// validateIntent runs the validator under the intent timeout
func (o *Orchestrator) validateIntent(ctx context.Context, request model.FirewallRequest) (bool, string) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.Firewall.IntentTimeout)
	defer cancel()

	type outcome struct {
		valid  bool
		reason string
	}
	ch := make(chan outcome, 1)
	go func() {
		valid, reason := o.validator.Validate(request)
		ch <- outcome{valid, reason}
	}()

	select {
	case <-ctx.Done():
		return false, fmt.Sprintf("intent validation timed out after %s", o.cfg.Firewall.IntentTimeout)
	case out := <-ch:
		return out.valid, out.reason
	}
}

// explain attaches the advisory explanation when an explainer is configured.
// Failures become warnings on the result, never errors.
func (o *Orchestrator) explain(ctx context.Context, result *model.FirewallResult) {
	if o.explainer == nil || result.Allowed {
		return
	}
	explanation, err := o.explainer.Explain(ctx, result)
	if err != nil {
		result.LLM = &model.LLMExplanation{
			Enabled:  true,
			Warnings: []string{fmt.Sprintf("explanation unavailable: %s", err.Error())},
		}
		return
	}
	result.LLM = explanation
}

// record buffers one audit entry; persistence failures never surface since
// losing the write does not change the current decision.
func (o *Orchestrator) record(request model.FirewallRequest, result *model.FirewallResult) {
	violations := make([]string, 0, len(result.Violations))
	for _, v := range result.Violations {
		violations = append(violations, v.Rule)
	}

	_ = o.audit.Record(model.AuditEntry{
		ID:             uuid.NewString(),
		Timestamp:      result.Timestamp,
		AgentID:        request.AgentID,
		Action:         request.Action,
		Target:         request.Target,
		Allowed:        result.Allowed,
		Reason:         result.Reason,
		ClaimCount:     len(result.Claims),
		ViolationCount: len(result.Violations),
		Violations:     violations,
		DurationMs:     result.DurationMs,
		Mode:           result.Mode,
	})
}
