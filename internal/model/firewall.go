package model

import "time"

// Mode is the firewall operating mode
type Mode string

const (
	ModeObserve  Mode = "observe"  // Log only, never block
	ModeEnforce  Mode = "enforce"  // Block on violation (default)
	ModeLockdown Mode = "lockdown" // Block all write operations
)

// ValidMode reports whether m is a recognized firewall mode
func ValidMode(m Mode) bool {
	switch m {
	case ModeObserve, ModeEnforce, ModeLockdown:
		return true
	}
	return false
}

// Action is the operation an agent proposes to perform
type Action string

const (
	ActionRead    Action = "read"
	ActionWrite   Action = "write"
	ActionModify  Action = "modify"
	ActionDelete  Action = "delete"
	ActionExecute Action = "execute"
)

// IsWrite reports whether the action mutates state (blocked under lockdown)
func (a Action) IsWrite() bool {
	switch a {
	case ActionWrite, ActionModify, ActionDelete, ActionExecute:
		return true
	}
	return false
}

// FirewallRequest is the transient input to one evaluation
type FirewallRequest struct {
	ID      string            `json:"id"`
	AgentID string            `json:"agent_id"`
	Action  Action            `json:"action"`
	Target  string            `json:"target"`  // File or resource the action applies to
	Content string            `json:"content"` // Proposed content / code block
	Intent  string            `json:"intent,omitempty"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// Violation is one categorical policy violation
type Violation struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"` // info, warning, critical
	Message  string `json:"message"`
	ClaimID  string `json:"claim_id,omitempty"`
}

// PolicyDecision is the raw outcome of policy evaluation, before mode semantics
type PolicyDecision struct {
	Allowed    bool        `json:"allowed"`
	Reason     string      `json:"reason"`
	Violations []Violation `json:"violations,omitempty"`
	Confidence float64     `json:"confidence"`
}

// UnblockPlan describes remediation steps for a blocked request
type UnblockPlan struct {
	Summary string   `json:"summary"`
	Steps   []string `json:"steps"`
}

// FirewallResult is the transient output of one evaluate() call
type FirewallResult struct {
	RequestID  string          `json:"request_id"`
	Allowed    bool            `json:"allowed"`
	Reason     string          `json:"reason"`
	Mode       Mode            `json:"mode"`
	Claims     []Claim         `json:"claims,omitempty"`
	Chains     []EvidenceChain `json:"chains,omitempty"`
	Violations []Violation     `json:"violations,omitempty"`
	Confidence float64         `json:"confidence"`
	Unblock    *UnblockPlan    `json:"unblock,omitempty"`
	LLM        *LLMExplanation `json:"llm,omitempty"` // Advisory only, never affects the decision
	Timestamp  time.Time       `json:"timestamp"`
	DurationMs int64           `json:"duration_ms"`
}

// Concern is one dangerous pattern or cluster flagged by the quick check
type Concern struct {
	Kind        string `json:"kind"` // Pattern name or "low_confidence_cluster"
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Line        int    `json:"line,omitempty"`
}

// QuickCheckResult is the cheap heuristic verdict used ahead of the full pipeline
type QuickCheckResult struct {
	Safe          bool      `json:"safe"`
	Concerns      []Concern `json:"concerns,omitempty"`
	ClaimsChecked int       `json:"claims_checked"`
	DurationMs    int64     `json:"duration_ms"`
}

// AuditEntry is the durable, append-only record of one decision.
// One JSON object per line in the audit log.
type AuditEntry struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	AgentID        string    `json:"agent_id"`
	Action         Action    `json:"action"`
	Target         string    `json:"target"`
	Allowed        bool      `json:"allowed"`
	Reason         string    `json:"reason"`
	ClaimCount     int       `json:"claim_count"`
	ViolationCount int       `json:"violation_count"`
	Violations     []string  `json:"violations,omitempty"`
	DurationMs     int64     `json:"duration_ms"`
	Mode           Mode      `json:"mode"` // Mode active at decision time
}

// LLMExplanation contains an optional LLM-generated prose explanation.
// CRITICAL: this never affects the decision and is clearly separated.
type LLMExplanation struct {
	Enabled  bool     `json:"enabled"`
	Provider string   `json:"provider,omitempty"`
	Model    string   `json:"model,omitempty"`
	Text     string   `json:"text,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}
