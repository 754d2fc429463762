package model

import "time"

// Source identifies one independent verification source
type Source string

const (
	SourceTruthpack       Source = "truthpack"        // Generated ground-truth registry
	SourcePackageManifest Source = "package_manifest" // Declared dependency manifests
	SourceFilesystem      Source = "filesystem"       // On-disk files and env files
	SourcePatternMatch    Source = "pattern_match"    // Line-level regex matching
	SourceVersionControl  Source = "version_control"  // Repository state (shallow proxy)
	SourceTypeChecker     Source = "type_checker"     // Type declaration files / type packages
	SourceRuntime         Source = "runtime"          // Live process environment (low trust scope)
)

// SourceEvidence is one source's verdict on one claim.
// Never mutated after creation. A non-empty Error means the verifier itself
// failed; such evidence carries zero evidentiary weight but must not abort
// the batch.
type SourceEvidence struct {
	Source     Source                 `json:"source"`
	Verified   bool                   `json:"verified"`
	Confidence float64                `json:"confidence"` // In [0,1]
	Details    map[string]interface{} `json:"details,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	DurationMs int64                  `json:"duration_ms"`
}

// Failed reports whether the verifier errored rather than producing a verdict
func (e SourceEvidence) Failed() bool {
	return e.Error != ""
}

// Verdict is the five-level categorical outcome of combining evidence
type Verdict string

const (
	VerdictConfirmed Verdict = "confirmed"
	VerdictLikely    Verdict = "likely"
	VerdictUncertain Verdict = "uncertain"
	VerdictUnlikely  Verdict = "unlikely"
	VerdictDismissed Verdict = "dismissed"
)

// EvidenceStep records one source's contribution inside a chain
type EvidenceStep struct {
	Source     Source  `json:"source"`
	Verified   bool    `json:"verified"`
	Confidence float64 `json:"confidence"`
	Weight     float64 `json:"weight"` // Reliability weight applied during aggregation
	Error      string  `json:"error,omitempty"`
	DurationMs int64   `json:"duration_ms"`
}

// EvidenceChain is the combined, explained outcome for one claim.
// Built once per claim per evaluation; never mutated; not persisted by default.
type EvidenceChain struct {
	ID         string         `json:"id"`
	ClaimID    string         `json:"claim_id"`
	ClaimType  ClaimType      `json:"claim_type"`
	ClaimValue string         `json:"claim_value"`
	Verdict    Verdict        `json:"verdict"`
	Confidence float64        `json:"confidence"` // In [0,1]
	Chain      []EvidenceStep `json:"chain"`
	Reasoning  string         `json:"reasoning"`
	CreatedAt  time.Time      `json:"created_at"`
	DurationMs int64          `json:"duration_ms"`
}
