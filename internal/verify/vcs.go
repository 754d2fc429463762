package verify

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/ppiankov/claimgate/internal/model"
	"github.com/ppiankov/claimgate/internal/util"
	"github.com/ppiankov/claimgate/internal/worker"
)

// VersionControlVerifier is a deliberately shallow proxy for "is this thing
// tracked": it checks that a repository exists and that the claimed path or
// symbol is present, without consulting history or the index in depth.
type VersionControlVerifier struct {
	root    string
	limiter *worker.CommandLimiter
}

// NewVersionControlVerifier creates a vcs verifier. The limiter bounds git
// subprocess spawns across a batch.
func NewVersionControlVerifier(root string, limiter *worker.CommandLimiter) *VersionControlVerifier {
	return &VersionControlVerifier{root: root, limiter: limiter}
}

// Source returns the verifier identity
func (v *VersionControlVerifier) Source() model.Source {
	return model.SourceVersionControl
}

// Supports reports the claim types version control can judge
func (v *VersionControlVerifier) Supports(claimType model.ClaimType) bool {
	switch claimType {
	case model.ClaimFileReference, model.ClaimFunctionCall, model.ClaimTypeReference:
		return true
	}
	return false
}

// Verify checks one claim against repository state
func (v *VersionControlVerifier) Verify(ctx context.Context, claim model.Claim) model.SourceEvidence {
	start := time.Now()

	if !dirExists(filepath.Join(v.root, ".git")) {
		return evidence(v.Source(), false, 0.3, map[string]interface{}{"repository": false}, start)
	}

	switch claim.Type {
	case model.ClaimFileReference:
		resolved, err := util.ResolveWithinRoot(v.root, claim.Value)
		if err != nil {
			return errorEvidence(v.Source(), err, start)
		}
		if _, statErr := os.Stat(resolved); statErr == nil {
			return evidence(v.Source(), true, 0.8, map[string]interface{}{"path": resolved}, start)
		}
		return evidence(v.Source(), false, 0.7, map[string]interface{}{"path": resolved}, start)

	case model.ClaimFunctionCall, model.ClaimTypeReference:
		return v.gitGrep(ctx, claim, start)
	}

	return evidence(v.Source(), false, 0.3, map[string]interface{}{"unsupported": string(claim.Type)}, start)
}

// gitGrep searches tracked files for the symbol via a rate-limited git spawn
func (v *VersionControlVerifier) gitGrep(ctx context.Context, claim model.Claim, start time.Time) model.SourceEvidence {
	if v.limiter != nil {
		if err := v.limiter.Wait(ctx, "git"); err != nil {
			return errorEvidence(v.Source(), err, start)
		}
	}

	cmd := exec.CommandContext(ctx, "git", "-C", v.root, "grep", "-l", "--fixed-strings", claim.Value)
	err := cmd.Run()
	if err == nil {
		return evidence(v.Source(), true, 0.8, map[string]interface{}{"symbol": claim.Value}, start)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		// git grep exits 1 on "no matches": a clean miss, not a failure
		return evidence(v.Source(), false, 0.7, map[string]interface{}{"symbol": claim.Value}, start)
	}
	return errorEvidence(v.Source(), err, start)
}
