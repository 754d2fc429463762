package verify

import (
	"context"
	"testing"

	"github.com/ppiankov/claimgate/internal/model"
)

func TestPatternVerifier_FunctionDeclarationHit(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "src/helpers.ts", "export function formatUser(user) {\n  return user.name\n}\n")

	v := NewPatternVerifier(root, 0, 0, nil)

	ev := v.Verify(context.Background(), model.Claim{Type: model.ClaimFunctionCall, Value: "formatUser"})
	if !ev.Verified || ev.Confidence != 0.9 {
		t.Fatalf("Expected hit at 0.9, got %+v", ev)
	}
	if ev.Details["matched_at"] == nil {
		t.Errorf("Expected matched_at detail, got %v", ev.Details)
	}
}

func TestPatternVerifier_GoDeclarations(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "svc/user.go", "package svc\n\ntype UserProfile struct {\n\tName string\n}\n\nfunc LoadUser(id string) (*UserProfile, error) {\n\treturn nil, nil\n}\n")

	v := NewPatternVerifier(root, 0, 0, nil)

	ev := v.Verify(context.Background(), model.Claim{Type: model.ClaimTypeReference, Value: "UserProfile"})
	if !ev.Verified {
		t.Fatalf("Expected type hit, got %+v", ev)
	}

	ev = v.Verify(context.Background(), model.Claim{Type: model.ClaimFunctionCall, Value: "LoadUser"})
	if !ev.Verified {
		t.Fatalf("Expected func hit, got %+v", ev)
	}
}

func TestPatternVerifier_ExhaustiveMiss(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "src/app.js", "const x = 1\n")

	v := NewPatternVerifier(root, 0, 0, nil)

	ev := v.Verify(context.Background(), model.Claim{Type: model.ClaimFunctionCall, Value: "neverDeclared"})
	if ev.Verified {
		t.Fatalf("Expected miss, got %+v", ev)
	}
	if ev.Confidence != 0.9 {
		t.Errorf("Exhaustive miss keeps confidence 0.9, got %v", ev.Confidence)
	}
}

func TestPatternVerifier_UnsupportedClaimType(t *testing.T) {
	v := NewPatternVerifier(t.TempDir(), 0, 0, nil)

	ev := v.Verify(context.Background(), model.Claim{Type: model.ClaimEnvVariable, Value: "HOME"})
	if ev.Verified || ev.Confidence != 0.3 {
		t.Fatalf("Expected unsupported at 0.3, got %+v", ev)
	}
}

func TestPatternVerifier_IgnoresFilteredDirs(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "node_modules/dep/index.js", "function hiddenDep() {}\n")

	v := NewPatternVerifier(root, 0, 0, []string{"node_modules"})

	ev := v.Verify(context.Background(), model.Claim{Type: model.ClaimFunctionCall, Value: "hiddenDep"})
	if ev.Verified {
		t.Fatalf("Declarations under ignored dirs must not count, got %+v", ev)
	}
}
