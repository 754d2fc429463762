package verify

import (
	"context"
	"testing"

	"github.com/ppiankov/claimgate/internal/model"
)

func TestFilesystemVerifier_MissingRelativeImport(t *testing.T) {
	root := t.TempDir()
	v := NewFilesystemVerifier(root, nil, nil, 0)

	ev := v.Verify(context.Background(), model.Claim{
		Type:  model.ClaimImport,
		Value: "./utils/helper",
	})

	if ev.Verified {
		t.Fatalf("Expected unverified evidence for missing file, got %+v", ev)
	}
	if ev.Confidence != 0.85 {
		t.Errorf("Expected confidence 0.85 on miss, got %v", ev.Confidence)
	}
}

func TestFilesystemVerifier_ExtensionResolution(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "utils/helper.ts", "export const x = 1\n")

	v := NewFilesystemVerifier(root, nil, nil, 0)

	ev := v.Verify(context.Background(), model.Claim{Type: model.ClaimImport, Value: "./utils/helper"})
	if !ev.Verified || ev.Confidence != 1.0 {
		t.Fatalf("Expected direct hit at 1.0, got %+v", ev)
	}
}

func TestFilesystemVerifier_IndexFallback(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "components/index.tsx", "export default null\n")

	v := NewFilesystemVerifier(root, nil, nil, 0)

	ev := v.Verify(context.Background(), model.Claim{Type: model.ClaimFileReference, Value: "components"})
	if !ev.Verified {
		t.Fatalf("Expected index fallback hit, got %+v", ev)
	}
	if ev.Confidence != 0.9 {
		t.Errorf("Expected confidence 0.9 for index fallback, got %v", ev.Confidence)
	}
	if ev.Details["index_fallback"] != true {
		t.Errorf("Expected index_fallback detail, got %v", ev.Details)
	}
}

func TestFilesystemVerifier_EnvVariable(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, ".env", "# comment\nDATABASE_URL=postgres://localhost\nEMPTY=\n")

	v := NewFilesystemVerifier(root, nil, nil, 0)

	ev := v.Verify(context.Background(), model.Claim{Type: model.ClaimEnvVariable, Value: "DATABASE_URL"})
	if !ev.Verified || ev.Confidence != 1.0 {
		t.Fatalf("Expected env hit, got %+v", ev)
	}
	if ev.Details["env_file"] != ".env" {
		t.Errorf("Expected .env as source file, got %v", ev.Details)
	}

	ev = v.Verify(context.Background(), model.Claim{Type: model.ClaimEnvVariable, Value: "MISSING_VAR"})
	if ev.Verified || ev.Confidence != 0.85 {
		t.Fatalf("Expected miss at 0.85, got %+v", ev)
	}
}

func TestFilesystemVerifier_EscapingPathIsError(t *testing.T) {
	v := NewFilesystemVerifier(t.TempDir(), nil, nil, 0)

	ev := v.Verify(context.Background(), model.Claim{Type: model.ClaimFileReference, Value: "../../etc/passwd"})
	if !ev.Failed() {
		t.Fatalf("Expected error-evidence for escaping path, got %+v", ev)
	}
	if ev.Confidence != 0 {
		t.Errorf("Error-evidence must carry zero confidence, got %v", ev.Confidence)
	}
}
