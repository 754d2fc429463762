package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/claimgate/internal/model"
)

func testLog(t *testing.T, bufferSize int) (*Log, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	return NewLog(model.AuditConfig{
		Path:          path,
		BufferSize:    bufferSize,
		FlushInterval: time.Hour, // interval flush disabled for deterministic tests
	}), path
}

func entry(id string, allowed bool, mode model.Mode, violations ...string) model.AuditEntry {
	return model.AuditEntry{
		ID:             id,
		Timestamp:      time.Now().UTC(),
		AgentID:        "agent-1",
		Action:         model.ActionWrite,
		Target:         "src/app.ts",
		Allowed:        allowed,
		Mode:           mode,
		Violations:     violations,
		ViolationCount: len(violations),
	}
}

func TestRecord_FlushesAtBufferThreshold(t *testing.T) {
	log, path := testLog(t, 3)

	for i := 0; i < 2; i++ {
		if err := log.Record(entry("a", true, model.ModeEnforce)); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("log file should not exist before the buffer fills")
	}

	if err := log.Record(entry("b", true, model.ModeEnforce)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 3 {
		t.Errorf("log has %d lines, want 3", lines)
	}
}

func TestClose_FlushesRemaining(t *testing.T) {
	log, path := testLog(t, 100)

	if err := log.Record(entry("a", false, model.ModeEnforce, "unverified_import")); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if !strings.Contains(string(data), "unverified_import") {
		t.Errorf("flushed entry missing from log: %s", data)
	}

	if err := log.Record(entry("b", true, model.ModeEnforce)); err == nil {
		t.Error("Record after Close should fail")
	}
}

func TestRecent(t *testing.T) {
	log, _ := testLog(t, 1)

	for _, id := range []string{"a", "b", "c", "d"} {
		if err := log.Record(entry(id, true, model.ModeObserve)); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	recent, err := log.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Recent(2) returned %d entries", len(recent))
	}
	if recent[0].ID != "c" || recent[1].ID != "d" {
		t.Errorf("Recent(2) = [%s, %s], want [c, d]", recent[0].ID, recent[1].ID)
	}
}

func TestRecent_IncludesBufferedEntries(t *testing.T) {
	log, _ := testLog(t, 100)

	if err := log.Record(entry("buffered", true, model.ModeEnforce)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	recent, err := log.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 || recent[0].ID != "buffered" {
		t.Errorf("Recent should flush the buffer first, got %+v", recent)
	}
}

func TestStats(t *testing.T) {
	log, _ := testLog(t, 1)

	old := entry("old", true, model.ModeEnforce)
	old.Timestamp = time.Now().Add(-48 * time.Hour)
	if err := log.Record(old); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := log.Record(entry("a", true, model.ModeEnforce)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := log.Record(entry("b", false, model.ModeEnforce, "dismissed_claim", "low_confidence")); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := log.Record(entry("c", true, model.ModeObserve, "dismissed_claim")); err != nil {
		t.Fatalf("Record: %v", err)
	}

	stats, err := log.Stats(time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("Total = %d, want 3 (old entry excluded)", stats.Total)
	}
	if stats.Allowed != 2 || stats.Blocked != 1 {
		t.Errorf("Allowed/Blocked = %d/%d, want 2/1", stats.Allowed, stats.Blocked)
	}
	if stats.ByMode["enforce"] != 2 || stats.ByMode["observe"] != 1 {
		t.Errorf("ByMode = %v", stats.ByMode)
	}
	if stats.ByViolation["dismissed_claim"] != 2 || stats.ByViolation["low_confidence"] != 1 {
		t.Errorf("ByViolation = %v", stats.ByViolation)
	}
}

func TestReadAll_SkipsMalformedLines(t *testing.T) {
	log, path := testLog(t, 1)
	if err := log.Record(entry("a", true, model.ModeEnforce)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("opening log: %v", err)
	}
	if _, err := f.WriteString("{corrupt line\n"); err != nil {
		t.Fatalf("corrupting log: %v", err)
	}
	f.Close()
	if err := log.Record(entry("b", true, model.ModeEnforce)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	recent, err := log.Recent(0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("Recent returned %d entries, want 2 (corrupt line skipped)", len(recent))
	}
}
