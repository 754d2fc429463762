package calibrate

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/claimgate/internal/model"
)

func testConfig(t *testing.T) model.CalibrationConfig {
	t.Helper()
	return model.CalibrationConfig{
		Path:                filepath.Join(t.TempDir(), "calibration.json"),
		MinSamplesPerBucket: 3,
		RecalibrateEvery:    50,
		TypeBlend:           0.3,
	}
}

func TestCalibrate_OverconfidentBucketIsCorrected(t *testing.T) {
	c := NewCalibrator(testConfig(t))

	// Ten points at reported 0.9, half of them wrong
	for i := 0; i < 10; i++ {
		if err := c.RecordFeedback(0.9, i%2 == 0, "", ""); err != nil {
			t.Fatalf("RecordFeedback: %v", err)
		}
	}
	if err := c.Recalibrate(); err != nil {
		t.Fatalf("Recalibrate: %v", err)
	}

	// Bucket [0.9, 0.95) has midpoint 0.925 and observed accuracy 0.5
	got := c.Calibrate(0.9, "")
	want := 0.9 * (0.5 / 0.925)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Calibrate(0.9) = %v, want %v", got, want)
	}
	if got > 0.5 {
		t.Errorf("Calibrate(0.9) = %v, expected correction below 0.5", got)
	}
}

func TestCalibrate_UnchangedWithoutModel(t *testing.T) {
	c := NewCalibrator(testConfig(t))

	if got := c.Calibrate(0.85, ""); got != 0.85 {
		t.Errorf("Calibrate without model = %v, want 0.85 unchanged", got)
	}
}

func TestCalibrate_UnchangedWithSparseBucket(t *testing.T) {
	c := NewCalibrator(testConfig(t))

	// Enough total samples, but only two land in the [0.5, 0.6) bucket
	for i := 0; i < 10; i++ {
		if err := c.RecordFeedback(0.9, true, "", ""); err != nil {
			t.Fatalf("RecordFeedback: %v", err)
		}
	}
	for i := 0; i < 2; i++ {
		if err := c.RecordFeedback(0.55, false, "", ""); err != nil {
			t.Fatalf("RecordFeedback: %v", err)
		}
	}
	if err := c.Recalibrate(); err != nil {
		t.Fatalf("Recalibrate: %v", err)
	}

	if got := c.Calibrate(0.55, ""); got != 0.55 {
		t.Errorf("Calibrate in sparse bucket = %v, want 0.55 unchanged", got)
	}
}

func TestCalibrate_Idempotent(t *testing.T) {
	c := NewCalibrator(testConfig(t))
	for i := 0; i < 12; i++ {
		if err := c.RecordFeedback(0.8, i%3 != 0, "", ""); err != nil {
			t.Fatalf("RecordFeedback: %v", err)
		}
	}
	if err := c.Recalibrate(); err != nil {
		t.Fatalf("Recalibrate: %v", err)
	}

	first := c.Calibrate(0.8, "")
	second := c.Calibrate(0.8, "")
	if first != second {
		t.Errorf("Calibrate is not idempotent: %v then %v", first, second)
	}
}

func TestCalibrate_TypeBlend(t *testing.T) {
	c := NewCalibrator(testConfig(t))
	for i := 0; i < 10; i++ {
		if err := c.RecordFeedback(0.9, i%2 == 0, model.ClaimImport, model.SourcePackageManifest); err != nil {
			t.Fatalf("RecordFeedback: %v", err)
		}
	}
	if err := c.Recalibrate(); err != nil {
		t.Fatalf("Recalibrate: %v", err)
	}

	base := 0.9 * (0.5 / 0.925)
	want := base*0.7 + 0.5*0.9*0.3
	got := c.Calibrate(0.9, model.ClaimImport)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Calibrate with type blend = %v, want %v", got, want)
	}
	// Types without enough history fall back to the bucket-only value
	if got := c.Calibrate(0.9, model.ClaimEnvVariable); math.Abs(got-base) > 1e-9 {
		t.Errorf("Calibrate with unknown type = %v, want %v", got, base)
	}
}

func TestRecalibrate_ModelMetrics(t *testing.T) {
	c := NewCalibrator(testConfig(t))
	points := []struct {
		conf    float64
		correct bool
	}{
		{0.95, true}, {0.95, true}, {0.95, false},
		{0.7, true}, {0.7, false}, {0.7, false},
	}
	for _, p := range points {
		if err := c.RecordFeedback(p.conf, p.correct, "", ""); err != nil {
			t.Fatalf("RecordFeedback: %v", err)
		}
	}
	if err := c.Recalibrate(); err != nil {
		t.Fatalf("Recalibrate: %v", err)
	}

	m := c.Model()
	if m == nil {
		t.Fatal("Model() = nil after recalibration")
	}
	if m.SampleSize != 6 {
		t.Errorf("SampleSize = %d, want 6", m.SampleSize)
	}
	if math.Abs(m.OverallAccuracy-0.5) > 1e-9 {
		t.Errorf("OverallAccuracy = %v, want 0.5", m.OverallAccuracy)
	}
	if m.Brier <= 0 || m.Brier > 1 {
		t.Errorf("Brier = %v, want in (0, 1]", m.Brier)
	}

	// Per-bucket accuracy must equal truePositives/total
	for _, b := range m.Buckets {
		if b.Total == 0 {
			continue
		}
		want := float64(b.TruePositives) / float64(b.Total)
		if math.Abs(b.ActualAccuracy-want) > 1e-9 {
			t.Errorf("bucket [%v, %v): ActualAccuracy = %v, want %v", b.MinConfidence, b.MaxConfidence, b.ActualAccuracy, want)
		}
		if b.ActualAccuracy < 0 || b.ActualAccuracy > 1 {
			t.Errorf("bucket accuracy %v out of range", b.ActualAccuracy)
		}
	}
}

func TestCalibrator_PersistsAcrossInstances(t *testing.T) {
	cfg := testConfig(t)

	c1 := NewCalibrator(cfg)
	for i := 0; i < 10; i++ {
		if err := c1.RecordFeedback(0.9, i%2 == 0, "", ""); err != nil {
			t.Fatalf("RecordFeedback: %v", err)
		}
	}
	if err := c1.Recalibrate(); err != nil {
		t.Fatalf("Recalibrate: %v", err)
	}
	if err := c1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	c2 := NewCalibrator(cfg)
	if got := c2.SampleCount(); got != 10 {
		t.Errorf("SampleCount after reload = %d, want 10", got)
	}
	want := 0.9 * (0.5 / 0.925)
	if got := c2.Calibrate(0.9, ""); math.Abs(got-want) > 1e-9 {
		t.Errorf("Calibrate after reload = %v, want %v", got, want)
	}
}

func TestCalibrator_CorruptFileStartsEmpty(t *testing.T) {
	cfg := testConfig(t)
	if err := os.WriteFile(cfg.Path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}

	c := NewCalibrator(cfg)
	if got := c.SampleCount(); got != 0 {
		t.Errorf("SampleCount with corrupt file = %d, want 0", got)
	}
	if got := c.Calibrate(0.9, ""); got != 0.9 {
		t.Errorf("Calibrate with corrupt file = %v, want 0.9 unchanged", got)
	}
}

func TestRecordFeedback_TriggersRecalibration(t *testing.T) {
	cfg := testConfig(t)
	cfg.RecalibrateEvery = 5
	c := NewCalibrator(cfg)

	for i := 0; i < 5; i++ {
		if err := c.RecordFeedback(0.9, true, "", ""); err != nil {
			t.Fatalf("RecordFeedback: %v", err)
		}
	}
	if c.Model() == nil {
		t.Error("expected a model after recalibrateEvery feedbacks")
	}
}

func TestRecordFeedback_RecalibrationTriggerSurvivesRestart(t *testing.T) {
	cfg := testConfig(t)
	cfg.RecalibrateEvery = 50

	first := NewCalibrator(cfg)
	for i := 0; i < 49; i++ {
		if err := first.RecordFeedback(0.9, true, "", ""); err != nil {
			t.Fatalf("RecordFeedback: %v", err)
		}
	}
	if first.Model() != nil {
		t.Fatal("no model expected before the threshold")
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// A fresh instance over the same file sees the 49 persisted points
	// and builds the model on the 50th.
	second := NewCalibrator(cfg)
	if err := second.RecordFeedback(0.9, true, "", ""); err != nil {
		t.Fatalf("RecordFeedback: %v", err)
	}
	m := second.Model()
	if m == nil {
		t.Fatal("expected a model once 50 accumulated points exist")
	}
	if m.SampleSize != 50 {
		t.Errorf("SampleSize = %d, want 50", m.SampleSize)
	}
}

func TestReport(t *testing.T) {
	c := NewCalibrator(testConfig(t))
	for i := 0; i < 10; i++ {
		if err := c.RecordFeedback(0.9, i%2 == 0, "", ""); err != nil {
			t.Fatalf("RecordFeedback: %v", err)
		}
	}
	if err := c.Recalibrate(); err != nil {
		t.Fatalf("Recalibrate: %v", err)
	}

	report := c.Report()
	for _, want := range []string{"Data points: 10", "Overall accuracy: 50.0%", "Brier score"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}

	exported, err := c.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !strings.Contains(string(exported), "\"data_points\"") {
		t.Errorf("export missing data points: %s", exported)
	}
}
