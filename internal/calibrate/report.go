package calibrate

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Report renders a human-readable summary of the calibration state
func (c *Calibrator) Report() string {
	m := c.Model()
	samples := c.SampleCount()

	var sb strings.Builder
	sb.WriteString("Calibration Report\n")
	sb.WriteString("==================\n\n")
	fmt.Fprintf(&sb, "Data points: %d\n", samples)

	if m == nil {
		sb.WriteString("Model: not yet built (insufficient data)\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "Sample size: %d\n", m.SampleSize)
	fmt.Fprintf(&sb, "Overall accuracy: %.1f%%\n", m.OverallAccuracy*100)
	fmt.Fprintf(&sb, "Brier score: %.4f\n", m.Brier)
	fmt.Fprintf(&sb, "Calibration error (ECE): %.4f\n", m.CalibrationError)
	fmt.Fprintf(&sb, "Last updated: %s\n\n", m.LastUpdated.Format("2006-01-02 15:04:05 UTC"))

	sb.WriteString("Buckets:\n")
	for _, b := range m.Buckets {
		if b.Total == 0 {
			fmt.Fprintf(&sb, "  [%.2f, %.2f)  no data\n", b.MinConfidence, b.MaxConfidence)
			continue
		}
		fmt.Fprintf(&sb, "  [%.2f, %.2f)  reported %.0f%%, observed %.1f%% (%d samples)\n",
			b.MinConfidence, b.MaxConfidence, b.Midpoint*100, b.ActualAccuracy*100, b.Total)
	}

	return sb.String()
}

// Export returns the full calibration state (data points and model) as JSON
// for external reporting tools.
func (c *Calibrator) Export() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked()
	return json.MarshalIndent(persistedState{DataPoints: c.dataPoints, Model: c.model}, "", "  ")
}
