package model

import "time"

// CalibrationDataPoint records one observed outcome for a reported confidence.
// Append-only; accumulates across runs; the source of truth for the model.
type CalibrationDataPoint struct {
	ReportedConfidence float64   `json:"reported_confidence"`
	WasCorrect         bool      `json:"was_correct"`
	ClaimType          ClaimType `json:"claim_type,omitempty"`
	Source             Source    `json:"source,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
}

// CalibrationBucket compares reported confidence against observed accuracy
// within a fixed confidence range. Recomputed wholesale on recalibration.
type CalibrationBucket struct {
	MinConfidence  float64 `json:"min_confidence"`
	MaxConfidence  float64 `json:"max_confidence"`
	Midpoint       float64 `json:"midpoint"`
	Total          int     `json:"total"`
	TruePositives  int     `json:"true_positives"`
	FalsePositives int     `json:"false_positives"`
	ActualAccuracy float64 `json:"actual_accuracy"` // TruePositives/Total when Total > 0
}

// Contains reports whether the reported confidence falls in this bucket
func (b CalibrationBucket) Contains(confidence float64) bool {
	if b.MaxConfidence >= 1.0 {
		return confidence >= b.MinConfidence && confidence <= b.MaxConfidence
	}
	return confidence >= b.MinConfidence && confidence < b.MaxConfidence
}

// CalibrationModel maps reported confidence to historically observed accuracy.
// One per project; replaced wholesale on recalibration; persisted as JSON.
type CalibrationModel struct {
	Buckets          []CalibrationBucket `json:"buckets"`
	OverallAccuracy  float64             `json:"overall_accuracy"`
	Brier            float64             `json:"brier"`             // Mean squared error, lower is better
	CalibrationError float64             `json:"calibration_error"` // Expected Calibration Error
	LastUpdated      time.Time           `json:"last_updated"`
	SampleSize       int                 `json:"sample_size"`
}

// BucketBoundaries are the fixed confidence bucket edges
var BucketBoundaries = []float64{0.5, 0.6, 0.7, 0.8, 0.9, 0.95, 1.0}
