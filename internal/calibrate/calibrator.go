// Package calibrate corrects reported confidence using historically observed
// accuracy. The calibrator owns a persisted set of data points and a bucketed
// model derived from them; both live in one JSON document on disk.
package calibrate

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ppiankov/claimgate/internal/model"
)

// persistedState is the on-disk document: data points plus the derived model
type persistedState struct {
	DataPoints []model.CalibrationDataPoint `json:"data_points"`
	Model      *model.CalibrationModel      `json:"model,omitempty"`
}

// Calibrator maps reported confidence to historically observed accuracy.
// Instance-scoped; a calibration file must not be shared between concurrent
// instances without external locking.
type Calibrator struct {
	path                string
	minSamplesPerBucket int
	recalibrateEvery    int
	typeBlend           float64

	mu         sync.Mutex
	loaded     bool
	dataPoints []model.CalibrationDataPoint
	model      *model.CalibrationModel
}

// NewCalibrator creates a calibrator backed by the given file path.
// The file is loaded lazily on first use; a missing or corrupt file means an
// empty, uncalibrated model rather than an error.
func NewCalibrator(cfg model.CalibrationConfig) *Calibrator {
	return &Calibrator{
		path:                cfg.Path,
		minSamplesPerBucket: cfg.MinSamplesPerBucket,
		recalibrateEvery:    cfg.RecalibrateEvery,
		typeBlend:           cfg.TypeBlend,
	}
}

// RecordFeedback appends one data point and persists the state. Recalibration
// runs automatically every recalibrateEvery accumulated points.
func (c *Calibrator) RecordFeedback(reportedConfidence float64, wasCorrect bool, claimType model.ClaimType, source model.Source) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked()

	c.dataPoints = append(c.dataPoints, model.CalibrationDataPoint{
		ReportedConfidence: reportedConfidence,
		WasCorrect:         wasCorrect,
		ClaimType:          claimType,
		Source:             source,
		Timestamp:          time.Now().UTC(),
	})

	// The model records how many points it was built from, so the trigger
	// is derived from persisted state and survives restarts.
	built := 0
	if c.model != nil {
		built = c.model.SampleSize
	}
	if len(c.dataPoints)-built >= c.recalibrateEvery {
		c.recalibrateLocked()
	}

	return c.saveLocked()
}

// Recalibrate rebuilds the model from all accumulated data points and persists
// the result. It is a no-op when fewer than minSamplesPerBucket points exist.
func (c *Calibrator) Recalibrate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked()
	c.recalibrateLocked()
	return c.saveLocked()
}

func (c *Calibrator) recalibrateLocked() {
	if len(c.dataPoints) < c.minSamplesPerBucket {
		return
	}

	buckets := make([]model.CalibrationBucket, 0, len(model.BucketBoundaries)-1)
	for i := 0; i < len(model.BucketBoundaries)-1; i++ {
		lo, hi := model.BucketBoundaries[i], model.BucketBoundaries[i+1]
		buckets = append(buckets, model.CalibrationBucket{
			MinConfidence: lo,
			MaxConfidence: hi,
			Midpoint:      (lo + hi) / 2,
		})
	}

	correct := 0
	brierSum := 0.0
	for _, dp := range c.dataPoints {
		outcome := 0.0
		if dp.WasCorrect {
			outcome = 1.0
			correct++
		}
		brierSum += (dp.ReportedConfidence - outcome) * (dp.ReportedConfidence - outcome)

		for i := range buckets {
			if buckets[i].Contains(dp.ReportedConfidence) {
				buckets[i].Total++
				if dp.WasCorrect {
					buckets[i].TruePositives++
				} else {
					buckets[i].FalsePositives++
				}
				break
			}
		}
	}

	n := len(c.dataPoints)
	ece := 0.0
	for i := range buckets {
		if buckets[i].Total == 0 {
			continue
		}
		buckets[i].ActualAccuracy = float64(buckets[i].TruePositives) / float64(buckets[i].Total)
		ece += float64(buckets[i].Total) / float64(n) * math.Abs(buckets[i].ActualAccuracy-buckets[i].Midpoint)
	}

	c.model = &model.CalibrationModel{
		Buckets:          buckets,
		OverallAccuracy:  float64(correct) / float64(n),
		Brier:            brierSum / float64(n),
		CalibrationError: ece,
		LastUpdated:      time.Now().UTC(),
		SampleSize:       n,
	}
}

// Calibrate adjusts a raw confidence using the bucketed model. The raw value
// is returned unchanged when too little history exists to trust the model:
// no model at all, fewer than 3x minSamplesPerBucket total points, or fewer
// than minSamplesPerBucket points in the matching bucket.
func (c *Calibrator) Calibrate(rawConfidence float64, claimType model.ClaimType) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked()

	if c.model == nil || c.model.SampleSize < 3*c.minSamplesPerBucket {
		return rawConfidence
	}

	var bucket *model.CalibrationBucket
	for i := range c.model.Buckets {
		if c.model.Buckets[i].Contains(rawConfidence) {
			bucket = &c.model.Buckets[i]
			break
		}
	}
	if bucket == nil || bucket.Total < c.minSamplesPerBucket {
		return rawConfidence
	}

	adjustment := bucket.ActualAccuracy / bucket.Midpoint
	calibrated := rawConfidence * adjustment

	// Blend in claim-type-specific accuracy when enough history exists.
	// The split is a tunable, not a principled parameter.
	if typeAccuracy, ok := c.typeAccuracyLocked(claimType); ok {
		calibrated = calibrated*(1-c.typeBlend) + typeAccuracy*rawConfidence*c.typeBlend
	}

	return math.Max(0, math.Min(1, calibrated))
}

// typeAccuracyLocked computes the observed accuracy for one claim type,
// requiring at least minSamplesPerBucket samples of that type.
func (c *Calibrator) typeAccuracyLocked(claimType model.ClaimType) (float64, bool) {
	if claimType == "" {
		return 0, false
	}
	total, correct := 0, 0
	for _, dp := range c.dataPoints {
		if dp.ClaimType != claimType {
			continue
		}
		total++
		if dp.WasCorrect {
			correct++
		}
	}
	if total < c.minSamplesPerBucket {
		return 0, false
	}
	return float64(correct) / float64(total), true
}

// Model returns a copy of the current model, or nil if none exists yet
func (c *Calibrator) Model() *model.CalibrationModel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked()
	if c.model == nil {
		return nil
	}
	copied := *c.model
	copied.Buckets = append([]model.CalibrationBucket(nil), c.model.Buckets...)
	return &copied
}

// SampleCount returns the number of accumulated data points
func (c *Calibrator) SampleCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked()
	return len(c.dataPoints)
}

// Save persists the current state to disk
func (c *Calibrator) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked()
	return c.saveLocked()
}

// Close flushes state to disk. Safe to call multiple times.
func (c *Calibrator) Close() error {
	return c.Save()
}

func (c *Calibrator) loadLocked() {
	if c.loaded {
		return
	}
	c.loaded = true

	data, err := os.ReadFile(c.path)
	if err != nil {
		return // missing file means an empty model
	}
	var state persistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return // corrupt file means an empty model, never a hard failure
	}
	c.dataPoints = state.DataPoints
	c.model = state.Model
}

func (c *Calibrator) saveLocked() error {
	state := persistedState{DataPoints: c.dataPoints, Model: c.model}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling calibration state: %w", err)
	}
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating calibration directory: %w", err)
		}
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing calibration state: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replacing calibration state: %w", err)
	}
	return nil
}
