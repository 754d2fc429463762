package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ppiankov/claimgate/internal/calibrate"
	"github.com/ppiankov/claimgate/internal/model"
)

var calibrationExportPath string

// calibrationCmd represents the calibration command
var calibrationCmd = &cobra.Command{
	Use:   "calibration",
	Short: "Inspect and maintain the confidence calibration model",
	Long: `The calibration model maps reported confidence to historically
observed accuracy. It is built from feedback: each time a decision is
later confirmed or refuted, a data point accumulates, and the model is
rebuilt from all points.`,
}

var calibrationReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print a human-readable calibration report",
	RunE: func(cmd *cobra.Command, args []string) error {
		calibrator := calibrate.NewCalibrator(model.DefaultConfig().Calibration)
		fmt.Print(calibrator.Report())
		return nil
	},
}

var calibrationExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export data points and model as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		calibrator := calibrate.NewCalibrator(model.DefaultConfig().Calibration)
		data, err := calibrator.Export()
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		if calibrationExportPath == "" {
			fmt.Println(string(data))
			return nil
		}
		if err := os.WriteFile(calibrationExportPath, data, 0o644); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}
		fmt.Printf("✓ Wrote calibration export: %s\n", calibrationExportPath)
		return nil
	},
}

var calibrationFeedbackCmd = &cobra.Command{
	Use:   "feedback <confidence> <correct> <claim-type>",
	Short: "Record one verified outcome",
	Long: `Feedback records whether a decision made at a given confidence turned
out to be right. Accumulated feedback drives recalibration.

Example:
  claimgate calibration feedback 0.9 true import
  claimgate calibration feedback 0.7 false api_endpoint`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		confidence, err := strconv.ParseFloat(args[0], 64)
		if err != nil || confidence < 0 || confidence > 1 {
			return fmt.Errorf("confidence must be a number in [0, 1], got %q", args[0])
		}
		correct, err := strconv.ParseBool(args[1])
		if err != nil {
			return fmt.Errorf("correct must be true or false, got %q", args[1])
		}
		claimType := model.ClaimType(args[2])

		calibrator := calibrate.NewCalibrator(model.DefaultConfig().Calibration)
		if err := calibrator.RecordFeedback(confidence, correct, claimType, ""); err != nil {
			return fmt.Errorf("recording feedback: %w", err)
		}
		fmt.Printf("✓ Recorded: confidence %.2f, correct=%v, type=%s (%d points total)\n",
			confidence, correct, claimType, calibrator.SampleCount())
		return nil
	},
}

var calibrationRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the model from all accumulated data points",
	RunE: func(cmd *cobra.Command, args []string) error {
		calibrator := calibrate.NewCalibrator(model.DefaultConfig().Calibration)
		if err := calibrator.Recalibrate(); err != nil {
			return fmt.Errorf("recalibration failed: %w", err)
		}
		m := calibrator.Model()
		if m == nil {
			fmt.Println("Not enough data points to build a model yet.")
			return nil
		}
		fmt.Printf("✓ Model rebuilt: %d samples, %.1f%% overall accuracy, ECE %.4f\n",
			m.SampleSize, m.OverallAccuracy*100, m.CalibrationError)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(calibrationCmd)
	calibrationCmd.AddCommand(calibrationReportCmd)
	calibrationCmd.AddCommand(calibrationExportCmd)
	calibrationCmd.AddCommand(calibrationFeedbackCmd)
	calibrationCmd.AddCommand(calibrationRebuildCmd)

	calibrationExportCmd.Flags().StringVar(&calibrationExportPath, "out", "", "output path (default: stdout)")
}
