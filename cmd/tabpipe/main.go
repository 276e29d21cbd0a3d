// Command tabpipe runs the tabular classification pipeline described by a
// YAML configuration file.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/tabpipe/internal/config"
	"github.com/YuminosukeSato/tabpipe/pipeline"
	"github.com/YuminosukeSato/tabpipe/pkg/log"
)

var (
	rootCmd = &cobra.Command{
		Use:   "tabpipe",
		Short: "Train and compare classifiers on messy tabular data",
		Long: `tabpipe loads a labeled training CSV and an unlabeled validation
CSV, repairs and imputes them, encodes the features, trains a
logistic-regression baseline and a tuned gradient-boosted tree model,
and exports each model's validation probabilities.`,
	}
	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Execute a full pipeline run from a YAML config",
		RunE:  runPipeline,
	}
	configPath string
)

func init() {
	runCmd.Flags().StringVarP(&configPath, "config", "c", "tabpipe.yaml", "path to the run configuration")
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log.SetupLogger(cfg.LogLevel)

	report, err := pipeline.Run(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("train rows: %d (fit %d, eval %d), validation rows: %d\n",
		report.TrainRows, report.FitRows, report.EvalRows, report.ValidationRows)
	if len(report.DroppedColumns) > 0 {
		fmt.Printf("dropped columns: %v\n", report.DroppedColumns)
	}
	fmt.Printf("logistic AUC: %.4f\n", report.LogisticAUC)
	fmt.Printf("boosting AUC: %.4f (shrinkage %g, depth %d, trees %d)\n",
		report.BoostingAUC, report.BestParams.Shrinkage, report.BestParams.MaxDepth, report.BestParams.Trees)
	fmt.Printf("winner: %s\n", report.Winner)
	fmt.Printf("predictions: %s, %s\n", report.LogisticPredictionsPath, report.BoostingPredictionsPath)
	if report.ROCPlotPath != "" {
		fmt.Printf("roc plot: %s\n", report.ROCPlotPath)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
