package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/fxsignal/internal/market"
)

var (
	analyzePair     string
	analyzeInterval string
	analyzeJSON     bool
)

// analyzeCmd runs one analysis cycle and prints the result.
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one analysis cycle for a pair and interval",
	Long: `Fetches candle history, computes the indicator set, generates candidate
signals and evaluates them through the quality gate. Prints a summary of
the cycle; --json dumps the full report.

Example:
  go run ./cmd/fxsignal analyze --pair EUR/USD --interval 5min
  go run ./cmd/fxsignal analyze --pair USD/JPY --interval 1h --json`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzePair, "pair", "EUR/USD", "currency pair")
	analyzeCmd.Flags().StringVar(&analyzeInterval, "interval", "5min", "candle interval")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the full report as JSON")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	_, eng, _, err := bootstrap()
	if err != nil {
		return err
	}

	report, err := eng.Analyze(context.Background(), analyzePair, market.Interval(analyzeInterval))
	if err != nil {
		return err
	}

	if analyzeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Printf("=== Analysis: %s %s ===\n", report.Pair, report.Interval)
	fmt.Printf("Candles:    %d\n", report.CandleCount)
	fmt.Printf("Price:      %s (%+.4f%%)\n", report.Indicators.Price, report.Indicators.PriceChangePercent)
	fmt.Printf("Trend:      %s\n", report.Trend)
	fmt.Printf("RSI:        %.2f\n", report.Indicators.RSI)
	fmt.Printf("MACD hist:  %.6f\n", report.Indicators.MACDHistogram)
	fmt.Printf("Candidates: %d, approved: %d\n", report.PotentialSignals, report.ApprovedSignals)

	for _, eval := range report.Evaluations {
		status := "rejected"
		if eval.Approved {
			status = "APPROVED"
		}
		fmt.Printf("  [%s] %s %s  confidence=%d strength=%d\n",
			status, eval.Signal.Type, eval.Signal.Direction, eval.Confidence, eval.Strength)
		for _, reason := range eval.RejectionReasons {
			fmt.Printf("      - %s\n", reason)
		}
	}

	return nil
}
