package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/fxsignal/internal/engine"
	"github.com/wonny/fxsignal/internal/market"
	sig "github.com/wonny/fxsignal/internal/signal"
)

var (
	runPair     string
	runInterval string
)

// runCmd starts the engine with recurring auto updates.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the engine with recurring analysis",
	Long: `Starts the engine for one pair and interval and re-analyzes on the
configured auto-update interval until interrupted. Approved signals are
printed as they are produced.

Example:
  go run ./cmd/fxsignal run --pair EUR/USD --interval 5min`,
	RunE: runEngine,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runPair, "pair", "EUR/USD", "currency pair")
	runCmd.Flags().StringVar(&runInterval, "interval", "5min", "candle interval")
}

func runEngine(cmd *cobra.Command, args []string) error {
	_, eng, log, err := bootstrap()
	if err != nil {
		return err
	}

	eng.Bus().Subscribe(engine.EventSignal, func(evt engine.Event) {
		eval, ok := evt.Payload.(sig.Evaluation)
		if !ok {
			return
		}
		fmt.Printf("SIGNAL %s %s @ %s  confidence=%d strength=%d\n",
			eval.Signal.Type, eval.Signal.Direction, eval.Signal.Price,
			eval.Confidence, eval.Strength)
	})

	eng.Bus().Subscribe(engine.EventAnalysis, func(evt engine.Event) {
		report, ok := evt.Payload.(*engine.Report)
		if !ok {
			return
		}
		log.WithFields(map[string]interface{}{
			"pair":     report.Pair,
			"trend":    report.Trend,
			"approved": report.ApprovedSignals,
		}).Info("Analysis event")
	})

	opts := engine.StartOptions{EnableAutoUpdate: true}
	if err := eng.Start(context.Background(), runPair, market.Interval(runInterval), opts); err != nil {
		return err
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	eng.Stop()
	return nil
}
