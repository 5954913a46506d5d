package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/fxsignal/internal/feed"
	"github.com/wonny/fxsignal/pkg/config"
	"github.com/wonny/fxsignal/pkg/logger"
)

// providersCmd shows the configured data provider chain.
var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Show the configured data provider chain",
	Long: `Lists the candle data providers in fallback order. Providers without
an API key are skipped; the synthetic generator is always last so the
pipeline works offline.`,
	RunE: runProviders,
}

func init() {
	rootCmd.AddCommand(providersCmd)
}

func runProviders(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fetcher := feed.NewFetcher(cfg.Feed, logger.Nop())

	fmt.Println("=== Provider chain ===")
	for i, name := range fetcher.Providers() {
		fmt.Printf("%d. %s\n", i+1, name)
	}

	fmt.Println()
	fmt.Printf("TwelveData key:   %s\n", keyStatus(cfg.Feed.TwelveDataKey))
	fmt.Printf("AlphaVantage key: %s\n", keyStatus(cfg.Feed.AlphaVantageKey))
	fmt.Printf("Finnhub key:      %s\n", keyStatus(cfg.Feed.FinnhubKey))
	fmt.Printf("Cache TTL:        %s\n", cfg.Feed.CacheTTL)
	fmt.Printf("Rate limit:       %d req/min\n", cfg.Feed.RateLimitPerMinute)

	return nil
}

func keyStatus(key string) string {
	if key == "" {
		return "not configured"
	}
	return "configured"
}
