package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// All environment variables are read here and nowhere else.
type Config struct {
	Env string // development, staging, production

	// Logging
	LogLevel  string
	LogFormat string

	Engine EngineConfig
	Gate   GateConfig
	Feed   FeedConfig
}

// EngineConfig holds analysis-engine limits and the supported allow-lists.
type EngineConfig struct {
	// Minimum number of candles required for one analysis cycle.
	MinCandles int

	// Number of candles requested from the feed per cycle.
	FetchCount int

	// Capacity of the active-signal buffer (FIFO eviction).
	MaxStoredSignals int

	// Capacity of the engine error log (FIFO eviction).
	MaxStoredErrors int

	AutoUpdateInterval time.Duration
	AutoUpdateEnabled  bool

	SupportedPairs     []string
	SupportedIntervals []string
}

// GateConfig holds the quality-gate thresholds.
type GateConfig struct {
	MinSignalStrength            int     // 0-100
	MinConfirmingIndicators      int     // out of 6 checks
	MinVolumeRatio               float64 // current / average volume
	MaxVolatility                float64 // ATR as % of price
	MinSupportResistanceDistance float64 // fraction of price, e.g. 0.001 = 0.1%
	MinConfidence                int     // 0-100, final approval bar

	RSIOverbought float64
	RSIOversold   float64
	RSINeutralMin float64
	RSINeutralMax float64

	StochOverbought float64
	StochOversold   float64

	MACDMinHistogram float64
}

// FeedConfig holds upstream data-provider settings.
type FeedConfig struct {
	TwelveDataKey   string
	TwelveDataURL   string
	AlphaVantageKey string
	AlphaVantageURL string
	FinnhubKey      string
	FinnhubURL      string

	RequestTimeout time.Duration
	CacheTTL       time.Duration

	// Sliding request budget per provider, requests per minute.
	RateLimitPerMinute int
}

// defaultPairs are the instruments the engine accepts out of the box.
var defaultPairs = []string{
	"EUR/USD", "GBP/USD", "USD/JPY", "AUD/USD", "USD/CAD",
	"USD/CHF", "NZD/USD", "EUR/GBP", "EUR/JPY", "GBP/JPY",
	"AUD/JPY", "CAD/JPY", "CHF/JPY", "EUR/AUD", "GBP/AUD",
}

var defaultIntervals = []string{"1min", "5min", "15min", "30min", "1h", "4h", "1day"}

// Load reads configuration from environment variables.
// Only this function calls os.Getenv().
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env:       getEnv("ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		Engine: EngineConfig{
			MinCandles:         getEnvAsInt("ENGINE_MIN_CANDLES", 50),
			FetchCount:         getEnvAsInt("ENGINE_FETCH_COUNT", 100),
			MaxStoredSignals:   getEnvAsInt("ENGINE_MAX_STORED_SIGNALS", 100),
			MaxStoredErrors:    getEnvAsInt("ENGINE_MAX_STORED_ERRORS", 50),
			AutoUpdateInterval: getEnvAsDuration("ENGINE_AUTO_UPDATE_INTERVAL", "5m"),
			AutoUpdateEnabled:  getEnvAsBool("ENGINE_AUTO_UPDATE_ENABLED", false),
			SupportedPairs:     getEnvAsList("ENGINE_SUPPORTED_PAIRS", defaultPairs),
			SupportedIntervals: getEnvAsList("ENGINE_SUPPORTED_INTERVALS", defaultIntervals),
		},

		Gate: GateConfig{
			MinSignalStrength:            getEnvAsInt("GATE_MIN_SIGNAL_STRENGTH", 60),
			MinConfirmingIndicators:      getEnvAsInt("GATE_MIN_CONFIRMING_INDICATORS", 3),
			MinVolumeRatio:               getEnvAsFloat("GATE_MIN_VOLUME_RATIO", 0.8),
			MaxVolatility:                getEnvAsFloat("GATE_MAX_VOLATILITY", 2.0),
			MinSupportResistanceDistance: getEnvAsFloat("GATE_MIN_SR_DISTANCE", 0.001),
			MinConfidence:                getEnvAsInt("GATE_MIN_CONFIDENCE", 70),
			RSIOverbought:                getEnvAsFloat("GATE_RSI_OVERBOUGHT", 70),
			RSIOversold:                  getEnvAsFloat("GATE_RSI_OVERSOLD", 30),
			RSINeutralMin:                getEnvAsFloat("GATE_RSI_NEUTRAL_MIN", 40),
			RSINeutralMax:                getEnvAsFloat("GATE_RSI_NEUTRAL_MAX", 60),
			StochOverbought:              getEnvAsFloat("GATE_STOCH_OVERBOUGHT", 80),
			StochOversold:                getEnvAsFloat("GATE_STOCH_OVERSOLD", 20),
			MACDMinHistogram:             getEnvAsFloat("GATE_MACD_MIN_HISTOGRAM", 0.0001),
		},

		Feed: FeedConfig{
			TwelveDataKey:      getEnv("TWELVEDATA_API_KEY", ""),
			TwelveDataURL:      getEnv("TWELVEDATA_BASE_URL", "https://api.twelvedata.com"),
			AlphaVantageKey:    getEnv("ALPHAVANTAGE_API_KEY", ""),
			AlphaVantageURL:    getEnv("ALPHAVANTAGE_BASE_URL", "https://www.alphavantage.co/query"),
			FinnhubKey:         getEnv("FINNHUB_API_KEY", ""),
			FinnhubURL:         getEnv("FINNHUB_BASE_URL", "https://finnhub.io/api/v1"),
			RequestTimeout:     getEnvAsDuration("FEED_REQUEST_TIMEOUT", "10s"),
			CacheTTL:           getEnvAsDuration("FEED_CACHE_TTL", "60s"),
			RateLimitPerMinute: getEnvAsInt("FEED_RATE_LIMIT_PER_MINUTE", 8),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks that required configuration values are coherent.
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Engine.MinCandles < 50 {
		return fmt.Errorf("ENGINE_MIN_CANDLES must be at least 50, got %d", c.Engine.MinCandles)
	}

	if c.Engine.FetchCount < c.Engine.MinCandles {
		return fmt.Errorf("ENGINE_FETCH_COUNT (%d) must be >= ENGINE_MIN_CANDLES (%d)",
			c.Engine.FetchCount, c.Engine.MinCandles)
	}

	if c.Engine.AutoUpdateInterval < time.Second {
		return fmt.Errorf("ENGINE_AUTO_UPDATE_INTERVAL too short: %s", c.Engine.AutoUpdateInterval)
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations.
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}

	if len(out) == 0 {
		return defaultValue
	}

	return out
}
