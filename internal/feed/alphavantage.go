package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wonny/fxsignal/internal/market"
	"github.com/wonny/fxsignal/pkg/httputil"
)

// AlphaVantage is the secondary forex data provider, used when the primary
// fails. Its FX endpoints report no volume, which the volume check tolerates.
type AlphaVantage struct {
	client  *httputil.Client
	baseURL string
	apiKey  string
}

// NewAlphaVantage creates an AlphaVantage provider.
func NewAlphaVantage(client *httputil.Client, baseURL, apiKey string) *AlphaVantage {
	return &AlphaVantage{client: client, baseURL: baseURL, apiKey: apiKey}
}

func (a *AlphaVantage) Name() string { return "AlphaVantage" }

type alphaVantageBar struct {
	Open  string `json:"1. open"`
	High  string `json:"2. high"`
	Low   string `json:"3. low"`
	Close string `json:"4. close"`
}

// Fetch requests an FX time series. Intraday intervals map to FX_INTRADAY,
// the daily interval to FX_DAILY. The time series key in the response varies
// with the function, so the payload is scanned for the "Time Series" entry.
func (a *AlphaVantage) Fetch(ctx context.Context, pair string, interval market.Interval, count int) (market.Series, error) {
	base, quote, err := splitPair(pair)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("from_symbol", base)
	q.Set("to_symbol", quote)
	q.Set("apikey", a.apiKey)

	if interval == market.Interval1Day {
		q.Set("function", "FX_DAILY")
	} else {
		q.Set("function", "FX_INTRADAY")
		q.Set("interval", alphaVantageInterval(interval))
	}
	// The compact default caps the payload at 100 bars.
	if count > 100 {
		q.Set("outputsize", "full")
	}

	var payload map[string]json.RawMessage
	if err := a.client.GetJSON(ctx, a.baseURL+"?"+q.Encode(), &payload); err != nil {
		return nil, fmt.Errorf("alphavantage request failed: %w", err)
	}

	if msg, ok := payload["Error Message"]; ok {
		return nil, fmt.Errorf("alphavantage error: %s", string(msg))
	}
	if msg, ok := payload["Note"]; ok {
		return nil, fmt.Errorf("alphavantage throttled: %s", string(msg))
	}

	var series map[string]alphaVantageBar
	for key, raw := range payload {
		if strings.HasPrefix(key, "Time Series") {
			if err := json.Unmarshal(raw, &series); err != nil {
				return nil, fmt.Errorf("alphavantage malformed time series: %w", err)
			}
			break
		}
	}
	if len(series) == 0 {
		return nil, ErrNoData
	}

	// Bars arrive keyed by timestamp in a map, so collect everything, sort,
	// and trim to the newest count afterwards.
	candles := make(market.Series, 0, len(series))
	for datetime, bar := range series {
		c, err := parseAlphaVantageBar(datetime, bar)
		if err != nil {
			return nil, fmt.Errorf("alphavantage malformed candle at %s: %w", datetime, err)
		}
		candles = append(candles, c)
	}

	ordered := candles.OldestFirst()
	if count > 0 && len(ordered) > count {
		ordered = ordered[len(ordered)-count:]
	}
	return ordered, nil
}

func parseAlphaVantageBar(datetime string, bar alphaVantageBar) (market.Candle, error) {
	ts, err := parseTimestamp(datetime)
	if err != nil {
		return market.Candle{}, err
	}

	o, err := decimal.NewFromString(bar.Open)
	if err != nil {
		return market.Candle{}, fmt.Errorf("open: %w", err)
	}
	h, err := decimal.NewFromString(bar.High)
	if err != nil {
		return market.Candle{}, fmt.Errorf("high: %w", err)
	}
	l, err := decimal.NewFromString(bar.Low)
	if err != nil {
		return market.Candle{}, fmt.Errorf("low: %w", err)
	}
	c, err := decimal.NewFromString(bar.Close)
	if err != nil {
		return market.Candle{}, fmt.Errorf("close: %w", err)
	}

	return market.Candle{Time: ts, Open: o, High: h, Low: l, Close: c}, nil
}

func splitPair(pair string) (base, quote string, err error) {
	parts := strings.Split(pair, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed pair %q, want BASE/QUOTE", pair)
	}
	return parts[0], parts[1], nil
}

func alphaVantageInterval(interval market.Interval) string {
	switch interval {
	case market.Interval1H, market.Interval4H:
		return "60min"
	default:
		return string(interval)
	}
}
