package feed

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/wonny/fxsignal/internal/market"
	"github.com/wonny/fxsignal/pkg/httputil"
)

// Finnhub is the tertiary forex data provider. Its candle endpoint is
// addressed by an epoch time window rather than a bar count, so the window is
// derived from count and the interval duration.
type Finnhub struct {
	client  *httputil.Client
	baseURL string
	apiKey  string

	now func() time.Time
}

// NewFinnhub creates a Finnhub provider.
func NewFinnhub(client *httputil.Client, baseURL, apiKey string) *Finnhub {
	return &Finnhub{client: client, baseURL: baseURL, apiKey: apiKey, now: time.Now}
}

func (f *Finnhub) Name() string { return "Finnhub" }

// finnhubResponse is the column-oriented candle payload: parallel slices per
// field, aligned by index.
type finnhubResponse struct {
	Status string    `json:"s"`
	Open   []float64 `json:"o"`
	High   []float64 `json:"h"`
	Low    []float64 `json:"l"`
	Close  []float64 `json:"c"`
	Volume []float64 `json:"v"`
	Times  []int64   `json:"t"`
}

// Fetch requests count bars ending now from the forex candle endpoint.
func (f *Finnhub) Fetch(ctx context.Context, pair string, interval market.Interval, count int) (market.Series, error) {
	to := f.now().Unix()
	from := to - int64(count)*int64(interval.Duration()/time.Second)

	q := url.Values{}
	q.Set("symbol", pair)
	q.Set("resolution", finnhubResolution(interval))
	q.Set("from", strconv.FormatInt(from, 10))
	q.Set("to", strconv.FormatInt(to, 10))
	q.Set("token", f.apiKey)

	var payload finnhubResponse
	if err := f.client.GetJSON(ctx, f.baseURL+"/forex/candle?"+q.Encode(), &payload); err != nil {
		return nil, fmt.Errorf("finnhub request failed: %w", err)
	}

	if payload.Status == "no_data" || len(payload.Close) == 0 {
		return nil, ErrNoData
	}
	if payload.Status != "ok" {
		return nil, fmt.Errorf("finnhub error status: %q", payload.Status)
	}
	if len(payload.Open) != len(payload.Close) || len(payload.High) != len(payload.Close) ||
		len(payload.Low) != len(payload.Close) || len(payload.Times) != len(payload.Close) {
		return nil, fmt.Errorf("finnhub ragged response: %d closes, %d timestamps",
			len(payload.Close), len(payload.Times))
	}

	candles := make(market.Series, 0, len(payload.Close))
	for i := range payload.Close {
		var volume int64
		if i < len(payload.Volume) {
			volume = int64(payload.Volume[i])
		}
		candles = append(candles, market.Candle{
			Time:   time.Unix(payload.Times[i], 0).UTC(),
			Open:   fxDecimal(payload.Open[i]),
			High:   fxDecimal(payload.High[i]),
			Low:    fxDecimal(payload.Low[i]),
			Close:  fxDecimal(payload.Close[i]),
			Volume: volume,
		})
	}

	return candles, nil
}

// finnhubResolution maps candle intervals onto the provider's resolution
// codes. 4h is not offered and is served at 1h granularity.
func finnhubResolution(interval market.Interval) string {
	switch interval {
	case market.Interval1Min:
		return "1"
	case market.Interval5Min:
		return "5"
	case market.Interval15Min:
		return "15"
	case market.Interval30Min:
		return "30"
	case market.Interval1H, market.Interval4H:
		return "60"
	case market.Interval1Day:
		return "D"
	default:
		return "5"
	}
}
