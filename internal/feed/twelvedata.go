package feed

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/fxsignal/internal/market"
	"github.com/wonny/fxsignal/pkg/httputil"
)

// TwelveData is the primary forex data provider.
type TwelveData struct {
	client  *httputil.Client
	baseURL string
	apiKey  string
}

// NewTwelveData creates a TwelveData provider.
func NewTwelveData(client *httputil.Client, baseURL, apiKey string) *TwelveData {
	return &TwelveData{client: client, baseURL: baseURL, apiKey: apiKey}
}

func (t *TwelveData) Name() string { return "TwelveData" }

type twelveDataResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Values  []struct {
		Datetime string `json:"datetime"`
		Open     string `json:"open"`
		High     string `json:"high"`
		Low      string `json:"low"`
		Close    string `json:"close"`
		Volume   string `json:"volume"`
	} `json:"values"`
}

// Fetch requests a time series from the /time_series endpoint. Prices arrive
// as strings and are parsed to exact decimals.
func (t *TwelveData) Fetch(ctx context.Context, pair string, interval market.Interval, count int) (market.Series, error) {
	q := url.Values{}
	q.Set("symbol", pair)
	q.Set("interval", string(interval))
	q.Set("outputsize", strconv.Itoa(count))
	q.Set("apikey", t.apiKey)

	var resp twelveDataResponse
	if err := t.client.GetJSON(ctx, t.baseURL+"/time_series?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("twelvedata request failed: %w", err)
	}

	if resp.Status == "error" {
		return nil, fmt.Errorf("twelvedata error: %s", resp.Message)
	}
	if len(resp.Values) == 0 {
		return nil, ErrNoData
	}

	candles := make(market.Series, 0, len(resp.Values))
	for _, v := range resp.Values {
		c, err := parseTwelveDataCandle(v.Datetime, v.Open, v.High, v.Low, v.Close, v.Volume)
		if err != nil {
			return nil, fmt.Errorf("twelvedata malformed candle at %s: %w", v.Datetime, err)
		}
		candles = append(candles, c)
	}

	return candles, nil
}

func parseTwelveDataCandle(datetime, open, high, low, closeP, volume string) (market.Candle, error) {
	ts, err := parseTimestamp(datetime)
	if err != nil {
		return market.Candle{}, err
	}

	o, err := decimal.NewFromString(open)
	if err != nil {
		return market.Candle{}, fmt.Errorf("open: %w", err)
	}
	h, err := decimal.NewFromString(high)
	if err != nil {
		return market.Candle{}, fmt.Errorf("high: %w", err)
	}
	l, err := decimal.NewFromString(low)
	if err != nil {
		return market.Candle{}, fmt.Errorf("low: %w", err)
	}
	c, err := decimal.NewFromString(closeP)
	if err != nil {
		return market.Candle{}, fmt.Errorf("close: %w", err)
	}

	// Forex feeds often omit volume; default to zero.
	vol, _ := strconv.ParseInt(volume, 10, 64)

	return market.Candle{Time: ts, Open: o, High: h, Low: l, Close: c, Volume: vol}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02", time.RFC3339} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
