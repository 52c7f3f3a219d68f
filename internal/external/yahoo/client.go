package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/adityakale/stockcast/internal/contracts"
	"github.com/adityakale/stockcast/pkg/config"
	"github.com/adityakale/stockcast/pkg/httputil"
)

// Client downloads daily bars from the Yahoo Finance chart API. It
// implements contracts.BarDownloader for the bulk feed.
type Client struct {
	httpClient *httputil.Client
	baseURL    string
	log        zerolog.Logger
}

// NewClient creates a new bulk feed client from config
func NewClient(cfg config.BulkFeedConfig, log zerolog.Logger) *Client {
	httpClient := httputil.New(log, cfg.Timeout).
		WithRateLimit(cfg.RequestsPerSec, cfg.Burst)

	return &Client{
		httpClient: httpClient,
		baseURL:    cfg.BaseURL,
		log:        log.With().Str("component", "yahoo.client").Logger(),
	}
}

// Download fetches daily bars for code over [from, to] inclusive
func (c *Client) Download(ctx context.Context, code string, from, to time.Time) ([]contracts.RawBar, error) {
	// The chart API treats period2 as exclusive; add one day to include `to`
	params := url.Values{}
	params.Set("period1", fmt.Sprintf("%d", from.Unix()))
	params.Set("period2", fmt.Sprintf("%d", to.AddDate(0, 0, 1).Unix()))
	params.Set("interval", "1d")
	params.Set("events", "history")

	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(code), params.Encode())

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}

	bars, err := parseChart(body)
	if err != nil {
		return nil, fmt.Errorf("parse response failed: %w", err)
	}

	c.log.Debug().Str("code", code).Int("count", len(bars)).Msg("fetched bars")
	return bars, nil
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// parseChart converts a chart API response body into raw bars. Rows without
// a close price are skipped; a null volume becomes NaN for the ingestion
// adapter to map to zero.
func parseChart(body []byte) ([]contracts.RawBar, error) {
	var parsed chartResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode chart JSON: %w", err)
	}

	if parsed.Chart.Error != nil {
		return nil, fmt.Errorf("feed error %s: %s", parsed.Chart.Error.Code, parsed.Chart.Error.Description)
	}
	if len(parsed.Chart.Result) == 0 || len(parsed.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	result := parsed.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	var bars []contracts.RawBar
	for idx, ts := range result.Timestamp {
		if idx >= len(quote.Close) || quote.Close[idx] == nil {
			continue
		}

		day := time.Unix(ts, 0).UTC()
		day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

		bar := contracts.RawBar{
			Date:   day,
			Open:   deref(quote.Open, idx),
			High:   deref(quote.High, idx),
			Low:    deref(quote.Low, idx),
			Close:  *quote.Close[idx],
			Volume: math.NaN(),
		}
		if idx < len(quote.Volume) && quote.Volume[idx] != nil {
			bar.Volume = *quote.Volume[idx]
		}

		bars = append(bars, bar)
	}

	return bars, nil
}

func deref(values []*float64, idx int) float64 {
	if idx < len(values) && values[idx] != nil {
		return *values[idx]
	}
	return 0
}
