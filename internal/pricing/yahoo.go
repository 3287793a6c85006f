package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okanewa/tradewallet/internal/infra"
	"github.com/okanewa/tradewallet/pkg/utils"
)

// userAgent is sent on every Yahoo request; the API rejects the Go default.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

const yahooChartURL = "https://query1.finance.yahoo.com/v8/finance/chart/%s"

// YahooSource fetches daily close prices from the Yahoo Finance v8 chart
// API. Responses are cached and requests are rate limited.
type YahooSource struct {
	client  *http.Client
	cache   *infra.Cache
	limiter *infra.RateLimiter
}

// YahooOptions configures the Yahoo source.
type YahooOptions struct {
	CacheTTL       time.Duration // default 5 minutes
	RequestTimeout time.Duration // default 30 seconds
}

// NewYahooSource creates a Yahoo Finance price source.
func NewYahooSource(opts *YahooOptions) *YahooSource {
	if opts == nil {
		opts = &YahooOptions{}
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &YahooSource{
		client:  &http.Client{Timeout: timeout},
		cache:   infra.NewCache(ttl),
		limiter: infra.NewRateLimiter(5, time.Second), // 5 req/s
	}
}

// Name returns "yahoo".
func (y *YahooSource) Name() string { return "yahoo" }

// --- Yahoo Finance v8 chart API types ---

type yahooChartResponse struct {
	Chart struct {
		Result []yahooChartResult `json:"result"`
		Error  *yahooError        `json:"error"`
	} `json:"chart"`
}

type yahooChartResult struct {
	Meta struct {
		Symbol             string  `json:"symbol"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
	} `json:"meta"`
	Indicators struct {
		Quote []struct {
			Close []float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// GetPrice returns the close price for the symbol on the given date, or
// the latest traded price when asOf is empty or unparseable.
func (y *YahooSource) GetPrice(ctx context.Context, symbol, asOf string) (decimal.Decimal, error) {
	yfSymbol := utils.ToYahooSymbol(symbol)

	cacheKey := "yahoo:" + yfSymbol + ":" + asOf
	if cached, ok := y.cache.Get(cacheKey); ok {
		return cached.(decimal.Decimal), nil
	}

	if err := y.limiter.Wait(ctx); err != nil {
		return decimal.Zero, err
	}

	url := fmt.Sprintf(yahooChartURL, yfSymbol)
	if day, err := time.Parse("2006-01-02", asOf); err == nil {
		// One daily candle covering the requested date.
		start := day.UTC()
		end := start.Add(24 * time.Hour)
		url += fmt.Sprintf("?period1=%d&period2=%d&interval=1d", start.Unix(), end.Unix())
	} else {
		url += "?range=1d&interval=1d"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := y.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("%w: yahoo returned HTTP %d for %s",
			ErrPriceUnavailable, resp.StatusCode, yfSymbol)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return decimal.Zero, fmt.Errorf("read response: %w", err)
	}

	var chart yahooChartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return decimal.Zero, fmt.Errorf("%w: decode chart response: %v", ErrPriceUnavailable, err)
	}
	if chart.Chart.Error != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %s",
			ErrPriceUnavailable, chart.Chart.Error.Code, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return decimal.Zero, fmt.Errorf("%w: empty chart result for %s", ErrPriceUnavailable, yfSymbol)
	}

	price := extractClose(chart.Chart.Result[0])
	if price <= 0 {
		return decimal.Zero, fmt.Errorf("%w: no usable close price for %s", ErrPriceUnavailable, yfSymbol)
	}

	dec := decimal.NewFromFloat(price)
	y.cache.Set(cacheKey, dec)
	return dec, nil
}

// extractClose picks the last non-zero daily close, falling back to the
// meta last-traded price.
func extractClose(result yahooChartResult) float64 {
	if len(result.Indicators.Quote) > 0 {
		closes := result.Indicators.Quote[0].Close
		for i := len(closes) - 1; i >= 0; i-- {
			if closes[i] > 0 {
				return closes[i]
			}
		}
	}
	return result.Meta.RegularMarketPrice
}
