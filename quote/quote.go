// Package quote fetches best-effort current prices for open positions.
// Price lookups are the only network touch point of the whole system:
// matching and realized P&L never depend on them, and a failed lookup only
// degrades unrealized P&L to stale.
package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/rs/zerolog"

	"github.com/tradelog/tradelog"
)

// Source provides latest prices for a set of books. Implementations are
// best-effort: missing symbols are simply absent from the result.
type Source interface {
	Fetch(ctx context.Context, keys []tradelog.Key) tradelog.Prices
}

// Static is a fixed price table, used in tests and for manual price entry.
type Static tradelog.Prices

func (s Static) Fetch(ctx context.Context, keys []tradelog.Key) tradelog.Prices {
	prices := make(tradelog.Prices, len(keys))
	for _, k := range keys {
		if p, ok := s[k]; ok {
			prices[k] = p
		}
	}
	return prices
}

// Client fetches quotes over HTTP from a provider returning JSON, and
// extracts the price with a jsonpath expression so switching providers is a
// config change, not a code change.
type Client struct {
	// URL template with one %s verb for the symbol.
	URL string
	// PricePath is the jsonpath expression locating the price in the payload.
	PricePath string
	// Currency of the returned prices.
	Currency string

	http *http.Client
	log  zerolog.Logger
}

// NewClient returns a Client with a sane request timeout.
func NewClient(url, pricePath, currency string, log zerolog.Logger) *Client {
	return &Client{
		URL:       url,
		PricePath: pricePath,
		Currency:  currency,
		http:      &http.Client{Timeout: 10 * time.Second},
		log:       log.With().Str("component", "quote").Logger(),
	}
}

// Fetch looks up each symbol once and returns every price it could get.
// Failures are logged and skipped, never returned: the caller degrades to
// stale marks.
func (c *Client) Fetch(ctx context.Context, keys []tradelog.Key) tradelog.Prices {
	prices := make(tradelog.Prices, len(keys))
	seen := make(map[string]tradelog.Money)
	for _, k := range keys {
		px, ok := seen[k.Symbol]
		if !ok {
			var err error
			px, err = c.fetchOne(ctx, k.Symbol)
			if err != nil {
				c.log.Warn().Str("symbol", k.Symbol).Err(err).Msg("quote lookup failed")
				continue
			}
			seen[k.Symbol] = px
		}
		prices[k] = px
	}
	return prices
}

func (c *Client) fetchOne(ctx context.Context, symbol string) (tradelog.Money, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(c.URL, symbol), nil)
	if err != nil {
		return tradelog.Money{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return tradelog.Money{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return tradelog.Money{}, fmt.Errorf("GET %v: %v", resp.Request.URL.Host, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return tradelog.Money{}, err
	}

	var jobj any
	if err := json.Unmarshal(body, &jobj); err != nil {
		return tradelog.Money{}, fmt.Errorf("decode quote payload: %w", err)
	}
	jval, err := jsonpath.Get(c.PricePath, jobj)
	if err != nil {
		return tradelog.Money{}, fmt.Errorf("jsonpath %q: %w", c.PricePath, err)
	}
	// jsonpath may return a one-element list instead of a scalar.
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}

	switch v := jval.(type) {
	case float64:
		return tradelog.M(v, c.Currency), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return tradelog.Money{}, fmt.Errorf("price %q is not a number: %w", v, err)
		}
		return tradelog.M(f, c.Currency), nil
	default:
		return tradelog.Money{}, fmt.Errorf("jsonpath %q: not a number: %v", c.PricePath, jval)
	}
}
