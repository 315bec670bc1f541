package quote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradelog/tradelog"
)

func key(symbol string, asset tradelog.AssetType) tradelog.Key {
	return tradelog.Key{Symbol: symbol, Asset: asset}
}

func TestClient_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/quote/AAPL":
			w.Write([]byte(`{"quoteResponse":{"result":[{"symbol":"AAPL","regularMarketPrice":155.42}]}}`))
		case "/quote/BTC":
			// Some providers return the price as a string.
			w.Write([]byte(`{"quoteResponse":{"result":[{"symbol":"BTC","regularMarketPrice":"64123.50"}]}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/quote/%s", "$.quoteResponse.result[0].regularMarketPrice", "USD", zerolog.Nop())
	prices := c.Fetch(context.Background(), []tradelog.Key{
		key("AAPL", tradelog.Stock),
		key("BTC", tradelog.Crypto),
		key("MISSING", tradelog.Stock),
	})

	require.Len(t, prices, 2, "the failed symbol must be absent, not an error")
	assert.True(t, prices[key("AAPL", tradelog.Stock)].Equal(tradelog.M(155.42, "USD")))
	assert.True(t, prices[key("BTC", tradelog.Crypto)].Equal(tradelog.M(64123.50, "USD")))
	_, ok := prices[key("MISSING", tradelog.Stock)]
	assert.False(t, ok)
}

func TestClient_FetchDedupesSymbols(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`{"price":101.5}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/%s", "$.price", "USD", zerolog.Nop())
	// A stock and an option on the same underlying share one lookup.
	prices := c.Fetch(context.Background(), []tradelog.Key{
		key("SPY", tradelog.Stock),
		key("SPY", tradelog.Option),
	})

	assert.Equal(t, 1, hits)
	require.Len(t, prices, 2)
	assert.True(t, prices[key("SPY", tradelog.Option)].Equal(tradelog.M(101.5, "USD")))
}

func TestClient_FetchBadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"price":"not a number"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/%s", "$.price", "USD", zerolog.Nop())
	prices := c.Fetch(context.Background(), []tradelog.Key{key("AAPL", tradelog.Stock)})
	assert.Empty(t, prices)
}

func TestStatic(t *testing.T) {
	s := Static{key("AAPL", tradelog.Stock): tradelog.M(150, "USD")}
	prices := s.Fetch(context.Background(), []tradelog.Key{
		key("AAPL", tradelog.Stock),
		key("MSFT", tradelog.Stock),
	})

	require.Len(t, prices, 1)
	assert.True(t, prices[key("AAPL", tradelog.Stock)].Equal(tradelog.M(150, "USD")))
}
