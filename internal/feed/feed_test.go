package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raydium-farm-watch/internal/catalog"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(
		map[string]catalog.Token{
			"RAY":  {Mint: "mintRAY", Decimals: 6},
			"USDT": {Mint: "mintUSDT", Decimals: 6},
		},
		map[string]catalog.LPToken{
			"RAY-USDT-V4": {Symbol: "RAY-USDT", Mint: "mintLP", Decimals: 6},
		},
		map[string]catalog.PoolAccounts{
			"RAY-USDT": {CoinAccount: "coinAcc", QuoteAccount: "quoteAcc", OpenOrders: "ooAcc"},
		},
		nil,
	)
	require.NoError(t, err)
	return cat
}

func feedServer(t *testing.T, prices, pairs string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/coin/price":
			w.Write([]byte(prices))
		case "/pairs":
			w.Write([]byte(pairs))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPrices(t *testing.T) {
	srv := feedServer(t, `{"RAY":3.25,"USDT":1.0}`, `[]`)

	prices, err := New(srv.URL).Prices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"RAY": 3.25, "USDT": 1.0}, prices)
}

func TestPoolFeeAPR(t *testing.T) {
	pairs := `[
		{"name":"RAY-USDT-V4","apy":12.5},
		{"name":"UNKNOWN-PAIR","apy":99.0},
		{"name":"RAY-USDT-V4-noyield","apy":null}
	]`
	srv := feedServer(t, `{}`, pairs)

	// Feed names translate to display symbols; percent becomes a fraction.
	fees, err := New(srv.URL).PoolFeeAPR(context.Background(), testCatalog(t))
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"RAY-USDT": 0.125}, fees)
}

func TestFeedErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Prices(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
