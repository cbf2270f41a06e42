// Package metrics derives pool liquidity and farm reward metrics from decoded
// on-chain accounts and price data.
package metrics

import (
	"fmt"
	"math"

	"raydium-farm-watch/internal/catalog"
	"raydium-farm-watch/internal/layout"
)

// Balances carries the display-unit balances fetched for one pool.
type Balances struct {
	Coin     float64 // coin reserve account balance
	Quote    float64 // quote reserve account balance
	LPSupply float64 // LP mint total supply
}

// PoolMetrics is the derived liquidity record for one pool.
type PoolMetrics struct {
	Pool         string
	Coin         string
	Quote        string
	CoinPrice    float64
	QuotePrice   float64
	CoinAmount   float64 // reserve balance plus order-book base total
	QuoteAmount  float64 // reserve balance plus order-book quote total
	LPSupply     float64
	Liquidity    float64 // CoinAmount*CoinPrice + QuoteAmount*QuotePrice
	LPSharePrice float64 // Liquidity / LPSupply
}

// ComputePool derives reserve totals, USD liquidity and LP share price.
//
// The order book's base/quote "total" counters are token-atomic-unit integers
// regardless of the account's own display scaling; they are divided by the
// pool's coin/quote token decimals.
func ComputePool(pool catalog.Pool, bal Balances, book *layout.OpenOrders, prices map[string]float64) (*PoolMetrics, error) {
	coinPrice, ok := prices[pool.Coin]
	if !ok {
		return nil, fmt.Errorf("%w: no price for %s", ErrPriceUnavailable, pool.Coin)
	}
	quotePrice, ok := prices[pool.Quote]
	if !ok {
		return nil, fmt.Errorf("%w: no price for %s", ErrPriceUnavailable, pool.Quote)
	}

	coinAmount := bal.Coin + float64(book.BaseTokenTotal)/pow10(pool.CoinDecimals)
	quoteAmount := bal.Quote + float64(book.QuoteTokenTotal)/pow10(pool.QuoteDecimals)
	liquidity := coinAmount*coinPrice + quoteAmount*quotePrice

	if bal.LPSupply == 0 {
		return nil, fmt.Errorf("%w: pool %s has zero LP supply", ErrDivisionUndefined, pool.Symbol)
	}

	return &PoolMetrics{
		Pool:         pool.Symbol,
		Coin:         pool.Coin,
		Quote:        pool.Quote,
		CoinPrice:    coinPrice,
		QuotePrice:   quotePrice,
		CoinAmount:   coinAmount,
		QuoteAmount:  quoteAmount,
		LPSupply:     bal.LPSupply,
		Liquidity:    liquidity,
		LPSharePrice: liquidity / bal.LPSupply,
	}, nil
}

func pow10(n int) float64 {
	return math.Pow(10, float64(n))
}
