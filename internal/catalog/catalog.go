// Package catalog holds the static reference data joined at startup: token
// metadata, liquidity pool topology and farm configuration. A Catalog is
// immutable after construction and safe for concurrent reads.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrReferenceIntegrity is returned when the static configuration is
// internally inconsistent. It aborts startup.
var ErrReferenceIntegrity = errors.New("reference data integrity")

// RewardMode selects a farm's reward distribution variant.
type RewardMode int

const (
	// RewardSingle is the plain RAY yield farming variant with one reward stream.
	RewardSingle RewardMode = iota
	// RewardFusion distributes only the secondary (B) reward stream.
	RewardFusion
	// RewardDual distributes both reward streams independently.
	RewardDual
)

func (m RewardMode) String() string {
	switch m {
	case RewardSingle:
		return "single"
	case RewardFusion:
		return "fusion"
	case RewardDual:
		return "dual"
	default:
		return "unknown"
	}
}

// Token is one entry of the token table.
type Token struct {
	Symbol   string
	Mint     string
	Decimals int
}

// LPToken is one entry of the LP token table, keyed externally by pool key.
type LPToken struct {
	Symbol   string // display symbol, e.g. "RAY-USDT"
	Mint     string
	Decimals int
}

// PoolAccounts lists the on-chain accounts backing one pool, keyed by symbol.
type PoolAccounts struct {
	CoinAccount  string // coin reserve token account
	QuoteAccount string // quote reserve token account
	OpenOrders   string // order-book (open orders) account
}

// Pool is the joined topology for one liquidity pool.
type Pool struct {
	Symbol        string
	Coin          string
	Quote         string
	CoinDecimals  int
	QuoteDecimals int
	LPDecimals    int
	LPMint        string
	CoinAccount   string
	QuoteAccount  string
	OpenOrders    string
}

// Farm describes one staking program instance. The farm name doubles as the
// pool symbol whose LP token is staked.
type Farm struct {
	Name            string
	Mode            RewardMode
	Reward          string // primary reward symbol
	RewardB         string // secondary reward symbol, fusion/dual only
	StakePoolID     string // staking pool state account
	StakedLPAccount string // account holding the staked LP total
}

// Catalog is built once at startup and shared read-only afterwards.
type Catalog struct {
	tokens  map[string]Token
	pools   map[string]Pool
	farms   map[string]Farm
	display map[string]string // LP table key -> pool display symbol
}

// New joins the four static collections into a catalog. It fails with
// ErrReferenceIntegrity when a pool symbol does not split into exactly two
// known token symbols, when a pool has no account details, or when a farm
// references an unknown pool.
func New(tokens map[string]Token, lpTokens map[string]LPToken, accounts map[string]PoolAccounts, farms map[string]Farm) (*Catalog, error) {
	c := &Catalog{
		tokens:  make(map[string]Token, len(tokens)),
		pools:   make(map[string]Pool, len(lpTokens)),
		farms:   make(map[string]Farm, len(farms)),
		display: make(map[string]string, len(lpTokens)),
	}

	for sym, t := range tokens {
		t.Symbol = sym
		c.tokens[sym] = t
	}

	for poolKey, lp := range lpTokens {
		coin, quote, err := splitSymbol(lp.Symbol)
		if err != nil {
			return nil, err
		}
		coinTok, ok := c.tokens[coin]
		if !ok {
			return nil, fmt.Errorf("%w: pool %s references unknown token %s", ErrReferenceIntegrity, lp.Symbol, coin)
		}
		quoteTok, ok := c.tokens[quote]
		if !ok {
			return nil, fmt.Errorf("%w: pool %s references unknown token %s", ErrReferenceIntegrity, lp.Symbol, quote)
		}
		acc, ok := accounts[lp.Symbol]
		if !ok {
			return nil, fmt.Errorf("%w: pool %s has no account details", ErrReferenceIntegrity, lp.Symbol)
		}
		c.pools[lp.Symbol] = Pool{
			Symbol:        lp.Symbol,
			Coin:          coin,
			Quote:         quote,
			CoinDecimals:  coinTok.Decimals,
			QuoteDecimals: quoteTok.Decimals,
			LPDecimals:    lp.Decimals,
			LPMint:        lp.Mint,
			CoinAccount:   acc.CoinAccount,
			QuoteAccount:  acc.QuoteAccount,
			OpenOrders:    acc.OpenOrders,
		}
		c.display[poolKey] = lp.Symbol
	}

	for name, f := range farms {
		f.Name = name
		if _, ok := c.pools[name]; !ok {
			return nil, fmt.Errorf("%w: farm %s references unknown pool", ErrReferenceIntegrity, name)
		}
		if f.Mode != RewardSingle && f.RewardB == "" {
			return nil, fmt.Errorf("%w: %s farm %s needs a secondary reward symbol", ErrReferenceIntegrity, f.Mode, name)
		}
		c.farms[name] = f
	}

	return c, nil
}

func splitSymbol(symbol string) (coin, quote string, err error) {
	parts := strings.Split(symbol, "-")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: pool symbol %q must be COIN-QUOTE", ErrReferenceIntegrity, symbol)
	}
	return parts[0], parts[1], nil
}

// Token looks up token metadata by symbol.
func (c *Catalog) Token(symbol string) (Token, bool) {
	t, ok := c.tokens[symbol]
	return t, ok
}

// Pool looks up pool topology by display symbol.
func (c *Catalog) Pool(symbol string) (Pool, bool) {
	p, ok := c.pools[symbol]
	return p, ok
}

// Farm looks up a farm by name.
func (c *Catalog) Farm(name string) (Farm, bool) {
	f, ok := c.farms[name]
	return f, ok
}

// Farms returns all farms sorted by name.
func (c *Catalog) Farms() []Farm {
	out := make([]Farm, 0, len(c.farms))
	for _, f := range c.farms {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Pools returns all pools sorted by symbol.
func (c *Catalog) Pools() []Pool {
	out := make([]Pool, 0, len(c.pools))
	for _, p := range c.pools {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// DisplaySymbol translates an LP table key (as used by the pairs feed) to the
// pool display symbol.
func (c *Catalog) DisplaySymbol(poolKey string) (string, bool) {
	s, ok := c.display[poolKey]
	return s, ok
}
