package config

import (
	"encoding/json"
	"fmt"
	"os"

	"raydium-farm-watch/internal/catalog"
)

// Static JSON resource shapes. Each file holds one object keyed by symbol,
// pool key or farm name.

type tokenEntry struct {
	Mint     string `json:"mint"`
	Decimals int    `json:"decimals"`
}

type lpTokenEntry struct {
	Symbol   string `json:"symbol"`
	Mint     string `json:"mint"`
	Decimals int    `json:"decimals"`
}

type poolAccountsEntry struct {
	CoinAccount  string `json:"coin_account"`
	QuoteAccount string `json:"quote_account"`
	OpenOrders   string `json:"open_orders"`
}

type farmEntry struct {
	Fusion          bool   `json:"fusion"`
	Dual            bool   `json:"dual"`
	Reward          string `json:"reward"`
	RewardB         string `json:"reward_b"`
	StakePoolID     string `json:"stake_pool_id"`
	StakedLPAccount string `json:"staked_lp_account"`
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read resource: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse resource %s: %w", path, err)
	}
	return nil
}

// LoadTokens reads the token table.
func LoadTokens(path string) (map[string]catalog.Token, error) {
	var raw map[string]tokenEntry
	if err := readJSON(path, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]catalog.Token, len(raw))
	for sym, e := range raw {
		out[sym] = catalog.Token{Symbol: sym, Mint: e.Mint, Decimals: e.Decimals}
	}
	return out, nil
}

// LoadLPTokens reads the LP token table keyed by feed-side pool key.
func LoadLPTokens(path string) (map[string]catalog.LPToken, error) {
	var raw map[string]lpTokenEntry
	if err := readJSON(path, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]catalog.LPToken, len(raw))
	for key, e := range raw {
		out[key] = catalog.LPToken{Symbol: e.Symbol, Mint: e.Mint, Decimals: e.Decimals}
	}
	return out, nil
}

// LoadPoolAccounts reads the per-pool account details keyed by display symbol.
func LoadPoolAccounts(path string) (map[string]catalog.PoolAccounts, error) {
	var raw map[string]poolAccountsEntry
	if err := readJSON(path, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]catalog.PoolAccounts, len(raw))
	for sym, e := range raw {
		out[sym] = catalog.PoolAccounts{
			CoinAccount:  e.CoinAccount,
			QuoteAccount: e.QuoteAccount,
			OpenOrders:   e.OpenOrders,
		}
	}
	return out, nil
}

// LoadFarms reads the farm table. The fusion/dual flag pair collapses to one
// reward mode; dual wins when both are set since a dual farm is also flagged
// as fusion upstream.
func LoadFarms(path string) (map[string]catalog.Farm, error) {
	var raw map[string]farmEntry
	if err := readJSON(path, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]catalog.Farm, len(raw))
	for name, e := range raw {
		mode := catalog.RewardSingle
		switch {
		case e.Dual:
			mode = catalog.RewardDual
		case e.Fusion:
			mode = catalog.RewardFusion
		}
		out[name] = catalog.Farm{
			Name:            name,
			Mode:            mode,
			Reward:          e.Reward,
			RewardB:         e.RewardB,
			StakePoolID:     e.StakePoolID,
			StakedLPAccount: e.StakedLPAccount,
		}
	}
	return out, nil
}

// LoadCatalog reads all four resources and joins them.
func LoadCatalog(res ResourcesConfig) (*catalog.Catalog, error) {
	tokens, err := LoadTokens(res.Tokens)
	if err != nil {
		return nil, err
	}
	lpTokens, err := LoadLPTokens(res.LPTokens)
	if err != nil {
		return nil, err
	}
	accounts, err := LoadPoolAccounts(res.PoolAccounts)
	if err != nil {
		return nil, err
	}
	farms, err := LoadFarms(res.Farms)
	if err != nil {
		return nil, err
	}
	return catalog.New(tokens, lpTokens, accounts, farms)
}
