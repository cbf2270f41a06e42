// Package stub provides an in-memory RPCClient for tests.
package stub

import (
	"context"
	"fmt"
	"sync"

	"github.com/mr-tron/base58"

	"raydium-farm-watch/internal/solana"
)

// Client is an in-memory solana.RPCClient. Populate the maps, or set Err to
// fail every call.
type Client struct {
	mu sync.Mutex

	// Balances maps token account pubkey to its scaled balance.
	Balances map[string]*solana.TokenAmount
	// Supplies maps mint pubkey to its scaled supply.
	Supplies map[string]*solana.TokenAmount
	// Accounts maps pubkey to raw account data.
	Accounts map[string][]byte
	// ProgramAccounts maps program pubkey to its owned accounts. Filters are
	// applied to the stored set the way a node would.
	ProgramAccounts map[string][]solana.KeyedAccount

	// Err, when set, is returned by every call.
	Err error

	// Calls counts invocations per method name.
	Calls map[string]int
}

// New returns an empty stub client.
func New() *Client {
	return &Client{
		Balances:        make(map[string]*solana.TokenAmount),
		Supplies:        make(map[string]*solana.TokenAmount),
		Accounts:        make(map[string][]byte),
		ProgramAccounts: make(map[string][]solana.KeyedAccount),
		Calls:           make(map[string]int),
	}
}

func (c *Client) record(method string) {
	c.mu.Lock()
	c.Calls[method]++
	c.mu.Unlock()
}

func (c *Client) GetTokenAccountBalance(ctx context.Context, pubkey string) (*solana.TokenAmount, error) {
	c.record("getTokenAccountBalance")
	if c.Err != nil {
		return nil, c.Err
	}
	amt, ok := c.Balances[pubkey]
	if !ok {
		return nil, fmt.Errorf("token account %s: not found", pubkey)
	}
	return amt, nil
}

func (c *Client) GetTokenSupply(ctx context.Context, pubkey string) (*solana.TokenAmount, error) {
	c.record("getTokenSupply")
	if c.Err != nil {
		return nil, c.Err
	}
	amt, ok := c.Supplies[pubkey]
	if !ok {
		return nil, fmt.Errorf("token mint %s: not found", pubkey)
	}
	return amt, nil
}

func (c *Client) GetAccountInfo(ctx context.Context, pubkey string) (*solana.AccountInfo, error) {
	c.record("getAccountInfo")
	if c.Err != nil {
		return nil, c.Err
	}
	data, ok := c.Accounts[pubkey]
	if !ok {
		return nil, nil
	}
	return &solana.AccountInfo{Data: data}, nil
}

func (c *Client) GetProgramAccounts(ctx context.Context, program string, filters *solana.ProgramFilters) ([]solana.KeyedAccount, error) {
	c.record("getProgramAccounts")
	if c.Err != nil {
		return nil, c.Err
	}
	var out []solana.KeyedAccount
	for _, acc := range c.ProgramAccounts[program] {
		if matches(acc.Data, filters) {
			out = append(out, acc)
		}
	}
	return out, nil
}

func matches(data []byte, filters *solana.ProgramFilters) bool {
	if filters == nil {
		return true
	}
	if filters.DataSize > 0 && len(data) != filters.DataSize {
		return false
	}
	for _, m := range filters.Memcmp {
		want, err := base58.Decode(m.Bytes)
		if err != nil {
			return false
		}
		if m.Offset+len(want) > len(data) {
			return false
		}
		for i, b := range want {
			if data[m.Offset+i] != b {
				return false
			}
		}
	}
	return true
}
