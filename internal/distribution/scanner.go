// Package distribution scans program accounts in bulk and reduces them to
// per-owner balance records: who stakes into a pool, or who holds a token.
package distribution

import (
	"bytes"
	"context"
	"fmt"
	"math"

	"github.com/mr-tron/base58"

	"raydium-farm-watch/internal/layout"
	"raydium-farm-watch/internal/solana"
)

// TokenProgramID owns all SPL token accounts.
const TokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

// Params describes one bulk scan: which program to read, how to decode each
// account, and which decoded fields carry the match key, owner and balance.
type Params struct {
	Program     string
	Schema      layout.Schema
	MatchField  string // 32-byte field compared to Match
	Match       string // base58 key every record must carry in MatchField
	OwnerField  string // 32-byte field holding the record owner
	AmountField string // uint64 field holding the atomic balance
	Decimals    int    // balance scale, amount / 10^Decimals
}

// Holding is one owner's share of a scanned distribution.
type Holding struct {
	Address string // record account address
	Owner   string
	Amount  float64 // scaled by 10^Decimals
	OnCurve bool    // owner is a wallet key rather than a derived address
}

// Record is the outcome of one scan. Holdings preserve the order the node
// returned records in; Skipped counts records dropped for decode failures.
type Record struct {
	Holdings []Holding
	Skipped  int
}

// Scan pushes a size filter and a byte-equality filter down to the node, then
// decodes every returned account. A record is included only if its decoded
// match field equals Match byte for byte and its balance is strictly
// positive. A record that fails to decode is skipped, never fatal.
func Scan(ctx context.Context, rpc solana.RPCClient, p Params) (*Record, error) {
	match, err := solana.DecodeKey(p.Match)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", p.Schema.Name(), err)
	}
	offset, ok := p.Schema.Offset(p.MatchField)
	if !ok {
		return nil, fmt.Errorf("scan %s: no field %q", p.Schema.Name(), p.MatchField)
	}

	accounts, err := rpc.GetProgramAccounts(ctx, p.Program, &solana.ProgramFilters{
		DataSize: p.Schema.Width(),
		Memcmp:   []solana.Memcmp{{Offset: offset, Bytes: p.Match}},
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", p.Schema.Name(), err)
	}

	scale := math.Pow(10, float64(p.Decimals))
	out := &Record{}
	for _, acc := range accounts {
		rec, err := p.Schema.Decode(acc.Data)
		if err != nil {
			out.Skipped++
			continue
		}
		// The node already filtered, but trust only our own byte comparison.
		if !bytes.Equal(rec.Bytes(p.MatchField), match) {
			continue
		}
		amount := rec.Uint64(p.AmountField)
		if amount == 0 {
			continue
		}
		owner := rec.Bytes(p.OwnerField)
		out.Holdings = append(out.Holdings, Holding{
			Address: acc.Pubkey,
			Owner:   base58.Encode(owner),
			Amount:  float64(amount) / scale,
			OnCurve: solana.IsOnCurve(owner),
		})
	}
	return out, nil
}

// StakeRecords scans a staking program for the stake-ownership records of one
// pool and reports each staker's deposited LP balance.
func StakeRecords(ctx context.Context, rpc solana.RPCClient, program, poolID string, lpDecimals int) (*Record, error) {
	return Scan(ctx, rpc, Params{
		Program:     program,
		Schema:      layout.UserStakeSchema,
		MatchField:  "pool_id",
		Match:       poolID,
		OwnerField:  "staker_owner",
		AmountField: "deposit_balance",
		Decimals:    lpDecimals,
	})
}

// TokenHolders scans the token program for all holder accounts of one mint.
func TokenHolders(ctx context.Context, rpc solana.RPCClient, mint string, decimals int) (*Record, error) {
	return Scan(ctx, rpc, Params{
		Program:     TokenProgramID,
		Schema:      layout.TokenHolderSchema,
		MatchField:  "mint",
		Match:       mint,
		OwnerField:  "owner",
		AmountField: "amount",
		Decimals:    decimals,
	})
}
