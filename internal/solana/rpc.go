// Package solana provides the JSON-RPC and WebSocket clients used to query
// the ledger, plus small public-key helpers.
package solana

import "context"

// RPCClient defines the ledger query interface the engines consume.
type RPCClient interface {
	// GetTokenAccountBalance returns the scaled balance of a token account.
	GetTokenAccountBalance(ctx context.Context, pubkey string) (*TokenAmount, error)

	// GetTokenSupply returns the scaled total supply of a token mint.
	GetTokenSupply(ctx context.Context, pubkey string) (*TokenAmount, error)

	// GetAccountInfo returns raw account bytes plus metadata, or nil if the
	// account does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetProgramAccounts returns all accounts owned by a program matching the
	// optional size and byte-equality filters.
	GetProgramAccounts(ctx context.Context, program string, filters *ProgramFilters) ([]KeyedAccount, error)
}

// TokenAmount is a scaled token balance or supply.
type TokenAmount struct {
	Amount   string // atomic units, as returned by the node
	Decimals int
	UIAmount float64 // display units
}

// AccountInfo is raw account state.
type AccountInfo struct {
	Lamports   uint64
	Owner      string
	Data       []byte
	Executable bool
	RentEpoch  uint64
}

// KeyedAccount pairs an account address with its raw bytes.
type KeyedAccount struct {
	Pubkey string
	Data   []byte
}

// Memcmp is a byte-equality filter at an offset into account data. Bytes is
// base58 encoded.
type Memcmp struct {
	Offset int
	Bytes  string
}

// ProgramFilters narrows a program account scan.
type ProgramFilters struct {
	DataSize int // exact account size in bytes; 0 disables the filter
	Memcmp   []Memcmp
}
