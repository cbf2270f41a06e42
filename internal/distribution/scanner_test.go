package distribution

import (
	"bytes"
	"context"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raydium-farm-watch/internal/layout"
	"raydium-farm-watch/internal/solana"
	"raydium-farm-watch/internal/solana/stub"
)

const stakeProgram = "EhhTKczWMGQt46ynNeRX1WfeagwwJd7ufHvCDjRxjo5Q"

func key(b byte) string {
	return base58.Encode(bytes.Repeat([]byte{b}, 32))
}

func stakeRecord(t *testing.T, poolID, owner string, balance uint64) []byte {
	t.Helper()
	pool, err := base58.Decode(poolID)
	require.NoError(t, err)
	own, err := base58.Decode(owner)
	require.NoError(t, err)
	buf, err := layout.UserStakeSchema.Encode(layout.Record{
		"pool_id":         pool,
		"staker_owner":    own,
		"deposit_balance": balance,
	})
	require.NoError(t, err)
	return buf
}

func holderRecord(t *testing.T, mint, owner string, amount uint64) []byte {
	t.Helper()
	m, err := base58.Decode(mint)
	require.NoError(t, err)
	own, err := base58.Decode(owner)
	require.NoError(t, err)
	buf, err := layout.TokenHolderSchema.Encode(layout.Record{
		"mint":   m,
		"owner":  own,
		"amount": amount,
	})
	require.NoError(t, err)
	return buf
}

func TestStakeRecords(t *testing.T) {
	poolID := key(7)
	otherPool := key(8)

	rpc := stub.New()
	rpc.ProgramAccounts[stakeProgram] = []solana.KeyedAccount{
		{Pubkey: "rec1", Data: stakeRecord(t, poolID, key(1), 50_000_000)},
		{Pubkey: "rec2", Data: stakeRecord(t, poolID, key(2), 0)},
		{Pubkey: "rec3", Data: stakeRecord(t, otherPool, key(3), 10_000_000)},
		{Pubkey: "rec4", Data: stakeRecord(t, poolID, key(4), 7_500_000)},
	}

	rec, err := StakeRecords(context.Background(), rpc, stakeProgram, poolID, 6)
	require.NoError(t, err)

	// Zero balances and foreign pools drop out; input order is preserved.
	require.Len(t, rec.Holdings, 2)
	assert.Equal(t, "rec1", rec.Holdings[0].Address)
	assert.Equal(t, key(1), rec.Holdings[0].Owner)
	assert.Equal(t, 50.0, rec.Holdings[0].Amount)
	assert.Equal(t, "rec4", rec.Holdings[1].Address)
	assert.Equal(t, 7.5, rec.Holdings[1].Amount)
	assert.Equal(t, 0, rec.Skipped)
}

func TestStakeRecordsOwnerClassification(t *testing.T) {
	poolID := key(7)
	// A program ID from a real keypair sits on the curve; a program-derived
	// address does not.
	wallet := TokenProgramID
	derived := "5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1"

	rpc := stub.New()
	rpc.ProgramAccounts[stakeProgram] = []solana.KeyedAccount{
		{Pubkey: "rec1", Data: stakeRecord(t, poolID, wallet, 1_000_000)},
		{Pubkey: "rec2", Data: stakeRecord(t, poolID, derived, 1_000_000)},
	}

	rec, err := StakeRecords(context.Background(), rpc, stakeProgram, poolID, 6)
	require.NoError(t, err)
	require.Len(t, rec.Holdings, 2)
	assert.True(t, rec.Holdings[0].OnCurve)
	assert.False(t, rec.Holdings[1].OnCurve)
}

func TestTokenHolders(t *testing.T) {
	mint := key(9)
	otherMint := key(10)

	rpc := stub.New()
	rpc.ProgramAccounts[TokenProgramID] = []solana.KeyedAccount{
		{Pubkey: "acc1", Data: holderRecord(t, mint, key(1), 2_500_000_000)},
		{Pubkey: "acc2", Data: holderRecord(t, otherMint, key(2), 1)},
		{Pubkey: "acc3", Data: holderRecord(t, mint, key(3), 0)},
	}

	rec, err := TokenHolders(context.Background(), rpc, mint, 9)
	require.NoError(t, err)
	require.Len(t, rec.Holdings, 1)
	assert.Equal(t, key(1), rec.Holdings[0].Owner)
	assert.Equal(t, 2.5, rec.Holdings[0].Amount)
}

// rawRPC returns a fixed account list regardless of filters, standing in for
// a node that applied looser filtering than requested.
type rawRPC struct {
	accounts []solana.KeyedAccount
}

func (r rawRPC) GetTokenAccountBalance(context.Context, string) (*solana.TokenAmount, error) {
	return nil, nil
}

func (r rawRPC) GetTokenSupply(context.Context, string) (*solana.TokenAmount, error) {
	return nil, nil
}

func (r rawRPC) GetAccountInfo(context.Context, string) (*solana.AccountInfo, error) {
	return nil, nil
}

func (r rawRPC) GetProgramAccounts(context.Context, string, *solana.ProgramFilters) ([]solana.KeyedAccount, error) {
	return r.accounts, nil
}

func TestScanSkipsUndecodableRecords(t *testing.T) {
	poolID := key(7)
	rpc := rawRPC{accounts: []solana.KeyedAccount{
		{Pubkey: "bad", Data: make([]byte, 10)},
		{Pubkey: "good", Data: stakeRecord(t, poolID, key(1), 5_000_000)},
	}}

	rec, err := StakeRecords(context.Background(), rpc, stakeProgram, poolID, 6)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Skipped)
	require.Len(t, rec.Holdings, 1)
	assert.Equal(t, "good", rec.Holdings[0].Address)
}

func TestScanRechecksMatchBytes(t *testing.T) {
	poolID := key(7)
	rpc := rawRPC{accounts: []solana.KeyedAccount{
		{Pubkey: "foreign", Data: stakeRecord(t, key(8), key(1), 5_000_000)},
	}}

	rec, err := StakeRecords(context.Background(), rpc, stakeProgram, poolID, 6)
	require.NoError(t, err)
	assert.Empty(t, rec.Holdings)
	assert.Equal(t, 0, rec.Skipped)
}

func TestScanRejectsBadParams(t *testing.T) {
	_, err := Scan(context.Background(), stub.New(), Params{
		Program:    stakeProgram,
		Schema:     layout.UserStakeSchema,
		MatchField: "pool_id",
		Match:      "tooShort",
	})
	assert.Error(t, err)

	_, err = Scan(context.Background(), stub.New(), Params{
		Program:    stakeProgram,
		Schema:     layout.UserStakeSchema,
		MatchField: "no_such_field",
		Match:      key(7),
	})
	assert.Error(t, err)
}
