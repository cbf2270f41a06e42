package layout

import "math/big"

// Raydium stake program and Serum open-orders account layouts. Field order,
// widths and padding are wire-exact; changing any of them breaks decoding.

// StakePoolSchema is the single-reward (RAY yield farming) stake pool state.
var StakePoolSchema = MustSchema("stake_pool_state",
	Uint64("state"),
	Uint64("nonce"),
	Blob("pool_lp_token_account", 32),
	Blob("pool_reward_token_account", 32),
	Blob("owner", 32),
	Blob("fee_owner", 32),
	Uint64("fee_y"),
	Uint64("fee_x"),
	Uint64("total_reward"),
	Uint128("reward_per_share_net"),
	Uint64("last_block"),
	Uint64("reward_per_block"),
)

// StakePoolV4Schema is the fusion/dual-capable stake pool state: a superset of
// StakePoolSchema with a second reward token account, per-share counter and
// per-block counter, plus the dual-reward option byte.
var StakePoolV4Schema = MustSchema("stake_pool_state_v4",
	Uint64("state"),
	Uint64("nonce"),
	Blob("pool_lp_token_account", 32),
	Blob("pool_reward_token_account", 32),
	Uint64("total_reward"),
	Uint128("per_share"),
	Uint64("per_block"),
	Uint8("option"),
	Blob("pool_reward_token_account_b", 32),
	Padding(7), // realigns the B reward block to 8 bytes
	Uint64("total_reward_b"),
	Uint128("per_share_b"),
	Uint64("per_block_b"),
	Uint64("last_block"),
	Blob("owner", 32),
)

// OpenOrdersSchema is the Serum open-orders account tracking a pool's resting
// orders and locked/total balances.
var OpenOrdersSchema = MustSchema("open_orders",
	Padding(5),
	FlagSet("account_flags", 8,
		"initialized", "market", "open_orders", "request_queue", "event_queue", "bids", "asks"),
	Blob("market", 32),
	Blob("owner", 32),
	Uint64("base_token_free"),
	Uint64("base_token_total"),
	Uint64("quote_token_free"),
	Uint64("quote_token_total"),
	Blob("free_slot_bits", 16),
	Blob("is_bid_bits", 16),
	Blob("orders", 16*128),
	Blob("client_ids", 8*128),
	Uint64("referrer_rebate_accrued"),
	Padding(7),
)

// UserStakeSchema is the per-owner stake ledger record. The same layout backs
// both RAY single-sided staking and fusion/dual LP staking scans; which pool
// identifier is expected comes from the caller, not the schema.
var UserStakeSchema = MustSchema("user_stake_record",
	Uint64("state"),
	Blob("pool_id", 32),
	Blob("staker_owner", 32),
	Uint64("deposit_balance"),
	Uint64("reward_debt"),
)

// TokenHolderSchema is the SPL token account layout used for token-holder
// distribution scans.
var TokenHolderSchema = MustSchema("token_holder_record",
	Blob("mint", 32),
	Blob("owner", 32),
	Uint64("amount"),
	Padding(36), // COption<Pubkey> delegate
	Uint8("state"),
	Padding(12), // COption<u64> is_native
	Uint64("delegated_amount"),
	Padding(36), // COption<Pubkey> close_authority
)

// StakePool is a decoded single-reward stake pool state account.
type StakePool struct {
	State                  uint64
	Nonce                  uint64
	PoolLPTokenAccount     []byte
	PoolRewardTokenAccount []byte
	Owner                  []byte
	FeeOwner               []byte
	FeeY                   uint64
	FeeX                   uint64
	TotalReward            uint64
	RewardPerShareNet      *big.Int
	LastBlock              uint64
	RewardPerBlock         uint64
}

// ParseStakePool decodes a single-reward stake pool state account.
func ParseStakePool(buf []byte) (*StakePool, error) {
	rec, err := StakePoolSchema.Decode(buf)
	if err != nil {
		return nil, err
	}
	return &StakePool{
		State:                  rec.Uint64("state"),
		Nonce:                  rec.Uint64("nonce"),
		PoolLPTokenAccount:     rec.Bytes("pool_lp_token_account"),
		PoolRewardTokenAccount: rec.Bytes("pool_reward_token_account"),
		Owner:                  rec.Bytes("owner"),
		FeeOwner:               rec.Bytes("fee_owner"),
		FeeY:                   rec.Uint64("fee_y"),
		FeeX:                   rec.Uint64("fee_x"),
		TotalReward:            rec.Uint64("total_reward"),
		RewardPerShareNet:      rec.Uint128("reward_per_share_net"),
		LastBlock:              rec.Uint64("last_block"),
		RewardPerBlock:         rec.Uint64("reward_per_block"),
	}, nil
}

// StakePoolV4 is a decoded fusion/dual stake pool state account.
type StakePoolV4 struct {
	State                   uint64
	Nonce                   uint64
	PoolLPTokenAccount      []byte
	PoolRewardTokenAccount  []byte
	TotalReward             uint64
	PerShare                *big.Int
	PerBlock                uint64
	Option                  uint8
	PoolRewardTokenAccountB []byte
	TotalRewardB            uint64
	PerShareB               *big.Int
	PerBlockB               uint64
	LastBlock               uint64
	Owner                   []byte
}

// ParseStakePoolV4 decodes a fusion/dual stake pool state account.
func ParseStakePoolV4(buf []byte) (*StakePoolV4, error) {
	rec, err := StakePoolV4Schema.Decode(buf)
	if err != nil {
		return nil, err
	}
	return &StakePoolV4{
		State:                   rec.Uint64("state"),
		Nonce:                   rec.Uint64("nonce"),
		PoolLPTokenAccount:      rec.Bytes("pool_lp_token_account"),
		PoolRewardTokenAccount:  rec.Bytes("pool_reward_token_account"),
		TotalReward:             rec.Uint64("total_reward"),
		PerShare:                rec.Uint128("per_share"),
		PerBlock:                rec.Uint64("per_block"),
		Option:                  rec.Uint8("option"),
		PoolRewardTokenAccountB: rec.Bytes("pool_reward_token_account_b"),
		TotalRewardB:            rec.Uint64("total_reward_b"),
		PerShareB:               rec.Uint128("per_share_b"),
		PerBlockB:               rec.Uint64("per_block_b"),
		LastBlock:               rec.Uint64("last_block"),
		Owner:                   rec.Bytes("owner"),
	}, nil
}

// OpenOrders is a decoded Serum open-orders account. The raw base/quote
// counters are token-atomic-unit integers.
type OpenOrders struct {
	Flags                 Flags
	Market                []byte
	Owner                 []byte
	BaseTokenFree         uint64
	BaseTokenTotal        uint64
	QuoteTokenFree        uint64
	QuoteTokenTotal       uint64
	FreeSlotBits          []byte
	IsBidBits             []byte
	Orders                []byte
	ClientIDs             []byte
	ReferrerRebateAccrued uint64
}

// ParseOpenOrders decodes a Serum open-orders account.
func ParseOpenOrders(buf []byte) (*OpenOrders, error) {
	rec, err := OpenOrdersSchema.Decode(buf)
	if err != nil {
		return nil, err
	}
	return &OpenOrders{
		Flags:                 rec.FlagSet("account_flags"),
		Market:                rec.Bytes("market"),
		Owner:                 rec.Bytes("owner"),
		BaseTokenFree:         rec.Uint64("base_token_free"),
		BaseTokenTotal:        rec.Uint64("base_token_total"),
		QuoteTokenFree:        rec.Uint64("quote_token_free"),
		QuoteTokenTotal:       rec.Uint64("quote_token_total"),
		FreeSlotBits:          rec.Bytes("free_slot_bits"),
		IsBidBits:             rec.Bytes("is_bid_bits"),
		Orders:                rec.Bytes("orders"),
		ClientIDs:             rec.Bytes("client_ids"),
		ReferrerRebateAccrued: rec.Uint64("referrer_rebate_accrued"),
	}, nil
}

// UserStake is a decoded per-owner stake ledger record.
type UserStake struct {
	State          uint64
	PoolID         []byte
	StakerOwner    []byte
	DepositBalance uint64
	RewardDebt     uint64
}

// ParseUserStake decodes a user stake ledger record.
func ParseUserStake(buf []byte) (*UserStake, error) {
	rec, err := UserStakeSchema.Decode(buf)
	if err != nil {
		return nil, err
	}
	return &UserStake{
		State:          rec.Uint64("state"),
		PoolID:         rec.Bytes("pool_id"),
		StakerOwner:    rec.Bytes("staker_owner"),
		DepositBalance: rec.Uint64("deposit_balance"),
		RewardDebt:     rec.Uint64("reward_debt"),
	}, nil
}
