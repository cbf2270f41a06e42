package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raydium-farm-watch/internal/catalog"
	"raydium-farm-watch/internal/layout"
)

func singleStakeData(t *testing.T, rewardPerBlock uint64) []byte {
	t.Helper()
	buf, err := layout.StakePoolSchema.Encode(layout.Record{
		"reward_per_block": rewardPerBlock,
	})
	require.NoError(t, err)
	return buf
}

func v4StakeData(t *testing.T, perBlock, perBlockB uint64) []byte {
	t.Helper()
	buf, err := layout.StakePoolV4Schema.Encode(layout.Record{
		"per_block":   perBlock,
		"per_block_b": perBlockB,
	})
	require.NoError(t, err)
	return buf
}

func testPoolMetrics() *PoolMetrics {
	return &PoolMetrics{
		Pool:         "RAY-USDT",
		Coin:         "RAY",
		Quote:        "USDT",
		CoinPrice:    1.0,
		QuotePrice:   1.0,
		LPSharePrice: 25.0,
	}
}

func TestComputeFarmSingle(t *testing.T) {
	farm := catalog.Farm{Name: "RAY-USDT", Mode: catalog.RewardSingle, Reward: "RAY"}

	// per-block reward 10 atomic units at 6 decimals, staked 50 LP at share
	// price 25 -> staked liquidity 1250.
	fm, err := ComputeFarm(testPool(), farm, testPoolMetrics(), singleStakeData(t, 10), 50)
	require.NoError(t, err)

	require.Len(t, fm.Rewards, 1)
	r := fm.Rewards[0]
	assert.Equal(t, "RAY", r.Symbol)
	assert.InDelta(t, 630.72, r.PerBlockAnnual, 1e-9) // 10 * 2*86400*365 / 10^6
	assert.InDelta(t, 0.504576, r.APR, 1e-12)
	assert.Equal(t, 1250.0, fm.StakedLiquidity)
}

func TestComputeFarmFusionUsesSecondaryStream(t *testing.T) {
	farm := catalog.Farm{Name: "RAY-USDT", Mode: catalog.RewardFusion, Reward: "RAY", RewardB: "USDT"}

	// per_block (A stream) must be ignored by fusion farms.
	fm, err := ComputeFarm(testPool(), farm, testPoolMetrics(), v4StakeData(t, 999_999, 10), 50)
	require.NoError(t, err)

	require.Len(t, fm.Rewards, 1)
	r := fm.Rewards[0]
	assert.Equal(t, "USDT", r.Symbol)
	assert.InDelta(t, 630.72, r.PerBlockAnnual, 1e-9)
	assert.InDelta(t, 0.504576, r.APR, 1e-12)
}

func TestComputeFarmDualResolvesRewardsBySymbol(t *testing.T) {
	// RewardB matches the pool coin: stream B must use coin price/decimals and
	// stream A quote price/decimals, regardless of declaration order.
	pool := testPool()
	pool.QuoteDecimals = 9
	pm := testPoolMetrics()
	pm.CoinPrice = 3.0
	pm.QuotePrice = 1.0

	farm := catalog.Farm{Name: "RAY-USDT", Mode: catalog.RewardDual, Reward: "USDT", RewardB: "RAY"}

	fm, err := ComputeFarm(pool, farm, pm, v4StakeData(t, 1_000_000_000, 10), 50)
	require.NoError(t, err)
	require.Len(t, fm.Rewards, 2)

	a, b := fm.Rewards[0], fm.Rewards[1]
	assert.Equal(t, "USDT", a.Symbol)
	assert.InDelta(t, 63072000.0, a.PerBlockAnnual, 1e-6) // 10^9 * 63072000 / 10^9
	assert.InDelta(t, 63072000.0*1.0/1250.0, a.APR, 1e-9)

	assert.Equal(t, "RAY", b.Symbol)
	assert.InDelta(t, 630.72, b.PerBlockAnnual, 1e-9)
	assert.InDelta(t, 630.72*3.0/1250.0, b.APR, 1e-12)
}

func TestComputeFarmZeroStakedLiquidity(t *testing.T) {
	farm := catalog.Farm{Name: "RAY-USDT", Mode: catalog.RewardSingle, Reward: "RAY"}

	fm, err := ComputeFarm(testPool(), farm, testPoolMetrics(), singleStakeData(t, 10), 0)
	assert.ErrorIs(t, err, ErrDivisionUndefined)
	assert.Nil(t, fm)
}

func TestComputeFarmRewardOutsidePair(t *testing.T) {
	farm := catalog.Farm{Name: "RAY-USDT", Mode: catalog.RewardSingle, Reward: "SRM"}

	_, err := ComputeFarm(testPool(), farm, testPoolMetrics(), singleStakeData(t, 10), 50)
	assert.ErrorIs(t, err, ErrPriceUnavailable)
}

func TestComputeFarmShortStakeAccount(t *testing.T) {
	farm := catalog.Farm{Name: "RAY-USDT", Mode: catalog.RewardDual, Reward: "RAY", RewardB: "USDT"}

	// A dual farm must decode the V4 layout; the 200-byte non-dual account is
	// too short for it.
	_, err := ComputeFarm(testPool(), farm, testPoolMetrics(), make([]byte, 200), 50)
	assert.ErrorIs(t, err, layout.ErrSchemaMismatch)
}
