package metrics

import (
	"fmt"

	"raydium-farm-watch/internal/catalog"
	"raydium-farm-watch/internal/layout"
)

// blocksPerYear annualizes per-block rewards assuming the chain's fixed
// two-blocks-per-second production rate. The constant must be preserved
// exactly for numeric compatibility with the reward program.
const blocksPerYear = 2 * 86400 * 365

// RewardRate is one annualized reward stream of a farm.
type RewardRate struct {
	Symbol         string
	PerBlockAnnual float64 // annualized per-block emission, display units
	APR            float64
}

// FarmMetrics is PoolMetrics plus one or two annualized reward streams.
type FarmMetrics struct {
	PoolMetrics
	Farm            string
	StakedLP        float64
	StakedLiquidity float64
	Rewards         []RewardRate
	FeeAPR          *float64 // trading-fee APR from the pairs feed, when known
}

// ComputeFarm decodes the farm's stake pool state account and derives its
// annualized reward rate(s). The reward distribution variant is selected
// exhaustively from the farm's reward mode:
//
//   - single: the primary reward stream of the non-dual layout
//   - fusion: the secondary (B) stream of the dual-capable layout
//   - dual: both streams, computed independently
func ComputeFarm(pool catalog.Pool, farm catalog.Farm, pm *PoolMetrics, stakeData []byte, stakedLP float64) (*FarmMetrics, error) {
	staked := stakedLP * pm.LPSharePrice
	if staked <= 0 {
		return nil, fmt.Errorf("%w: farm %s has no staked liquidity", ErrDivisionUndefined, farm.Name)
	}

	fm := &FarmMetrics{
		PoolMetrics:     *pm,
		Farm:            farm.Name,
		StakedLP:        stakedLP,
		StakedLiquidity: staked,
	}

	switch farm.Mode {
	case catalog.RewardSingle:
		state, err := layout.ParseStakePool(stakeData)
		if err != nil {
			return nil, err
		}
		r, err := rewardRate(pool, pm, farm.Reward, state.RewardPerBlock, staked)
		if err != nil {
			return nil, err
		}
		fm.Rewards = []RewardRate{r}

	case catalog.RewardFusion:
		state, err := layout.ParseStakePoolV4(stakeData)
		if err != nil {
			return nil, err
		}
		r, err := rewardRate(pool, pm, farm.RewardB, state.PerBlockB, staked)
		if err != nil {
			return nil, err
		}
		fm.Rewards = []RewardRate{r}

	case catalog.RewardDual:
		state, err := layout.ParseStakePoolV4(stakeData)
		if err != nil {
			return nil, err
		}
		a, err := rewardRate(pool, pm, farm.Reward, state.PerBlock, staked)
		if err != nil {
			return nil, err
		}
		b, err := rewardRate(pool, pm, farm.RewardB, state.PerBlockB, staked)
		if err != nil {
			return nil, err
		}
		fm.Rewards = []RewardRate{a, b}

	default:
		return nil, fmt.Errorf("farm %s: unknown reward mode %d", farm.Name, farm.Mode)
	}

	return fm, nil
}

// rewardRate resolves the reward token against the pool pair by symbol
// equality (never by position) and annualizes its per-block emission.
func rewardRate(pool catalog.Pool, pm *PoolMetrics, symbol string, perBlock uint64, stakedLiquidity float64) (RewardRate, error) {
	var price float64
	var decimals int
	switch symbol {
	case pool.Coin:
		price, decimals = pm.CoinPrice, pool.CoinDecimals
	case pool.Quote:
		price, decimals = pm.QuotePrice, pool.QuoteDecimals
	default:
		return RewardRate{}, fmt.Errorf("%w: reward %s is neither %s nor %s",
			ErrPriceUnavailable, symbol, pool.Coin, pool.Quote)
	}

	annual := float64(perBlock) * blocksPerYear / pow10(decimals)
	return RewardRate{
		Symbol:         symbol,
		PerBlockAnnual: annual,
		APR:            annual * price / stakedLiquidity,
	}, nil
}
