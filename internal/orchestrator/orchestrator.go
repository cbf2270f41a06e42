// Package orchestrator coordinates the remote fetch fan-out and feeds the
// decoded results through the metrics engines. For one farm it issues every
// independent fetch concurrently and joins before computing; across farms each
// computation runs isolated, so one farm's failure never aborts the batch.
package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"raydium-farm-watch/internal/catalog"
	"raydium-farm-watch/internal/distribution"
	"raydium-farm-watch/internal/feed"
	"raydium-farm-watch/internal/layout"
	"raydium-farm-watch/internal/metrics"
	"raydium-farm-watch/internal/solana"
)

// PriceSource provides symbol prices and per-pool fee yields.
type PriceSource interface {
	Prices(ctx context.Context) (map[string]float64, error)
	PoolFeeAPR(ctx context.Context, cat *catalog.Catalog) (map[string]float64, error)
}

var _ PriceSource = (*feed.Client)(nil)

// Orchestrator owns the clients and catalog shared by all computations.
type Orchestrator struct {
	rpc    solana.RPCClient
	prices PriceSource
	cat    *catalog.Catalog
	log    *zap.Logger
}

// Options for creating an Orchestrator.
type Options struct {
	RPC     solana.RPCClient
	Prices  PriceSource
	Catalog *catalog.Catalog
	Logger  *zap.Logger
}

// New creates an Orchestrator. Logger defaults to a no-op logger.
func New(opts Options) *Orchestrator {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		rpc:    opts.RPC,
		prices: opts.Prices,
		cat:    opts.Catalog,
		log:    log,
	}
}

// poolInputs is everything fetched for one pool computation.
type poolInputs struct {
	balances metrics.Balances
	book     *layout.OpenOrders
}

// fetchPoolInputs issues the pool's four independent fetches concurrently.
func (o *Orchestrator) fetchPoolInputs(ctx context.Context, pool catalog.Pool) (*poolInputs, error) {
	in := &poolInputs{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		amt, err := o.rpc.GetTokenAccountBalance(ctx, pool.CoinAccount)
		if err != nil {
			return fmt.Errorf("coin reserve %s: %w", pool.CoinAccount, err)
		}
		in.balances.Coin = amt.UIAmount
		return nil
	})
	g.Go(func() error {
		amt, err := o.rpc.GetTokenAccountBalance(ctx, pool.QuoteAccount)
		if err != nil {
			return fmt.Errorf("quote reserve %s: %w", pool.QuoteAccount, err)
		}
		in.balances.Quote = amt.UIAmount
		return nil
	})
	g.Go(func() error {
		amt, err := o.rpc.GetTokenSupply(ctx, pool.LPMint)
		if err != nil {
			return fmt.Errorf("lp supply %s: %w", pool.LPMint, err)
		}
		in.balances.LPSupply = amt.UIAmount
		return nil
	})
	g.Go(func() error {
		info, err := o.rpc.GetAccountInfo(ctx, pool.OpenOrders)
		if err != nil {
			return fmt.Errorf("order book %s: %w", pool.OpenOrders, err)
		}
		if info == nil {
			return fmt.Errorf("order book %s: account not found", pool.OpenOrders)
		}
		book, err := layout.ParseOpenOrders(info.Data)
		if err != nil {
			return fmt.Errorf("order book %s: %w", pool.OpenOrders, err)
		}
		in.book = book
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return in, nil
}

// PoolMetrics fetches and derives the liquidity record for one pool.
func (o *Orchestrator) PoolMetrics(ctx context.Context, symbol string) (*metrics.PoolMetrics, error) {
	pool, ok := o.cat.Pool(symbol)
	if !ok {
		return nil, fmt.Errorf("unknown pool %s", symbol)
	}

	var in *poolInputs
	var prices map[string]float64

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		in, err = o.fetchPoolInputs(ctx, pool)
		return err
	})
	g.Go(func() error {
		var err error
		prices, err = o.prices.Prices(ctx)
		if err != nil {
			return fmt.Errorf("price feed: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return metrics.ComputePool(pool, in.balances, in.book, prices)
}

// farmMetrics computes one farm against already-fetched prices and fee yields.
func (o *Orchestrator) farmMetrics(ctx context.Context, farm catalog.Farm, prices, fees map[string]float64) (*metrics.FarmMetrics, error) {
	pool, ok := o.cat.Pool(farm.Name)
	if !ok {
		return nil, fmt.Errorf("farm %s: unknown pool", farm.Name)
	}

	var in *poolInputs
	var stakedLP float64
	var stakeData []byte

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		in, err = o.fetchPoolInputs(ctx, pool)
		return err
	})
	g.Go(func() error {
		amt, err := o.rpc.GetTokenAccountBalance(ctx, farm.StakedLPAccount)
		if err != nil {
			return fmt.Errorf("staked lp %s: %w", farm.StakedLPAccount, err)
		}
		stakedLP = amt.UIAmount
		return nil
	})
	g.Go(func() error {
		info, err := o.rpc.GetAccountInfo(ctx, farm.StakePoolID)
		if err != nil {
			return fmt.Errorf("stake pool %s: %w", farm.StakePoolID, err)
		}
		if info == nil {
			return fmt.Errorf("stake pool %s: account not found", farm.StakePoolID)
		}
		stakeData = info.Data
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pm, err := metrics.ComputePool(pool, in.balances, in.book, prices)
	if err != nil {
		return nil, err
	}
	fm, err := metrics.ComputeFarm(pool, farm, pm, stakeData, stakedLP)
	if err != nil {
		return nil, err
	}
	if fee, ok := fees[farm.Name]; ok {
		fm.FeeAPR = &fee
	}
	return fm, nil
}

// FarmMetrics fetches and derives the reward record for one farm.
func (o *Orchestrator) FarmMetrics(ctx context.Context, name string) (*metrics.FarmMetrics, error) {
	farm, ok := o.cat.Farm(name)
	if !ok {
		return nil, fmt.Errorf("unknown farm %s", name)
	}

	prices, fees, err := o.fetchFeeds(ctx)
	if err != nil {
		return nil, err
	}
	return o.farmMetrics(ctx, farm, prices, fees)
}

// FarmOutcome is one farm's result in a batch: metrics or a tagged failure.
type FarmOutcome struct {
	Farm    string
	Metrics *metrics.FarmMetrics
	Err     error
}

// AllFarms computes every catalog farm concurrently. The price and fee feeds
// are fetched once and shared; each farm's outcome is collected independently,
// in catalog order.
func (o *Orchestrator) AllFarms(ctx context.Context) ([]FarmOutcome, error) {
	prices, fees, err := o.fetchFeeds(ctx)
	if err != nil {
		return nil, err
	}

	farms := o.cat.Farms()
	outcomes := make([]FarmOutcome, len(farms))

	var wg sync.WaitGroup
	for i, farm := range farms {
		i, farm := i, farm
		wg.Add(1)
		go func() {
			defer wg.Done()
			fm, err := o.farmMetrics(ctx, farm, prices, fees)
			outcomes[i] = FarmOutcome{Farm: farm.Name, Metrics: fm, Err: err}
			if err != nil {
				o.log.Warn("farm computation failed",
					zap.String("farm", farm.Name),
					zap.Error(err))
			}
		}()
	}
	wg.Wait()

	return outcomes, nil
}

// fetchFeeds gets prices and fee yields concurrently. A fee feed failure is
// not fatal: fee APR is an optional enrichment.
func (o *Orchestrator) fetchFeeds(ctx context.Context) (prices, fees map[string]float64, err error) {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		prices, err = o.prices.Prices(ctx)
		if err != nil {
			return fmt.Errorf("price feed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		fees, err = o.prices.PoolFeeAPR(ctx, o.cat)
		if err != nil {
			o.log.Warn("fee feed unavailable", zap.Error(err))
			fees = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return prices, fees, nil
}

// StakeDistribution scans the staking program for every staker of one pool.
// The symbol names what is staked and fixes the balance scale: a token symbol
// uses the token's decimals (single-sided staking), a pool symbol uses the
// pool's LP token decimals (fusion/dual LP staking). For a pool symbol an
// empty poolID defaults to the farm's stake pool state account.
func (o *Orchestrator) StakeDistribution(ctx context.Context, program, poolID, symbol string) (*distribution.Record, error) {
	var decimals int
	if tok, ok := o.cat.Token(symbol); ok {
		decimals = tok.Decimals
	} else if pool, ok := o.cat.Pool(symbol); ok {
		decimals = pool.LPDecimals
		if poolID == "" {
			if farm, ok := o.cat.Farm(symbol); ok {
				poolID = farm.StakePoolID
			}
		}
	} else {
		return nil, fmt.Errorf("unknown token or pool %s", symbol)
	}
	if poolID == "" {
		return nil, fmt.Errorf("no staking pool ID for %s", symbol)
	}
	return distribution.StakeRecords(ctx, o.rpc, program, poolID, decimals)
}

// TokenDistribution scans all holder accounts of one token's mint.
func (o *Orchestrator) TokenDistribution(ctx context.Context, symbol string) (*distribution.Record, error) {
	tok, ok := o.cat.Token(symbol)
	if !ok {
		return nil, fmt.Errorf("unknown token %s", symbol)
	}
	return distribution.TokenHolders(ctx, o.rpc, tok.Mint, tok.Decimals)
}
