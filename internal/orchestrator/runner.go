package orchestrator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"raydium-farm-watch/internal/solana"
)

// AccountWatcher delivers account-change notifications for watched keys.
type AccountWatcher interface {
	WatchAccount(ctx context.Context, pubkey string) error
	Updates() <-chan solana.AccountUpdate
}

var _ AccountWatcher = (*solana.WSClient)(nil)

// Runner schedules periodic batch computations. Each tick supersedes the
// previous one: in-flight work for a stale tick is canceled and its results
// dropped, never merged with the new tick's.
type Runner struct {
	orc      *Orchestrator
	interval time.Duration
	watcher  AccountWatcher
	log      *zap.Logger
	onBatch  func([]FarmOutcome)
	onFarm   func(FarmOutcome)
}

// RunnerOptions for creating a Runner.
type RunnerOptions struct {
	Orchestrator *Orchestrator
	Interval     time.Duration

	// Watcher, when set, triggers a single-farm recompute whenever a farm's
	// staked-LP account changes between ticks.
	Watcher AccountWatcher

	// OnBatch receives each completed tick's outcomes. OnFarm receives
	// watch-triggered single-farm outcomes.
	OnBatch func([]FarmOutcome)
	OnFarm  func(FarmOutcome)

	Logger *zap.Logger
}

// NewRunner creates a Runner.
func NewRunner(opts RunnerOptions) *Runner {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		orc:      opts.Orchestrator,
		interval: opts.Interval,
		watcher:  opts.Watcher,
		log:      log,
		onBatch:  opts.OnBatch,
		onFarm:   opts.OnFarm,
	}
}

// Run computes one batch immediately, then on every interval tick until the
// context is canceled.
func (r *Runner) Run(ctx context.Context) error {
	if r.watcher != nil {
		if err := r.subscribeFarms(ctx); err != nil {
			return err
		}
		go r.watchLoop(ctx)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	var cancelPrev context.CancelFunc
	defer func() {
		if cancelPrev != nil {
			cancelPrev()
		}
	}()

	for {
		// Supersede the previous tick before starting the next.
		if cancelPrev != nil {
			cancelPrev()
		}
		tickCtx, cancel := context.WithCancel(ctx)
		cancelPrev = cancel
		go r.runTick(tickCtx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// runTick computes one batch; results are dropped if the tick was superseded
// while the computation was in flight.
func (r *Runner) runTick(ctx context.Context) {
	start := time.Now()
	outcomes, err := r.orc.AllFarms(ctx)
	if ctx.Err() != nil {
		r.log.Debug("tick superseded, dropping results")
		return
	}
	if err != nil {
		r.log.Error("batch computation failed", zap.Error(err))
		return
	}

	ok := 0
	for _, out := range outcomes {
		if out.Err == nil {
			ok++
		}
	}
	r.log.Info("batch complete",
		zap.Int("farms", len(outcomes)),
		zap.Int("succeeded", ok),
		zap.Duration("elapsed", time.Since(start)))

	if r.onBatch != nil {
		r.onBatch(outcomes)
	}
}

// subscribeFarms watches every farm's staked-LP account.
func (r *Runner) subscribeFarms(ctx context.Context) error {
	for _, farm := range r.orc.cat.Farms() {
		if err := r.watcher.WatchAccount(ctx, farm.StakedLPAccount); err != nil {
			return err
		}
	}
	return nil
}

// watchLoop recomputes a single farm when its staked-LP account changes.
func (r *Runner) watchLoop(ctx context.Context) {
	byAccount := make(map[string]string)
	for _, farm := range r.orc.cat.Farms() {
		byAccount[farm.StakedLPAccount] = farm.Name
	}

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-r.watcher.Updates():
			if !ok {
				return
			}
			name, known := byAccount[update.Pubkey]
			if !known {
				continue
			}
			r.log.Debug("staked lp account changed",
				zap.String("farm", name),
				zap.Int64("slot", update.Slot))

			fm, err := r.orc.FarmMetrics(ctx, name)
			if ctx.Err() != nil {
				return
			}
			out := FarmOutcome{Farm: name, Metrics: fm, Err: err}
			if err != nil {
				r.log.Warn("watch recompute failed",
					zap.String("farm", name), zap.Error(err))
			}
			if r.onFarm != nil {
				r.onFarm(out)
			}
		}
	}
}
