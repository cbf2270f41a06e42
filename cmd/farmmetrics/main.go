// Command farmmetrics computes liquidity and APR metrics for every configured
// farm, either once or on a fixed interval.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"raydium-farm-watch/internal/config"
	"raydium-farm-watch/internal/feed"
	"raydium-farm-watch/internal/orchestrator"
	"raydium-farm-watch/internal/solana"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	once := flag.Bool("once", false, "Compute one batch, print JSON and exit")
	flag.Parse()

	logger, err := newLogger(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(*configPath, *once, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("farmmetrics failed", zap.Error(err))
	}
}

func run(configPath string, once bool, logger *zap.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	cat, err := config.LoadCatalog(cfg.Resources)
	if err != nil {
		return err
	}
	logger.Info("catalog loaded",
		zap.Int("pools", len(cat.Pools())),
		zap.Int("farms", len(cat.Farms())))

	rpc := solana.NewHTTPClient(cfg.RPC.Endpoint,
		solana.WithCommitment(cfg.RPC.Commitment),
		solana.WithLimiter(rate.NewLimiter(rate.Limit(cfg.RPC.RequestsPerSecond), cfg.RPC.Burst)),
	)

	orc := orchestrator.New(orchestrator.Options{
		RPC:     rpc,
		Prices:  feed.New(cfg.Feed.BaseURL),
		Catalog: cat,
		Logger:  logger,
	})

	// Handle shutdown signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	if once {
		outcomes, err := orc.AllFarms(ctx)
		if err != nil {
			return err
		}
		return printOutcomes(outcomes)
	}

	var watcher orchestrator.AccountWatcher
	if cfg.Farming.Watch {
		ws, err := solana.NewWSClient(ctx, cfg.RPC.WSEndpoint, nil)
		if err != nil {
			return err
		}
		defer ws.Close()
		watcher = ws
	}

	runner := orchestrator.NewRunner(orchestrator.RunnerOptions{
		Orchestrator: orc,
		Interval:     cfg.Farming.Interval,
		Watcher:      watcher,
		Logger:       logger,
		OnBatch: func(outcomes []orchestrator.FarmOutcome) {
			logOutcomes(logger, outcomes)
		},
		OnFarm: func(out orchestrator.FarmOutcome) {
			logOutcomes(logger, []orchestrator.FarmOutcome{out})
		},
	})

	logger.Info("runner starting",
		zap.Duration("interval", cfg.Farming.Interval),
		zap.Bool("watch", cfg.Farming.Watch))
	return runner.Run(ctx)
}

func logOutcomes(logger *zap.Logger, outcomes []orchestrator.FarmOutcome) {
	for _, out := range outcomes {
		if out.Err != nil {
			logger.Warn("farm failed", zap.String("farm", out.Farm), zap.Error(out.Err))
			continue
		}
		fields := []zap.Field{
			zap.String("farm", out.Farm),
			zap.Float64("liquidity", out.Metrics.Liquidity),
			zap.Float64("lp_share_price", out.Metrics.LPSharePrice),
			zap.Float64("staked_liquidity", out.Metrics.StakedLiquidity),
		}
		for _, r := range out.Metrics.Rewards {
			fields = append(fields, zap.Float64(r.Symbol+"_apr", r.APR))
		}
		if out.Metrics.FeeAPR != nil {
			fields = append(fields, zap.Float64("fee_apr", *out.Metrics.FeeAPR))
		}
		logger.Info("farm metrics", fields...)
	}
}

func printOutcomes(outcomes []orchestrator.FarmOutcome) error {
	type entry struct {
		Farm    string      `json:"farm"`
		Metrics interface{} `json:"metrics,omitempty"`
		Error   string      `json:"error,omitempty"`
	}
	out := make([]entry, 0, len(outcomes))
	for _, o := range outcomes {
		e := entry{Farm: o.Farm}
		if o.Err != nil {
			e.Error = o.Err.Error()
		} else {
			e.Metrics = o.Metrics
		}
		out = append(out, e)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
