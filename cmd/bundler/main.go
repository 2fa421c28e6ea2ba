// ====================================
// File: cmd/bundler/main.go
// ====================================
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-bundler/internal/bundle"
	"github.com/rovshanmuradov/solana-bundler/internal/config"
	"github.com/rovshanmuradov/solana-bundler/internal/engine"
	"github.com/rovshanmuradov/solana-bundler/internal/engine/backend"
	"github.com/rovshanmuradov/solana-bundler/internal/history"
	"github.com/rovshanmuradov/solana-bundler/internal/logger"
	"github.com/rovshanmuradov/solana-bundler/internal/relay"
	"github.com/rovshanmuradov/solana-bundler/internal/wallet"
)

func main() {
	var (
		configPath  = flag.String("config", "configs/config.json", "path to config file")
		walletsPath = flag.String("wallets", "configs/wallets.csv", "path to wallets CSV")
		operation   = flag.String("op", "", "operation: buy | sell | consolidate | distribute | create")
		mode        = flag.String("mode", "single", "execution mode: single | batch | all-in-one")
		mint        = flag.String("mint", "", "token mint address")
		amount      = flag.Float64("amount", 0, "amount shared by all wallets")
		amounts     = flag.String("amounts", "", "comma-separated per-wallet amounts")
		slippage    = flag.Uint("slippage", 100, "slippage tolerance in basis points")
		tip         = flag.Uint64("tip", 0, "tip in lamports")
		tokenName   = flag.String("token-name", "", "token name (create only)")
		tokenSymbol = flag.String("token-symbol", "", "token symbol (create only)")
		tokenURI    = flag.String("token-uri", "", "token metadata URI (create only)")
		devBuy      = flag.Float64("dev-buy", 0, "dev buy amount (create only)")
	)
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fallback, _ := zap.NewDevelopment()
		fallback.Fatal("Failed to load config", zap.Error(err))
	}

	log, err := logger.New(&logger.Config{
		LogFile:     cfg.LogFile,
		MaxSize:     100,
		MaxAge:      7,
		MaxBackups:  3,
		Compress:    true,
		Development: cfg.DebugLogging,
	})
	if err != nil {
		fallback, _ := zap.NewDevelopment()
		fallback.Fatal("Failed to create logger", zap.Error(err))
	}
	defer log.Sync()

	wallets, err := wallet.Load(*walletsPath)
	if err != nil {
		log.Fatal("Failed to load wallets", zap.Error(err))
	}
	log.Info("Wallets loaded", zap.Int("count", len(wallets)))

	limiter := relay.NewRateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)
	relayClient := relay.NewClient(relay.ClientOptions{
		Endpoint: cfg.RelayURL,
		Timeout:  cfg.HTTPTimeout,
		Limiter:  limiter,
	}, log)
	critical := relay.NewRetryCoordinator(relayClient, relay.RetryOptions{
		MaxAttempts:          cfg.RetryMaxAttempts,
		MaxConsecutiveErrors: cfg.RetryMaxConsecutive,
		BaseDelay:            cfg.RetryBaseDelay,
	}, log)
	backendClient := backend.NewClient(backend.ClientOptions{
		BaseURL:  cfg.BackendURL,
		APIKey:   cfg.APIKey,
		Timeout:  cfg.HTTPTimeout,
		RetryMax: cfg.BackendRetryMax,
	}, log)
	recorder, err := history.NewRecorder(cfg.HistoryFile, log)
	if err != nil {
		log.Fatal("Failed to create history recorder", zap.Error(err))
	}

	eng := engine.NewEngine(engine.EngineConfig{
		Logger:   log,
		Preparer: backendClient,
		Signer:   bundle.NewSigner(log),
		Submit:   relayClient,
		Critical: critical,
		History:  recorder,
		Options: engine.Options{
			MaxTxPerBundle:   cfg.MaxTxPerBundle,
			BatchSize:        cfg.BatchSize,
			InterWalletDelay: cfg.InterWalletDelay,
			InterBatchDelay:  cfg.InterBatchDelay,
			InterBundleDelay: cfg.InterBundleDelay,
			SelfHosted:       cfg.SelfHosted,
		},
	})

	opCfg := engine.OperationConfig{
		Operation:    engine.Operation(*operation),
		Mode:         engine.Mode(*mode),
		TokenMint:    *mint,
		Amount:       *amount,
		SlippageBps:  uint16(*slippage),
		TipLamports:  *tip,
		TokenName:    *tokenName,
		TokenSymbol:  *tokenSymbol,
		TokenURI:     *tokenURI,
		DevBuyAmount: *devBuy,
	}
	if *amounts != "" {
		opCfg.Amounts, err = parseAmounts(*amounts)
		if err != nil {
			log.Fatal("Invalid amounts", zap.Error(err))
		}
	}

	result, err := eng.Execute(ctx, wallets, opCfg)
	if err != nil {
		log.Fatal("Operation error", zap.Error(err))
	}

	fields := []zap.Field{
		zap.Bool("success", result.Success),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
		zap.Int("receipts", len(result.Receipts)),
	}
	if result.MintAddress != "" {
		fields = append(fields, zap.String("mint", result.MintAddress))
	}
	if result.Error != "" {
		fields = append(fields, zap.String("detail", result.Error))
	}
	if result.Success {
		log.Info("Operation completed", fields...)
	} else {
		log.Error("Operation failed", fields...)
		os.Exit(1)
	}
}

func parseAmounts(raw string) ([]float64, error) {
	parts := strings.Split(raw, ",")
	amounts := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, err
		}
		amounts = append(amounts, v)
	}
	return amounts, nil
}
