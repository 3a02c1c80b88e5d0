package main

import (
	"context"
	"fmt"
	"math/big"
	"os"

	"github.com/txsentinel/txsentinel/internal/addrwatch"
	"github.com/txsentinel/txsentinel/internal/compliance"
	"github.com/txsentinel/txsentinel/internal/fraudcheck"
	"github.com/txsentinel/txsentinel/internal/handlers/cli"
	"github.com/txsentinel/txsentinel/internal/infra/explorer"
	"github.com/txsentinel/txsentinel/internal/infra/screening"
	redisstorage "github.com/txsentinel/txsentinel/internal/infra/storage/redis"
	"github.com/txsentinel/txsentinel/internal/infra/webhook"
	"github.com/txsentinel/txsentinel/internal/pipeline"
	"github.com/txsentinel/txsentinel/internal/pkg/logger"
	"github.com/txsentinel/txsentinel/internal/pkg/resilience/retry"
	"github.com/txsentinel/txsentinel/internal/pkg/telemetry"
	transporthttp "github.com/txsentinel/txsentinel/internal/pkg/transport/http"
	"github.com/txsentinel/txsentinel/internal/wshub"
)

func buildRuleChain(cfg cli.Config) *fraudcheck.Chain {
	var addrOpts []fraudcheck.AddressOption
	if cfg.NormalizeAddresses {
		addrOpts = append(addrOpts, fraudcheck.WithNormalizedAddresses())
	}

	// Threshold format is validated during config load.
	threshold, _ := new(big.Int).SetString(cfg.HighValueThreshold, 10)

	chain := fraudcheck.NewChain(fraudcheck.NewHighValue(threshold))
	if len(cfg.SuspiciousAddresses) > 0 {
		chain.Append(fraudcheck.NewSuspiciousAddress(cfg.SuspiciousAddresses, addrOpts...))
	}
	if len(cfg.KnownSenders) > 0 {
		chain.Append(fraudcheck.NewUnknownSender(cfg.KnownSenders, addrOpts...))
	}

	return chain
}

func run(ctx context.Context) error {
	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}

	if cfg.TelemetryEnabled {
		shutdown, err := telemetry.Init(ctx, "txsentinel")
		if err != nil {
			return err
		}
		defer func() { _ = shutdown(ctx) }()
	}

	if err := logger.Init(logger.WithLevel(cfg.LogLevel)); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	httpClient := transporthttp.NewClient(transporthttp.WithTimeout(cfg.ExplorerTimeout))

	endpoints := explorer.DefaultEndpoints()
	for network, baseURL := range cfg.ExplorerEndpoints {
		endpoints[network] = baseURL
	}

	explorerClient, err := explorer.NewClient(cfg.Network, endpoints, httpClient, explorer.WithAPIKey(cfg.ExplorerAPIKey))
	if err != nil {
		return err
	}

	hub := wshub.New(cfg.WSListenAddr)

	monitorOpts := []addrwatch.Option{
		addrwatch.WithTransactionNotifiers(pipeline.NewTransactionBroadcaster(hub)),
	}
	if cfg.WebhookURL != "" {
		sink := webhook.New(cfg.WebhookURL, httpClient, webhook.WithRetry(retry.New()))
		monitorOpts = append(monitorOpts, addrwatch.WithTransactionNotifiers(sink))
	}
	if cfg.RedisAddr != "" {
		storage, err := redisstorage.NewClient(ctx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer func() { _ = storage.Close() }()

		monitorOpts = append(monitorOpts, addrwatch.WithWatermarkStorage(storage))
	}

	monitor := addrwatch.New(cfg.Network, explorerClient, monitorOpts...)
	pipe := pipeline.New(cfg.Network, cfg.Addresses, cfg.PollInterval, monitor, buildRuleChain(cfg), hub)

	provider := screening.New(explorerClient, map[string][]string{
		"configured": cfg.SanctionedAddresses,
	})
	comp := compliance.New(provider, compliance.WithCheckInterval(cfg.ConfirmationInterval))

	return cli.Run(ctx, cli.Services{
		Network:    cfg.Network,
		Pipeline:   pipe,
		Hub:        hub,
		Compliance: comp,
	})
}

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
