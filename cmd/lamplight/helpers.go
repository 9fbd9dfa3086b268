package main

import (
	"log/slog"
	"os"

	"github.com/corvid-labs/lamplight/client"
	"github.com/corvid-labs/lamplight/service/chain"
	"github.com/corvid-labs/lamplight/service/config"
	"github.com/corvid-labs/lamplight/service/dashboard"
	"github.com/corvid-labs/lamplight/service/events"
	"github.com/corvid-labs/lamplight/service/metrics"
	"github.com/corvid-labs/lamplight/service/orchestrator"
	"github.com/corvid-labs/lamplight/service/wallet"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/urfave/cli/v2"
)

// loadConfig reads the environment configuration and overlays the global
// CLI flags. The flags carry the same env vars as fallbacks, so a value
// set either way wins over the built-in default.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}

	cfg.APIBaseURL = c.String("api-url")
	cfg.SolanaRPCURL = c.String("rpc-url")
	cfg.SenderLabel = c.String("sender")
	cfg.NATSURL = c.String("nats-url")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the CLI logger: JSON to stderr at the configured level
// so command output stays clean.
func newLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
}

// newWallet detects the wallet capability from the configuration. A
// missing key yields wallet.ErrWalletUnavailable; callers turn that into
// an instruction to configure one.
func newWallet(cfg *config.Config, logger *slog.Logger) (*wallet.KeypairWallet, error) {
	return wallet.Detect(cfg.WalletKey, cfg.WalletDisplayName, logger)
}

// newReadDashboard wires a dashboard over the backend API only, for the
// commands that browse without submitting.
func newReadDashboard(cfg *config.Config, pageSize int, logger *slog.Logger) *dashboard.Dashboard {
	m := metrics.NewMetrics(nil)
	apiClient := client.NewClient(cfg.APIBaseURL, nil, logger).WithMetrics(m)
	return dashboard.New(nil, nil, apiClient, pageSize, logger)
}

// newSubmissionDashboard wires the full submission pipeline behind a
// dashboard: wallet, chain client, orchestrator, API client, metrics, and
// the optional NATS publisher. The returned closer releases the
// publisher, if any.
func newSubmissionDashboard(cfg *config.Config, logger *slog.Logger) (*dashboard.Dashboard, func(), error) {
	w, err := newWallet(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	m := metrics.NewMetrics(nil)
	apiClient := client.NewClient(cfg.APIBaseURL, nil, logger).WithMetrics(m)
	chainClient := chain.NewClient(
		chain.NewRPCClient(cfg.SolanaRPCURL),
		rpc.CommitmentType(cfg.Commitment),
		cfg.SolanaRPCURL,
		m,
		logger,
	)

	var publisher events.Publisher
	closer := func() {}
	if cfg.NATSURL != "" {
		p, err := events.NewJetStreamPublisher(cfg.NATSURL, logger)
		if err != nil {
			return nil, nil, err
		}
		publisher = p
		closer = func() { p.Close() }
	}

	orch := orchestrator.New(w, chainClient, apiClient, publisher, m, cfg.SenderLabel, logger)
	return dashboard.New(w, orch, apiClient, cfg.PageSize, logger), closer, nil
}
