package chain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/corvid-labs/lamplight/service/metrics"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
)

// ErrNetworkUnavailable indicates the RPC endpoint could not be reached.
// Checkpoint fetch failures are never retried here; the caller surfaces
// them as a terminal outcome for the request.
var ErrNetworkUnavailable = errors.New("chain RPC endpoint unavailable")

// RPCClient is an interface for the Solana RPC operations we need.
// This allows us to mock the RPC layer in tests without hitting real
// Solana nodes.
type RPCClient interface {
	GetLatestBlockhash(
		ctx context.Context,
		commitment rpc.CommitmentType,
	) (*rpc.GetLatestBlockhashResult, error)
}

// Client fetches checkpoints and builds transfer transactions. It is the
// only component that touches wire-level chain semantics.
type Client struct {
	rpc        RPCClient
	commitment rpc.CommitmentType
	logger     *slog.Logger
	metrics    *metrics.Metrics
	endpoint   string // RPC endpoint identifier for metrics labels
}

// NewClient creates a new chain client. The endpoint parameter is used for
// metrics labeling (e.g. "mainnet", "devnet", or the RPC hostname). If
// metrics is nil, no metrics will be recorded.
func NewClient(rpcClient RPCClient, commitment rpc.CommitmentType, endpoint string, m *metrics.Metrics, logger *slog.Logger) *Client {
	if commitment == "" {
		commitment = rpc.CommitmentFinalized
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		rpc:        rpcClient,
		commitment: commitment,
		logger:     logger,
		metrics:    m,
		endpoint:   endpoint,
	}
}

// RecentCheckpoint fetches a fresh checkpoint from the chain. Checkpoints
// expire after a validity-height window, so the result must be used for
// exactly one transaction and never cached.
func (c *Client) RecentCheckpoint(ctx context.Context) (Checkpoint, error) {
	start := time.Now()
	result, err := c.rpc.GetLatestBlockhash(ctx, c.commitment)
	duration := time.Since(start).Seconds()

	status := "success"
	if err != nil {
		status = "error"
	}
	if c.metrics != nil {
		c.metrics.RecordCheckpointFetch(status, c.endpoint, duration)
	}

	if err != nil {
		c.logger.ErrorContext(ctx, "failed to fetch checkpoint",
			"endpoint", c.endpoint,
			"error", err,
		)
		return Checkpoint{}, fmt.Errorf("%w: %w", ErrNetworkUnavailable, err)
	}

	cp := Checkpoint{
		Blockhash:            result.Value.Blockhash,
		LastValidBlockHeight: result.Value.LastValidBlockHeight,
	}

	c.logger.DebugContext(ctx, "fetched checkpoint",
		"blockhash", cp.Blockhash.String(),
		"last_valid_block_height", cp.LastValidBlockHeight,
	)

	return cp, nil
}

// BuildTransfer builds an unsigned native transfer transaction against the
// given checkpoint, with the sender as fee payer. It makes no network
// calls.
func (c *Client) BuildTransfer(from, to solana.PublicKey, lamports uint64, cp Checkpoint) (*solana.Transaction, error) {
	ix := system.NewTransferInstruction(lamports, from, to).Build()

	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		cp.Blockhash,
		solana.TransactionPayer(from),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	return tx, nil
}
