package orchestrator

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/corvid-labs/lamplight/client"
	"github.com/corvid-labs/lamplight/service/chain"
	"github.com/corvid-labs/lamplight/service/events"
	"github.com/corvid-labs/lamplight/service/metrics"
	"github.com/corvid-labs/lamplight/service/wallet"
	"github.com/gagliardetto/solana-go"
)

// TransferRequest is one user-entered transfer. It is ephemeral: built per
// submit attempt and discarded after use, success or failure. Nothing here
// is ever retried automatically.
type TransferRequest struct {
	Recipient      string
	AmountLamports int64
}

// SubmissionResult is the terminal outcome of one submitted transaction.
// Exactly one of Success/Err is meaningful; the API's echoed fields are
// merged in on success.
type SubmissionResult struct {
	Success              bool
	Hash                 string
	Accepted             bool
	LastValidBlockHeight uint64
	Err                  *Error
}

// Signer is the slice of the wallet capability the orchestrator needs.
type Signer interface {
	Sign(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error)
}

// ChainClient fetches checkpoints and builds transfer transactions.
type ChainClient interface {
	RecentCheckpoint(ctx context.Context) (chain.Checkpoint, error)
	BuildTransfer(from, to solana.PublicKey, lamports uint64, cp chain.Checkpoint) (*solana.Transaction, error)
}

// SubmissionAPI posts signed transactions to the backend.
type SubmissionAPI interface {
	SubmitTransaction(ctx context.Context, senderLabel, signedTxBase64 string) (*client.SubmitResponse, error)
}

// Orchestrator coordinates the submission pipeline: validate, fetch a
// fresh checkpoint, build, sign, serialize, submit. Each step depends on
// the previous step's output; there are no parallel branches and no
// automatic retries anywhere.
type Orchestrator struct {
	signer      Signer
	chain       ChainClient
	api         SubmissionAPI
	publisher   events.Publisher
	metrics     *metrics.Metrics
	logger      *slog.Logger
	senderLabel string

	// signMu serializes wallet authorization prompts. Wallets reject or
	// ignore overlapping prompts, so at most one signing request may be
	// outstanding at a time, batches included.
	signMu sync.Mutex
}

// New creates an orchestrator. publisher and m may be nil, in which case
// no events are emitted and no metrics are recorded. A nil logger
// discards output.
func New(signer Signer, chainClient ChainClient, api SubmissionAPI, publisher events.Publisher, m *metrics.Metrics, senderLabel string, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Orchestrator{
		signer:      signer,
		chain:       chainClient,
		api:         api,
		publisher:   publisher,
		metrics:     m,
		logger:      logger,
		senderLabel: senderLabel,
	}
}

// SubmitSingle runs the full submission pipeline for one transfer.
// Validation failures are reported before any wallet or network call and
// have no side effects.
func (o *Orchestrator) SubmitSingle(ctx context.Context, sess wallet.Session, req TransferRequest) SubmissionResult {
	start := time.Now()
	result := o.submitSingle(ctx, sess, req)

	status := "success"
	kind := "none"
	if result.Err != nil {
		status = "error"
		kind = string(result.Err.Kind)
	}
	if o.metrics != nil {
		o.metrics.RecordSubmission(status, kind, time.Since(start).Seconds())
	}
	return result
}

func (o *Orchestrator) submitSingle(ctx context.Context, sess wallet.Session, req TransferRequest) SubmissionResult {
	// 1. Validate before touching the wallet or the network.
	recipient, verr := validate(sess, req)
	if verr != nil {
		o.logger.DebugContext(ctx, "submission rejected by validation",
			"kind", verr.Kind,
			"recipient", req.Recipient,
		)
		return SubmissionResult{Err: verr}
	}

	// 2. Fresh checkpoint; single-use, fetched per transaction.
	cp, err := o.chain.RecentCheckpoint(ctx)
	if err != nil {
		return SubmissionResult{Err: wrapError(KindNetworkUnavailable, err)}
	}

	// 3. Build the unsigned transaction with the session key as fee payer.
	tx, err := o.chain.BuildTransfer(sess.PublicKey, recipient, uint64(req.AmountLamports), cp)
	if err != nil {
		return SubmissionResult{Err: wrapError(KindNetworkUnavailable, err)}
	}

	// 4. Wallet authorization, one outstanding prompt at a time. A
	// rejection or disconnection here is terminal for this request.
	o.signMu.Lock()
	signed, err := o.signer.Sign(ctx, tx)
	o.signMu.Unlock()
	if err != nil {
		o.logger.DebugContext(ctx, "signing failed",
			"recipient", req.Recipient,
			"error", err,
		)
		return SubmissionResult{Err: wrapError(KindSigningFailed, err)}
	}

	// 5. Serialize and submit.
	raw, err := signed.MarshalBinary()
	if err != nil {
		return SubmissionResult{Err: wrapError(KindSigningFailed, fmt.Errorf("failed to serialize transaction: %w", err))}
	}

	resp, err := o.api.SubmitTransaction(ctx, o.senderLabel, base64.StdEncoding.EncodeToString(raw))
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			return SubmissionResult{Err: &Error{Kind: KindAPIError, Status: apiErr.Status, Message: apiErr.Message}}
		}
		return SubmissionResult{Err: wrapError(KindNetworkUnavailable, err)}
	}

	o.logger.InfoContext(ctx, "transaction submitted",
		"hash", resp.Hash,
		"accepted", resp.Accepted,
		"recipient", req.Recipient,
		"amount_lamports", req.AmountLamports,
	)

	o.publishEvent(ctx, req, resp)

	// 6. Merge the API's echoed fields into the result.
	return SubmissionResult{
		Success:              true,
		Hash:                 resp.Hash,
		Accepted:             resp.Accepted,
		LastValidBlockHeight: resp.LastValidBlockHeight,
	}
}

// SubmitBatch runs the single-submission pipeline for each request in
// order, with per-item isolation: one item's failure never aborts the
// rest. Results are index-aligned with the input. An empty batch returns
// an empty slice without contacting the wallet or the network. Whether a
// batch of a particular size triggers settlement is a backend concern,
// not decided here.
func (o *Orchestrator) SubmitBatch(ctx context.Context, sess wallet.Session, reqs []TransferRequest) []SubmissionResult {
	results := make([]SubmissionResult, 0, len(reqs))
	if len(reqs) == 0 {
		return results
	}

	if o.metrics != nil {
		o.metrics.RecordBatchSize(len(reqs))
	}

	for i, req := range reqs {
		result := o.SubmitSingle(ctx, sess, req)
		if result.Err != nil {
			o.logger.DebugContext(ctx, "batch item failed",
				"index", i,
				"kind", result.Err.Kind,
			)
		}
		results = append(results, result)
	}

	return results
}

// validate checks the session and request. It is deterministic: the same
// invalid input always yields the same error kind.
func validate(sess wallet.Session, req TransferRequest) (solana.PublicKey, *Error) {
	if !sess.Connected {
		return solana.PublicKey{}, newError(KindNotConnected, "wallet session is not connected")
	}

	recipient, err := solana.PublicKeyFromBase58(req.Recipient)
	if err != nil {
		return solana.PublicKey{}, wrapError(KindInvalidRecipient, err)
	}

	if req.AmountLamports <= 0 {
		return solana.PublicKey{}, newError(KindInvalidAmount, fmt.Sprintf("amount must be a positive number of lamports, got %d", req.AmountLamports))
	}

	return recipient, nil
}

func (o *Orchestrator) publishEvent(ctx context.Context, req TransferRequest, resp *client.SubmitResponse) {
	if o.publisher == nil {
		return
	}

	event := &events.SubmissionEvent{
		Sender:               o.senderLabel,
		Recipient:            req.Recipient,
		AmountLamports:       req.AmountLamports,
		Hash:                 resp.Hash,
		LastValidBlockHeight: resp.LastValidBlockHeight,
		SubmittedAt:          time.Now().UTC(),
	}

	// Event delivery never fails a submission that the backend accepted.
	if err := o.publisher.PublishSubmission(ctx, event); err != nil {
		o.logger.ErrorContext(ctx, "failed to publish submission event",
			"hash", resp.Hash,
			"error", err,
		)
		if o.metrics != nil {
			o.metrics.RecordEventPublished("error")
		}
		return
	}
	if o.metrics != nil {
		o.metrics.RecordEventPublished("success")
	}
}
