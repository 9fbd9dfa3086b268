package dashboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/corvid-labs/lamplight/client"
	"github.com/corvid-labs/lamplight/service/orchestrator"
	"github.com/corvid-labs/lamplight/service/wallet"
)

// DefaultPageSize is the fixed page size for the transaction list.
const DefaultPageSize = 10

// ErrSubmissionPending is returned when a submit is requested while a
// previous one is still in flight. Submissions are never interleaved;
// the triggering control stays disabled until the pending one resolves.
var ErrSubmissionPending = errors.New("a submission is already in flight")

// Action identifies a user-initiated workflow tracked by the dashboard.
type Action string

const (
	ActionConnect Action = "connect"
	ActionSubmit  Action = "submit"
	ActionSearch  Action = "search"
	ActionRefresh Action = "refresh"
	ActionHealth  Action = "health"
)

// Phase is the state of one workflow: Idle -> Pending -> Succeeded|Failed.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhasePending   Phase = "pending"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
)

// ReadAPI is the read-only slice of the backend API the dashboard needs.
type ReadAPI interface {
	Health(ctx context.Context) (*client.HealthStatus, error)
	ListTransactions(ctx context.Context, page, pageSize int) ([]client.TransactionRecord, error)
	GetTransaction(ctx context.Context, hash string) (*client.TransactionRecord, error)
}

// Submitter runs the transaction submission pipeline.
type Submitter interface {
	SubmitSingle(ctx context.Context, sess wallet.Session, req orchestrator.TransferRequest) orchestrator.SubmissionResult
	SubmitBatch(ctx context.Context, sess wallet.Session, reqs []orchestrator.TransferRequest) []orchestrator.SubmissionResult
}

// SearchResult is the outcome of a search-by-hash. NotFound is a distinct
// state from a network error: the former renders as "no such transaction",
// the latter as a failure.
type SearchResult struct {
	Record   *client.TransactionRecord
	NotFound bool
}

// Dashboard holds the client-side view state: the wallet session, one page
// of submitted transactions, the last health check, and the last search
// result. It owns no persistent storage; everything lives for the life of
// the process.
type Dashboard struct {
	mu        sync.Mutex
	wallet    wallet.Wallet
	submitter Submitter
	api       ReadAPI
	logger    *slog.Logger

	pageSize int
	page     int
	session  wallet.Session
	records  []client.TransactionRecord
	health   *client.HealthStatus
	search   SearchResult
	phases   map[Action]Phase
}

// New creates a dashboard. pageSize <= 0 falls back to DefaultPageSize;
// a nil logger discards output.
func New(w wallet.Wallet, submitter Submitter, api ReadAPI, pageSize int, logger *slog.Logger) *Dashboard {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Dashboard{
		wallet:    w,
		submitter: submitter,
		api:       api,
		logger:    logger,
		pageSize:  pageSize,
		page:      1,
		phases:    make(map[Action]Phase),
	}
}

// Connect establishes a wallet session. On failure the session stays
// disconnected and the connect workflow is marked failed.
func (d *Dashboard) Connect(ctx context.Context) (wallet.Session, error) {
	d.setPhase(ActionConnect, PhasePending)

	sess, err := d.wallet.Connect(ctx)
	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		d.session = wallet.Session{}
		d.phases[ActionConnect] = PhaseFailed
		d.logger.Debug("wallet connect failed", "error", err)
		return wallet.Session{}, err
	}

	d.session = sess
	d.phases[ActionConnect] = PhaseSucceeded
	return sess, nil
}

// Disconnect tears down the wallet session.
func (d *Dashboard) Disconnect() {
	d.wallet.Disconnect()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.session = wallet.Session{}
	d.phases[ActionConnect] = PhaseIdle
}

// Session returns the current session snapshot.
func (d *Dashboard) Session() wallet.Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.session
}

// Phase returns the state of the given workflow.
func (d *Dashboard) Phase(action Action) Phase {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.phases[action]; ok {
		return p
	}
	return PhaseIdle
}

// Page returns the current 1-indexed page number.
func (d *Dashboard) Page() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.page
}

// Records returns the current page of transaction records.
func (d *Dashboard) Records() []client.TransactionRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	records := make([]client.TransactionRecord, len(d.records))
	copy(records, d.records)
	return records
}

// Health returns the last health check result, nil if never checked.
func (d *Dashboard) Health() *client.HealthStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.health
}

// Search returns the last search result.
func (d *Dashboard) LastSearch() SearchResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.search
}

// Refresh re-fetches the current page of transactions.
func (d *Dashboard) Refresh(ctx context.Context) error {
	d.mu.Lock()
	page := d.page
	pageSize := d.pageSize
	d.phases[ActionRefresh] = PhasePending
	d.mu.Unlock()

	records, err := d.api.ListTransactions(ctx, page, pageSize)

	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		d.phases[ActionRefresh] = PhaseFailed
		return err
	}
	d.records = records
	d.phases[ActionRefresh] = PhaseSucceeded
	return nil
}

// SetPage changes the current page and refreshes it.
func (d *Dashboard) SetPage(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}
	d.mu.Lock()
	d.page = page
	d.mu.Unlock()
	return d.Refresh(ctx)
}

// HealthCheck queries the backend's health endpoint.
func (d *Dashboard) HealthCheck(ctx context.Context) (*client.HealthStatus, error) {
	d.setPhase(ActionHealth, PhasePending)

	status, err := d.api.Health(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		d.health = nil
		d.phases[ActionHealth] = PhaseFailed
		return nil, err
	}
	d.health = status
	d.phases[ActionHealth] = PhaseSucceeded
	return status, nil
}

// SearchTransaction looks up a transaction record by hash. A missing
// record is reported through the result's NotFound flag with a nil error;
// only transport and application failures return an error.
func (d *Dashboard) SearchTransaction(ctx context.Context, hash string) (SearchResult, error) {
	d.setPhase(ActionSearch, PhasePending)

	record, err := d.api.GetTransaction(ctx, hash)

	d.mu.Lock()
	defer d.mu.Unlock()
	if errors.Is(err, client.ErrNotFound) {
		d.search = SearchResult{NotFound: true}
		d.phases[ActionSearch] = PhaseSucceeded
		return d.search, nil
	}
	if err != nil {
		d.search = SearchResult{}
		d.phases[ActionSearch] = PhaseFailed
		return SearchResult{}, err
	}

	d.search = SearchResult{Record: record}
	d.phases[ActionSearch] = PhaseSucceeded
	return d.search, nil
}

// Submit runs a single-transfer submission and, on success, re-fetches the
// current transaction page. Returns ErrSubmissionPending if another
// submission is still in flight.
func (d *Dashboard) Submit(ctx context.Context, req orchestrator.TransferRequest) (orchestrator.SubmissionResult, error) {
	sess, err := d.beginSubmission()
	if err != nil {
		return orchestrator.SubmissionResult{}, err
	}

	result := d.submitter.SubmitSingle(ctx, sess, req)
	d.endSubmission(ctx, result.Success)
	return result, nil
}

// SubmitBatch runs a batched submission with per-item isolation and, if
// any item succeeded, re-fetches the current transaction page.
func (d *Dashboard) SubmitBatch(ctx context.Context, reqs []orchestrator.TransferRequest) ([]orchestrator.SubmissionResult, error) {
	sess, err := d.beginSubmission()
	if err != nil {
		return nil, err
	}

	results := d.submitter.SubmitBatch(ctx, sess, reqs)

	anySucceeded := false
	for _, r := range results {
		if r.Success {
			anySucceeded = true
			break
		}
	}
	d.endSubmission(ctx, anySucceeded)
	return results, nil
}

func (d *Dashboard) beginSubmission() (wallet.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.phases[ActionSubmit] == PhasePending {
		return wallet.Session{}, ErrSubmissionPending
	}
	d.phases[ActionSubmit] = PhasePending
	return d.session, nil
}

func (d *Dashboard) endSubmission(ctx context.Context, succeeded bool) {
	d.mu.Lock()
	if succeeded {
		d.phases[ActionSubmit] = PhaseSucceeded
	} else {
		d.phases[ActionSubmit] = PhaseFailed
	}
	d.mu.Unlock()

	if succeeded {
		if err := d.Refresh(ctx); err != nil {
			d.logger.Error("failed to refresh transactions after submission", "error", err)
		}
	}
}

func (d *Dashboard) setPhase(action Action, phase Phase) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.phases[action] = phase
}
