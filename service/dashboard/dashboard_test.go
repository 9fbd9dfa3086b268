package dashboard

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/corvid-labs/lamplight/client"
	"github.com/corvid-labs/lamplight/service/orchestrator"
	"github.com/corvid-labs/lamplight/service/wallet"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWallet implements wallet.Wallet.
type fakeWallet struct {
	mu         sync.Mutex
	connectErr error
	session    wallet.Session
}

func (f *fakeWallet) Connect(ctx context.Context) (wallet.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connectErr != nil {
		return wallet.Session{}, f.connectErr
	}
	f.session = wallet.Session{
		Connected:   true,
		PublicKey:   solana.MustPublicKeyFromBase58("11111111111111111111111111111112"),
		DisplayName: "fake",
	}
	return f.session, nil
}

func (f *fakeWallet) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = wallet.Session{}
}

func (f *fakeWallet) Sign(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error) {
	return tx, nil
}

func (f *fakeWallet) Session() wallet.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session
}

// fakeSubmitter implements Submitter. block, when non-nil, stalls
// SubmitSingle until the channel is closed.
type fakeSubmitter struct {
	mu      sync.Mutex
	results []orchestrator.SubmissionResult
	calls   int
	started chan struct{}
	block   chan struct{}
}

func (f *fakeSubmitter) SubmitSingle(ctx context.Context, sess wallet.Session, req orchestrator.TransferRequest) orchestrator.SubmissionResult {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	if n <= len(f.results) {
		return f.results[n-1]
	}
	return orchestrator.SubmissionResult{Success: true, Hash: "tx-ok", Accepted: true}
}

func (f *fakeSubmitter) SubmitBatch(ctx context.Context, sess wallet.Session, reqs []orchestrator.TransferRequest) []orchestrator.SubmissionResult {
	out := make([]orchestrator.SubmissionResult, 0, len(reqs))
	for range reqs {
		out = append(out, f.SubmitSingle(ctx, sess, orchestrator.TransferRequest{}))
	}
	return out
}

// fakeAPI implements ReadAPI with call counters.
type fakeAPI struct {
	mu          sync.Mutex
	listCalls   int
	healthErr   error
	getRecord   *client.TransactionRecord
	getErr      error
	listRecords []client.TransactionRecord
	listErr     error
}

func (f *fakeAPI) Health(ctx context.Context) (*client.HealthStatus, error) {
	if f.healthErr != nil {
		return nil, f.healthErr
	}
	return &client.HealthStatus{Status: "ok"}, nil
}

func (f *fakeAPI) ListTransactions(ctx context.Context, page, pageSize int) ([]client.TransactionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listRecords, nil
}

func (f *fakeAPI) GetTransaction(ctx context.Context, hash string) (*client.TransactionRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getRecord, nil
}

func (f *fakeAPI) ListCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

func newTestDashboard(w *fakeWallet, s *fakeSubmitter, api *fakeAPI) *Dashboard {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(w, s, api, DefaultPageSize, logger)
}

func TestConnect_Success(t *testing.T) {
	d := newTestDashboard(&fakeWallet{}, &fakeSubmitter{}, &fakeAPI{})

	sess, err := d.Connect(context.Background())
	require.NoError(t, err)
	assert.True(t, sess.Connected)
	assert.Equal(t, PhaseSucceeded, d.Phase(ActionConnect))
	assert.True(t, d.Session().Connected)
}

func TestConnect_WalletUnavailable(t *testing.T) {
	d := newTestDashboard(&fakeWallet{connectErr: wallet.ErrWalletUnavailable}, &fakeSubmitter{}, &fakeAPI{})

	_, err := d.Connect(context.Background())
	require.ErrorIs(t, err, wallet.ErrWalletUnavailable)

	// Session remains disconnected.
	assert.False(t, d.Session().Connected)
	assert.Equal(t, PhaseFailed, d.Phase(ActionConnect))
}

func TestDisconnect_ClearsSession(t *testing.T) {
	w := &fakeWallet{}
	d := newTestDashboard(w, &fakeSubmitter{}, &fakeAPI{})

	_, err := d.Connect(context.Background())
	require.NoError(t, err)

	d.Disconnect()
	assert.False(t, d.Session().Connected)
	assert.False(t, w.Session().Connected)
}

func TestSubmit_RefreshesPageOnSuccess(t *testing.T) {
	api := &fakeAPI{listRecords: []client.TransactionRecord{{Hash: "abc123"}}}
	d := newTestDashboard(&fakeWallet{}, &fakeSubmitter{}, api)

	_, err := d.Connect(context.Background())
	require.NoError(t, err)

	result, err := d.Submit(context.Background(), orchestrator.TransferRequest{
		Recipient:      "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM",
		AmountLamports: 1_000_000,
	})
	require.NoError(t, err)
	assert.True(t, result.Success)

	assert.Equal(t, 1, api.ListCalls())
	assert.Equal(t, PhaseSucceeded, d.Phase(ActionSubmit))
	require.Len(t, d.Records(), 1)
	assert.Equal(t, "abc123", d.Records()[0].Hash)
}

func TestSubmit_NoRefreshOnFailure(t *testing.T) {
	api := &fakeAPI{}
	sub := &fakeSubmitter{results: []orchestrator.SubmissionResult{
		{Err: &orchestrator.Error{Kind: orchestrator.KindInvalidAmount}},
	}}
	d := newTestDashboard(&fakeWallet{}, sub, api)

	result, err := d.Submit(context.Background(), orchestrator.TransferRequest{})
	require.NoError(t, err)
	require.NotNil(t, result.Err)

	assert.Equal(t, 0, api.ListCalls())
	assert.Equal(t, PhaseFailed, d.Phase(ActionSubmit))
}

func TestSubmit_RejectsOverlappingSubmissions(t *testing.T) {
	sub := &fakeSubmitter{
		started: make(chan struct{}, 1),
		block:   make(chan struct{}),
	}
	d := newTestDashboard(&fakeWallet{}, sub, &fakeAPI{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := d.Submit(context.Background(), orchestrator.TransferRequest{})
		assert.NoError(t, err)
	}()

	// Wait for the first submission to be in flight.
	select {
	case <-sub.started:
	case <-time.After(time.Second):
		t.Fatal("first submission never started")
	}

	_, err := d.Submit(context.Background(), orchestrator.TransferRequest{})
	assert.ErrorIs(t, err, ErrSubmissionPending)

	close(sub.block)
	<-done
}

func TestSubmitBatch_RefreshesWhenAnyItemSucceeds(t *testing.T) {
	api := &fakeAPI{}
	sub := &fakeSubmitter{results: []orchestrator.SubmissionResult{
		{Err: &orchestrator.Error{Kind: orchestrator.KindInvalidAmount}},
		{Success: true, Hash: "tx-2"},
	}}
	d := newTestDashboard(&fakeWallet{}, sub, api)

	results, err := d.SubmitBatch(context.Background(), make([]orchestrator.TransferRequest, 2))
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, 1, api.ListCalls())
	assert.Equal(t, PhaseSucceeded, d.Phase(ActionSubmit))
}

func TestSubmitBatch_AllFailedMarksFailed(t *testing.T) {
	api := &fakeAPI{}
	sub := &fakeSubmitter{results: []orchestrator.SubmissionResult{
		{Err: &orchestrator.Error{Kind: orchestrator.KindInvalidAmount}},
		{Err: &orchestrator.Error{Kind: orchestrator.KindInvalidRecipient}},
	}}
	d := newTestDashboard(&fakeWallet{}, sub, api)

	results, err := d.SubmitBatch(context.Background(), make([]orchestrator.TransferRequest, 2))
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, 0, api.ListCalls())
	assert.Equal(t, PhaseFailed, d.Phase(ActionSubmit))
}

func TestSearchTransaction_Found(t *testing.T) {
	api := &fakeAPI{getRecord: &client.TransactionRecord{Hash: "abc123"}}
	d := newTestDashboard(&fakeWallet{}, &fakeSubmitter{}, api)

	result, err := d.SearchTransaction(context.Background(), "abc123")
	require.NoError(t, err)
	require.NotNil(t, result.Record)
	assert.Equal(t, "abc123", result.Record.Hash)
	assert.False(t, result.NotFound)
	assert.Equal(t, PhaseSucceeded, d.Phase(ActionSearch))
}

func TestSearchTransaction_NotFoundIsDistinctFromError(t *testing.T) {
	api := &fakeAPI{getErr: client.ErrNotFound}
	d := newTestDashboard(&fakeWallet{}, &fakeSubmitter{}, api)

	result, err := d.SearchTransaction(context.Background(), "missing")
	require.NoError(t, err)
	assert.True(t, result.NotFound)
	assert.Nil(t, result.Record)
	assert.Equal(t, PhaseSucceeded, d.Phase(ActionSearch))
}

func TestSearchTransaction_NetworkError(t *testing.T) {
	api := &fakeAPI{getErr: assert.AnError}
	d := newTestDashboard(&fakeWallet{}, &fakeSubmitter{}, api)

	result, err := d.SearchTransaction(context.Background(), "abc123")
	require.Error(t, err)
	assert.False(t, result.NotFound)
	assert.Equal(t, PhaseFailed, d.Phase(ActionSearch))
}

func TestHealthCheck(t *testing.T) {
	d := newTestDashboard(&fakeWallet{}, &fakeSubmitter{}, &fakeAPI{})

	status, err := d.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "ok", d.Health().Status)
	assert.Equal(t, PhaseSucceeded, d.Phase(ActionHealth))
}

func TestHealthCheck_Failure(t *testing.T) {
	d := newTestDashboard(&fakeWallet{}, &fakeSubmitter{}, &fakeAPI{healthErr: assert.AnError})

	_, err := d.HealthCheck(context.Background())
	require.Error(t, err)
	assert.Nil(t, d.Health())
	assert.Equal(t, PhaseFailed, d.Phase(ActionHealth))
}

func TestSetPage_Refreshes(t *testing.T) {
	api := &fakeAPI{listRecords: []client.TransactionRecord{{Hash: "abc123"}}}
	d := newTestDashboard(&fakeWallet{}, &fakeSubmitter{}, api)

	require.NoError(t, d.SetPage(context.Background(), 3))
	assert.Equal(t, 3, d.Page())
	assert.Equal(t, 1, api.ListCalls())

	// Page numbers below 1 clamp to 1.
	require.NoError(t, d.SetPage(context.Background(), 0))
	assert.Equal(t, 1, d.Page())
}

func TestNew_NilLoggerDoesNotPanic(t *testing.T) {
	w := &fakeWallet{connectErr: wallet.ErrWalletUnavailable}
	d := New(w, &fakeSubmitter{}, &fakeAPI{}, DefaultPageSize, nil)

	// Connect failure logs at debug level; must not panic without a
	// logger.
	_, err := d.Connect(context.Background())
	require.ErrorIs(t, err, wallet.ErrWalletUnavailable)
	assert.False(t, d.Session().Connected)
}
