package wallet

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestWallet(t *testing.T, approver Approver) *KeypairWallet {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	w, err := NewKeypairWallet(key, "test-wallet", approver, testLogger())
	require.NoError(t, err)
	return w
}

// transferTx builds a minimal transfer transaction with the wallet's key
// as fee payer so Sign has something real to authorize.
func transferTx(t *testing.T, from solana.PublicKey) *solana.Transaction {
	t.Helper()
	to := solana.MustPublicKeyFromBase58("9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM")
	ix := system.NewTransferInstruction(1_000_000, from, to).Build()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		solana.Hash{},
		solana.TransactionPayer(from),
	)
	require.NoError(t, err)
	return tx
}

func TestConnect_EstablishesSession(t *testing.T) {
	w := newTestWallet(t, nil)

	sess, err := w.Connect(context.Background())
	require.NoError(t, err)
	assert.True(t, sess.Connected)
	assert.Equal(t, "test-wallet", sess.DisplayName)
	assert.False(t, sess.PublicKey.IsZero())

	// Session() reports the same state
	assert.Equal(t, sess, w.Session())
}

func TestConnect_RejectedByApprover(t *testing.T) {
	w := newTestWallet(t, func(tx *solana.Transaction) bool { return false })

	sess, err := w.Connect(context.Background())
	require.ErrorIs(t, err, ErrUserRejected)
	assert.False(t, sess.Connected)
	assert.False(t, w.Session().Connected)
}

func TestDisconnect_ClearsSession(t *testing.T) {
	w := newTestWallet(t, nil)

	_, err := w.Connect(context.Background())
	require.NoError(t, err)

	w.Disconnect()
	sess := w.Session()
	assert.False(t, sess.Connected)
	assert.True(t, sess.PublicKey.IsZero())
}

func TestSign_Success(t *testing.T) {
	w := newTestWallet(t, nil)

	sess, err := w.Connect(context.Background())
	require.NoError(t, err)

	tx := transferTx(t, sess.PublicKey)
	signed, err := w.Sign(context.Background(), tx)
	require.NoError(t, err)
	require.NotNil(t, signed)
	require.Len(t, signed.Signatures, 1)
	assert.NoError(t, signed.VerifySignatures())
}

func TestSign_WithoutConnect(t *testing.T) {
	w := newTestWallet(t, nil)

	tx := transferTx(t, w.key.PublicKey())
	_, err := w.Sign(context.Background(), tx)
	assert.ErrorIs(t, err, ErrWalletDisconnected)
}

func TestSign_AfterDisconnect(t *testing.T) {
	w := newTestWallet(t, nil)

	sess, err := w.Connect(context.Background())
	require.NoError(t, err)
	w.Disconnect()

	tx := transferTx(t, sess.PublicKey)
	_, err = w.Sign(context.Background(), tx)
	assert.ErrorIs(t, err, ErrWalletDisconnected)
}

func TestSign_RejectedByApprover(t *testing.T) {
	// Approve the connection prompt (nil tx), reject the signing prompt.
	w := newTestWallet(t, func(tx *solana.Transaction) bool { return tx == nil })

	sess, err := w.Connect(context.Background())
	require.NoError(t, err)

	tx := transferTx(t, sess.PublicKey)
	_, err = w.Sign(context.Background(), tx)
	assert.ErrorIs(t, err, ErrUserRejected)
}

func TestDetect_NoKeyMaterial(t *testing.T) {
	_, err := Detect("", "test-wallet", testLogger())
	assert.ErrorIs(t, err, ErrWalletUnavailable)
}

func TestDetect_InvalidKeyMaterial(t *testing.T) {
	_, err := Detect("not-base58!!!", "test-wallet", testLogger())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrWalletUnavailable)
}

func TestDetect_ValidKey(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	w, err := Detect(key.String(), "test-wallet", testLogger())
	require.NoError(t, err)

	sess, err := w.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), sess.PublicKey)
}

func TestNewKeypairWallet_NilLoggerDoesNotPanic(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	w, err := NewKeypairWallet(key, "test-wallet", nil, nil)
	require.NoError(t, err)

	sess, err := w.Connect(context.Background())
	require.NoError(t, err)
	assert.True(t, sess.Connected)

	tx := transferTx(t, sess.PublicKey)
	_, err = w.Sign(context.Background(), tx)
	require.NoError(t, err)
}
