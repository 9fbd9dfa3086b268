package wallet

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// Approver decides whether a signing or connection prompt is accepted.
// It stands in for the wallet holder's interactive approval step. A nil
// Approver approves everything.
type Approver func(tx *solana.Transaction) bool

// KeypairWallet is a Wallet backed by a local ed25519 keypair. It mirrors
// the prompt/approve flow of an extension wallet: Connect establishes a
// session, Sign requires a live session and consults the Approver.
type KeypairWallet struct {
	mu          sync.Mutex
	key         solana.PrivateKey
	displayName string
	connected   bool
	approver    Approver
	logger      *slog.Logger
}

// NewKeypairWallet creates a wallet over the given private key.
// If approver is nil, all prompts are approved.
func NewKeypairWallet(key solana.PrivateKey, displayName string, approver Approver, logger *slog.Logger) (*KeypairWallet, error) {
	if len(key) == 0 {
		return nil, ErrWalletUnavailable
	}
	if len(key) != 64 {
		return nil, fmt.Errorf("invalid private key length: expected 64 bytes, got %d", len(key))
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &KeypairWallet{
		key:         key,
		displayName: displayName,
		approver:    approver,
		logger:      logger,
	}, nil
}

// Detect builds a wallet from base58-encoded key material, typically read
// from the environment. An empty string means no wallet is installed and
// yields ErrWalletUnavailable, so callers can tell the user to configure
// one instead of failing hard.
func Detect(base58Key, displayName string, logger *slog.Logger) (*KeypairWallet, error) {
	if base58Key == "" {
		return nil, ErrWalletUnavailable
	}
	key, err := solana.PrivateKeyFromBase58(base58Key)
	if err != nil {
		return nil, fmt.Errorf("invalid wallet key material: %w", err)
	}
	return NewKeypairWallet(key, displayName, nil, logger)
}

// Connect establishes a session. The Approver is consulted with a nil
// transaction, standing in for the wallet's connection prompt.
func (w *KeypairWallet) Connect(ctx context.Context) (Session, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.approver != nil && !w.approver(nil) {
		w.logger.Debug("wallet connection rejected by approver")
		return Session{}, ErrUserRejected
	}

	w.connected = true
	sess := w.sessionLocked()
	w.logger.Debug("wallet connected", "public_key", sess.PublicKey.String())
	return sess, nil
}

// Disconnect clears the session.
func (w *KeypairWallet) Disconnect() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.connected = false
	w.logger.Debug("wallet disconnected")
}

// Sign authorizes and signs the transaction with the wallet's keypair.
func (w *KeypairWallet) Sign(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.connected {
		return nil, ErrWalletDisconnected
	}
	if w.approver != nil && !w.approver(tx) {
		w.logger.Debug("signing rejected by approver")
		return nil, ErrUserRejected
	}

	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if w.key.PublicKey().Equals(key) {
			return &w.key
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	return tx, nil
}

// Session returns the current session snapshot.
func (w *KeypairWallet) Session() Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sessionLocked()
}

func (w *KeypairWallet) sessionLocked() Session {
	if !w.connected {
		return Session{}
	}
	return Session{
		Connected:   true,
		PublicKey:   w.key.PublicKey(),
		DisplayName: w.displayName,
	}
}
