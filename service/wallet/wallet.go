package wallet

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
)

// Session describes the current wallet connection as seen by the rest of
// the application. It is a value type: callers get a snapshot, not a live
// handle into the wallet's internal state.
type Session struct {
	Connected   bool
	PublicKey   solana.PublicKey
	DisplayName string
}

// Wallet is the signing capability injected into the orchestrator and
// dashboard. The concrete wallet (a local keypair here, a browser
// extension in other deployments) is environment-provided mutable state,
// so everything downstream depends on this interface instead.
type Wallet interface {
	// Connect establishes a session with the wallet. It fails with
	// ErrWalletUnavailable if no wallet capability is present, or
	// ErrUserRejected if the holder declines the connection prompt.
	Connect(ctx context.Context) (Session, error)

	// Disconnect tears down the current session. Safe to call when not
	// connected.
	Disconnect()

	// Sign asks the wallet to authorize the given transaction and returns
	// the signed transaction. It fails with ErrWalletDisconnected if there
	// is no live session, or ErrUserRejected if the holder declines the
	// signing prompt. Callers must not retry automatically.
	Sign(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error)

	// Session returns the current session snapshot.
	Session() Session
}

var (
	// ErrWalletUnavailable indicates no wallet capability is present in
	// the environment (e.g. no key material configured).
	ErrWalletUnavailable = errors.New("wallet unavailable: no wallet capability configured")

	// ErrUserRejected indicates the wallet holder declined a connection
	// or signing prompt.
	ErrUserRejected = errors.New("wallet request rejected by user")

	// ErrWalletDisconnected indicates a signing request arrived without a
	// live session.
	ErrWalletDisconnected = errors.New("wallet is not connected")
)
