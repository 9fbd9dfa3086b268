package chain

import (
	"github.com/gagliardetto/solana-go"
)

// Checkpoint is a recent finality reference point required by the chain to
// prevent transaction replay. It is single-use: every transaction is built
// against a freshly fetched checkpoint and checkpoints are never shared
// across transactions, even within the same batch.
type Checkpoint struct {
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
}
