package events

import (
	"time"
)

// SubmissionEvent is emitted after a transaction submission is accepted by
// the backend. It replaces an implicit callback-on-success: interested
// parties (dashboard refresh, external tooling) subscribe instead of being
// threaded through the submission path.
type SubmissionEvent struct {
	Sender               string    `json:"sender"`
	Recipient            string    `json:"recipient"`
	AmountLamports       int64     `json:"amount_lamports"`
	Hash                 string    `json:"hash"`
	LastValidBlockHeight uint64    `json:"last_valid_block_height,omitempty"`
	SubmittedAt          time.Time `json:"submitted_at"`
}
