package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/corvid-labs/lamplight/service/config"
	"github.com/corvid-labs/lamplight/service/dashboard"
	"github.com/corvid-labs/lamplight/service/orchestrator"
	"github.com/corvid-labs/lamplight/service/wallet"
	"github.com/urfave/cli/v2"
)

func submitCommand() *cli.Command {
	return &cli.Command{
		Name:      "submit",
		Usage:     "Submit a single native transfer",
		ArgsUsage: "RECIPIENT LAMPORTS",
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return fmt.Errorf("recipient address and lamport amount are required")
			}

			recipient := c.Args().Get(0)
			amount, err := strconv.ParseInt(c.Args().Get(1), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid lamport amount %q: %w", c.Args().Get(1), err)
			}

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			jsonOutput := c.Bool("json")
			logger := newLogger(cfg)

			d, closer, err := connectedDashboard(cfg, logger)
			if err != nil {
				return err
			}
			defer closer()

			result, err := d.Submit(context.Background(), orchestrator.TransferRequest{
				Recipient:      recipient,
				AmountLamports: amount,
			})
			if err != nil {
				return err
			}

			printResult(result, jsonOutput)
			if result.Err != nil {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

// batchFile is the JSON shape accepted by submit-batch: an array of
// transfers, submitted in file order.
type batchFile []struct {
	Recipient      string `json:"recipient"`
	AmountLamports int64  `json:"amount_lamports"`
}

func submitBatchCommand() *cli.Command {
	return &cli.Command{
		Name:      "submit-batch",
		Usage:     "Submit a batch of native transfers with per-item isolation",
		ArgsUsage: "FILE",
		Description: `Reads a JSON array of transfers from FILE and submits them in order:

  [
    {"recipient": "9WzD...", "amount_lamports": 1000000},
    {"recipient": "4uQe...", "amount_lamports": 2500000}
  ]

Each item runs the full submission pipeline independently; one item's
failure does not abort the rest. The exit code is non-zero if any item
failed.`,
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("batch file is required")
			}

			data, err := os.ReadFile(c.Args().Get(0))
			if err != nil {
				return fmt.Errorf("failed to read batch file: %w", err)
			}

			var batch batchFile
			if err := json.Unmarshal(data, &batch); err != nil {
				return fmt.Errorf("failed to parse batch file: %w", err)
			}

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			jsonOutput := c.Bool("json")
			logger := newLogger(cfg)

			d, closer, err := connectedDashboard(cfg, logger)
			if err != nil {
				return err
			}
			defer closer()

			reqs := make([]orchestrator.TransferRequest, len(batch))
			for i, item := range batch {
				reqs[i] = orchestrator.TransferRequest{
					Recipient:      item.Recipient,
					AmountLamports: item.AmountLamports,
				}
			}

			results, err := d.SubmitBatch(context.Background(), reqs)
			if err != nil {
				return err
			}

			failed := 0
			if jsonOutput {
				out := make([]map[string]interface{}, len(results))
				for i, r := range results {
					entry := map[string]interface{}{
						"index":   i,
						"success": r.Success,
					}
					if r.Success {
						entry["hash"] = r.Hash
						entry["accepted"] = r.Accepted
					} else {
						entry["error_kind"] = string(r.Err.Kind)
						entry["error"] = r.Err.Error()
						failed++
					}
					out[i] = entry
				}
				data, _ := json.MarshalIndent(out, "", "  ")
				fmt.Println(string(data))
			} else {
				for i, r := range results {
					if r.Success {
						fmt.Printf("[%d] ✓ %s\n", i+1, r.Hash)
					} else {
						fmt.Printf("[%d] ✗ %s\n", i+1, r.Err.Error())
						failed++
					}
				}
				fmt.Printf("\n%d succeeded, %d failed\n", len(results)-failed, failed)
			}

			if failed > 0 {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

// connectedDashboard wires the submission pipeline and establishes the
// wallet session. Absent wallet capability surfaces as an instruction to
// configure one.
func connectedDashboard(cfg *config.Config, logger *slog.Logger) (*dashboard.Dashboard, func(), error) {
	d, closer, err := newSubmissionDashboard(cfg, logger)
	if errors.Is(err, wallet.ErrWalletUnavailable) {
		return nil, nil, fmt.Errorf("no wallet configured: set WALLET_KEY to a base58-encoded private key")
	}
	if err != nil {
		return nil, nil, err
	}

	if _, err := d.Connect(context.Background()); err != nil {
		closer()
		return nil, nil, fmt.Errorf("failed to connect wallet: %w", err)
	}
	return d, closer, nil
}

func printResult(result orchestrator.SubmissionResult, jsonOutput bool) {
	if jsonOutput {
		entry := map[string]interface{}{"success": result.Success}
		if result.Success {
			entry["hash"] = result.Hash
			entry["accepted"] = result.Accepted
			if result.LastValidBlockHeight != 0 {
				entry["last_valid_block_height"] = result.LastValidBlockHeight
			}
		} else {
			entry["error_kind"] = string(result.Err.Kind)
			entry["error"] = result.Err.Error()
		}
		data, _ := json.MarshalIndent(entry, "", "  ")
		fmt.Println(string(data))
		return
	}

	if result.Success {
		fmt.Printf("✓ Transaction submitted\n")
		fmt.Printf("  Hash:     %s\n", result.Hash)
		fmt.Printf("  Accepted: %t\n", result.Accepted)
		if result.LastValidBlockHeight != 0 {
			fmt.Printf("  Valid until block height: %d\n", result.LastValidBlockHeight)
		}
	} else {
		fmt.Printf("✗ Submission failed (%s): %s\n", result.Err.Kind, result.Err.Error())
	}
}
