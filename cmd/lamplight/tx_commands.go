package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/corvid-labs/lamplight/client"
	"github.com/itchyny/gojq"
	"github.com/urfave/cli/v2"
)

func txCommands() *cli.Command {
	return &cli.Command{
		Name:    "tx",
		Aliases: []string{"transactions"},
		Usage:   "Browse and search submitted transactions",
		Subcommands: []*cli.Command{
			txListCommand(),
			txGetCommand(),
		},
	}
}

func txListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List one page of submitted transactions",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "page",
				Aliases: []string{"p"},
				Value:   1,
				Usage:   "Page number (1-indexed)",
			},
			&cli.IntFlag{
				Name:  "page-size",
				Usage: "Number of transactions per page, 1-100 (default: PAGE_SIZE)",
			},
			&cli.StringSliceFlag{
				Name:    "must-jq",
				Aliases: []string{"jq"},
				Usage:   "jq filter expression over each record that must evaluate to true (can be specified multiple times, all must match)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			page := c.Int("page")
			pageSize := cfg.PageSize
			if c.IsSet("page-size") {
				pageSize = c.Int("page-size")
			}
			jqFilters := c.StringSlice("must-jq")
			jsonOutput := c.Bool("json")

			if page < 1 {
				return fmt.Errorf("page must be at least 1")
			}
			if pageSize < 1 || pageSize > 100 {
				return fmt.Errorf("page-size must be between 1 and 100")
			}

			// Compile jq filters
			compiled := make([]*gojq.Code, len(jqFilters))
			for i, filter := range jqFilters {
				query, err := gojq.Parse(filter)
				if err != nil {
					return fmt.Errorf("failed to parse jq filter %q: %w", filter, err)
				}
				compiled[i], err = gojq.Compile(query)
				if err != nil {
					return fmt.Errorf("failed to compile jq filter %q: %w", filter, err)
				}
			}

			logger := newLogger(cfg)
			d := newReadDashboard(cfg, pageSize, logger)

			if err := d.SetPage(context.Background(), page); err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}
			records := d.Records()

			if len(compiled) > 0 {
				records = filterRecords(records, compiled)
			}

			if jsonOutput {
				data, _ := json.MarshalIndent(records, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			if len(records) == 0 {
				fmt.Println("No transactions found")
				return nil
			}

			fmt.Printf("Page %d (%d transaction(s)):\n\n", page, len(records))
			for i, record := range records {
				fmt.Printf("[%d] Hash: %s\n", i+1, record.Hash)
				if len(record.Transaction) > 0 {
					fmt.Printf("    Payload: %s\n", string(record.Transaction))
				}
				fmt.Println()
			}

			return nil
		},
	}
}

func txGetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Aliases:   []string{"show"},
		Usage:     "Look up a submitted transaction by hash",
		ArgsUsage: "HASH",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("transaction hash is required")
			}

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			hash := c.Args().Get(0)
			jsonOutput := c.Bool("json")

			logger := newLogger(cfg)
			d := newReadDashboard(cfg, cfg.PageSize, logger)

			result, err := d.SearchTransaction(context.Background(), hash)
			if err != nil {
				return fmt.Errorf("failed to get transaction: %w", err)
			}
			if result.NotFound {
				// Not found is an empty state, not a failure.
				if jsonOutput {
					fmt.Println(`{"found": false}`)
				} else {
					fmt.Printf("No transaction found with hash %s\n", hash)
				}
				return nil
			}

			if jsonOutput {
				data, _ := json.MarshalIndent(result.Record, "", "  ")
				fmt.Println(string(data))
			} else {
				fmt.Printf("Hash:    %s\n", result.Record.Hash)
				fmt.Printf("Payload: %s\n", string(result.Record.Transaction))
			}

			return nil
		},
	}
}

// filterRecords keeps records for which every jq filter is truthy when
// run over the record's JSON form.
func filterRecords(records []client.TransactionRecord, filters []*gojq.Code) []client.TransactionRecord {
	kept := make([]client.TransactionRecord, 0, len(records))
	for _, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			continue
		}
		var doc interface{}
		if err := json.Unmarshal(data, &doc); err != nil {
			continue
		}

		matched := true
		for _, code := range filters {
			iter := code.Run(doc)
			v, ok := iter.Next()
			if !ok {
				matched = false
				break
			}
			if _, isErr := v.(error); isErr {
				matched = false
				break
			}
			if !isTruthy(v) {
				matched = false
				break
			}
		}
		if matched {
			kept = append(kept, record)
		}
	}
	return kept
}

// isTruthy checks if a jq result value is truthy.
// In jq, false and null are falsy, everything else is truthy.
func isTruthy(v interface{}) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return true
}
