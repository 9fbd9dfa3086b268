package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	app := &cli.App{
		Name:  "lamplight",
		Usage: "Rollup dashboard client for submitting and browsing transfers",
		Description: `A command-line front end for the rollup network dashboard.

Connect a wallet, submit native transfers (single or batched), check
backend health, and browse or search previously submitted transactions.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Commands: []*cli.Command{
			healthCommand(),
			txCommands(),
			submitCommand(),
			submitBatchCommand(),
			walletCommands(),
		},
		// Global flags available to all commands
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "Rollup backend API URL",
				EnvVars: []string{"ROLLUP_API_URL"},
				Value:   "http://localhost:8080",
			},
			&cli.StringFlag{
				Name:    "rpc-url",
				Usage:   "Solana RPC endpoint URL",
				EnvVars: []string{"SOLANA_RPC_URL"},
				Value:   "https://api.devnet.solana.com",
			},
			&cli.StringFlag{
				Name:    "sender",
				Usage:   "Sender label attached to submitted transactions",
				EnvVars: []string{"SENDER_LABEL"},
				Value:   "lamplight",
			},
			&cli.StringFlag{
				Name:    "nats-url",
				Usage:   "NATS server URL for submission events (empty disables publishing)",
				EnvVars: []string{"NATS_URL"},
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output in JSON format",
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
