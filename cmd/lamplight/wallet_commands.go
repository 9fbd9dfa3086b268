package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/corvid-labs/lamplight/service/wallet"
	"github.com/urfave/cli/v2"
)

func walletCommands() *cli.Command {
	return &cli.Command{
		Name:  "wallet",
		Usage: "Inspect the configured wallet",
		Subcommands: []*cli.Command{
			walletShowCommand(),
		},
	}
}

func walletShowCommand() *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "Show the configured wallet's public key",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			jsonOutput := c.Bool("json")
			logger := newLogger(cfg)

			w, err := newWallet(cfg, logger)
			if errors.Is(err, wallet.ErrWalletUnavailable) {
				if jsonOutput {
					fmt.Println(`{"available": false}`)
					return nil
				}
				fmt.Println("No wallet configured. Set WALLET_KEY to a base58-encoded private key.")
				return nil
			}
			if err != nil {
				return err
			}

			sess, err := w.Connect(context.Background())
			if err != nil {
				return fmt.Errorf("failed to connect wallet: %w", err)
			}
			defer w.Disconnect()

			if jsonOutput {
				entry := map[string]interface{}{
					"available":  true,
					"public_key": sess.PublicKey.String(),
					"name":       sess.DisplayName,
				}
				data, _ := json.MarshalIndent(entry, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			fmt.Printf("Wallet:     %s\n", sess.DisplayName)
			fmt.Printf("Public key: %s\n", sess.PublicKey.String())
			return nil
		},
	}
}
