package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"
)

func healthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check the submission API's health",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			jsonOutput := c.Bool("json")
			logger := newLogger(cfg)

			d := newReadDashboard(cfg, cfg.PageSize, logger)
			status, err := d.HealthCheck(context.Background())
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}

			if jsonOutput {
				data, _ := json.MarshalIndent(status, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			fmt.Printf("Status: %s\n", status.Status)
			return nil
		},
	}
}
