package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"
)

// checkTransactionCommand returns the command blocking until a transaction
// reaches the required confirmation depth or the timeout expires.
//
// Usage example:
//
//	txsentinel check-tx --tx 0xabc... --required 6 --timeout 10m
func checkTransactionCommand(svcs Services) *cli.Command {
	return &cli.Command{
		Name:        "check-tx",
		Description: "Waits until a transaction reaches the required number of confirmations.",
		Usage:       "Polls the explorer for confirmation depth; exits non-zero on timeout.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "tx",
				Usage:    "transaction hash to check",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "required",
				Usage: "confirmation depth to wait for",
				Value: 6,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "how long to keep waiting",
				Value: 10 * time.Minute,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			err := svcs.Compliance.WaitForConfirmations(ctx,
				c.String("tx"),
				svcs.Network,
				int(c.Int("required")),
				c.Duration("timeout"),
			)
			if err != nil {
				return err
			}

			fmt.Printf("transaction %s reached %d confirmations\n", c.String("tx"), c.Int("required"))
			return nil
		},
	}
}

// complianceReportCommand returns the command printing a compliance report
// for an address as indented JSON.
//
// Usage example:
//
//	txsentinel report --address 0xabc... --standard FATF --standard OFAC
func complianceReportCommand(svcs Services) *cli.Command {
	return &cli.Command{
		Name:        "report",
		Description: "Generates a compliance report for an address.",
		Usage:       "Builds the requested standard sections and prints them as JSON.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "address",
				Usage:    "address to assess",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:  "standard",
				Usage: "compliance standard to include (repeatable)",
				Value: []string{"FATF", "OFAC"},
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			report, err := svcs.Compliance.GenerateReport(ctx, c.String("address"), c.StringSlice("standard"))
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(report)
		},
	}
}
