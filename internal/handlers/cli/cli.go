// Package cli wires the txsentinel commands: the monitoring pipeline plus
// one-shot compliance operations.
package cli

import (
	"context"
	"os"

	"github.com/txsentinel/txsentinel/internal/compliance"
	"github.com/txsentinel/txsentinel/internal/pipeline"
	"github.com/txsentinel/txsentinel/internal/wshub"

	"github.com/urfave/cli/v3"
)

// Services carries the pre-wired service implementations the commands run.
type Services struct {
	Network    string
	Pipeline   pipeline.Service
	Hub        wshub.Service
	Compliance compliance.Service
}

// Run executes the txsentinel CLI. Commands:
//
//   - `start`: runs the poll/evaluate/broadcast pipeline and websocket hub.
//   - `check-tx`: waits until a transaction reaches a confirmation depth.
//   - `report`: prints a compliance report for an address.
func Run(ctx context.Context, svcs Services) error {
	app := &cli.Command{
		EnableShellCompletion: true,
		Name:                  "txsentinel",
		Description:           "Command-line interface for the txsentinel fraud monitoring pipeline.",
		Usage:                 "txsentinel [command] [flags]",
		Commands: []*cli.Command{
			startPipelineCommand(svcs),
			checkTransactionCommand(svcs),
			complianceReportCommand(svcs),
		},
	}

	return app.Run(ctx, os.Args)
}
