package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

// startPipelineCommand returns the command running the full monitoring
// pipeline: websocket hub, poll cycles, rule evaluation and sink fan-out.
//
// Usage example:
//
//	txsentinel start
//
// The process runs until it receives SIGINT or SIGTERM.
func startPipelineCommand(svcs Services) *cli.Command {
	return &cli.Command{
		Name:        "start",
		Description: "Starts the address monitoring pipeline and the websocket broadcast hub.",
		Usage:       "Runs polling, fraud evaluation and broadcasting. Terminates gracefully on Ctrl+C.",
		Action: func(ctx context.Context, c *cli.Command) error {
			quit := make(chan os.Signal, 1)
			defer close(quit)

			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			if err := svcs.Hub.Start(ctx); err != nil {
				return err
			}
			defer svcs.Hub.Close()

			if err := svcs.Pipeline.Start(ctx); err != nil {
				return err
			}
			defer svcs.Pipeline.Close()

			<-quit
			return nil
		},
	}
}
