// Command functionworker is the CLI entry point the out-of-core harness
// exec's to start one worker process (spec §6 External Interfaces).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joeycumines/azfunc-go-worker/internal/functions/example"
	"github.com/joeycumines/azfunc-go-worker/internal/worker"
)

func main() {
	os.Exit(run())
}

func run() int {
	var cfg worker.Config
	var port int

	cmd := &cobra.Command{
		Use:           "functionworker",
		Short:         "Runs the Go language worker for the Azure Functions Host.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port < 0 || port > 65535 {
				return fmt.Errorf("invalid --port %d: must be between 0 and 65535", port)
			}
			cfg.Port = uint16(port)
			return worker.Run(cmd.Context(), cfg, example.Functions())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.Host, "host", "", "Hostname of the Azure Functions Host")
	flags.IntVar(&port, "port", 0, "TCP port of the Azure Functions Host")
	flags.StringVar(&cfg.WorkerID, "workerId", "", "Worker identifier echoed in StartStream")
	flags.StringVar(&cfg.RequestID, "requestId", "", "Opaque correlator reserved for future use")
	flags.IntVar(&cfg.GrpcMaxMessageLength, "grpcMaxMessageLength", 0, "Optional upper bound on gRPC message size")
	flags.MarkHidden("requestId")

	for _, name := range []string{"host", "port", "workerId", "requestId"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}

	cmd.SetContext(context.Background())

	if err := cmd.Execute(); err != nil {
		var fatal *worker.FatalError
		if errors.As(err, &fatal) {
			slog.Default().Error(fatal.Error())
			return 1
		}
		slog.Default().Error(err.Error())
		return 2
	}
	return 0
}
