package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/onair/internal/events"
	"github.com/smazurov/onair/internal/logging"
	"github.com/smazurov/onair/internal/mic"
	"github.com/spf13/cobra"
)

// CreateMicCmd creates the mic command.
func CreateMicCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "mic",
		Short: "Show which processes are capturing audio",
		Long:  `Reads the capture store once and prints its users. With --watch, keeps polling and prints every change until interrupted.`,
		Args:  cobra.NoArgs,
		Run: humacli.WithOptions(func(cmd *cobra.Command, _ []string, opts *Options) {
			logger := logging.GetLogger("mic")

			iv, err := opts.Intervals()
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "Invalid interval:", err)
				os.Exit(1)
			}

			store, err := mic.NewPlatformStore()
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "Capture store unavailable:", err)
				os.Exit(1)
			}
			detector := mic.NewDetector(store, logger)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if !watch {
				if err := printUsers(ctx, cmd.OutOrStdout(), detector); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "Failed to read capture store:", err)
					os.Exit(1)
				}
				return
			}
			if err := printUsers(ctx, cmd.OutOrStdout(), detector); err != nil {
				logger.Warn("Failed to read capture store", "error", err)
			}
			watchUsers(ctx, cmd.OutOrStdout(), detector, iv.MicPoll, logger)
		}),
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Keep polling and print changes")

	return cmd
}

func printUsers(ctx context.Context, out io.Writer, query mic.Querier) error {
	users, err := query.ActiveUsers(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, formatUsers(users))
	return nil
}

// watchUsers prints every MicActivityEvent the poller publishes until ctx ends.
func watchUsers(ctx context.Context, out io.Writer, query mic.Querier, interval time.Duration, logger *slog.Logger) {
	bus := events.New()
	ch := make(chan any, 16)
	unsubscribe := events.SubscribeToChannel[events.MicActivityEvent](bus, ch)
	defer unsubscribe()

	poller := mic.NewPoller(query, bus, interval, logger)
	if err := poller.Start(ctx); err != nil {
		fmt.Fprintln(out, "Failed to start poller:", err)
		return
	}
	defer poller.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-ch:
			if e, ok := ev.(events.MicActivityEvent); ok {
				fmt.Fprintf(out, "%s  %s\n", e.Timestamp, formatUsers(e.Users))
			}
		}
	}
}

func formatUsers(users []string) string {
	if len(users) == 0 {
		return "Microphone not in use."
	}
	return "Microphone in use by " + strings.Join(users, ", ") + "."
}
