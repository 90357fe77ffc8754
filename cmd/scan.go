package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/onair/internal/led"
	"github.com/smazurov/onair/internal/logging"
	"github.com/smazurov/onair/internal/settings"
	"github.com/smazurov/onair/internal/status"
	"github.com/spf13/cobra"
)

// CreateScanCmd creates the scan command.
func CreateScanCmd() *cobra.Command {
	var test bool
	var step time.Duration

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List connected lights",
		Long: `Enumerates every configured light family once and prints what was found. ` +
			`With --test, cycles each light through the in-use, not-in-use and locked colors, then turns it off.`,
		Args: cobra.NoArgs,
		Run: humacli.WithOptions(func(cmd *cobra.Command, _ []string, opts *Options) {
			logger := logging.GetLogger("led")

			families, err := opts.Families()
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "Invalid light options:", err)
				os.Exit(1)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			current, err := settings.Read(opts.SettingsPath())
			if err != nil {
				logger.Warn("Using default colors", "error", err)
			}

			scanners := led.NewScanners(families, logger)
			if err := runScan(ctx, cmd.OutOrStdout(), scanners, current.EffectConfig(), test, step, logger); err != nil {
				os.Exit(1)
			}
		}),
	}

	cmd.Flags().BoolVar(&test, "test", false, "Cycle every light through the status colors")
	cmd.Flags().DurationVar(&step, "step", 2*time.Second, "How long each test color is shown")

	return cmd
}

// runScan enumerates the lights, prints them, and optionally cycles colors.
// Lights are always turned off and released before it returns.
func runScan(ctx context.Context, out io.Writer, scanners []led.Scanner, effects led.EffectConfig, test bool, step time.Duration, logger *slog.Logger) error {
	registry := led.NewRegistry(logger, scanners...)
	controller := led.NewController(registry, effects, logger)
	defer controller.Shutdown()

	start := time.Now()
	res, scanErr := registry.Rescan(ctx)
	if scanErr != nil {
		fmt.Fprintln(out, "Some families failed:", scanErr)
	}

	fmt.Fprintf(out, "%s Scan took %s.\n", registry.Description(), time.Since(start).Round(time.Millisecond))
	if res.Count > 0 {
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "FAMILY\tNAME")
		for _, d := range registry.Devices() {
			fmt.Fprintf(tw, "%s\t%s\n", d.Family, d.Name)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if !test || res.Count == 0 {
		return scanErr
	}

	for _, s := range []status.Status{status.InUse, status.NotInUse, status.Locked} {
		r := controller.ApplyStatus(s)
		fmt.Fprintf(out, "%-11s %s  %d ok, %d failed\n", s, effects.ColorFor(s), r.Succeeded, r.Failed)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(step):
		}
	}
	controller.LightsOff()
	fmt.Fprintln(out, "Lights off.")
	return scanErr
}
