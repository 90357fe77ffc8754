package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/onair/cmd"
	"github.com/smazurov/onair/internal/api"
	"github.com/smazurov/onair/internal/config"
	"github.com/smazurov/onair/internal/events"
	"github.com/smazurov/onair/internal/led"
	"github.com/smazurov/onair/internal/logging"
	"github.com/smazurov/onair/internal/metrics"
	"github.com/smazurov/onair/internal/mic"
	"github.com/smazurov/onair/internal/settings"
	"github.com/smazurov/onair/internal/signals"
	"github.com/smazurov/onair/internal/systemd"
	"github.com/smazurov/onair/internal/version"
)

func main() {
	var cli humacli.CLI

	cli = humacli.New(func(hooks humacli.Hooks, opts *cmd.Options) {
		// Load configuration automatically
		configErr := config.LoadConfig(opts, cli.Root())

		// Initialize logging system
		logging.Initialize(opts.LoggingConfig())
		logger := logging.GetLogger("main")
		if configErr != nil {
			logger.Warn("Failed to load config", "error", configErr)
		}

		intervals, err := opts.Intervals()
		if err != nil {
			logger.Error("Invalid interval option", "error", err)
			os.Exit(1)
		}
		families, err := opts.Families()
		if err != nil {
			logger.Error("Invalid light option", "error", err)
			os.Exit(1)
		}

		// Create event bus for in-process event handling
		eventBus := events.New()
		logging.SetLogCallback(func(entry logging.LogEntry) {
			eventBus.Publish(api.LogEvent(entry))
		})

		// Settings are loaded before the lights so the first status uses them
		settingsStore := settings.NewStore(opts.SettingsPath(), eventBus, logging.GetLogger("settings"))
		current, loadErr := settingsStore.Load()
		if loadErr != nil {
			logger.Warn("Using default colors", "path", settingsStore.Path(), "error", loadErr)
		}

		ledLogger := logging.GetLogger("led")
		registry := led.NewRegistry(ledLogger, led.NewScanners(families, ledLogger)...)
		controller := led.NewController(registry, current.EffectConfig(), ledLogger, led.WithBlinkPeriod(intervals.BlinkPeriod))

		micLogger := logging.GetLogger("mic")
		var detector *mic.Detector
		if store, storeErr := mic.NewPlatformStore(); storeErr != nil {
			logger.Warn("Capture store unavailable, microphone will read as idle", "error", storeErr)
		} else {
			detector = mic.NewDetector(store, micLogger)
		}

		var (
			micQuery led.MicQuery
			poller   *mic.Poller
		)
		if detector != nil {
			micQuery = detector
			poller = mic.NewPoller(detector, eventBus, intervals.MicPoll, micLogger)
		}
		manager := led.NewManager(controller, registry, micQuery, eventBus, ledLogger)

		signalsLogger := logging.GetLogger("signals")
		var watchers []signals.Source
		if opts.SessionWatch {
			watchers = append(watchers, signals.NewSessionWatcher(eventBus, signalsLogger))
		}
		if opts.PowerWatch {
			watchers = append(watchers, signals.NewPowerWatcher(eventBus, signalsLogger))
		}
		if opts.HotplugWatch {
			watchers = append(watchers, signals.NewHotplugWatcher(eventBus, intervals.HotplugSettle, signalsLogger))
		}

		apiOpts := &api.Options{
			AuthUsername: opts.AuthUsername,
			AuthPassword: opts.AuthPassword,
			Lights:       manager,
			Settings:     settingsStore,
			EventBus:     eventBus,
		}
		if opts.Metrics {
			apiOpts.MetricsHandler = metrics.Handler()
		}
		server := api.NewServer(apiOpts)

		notifier := systemd.NewNotifier(logger)
		ctx, cancel := context.WithCancel(context.Background())

		hooks.OnStart(func() {
			logger.Info("Starting onair", "version", version.String())

			scanCtx, scanCancel := context.WithTimeout(ctx, 30*time.Second)
			// Failing families are logged by the manager; the rest are usable.
			_, _ = manager.InitHardware(scanCtx)
			scanCancel()

			manager.Start()

			if poller != nil {
				if startErr := poller.Start(ctx); startErr != nil {
					logger.Warn("Failed to start mic poller", "error", startErr)
				}
			}

			for _, w := range watchers {
				if startErr := w.Start(ctx); startErr != nil {
					logger.Warn("Failed to start signal source", "error", startErr)
				}
			}

			if watchErr := settingsStore.Watch(func(next settings.Settings) {
				if updateErr := manager.UpdateEffects(ctx, next.EffectConfig(), settings.SourceFile); updateErr != nil {
					logger.Warn("Failed to apply reloaded settings", "error", updateErr)
				}
			}); watchErr != nil {
				logger.Warn("Settings file will not be watched", "error", watchErr)
			}

			notifier.Ready(registry.Description())
			go notifier.Watchdog(ctx)

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			notifier.Stopping()

			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}

			for _, w := range watchers {
				w.Stop()
			}
			if poller != nil {
				poller.Stop()
			}
			if closeErr := settingsStore.Close(); closeErr != nil {
				logger.Warn("Error closing settings watcher", "error", closeErr)
			}

			manager.Stop()
			cancel()
			manager.ShutdownHardware()
			logging.SetLogCallback(nil)
		})
	})

	cli.Root().Use = "onair"
	cli.Root().Short = "Keep a status light in sync with microphone use and session lock"
	cli.Root().Version = version.Get().Version

	cli.Root().AddCommand(cmd.CreateScanCmd())
	cli.Root().AddCommand(cmd.CreateMicCmd())

	// Run the CLI
	cli.Run()
}
