package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/vyrodovalexey/avadispatch/internal/config"
	"github.com/vyrodovalexey/avadispatch/internal/observability"
)

// runDispatcher serves requests until a shutdown signal or a server error.
func runDispatcher(app *application, configPath string, logger observability.Logger) {
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- app.server.Start()
	}()

	watcher := startConfigWatcher(app, configPath, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", observability.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			logger.Error("server stopped unexpectedly", observability.Error(err))
		}
	}

	shutdown(app, watcher, logger)
}

// startConfigWatcher republishes the endpoint catalog whenever the
// configuration file changes. A nil watcher means hot reload is off.
func startConfigWatcher(app *application, configPath string, logger observability.Logger) *config.Watcher {
	watcher, err := config.NewWatcher(configPath, func(newCfg *config.DispatcherConfig) {
		reloadConfig(app, newCfg, logger)
	},
		config.WithLogger(logger),
		config.WithErrorCallback(func(err error) {
			logger.Warn("configuration reload failed, keeping current endpoints", observability.Error(err))
		}),
	)
	if err != nil {
		logger.Warn("failed to create config watcher", observability.Error(err))
		return nil
	}

	if err := watcher.Start(context.Background()); err != nil {
		logger.Warn("failed to start config watcher", observability.Error(err))
		_ = watcher.Stop()
		return nil
	}

	return watcher
}

// reloadConfig validates newCfg and publishes its endpoints. Server,
// tracing and metrics settings take effect on restart only.
func reloadConfig(app *application, newCfg *config.DispatcherConfig, logger observability.Logger) {
	logger.Info("configuration changed, reloading endpoints")

	if err := config.ValidateConfig(newCfg); err != nil {
		logger.Error("invalid configuration, keeping current endpoints", observability.Error(err))
		return
	}
	if err := app.publish(newCfg); err != nil {
		logger.Error("failed to reload endpoints", observability.Error(err))
	}
}

// shutdown stops every component within the configured shutdown timeout.
func shutdown(app *application, watcher *config.Watcher, logger observability.Logger) {
	timeout := app.config.Server.ShutdownTimeout.Duration()
	if timeout <= 0 {
		timeout = config.DefaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	app.healthChecker.SetDraining(true)

	if watcher != nil {
		_ = watcher.Stop()
	}

	if err := app.server.Stop(shutdownCtx); err != nil {
		logger.Error("failed to stop server gracefully", observability.Error(err))
	}

	if err := app.tracer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown tracer", observability.Error(err))
	}

	logger.Info("dispatcher stopped")
}
