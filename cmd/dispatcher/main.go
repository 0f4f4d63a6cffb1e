// Package main is the entry point for the endpoint dispatcher.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/vyrodovalexey/avadispatch/internal/catalog"
	"github.com/vyrodovalexey/avadispatch/internal/config"
	"github.com/vyrodovalexey/avadispatch/internal/endpoint"
	"github.com/vyrodovalexey/avadispatch/internal/health"
	"github.com/vyrodovalexey/avadispatch/internal/index"
	"github.com/vyrodovalexey/avadispatch/internal/observability"
	"github.com/vyrodovalexey/avadispatch/internal/resolution"
	"github.com/vyrodovalexey/avadispatch/internal/selector"
	"github.com/vyrodovalexey/avadispatch/internal/server"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

const metricsNamespace = "avadispatch"

// cliFlags holds command line flags. Empty log settings defer to the
// configuration file.
type cliFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	showVersion bool
}

func main() {
	flags := parseFlags()

	if flags.showVersion {
		printVersion()
		return
	}

	logger := initLogger(resolveLogConfig(flags, config.DefaultConfig().Logging))
	configPath := resolveConfigPath(flags.configPath, logger)
	cfg := loadAndValidateConfig(configPath, logger)

	// Rebuild the logger once the file's logging section is known.
	logger = initLogger(resolveLogConfig(flags, cfg.Logging))
	defer func() { _ = logger.Sync() }()

	app, err := initApplication(cfg, logger)
	if err != nil {
		fatalWithSync(logger, "failed to initialize dispatcher", observability.Error(err))
		return
	}

	runDispatcher(app, configPath, logger)
}

// parseFlags parses command line flags.
func parseFlags() cliFlags {
	configPath := flag.String("config", getEnvOrDefault("DISPATCHER_CONFIG_PATH", "configs/dispatcher.yaml"),
		"Path to configuration file")
	logLevel := flag.String("log-level", getEnvOrDefault("DISPATCHER_LOG_LEVEL", ""),
		"Log level (debug, info, warn, error); overrides the configuration file")
	logFormat := flag.String("log-format", getEnvOrDefault("DISPATCHER_LOG_FORMAT", ""),
		"Log format (json, console); overrides the configuration file")
	showVersion := flag.Bool("version", getEnvBool("DISPATCHER_SHOW_VERSION", false), "Show version information")
	flag.Parse()

	return cliFlags{
		configPath:  *configPath,
		logLevel:    *logLevel,
		logFormat:   *logFormat,
		showVersion: *showVersion,
	}
}

// printVersion prints version information.
func printVersion() {
	fmt.Printf("avadispatch version %s\n", version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

// resolveLogConfig merges command line overrides into the configured
// logging section.
func resolveLogConfig(flags cliFlags, logging config.LoggingConfig) observability.LogConfig {
	cfg := observability.DefaultLogConfig()
	if logging.Level != "" {
		cfg.Level = logging.Level
	}
	if logging.Format != "" {
		cfg.Format = logging.Format
	}
	if logging.Output != "" {
		cfg.Output = logging.Output
	}
	if flags.logLevel != "" {
		cfg.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Format = flags.logFormat
	}
	return cfg
}

// initLogger initializes the logger.
func initLogger(cfg observability.LogConfig) observability.Logger {
	logger, err := observability.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

// resolveConfigPath finds the configuration file, also searching configs/,
// /etc/avadispatch and ~/.avadispatch for relative paths.
func resolveConfigPath(path string, logger observability.Logger) string {
	resolved, err := config.ResolveConfigPath(path)
	if err != nil {
		fatalWithSync(logger, "failed to locate configuration", observability.Error(err))
		return path
	}
	return resolved
}

// loadAndValidateConfig loads and validates the configuration.
func loadAndValidateConfig(configPath string, logger observability.Logger) *config.DispatcherConfig {
	logger.Info("starting avadispatch",
		observability.String("version", version),
		observability.String("config", configPath),
	)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fatalWithSync(logger, "failed to load configuration", observability.Error(err))
		return nil
	}

	if err := config.ValidateConfig(cfg); err != nil {
		fatalWithSync(logger, "invalid configuration", observability.Error(err))
		return nil
	}

	logger.Info("configuration loaded",
		observability.String("address", cfg.Server.Address),
		observability.Int("endpoints", len(cfg.Endpoints)),
		observability.Bool("tracing", cfg.Tracing.Enabled),
		observability.Bool("metrics", cfg.Metrics.Enabled),
	)

	return cfg
}

// application holds all application components.
type application struct {
	store         *endpoint.Store
	selector      *selector.Selector
	server        *server.Server
	healthChecker *health.Checker
	metrics       *observability.Metrics
	tracer        *observability.Tracer
	config        *config.DispatcherConfig
	logger        observability.Logger
}

// initApplication wires the dispatcher from cfg and publishes its
// endpoint catalog.
func initApplication(cfg *config.DispatcherConfig, logger observability.Logger) (*application, error) {
	tracer, err := initTracer(cfg)
	if err != nil {
		return nil, err
	}

	metrics := observability.NewMetrics(metricsNamespace)
	metrics.SetBuildInfo(version, gitCommit, buildTime)

	app := &application{
		store:         endpoint.NewStore(),
		healthChecker: health.NewChecker(version),
		metrics:       metrics,
		tracer:        tracer,
		config:        cfg,
		logger:        logger,
	}
	app.healthChecker.RegisterCheck("endpoints", health.CollectionCheck(app.store))

	if err := app.publish(cfg); err != nil {
		return nil, err
	}

	app.selector = selector.New(app.store,
		selector.WithIndexCache(index.NewCache(
			index.WithLogger(logger),
			index.WithRecorder(metrics),
		)),
		selector.WithResolutionCache(resolution.NewCache(
			resolution.WithLogger(logger),
			resolution.WithRecorder(metrics),
		)),
		selector.WithLogger(logger),
		selector.WithRecorder(metrics),
	)

	serverOpts := []server.Option{
		server.WithLogger(logger),
		server.WithTracer(tracer),
		server.WithHealthChecker(app.healthChecker),
	}
	serverCfg := server.Config{
		Address:      cfg.Server.Address,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration(),
		WriteTimeout: cfg.Server.WriteTimeout.Duration(),
	}
	if cfg.Metrics.Enabled {
		serverCfg.MetricsPath = cfg.Metrics.Path
		serverOpts = append(serverOpts, server.WithMetricsHandler(metrics.Handler()))
	}
	app.server = server.New(app.selector, serverCfg, serverOpts...)

	return app, nil
}

// initTracer initializes the tracer from the tracing section.
func initTracer(cfg *config.DispatcherConfig) (*observability.Tracer, error) {
	tracerCfg := observability.TracerConfig{
		ServiceName:  cfg.Tracing.ServiceName,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SamplingRate: cfg.Tracing.SamplingRate,
		Enabled:      cfg.Tracing.Enabled,
	}
	if tracerCfg.ServiceName == "" {
		tracerCfg.ServiceName = config.DefaultServiceName
	}

	tracer, err := observability.NewTracer(tracerCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	return tracer, nil
}

// publish builds the endpoint catalog from cfg and makes it the current
// collection. On error the previous collection stays in place.
func (app *application) publish(cfg *config.DispatcherConfig) error {
	descriptors, err := catalog.Build(cfg.Endpoints)
	if err != nil {
		return err
	}

	v, err := app.store.Publish(descriptors)
	if err != nil {
		return fmt.Errorf("failed to publish endpoints: %w", err)
	}

	app.logger.Info("endpoint collection published",
		observability.Uint64("version", v),
		observability.Int("endpoints", len(descriptors)),
	)
	return nil
}
