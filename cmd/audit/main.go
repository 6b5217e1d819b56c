package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/ahrav/secret-alert-audit/internal/app/audit"
	"github.com/ahrav/secret-alert-audit/internal/config"
	"github.com/ahrav/secret-alert-audit/internal/config/envloader"
	"github.com/ahrav/secret-alert-audit/internal/config/fileloader"
	"github.com/ahrav/secret-alert-audit/internal/domain/secrets"
	"github.com/ahrav/secret-alert-audit/internal/infra/github"
	"github.com/ahrav/secret-alert-audit/pkg/common/logger"
	"github.com/ahrav/secret-alert-audit/pkg/common/otel"
)

var build = "develop"

const serviceName = "secret-alert-audit"

const missingCredentialsMsg = "❌ Error: Please set the GITHUB_TOKEN and the GITHUB_OWNER environment variable."

func main() {
	// Set the correct number of threads for the service
	_, _ = maxprocs.Set()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Stdout, os.Stderr)
	stop()

	if err != nil {
		os.Exit(1)
	}
}

// run executes one audit. The report goes to stdout; logs and failure
// details go to stderr.
func run(ctx context.Context, stdout, stderr io.Writer) error {
	// -------------------------------------------------------------------------
	// Configuration

	// Credentials only come from the environment, so check them before any
	// file is read.
	if err := checkCredentials(ctx); err != nil {
		if errors.Is(err, config.ErrMissingCredentials) {
			fmt.Fprintln(stdout, missingCredentialsMsg)
		} else {
			fmt.Fprintf(stderr, "❌ Error: %v\n", err)
		}
		return err
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "❌ Error: %v\n", err)
		return err
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stdout, "❌ Error: %v\n", err)
		return err
	}

	log := newLogger(stderr, cfg)
	log.Info(ctx, "startup",
		"GOMAXPROCS", runtime.GOMAXPROCS(0),
		"build", build,
		"org", cfg.Organization,
		"prefix", cfg.Prefix,
		"failure_policy", string(cfg.FailurePolicy),
	)

	// -------------------------------------------------------------------------
	// Telemetry
	providers, teardown, err := otel.InitTelemetry(log, otel.Config{
		ServiceName:      cfg.Telemetry.ServiceName,
		ExporterEndpoint: cfg.Telemetry.Endpoint,
		Probability:      cfg.Telemetry.Probability,
		InsecureExporter: cfg.Telemetry.Insecure,
		ResourceAttributes: map[string]string{
			"build":        build,
			"organization": cfg.Organization,
		},
	})
	if err != nil {
		log.Error(ctx, "initializing telemetry", "error", err)
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		teardown(shutdownCtx)
	}()

	tracer := providers.Tracer.Tracer(serviceName)

	metrics, err := audit.NewMetrics(providers.Meter)
	if err != nil {
		log.Error(ctx, "initializing metrics", "error", err)
		return fmt.Errorf("initializing metrics: %w", err)
	}

	// -------------------------------------------------------------------------
	// GitHub
	client, err := github.NewClient(ctx, cfg.Token, cfg.GitHub, log, tracer, metrics)
	if err != nil {
		log.Error(ctx, "creating github client", "error", err)
		return fmt.Errorf("creating github client: %w", err)
	}

	// -------------------------------------------------------------------------
	// Audit
	auditor := audit.NewAuditor(
		audit.NewRepositoryEnumerator(client, cfg.Organization, cfg.Prefix, cfg.PageSize, log, tracer),
		audit.NewAlertFetcher(client, cfg.Organization, secrets.AlertKindStandard, cfg.PageSize, log, tracer),
		audit.NewAlertFetcher(client, cfg.Organization, secrets.AlertKindGeneric, cfg.PageSize, log, tracer),
		audit.NewReporter(stdout),
		cfg.Prefix,
		cfg.FailurePolicy,
		log,
		tracer,
		metrics,
	)

	if _, err := auditor.Run(ctx); err != nil {
		log.Error(ctx, "audit failed", "error", err)
		return fmt.Errorf("audit failed: %w", err)
	}

	return nil
}

// checkCredentials reports config.ErrMissingCredentials when the token or the
// organization is absent from the environment.
func checkCredentials(ctx context.Context) error {
	cfg, err := envloader.New(config.DefaultLoader{}).Load(ctx)
	if err != nil {
		return err
	}
	if cfg.Token == "" || cfg.Organization == "" {
		return config.ErrMissingCredentials
	}
	return nil
}

// loadConfig layers the environment over the optional config file over the
// built-in defaults.
func loadConfig(ctx context.Context) (*config.Config, error) {
	var base config.Loader = config.DefaultLoader{}
	if path := envloader.ConfigFile(); path != "" {
		base = fileloader.NewFileLoader(path)
	}
	return envloader.New(base).Load(ctx)
}

func newLogger(w io.Writer, cfg *config.Config) *logger.Logger {
	// Failures are also rendered as a plain line so the operator sees the
	// cause without parsing JSON.
	events := logger.Events{
		Error: func(ctx context.Context, r logger.Record) {
			if cause, ok := r.Attributes["error"]; ok {
				fmt.Fprintf(w, "❌ %s: %v\n", r.Message, cause)
				return
			}
			fmt.Fprintf(w, "❌ %s\n", r.Message)
		},
	}

	traceIDFn := func(ctx context.Context) string {
		return otel.GetTraceID(ctx)
	}

	hostname, _ := os.Hostname()
	metadata := map[string]string{
		"hostname": hostname,
		"build":    build,
	}

	return logger.NewWithMetadata(w, logger.ParseLevel(cfg.LogLevel), serviceName, traceIDFn, events, metadata)
}
