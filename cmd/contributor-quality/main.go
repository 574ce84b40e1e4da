package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/jdiegosierra/contributor-quality/internal/adapters"
	"github.com/jdiegosierra/contributor-quality/internal/analysis"
	"github.com/jdiegosierra/contributor-quality/internal/config"
	"github.com/jdiegosierra/contributor-quality/internal/errors"
	"github.com/jdiegosierra/contributor-quality/internal/monitoring"
	"github.com/jdiegosierra/contributor-quality/internal/types"
)

var version = "dev"

// snapshotFetcher is the part of the GraphQL client the commands need
type snapshotFetcher interface {
	FetchSnapshot(ctx context.Context, login string, since, now time.Time) (*types.RawContributorSnapshot, error)
}

// fetcherFactory builds a fetch client for one run
type fetcherFactory func(cfg config.FetchConfig, logger *monitoring.Logger, metrics *monitoring.Metrics) snapshotFetcher

func githubFetcher(cfg config.FetchConfig, logger *monitoring.Logger, metrics *monitoring.Metrics) snapshotFetcher {
	return adapters.NewGitHubClient(cfg, logger, metrics)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp(githubFetcher).RunContext(ctx, os.Args); err != nil {
		slog.Error("contributor-quality failed", "error", err)
		os.Exit(1)
	}
}

func newApp(newFetcher fetcherFactory) *cli.App {
	return &cli.App{
		Name:    "contributor-quality",
		Usage:   "score GitHub contributors from their public activity",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML config file",
				EnvVars: []string{"CQ_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			scoreCommand(newFetcher),
			serveCommand(newFetcher),
		},
	}
}

// loadConfig reads the config file named by --config and installs the
// configured logger as the slog default
func loadConfig(c *cli.Context) (*config.Config, *monitoring.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}

	logger := monitoring.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger.Logger)
	return cfg, logger, nil
}

// normalizeLogin accepts "@login" mentions and stray whitespace
func normalizeLogin(login string) string {
	return strings.TrimPrefix(strings.TrimSpace(login), "@")
}

// evaluate scores one contributor end to end. Trusted users short-circuit
// before any request is made.
func evaluate(ctx context.Context, cfg *config.Config, fetcher snapshotFetcher, login string, now time.Time,
	logger *monitoring.Logger, metrics *monitoring.Metrics) (*analysis.ScoringResult, error) {
	login = normalizeLogin(login)
	if login == "" {
		return nil, errors.NewValidationError("login cannot be empty")
	}

	runLogger := logger.WithRun(uuid.New().String(), login)
	start := time.Now()

	if cfg.IsTrusted(login) {
		runLogger.Info("Trusted user, skipping evaluation")
		result := analysis.TrustedResult(login, cfg, now)
		metrics.RecordEvaluation(true)
		return result, nil
	}

	snapshot, err := fetcher.FetchSnapshot(ctx, login, cfg.Since(now), now)
	if err != nil {
		return nil, errors.WrapError(err, "fetch activity for %s", login)
	}

	result, err := analysis.NewAnalyzer(cfg).Evaluate(*snapshot, now)
	if err != nil {
		return nil, err
	}

	metrics.RecordEvaluation(result.Passed)
	runLogger.EvaluationLogger(login, result.FinalScore, result.Passed, result.DecayFactor, result.SpamPenalty, time.Since(start))
	return result, nil
}

func exitf(format string, args ...interface{}) error {
	return cli.Exit(fmt.Sprintf(format, args...), 1)
}
