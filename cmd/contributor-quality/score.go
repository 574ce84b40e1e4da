package main

import (
	"encoding/json"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/jdiegosierra/contributor-quality/internal/config"
	"github.com/jdiegosierra/contributor-quality/internal/monitoring"
)

func scoreCommand(newFetcher fetcherFactory) *cli.Command {
	return &cli.Command{
		Name:      "score",
		Usage:     "score one contributor and print the result as JSON",
		ArgsUsage: "<login>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "mode",
				Usage: "override the scoring mode (weighted|threshold)",
			},
			&cli.IntFlag{
				Name:  "threshold",
				Usage: "override the minimum passing score (0-1000)",
			},
			&cli.BoolFlag{
				Name:  "check",
				Usage: "exit with status 2 when the contributor does not pass",
			},
			&cli.BoolFlag{
				Name:  "compact",
				Usage: "print JSON on a single line",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return exitf("score: expected exactly one login, got %d", c.NArg())
			}

			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			if c.IsSet("mode") {
				cfg.Mode = config.ScoringMode(c.String("mode"))
			}
			if c.IsSet("threshold") {
				cfg.MinimumScoreThreshold = c.Int("threshold")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			metrics := monitoring.NewMetrics()
			fetcher := newFetcher(cfg.Fetch, logger, metrics)

			result, err := evaluate(c.Context, cfg, fetcher, c.Args().First(), time.Now().UTC(), logger, metrics)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(c.App.Writer)
			if !c.Bool("compact") {
				enc.SetIndent("", "  ")
			}
			if err := enc.Encode(result); err != nil {
				return err
			}

			if c.Bool("check") && !result.Passed {
				return cli.Exit("", 2)
			}
			return nil
		},
	}
}
