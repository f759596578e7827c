package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jmartens/bulkcrawl/internal/classify"
	"github.com/jmartens/bulkcrawl/internal/client"
	"github.com/jmartens/bulkcrawl/internal/config"
	"github.com/jmartens/bulkcrawl/internal/logging"
	"github.com/jmartens/bulkcrawl/internal/metrics"
	"github.com/jmartens/bulkcrawl/internal/pipeline"
	"github.com/jmartens/bulkcrawl/internal/progress"
)

// submitOptions holds the per-invocation flags of the submit command.
type submitOptions struct {
	dryRun      bool
	limit       int
	noResume    bool
	metricsAddr string
}

// newSubmitCmd creates and configures the 'submit' subcommand, which runs
// the whole filter/order/submit pipeline against one input file.
func newSubmitCmd() *cobra.Command {
	opts := submitOptions{}

	cmd := &cobra.Command{
		Use:   "submit <input-file>",
		Short: "Submit URLs from a file to the crawler",
		Long: `Reads URLs (one per line, '#' comments allowed) from the input file,
filters and orders them, and submits each to the crawler's /crawl
endpoint. Already-submitted URLs recorded in <input-file>.progress are
skipped unless --no-resume is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "show what would be submitted without calling the crawler")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "cap the number of URLs submitted this run (0 = no cap)")
	cmd.Flags().BoolVar(&opts.noResume, "no-resume", false, "discard previous progress and start fresh")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address during the run")

	return cmd
}

func runSubmit(ctx context.Context, inputFile string, opts submitOptions) error {
	logger, err := logging.New(verbose, logJSON)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush

	cfg, err := config.Load(cfgFile)
	if err != nil {
		logger.Error("configuration invalid", zap.Error(err))
		return err
	}

	metrics.Init()
	if opts.metricsAddr != "" {
		srv := metrics.NewServer(opts.metricsAddr, logger)
		srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics shutdown failed", zap.Error(err))
			}
		}()
	}

	store := progress.NewStore(progress.PathFor(inputFile))
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing progress log failed", zap.Error(err))
		}
	}()

	engine, err := pipeline.New(
		cfg,
		classify.New(cfg.Rules()),
		store,
		client.New(cfg.CrawlerURL, cfg.SubmitTimeout()),
		nil,
		logger,
		pipeline.Options{
			InputFile: inputFile,
			DryRun:    opts.dryRun,
			Limit:     opts.limit,
			NoResume:  opts.noResume,
		},
	)
	if err != nil {
		logger.Error("pipeline init failed", zap.Error(err))
		return err
	}

	// Per-URL failures are already accounted for in the summary; only fatal
	// conditions surface here and set a non-zero exit status.
	if _, err := engine.Run(ctx); err != nil {
		logger.Error("run aborted", zap.Error(err))
		return err
	}
	return nil
}
