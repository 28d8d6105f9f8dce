package main

import (
	"time"

	"github.com/spf13/cobra"

	"gocatalog_crawler/config"
	"gocatalog_crawler/internal/daterium/app"
	"gocatalog_crawler/pkg/logger"
)

type globalFlags struct {
	configFile string
	envFile    string
	logLevel   string
}

// runtime is built once per command invocation in the root pre-run hook.
type runtime struct {
	cfg *config.AppConfig
	log *logger.BaseLogger
	app *app.App
}

func newRootCommand() *cobra.Command {
	var flags globalFlags
	rt := &runtime{}

	root := &cobra.Command{
		Use:           "catalog-crawler",
		Short:         "Crawls the Daterium catalog search API into Postgres",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var envFiles []string
			if flags.envFile != "" {
				envFiles = append(envFiles, flags.envFile)
			}
			cfg, err := config.Load(flags.configFile, envFiles...)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Logging.Level = flags.logLevel
			}
			log, err := logger.NewLogger(cfg.Logging)
			if err != nil {
				return err
			}
			rt.cfg, rt.log = cfg, log
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if rt.app != nil {
				if err := rt.app.Close(); err != nil {
					rt.log.Warn("Failed to close resources", logger.Err(err))
				}
			}
			if rt.log != nil {
				_ = rt.log.Sync()
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", "", "dotenv file to load (default .env)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "debug, info, warn or error")

	root.AddCommand(newCrawlCommand(rt), newMigrateCommand(rt), newBackfillCommand(rt))
	return root
}

func (rt *runtime) application() *app.App {
	if rt.app == nil {
		rt.app = app.New(rt.cfg, rt.log)
	}
	return rt.app
}

func newCrawlCommand(rt *runtime) *cobra.Command {
	var (
		strategies  []string
		loop        bool
		idle        time.Duration
		shuffle     bool
		concurrency int
		rateDelay   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Sweep one or more key spaces, resuming from the stored cursor",
		Example: `  catalog-crawler crawl --strategy letter-bigram
  catalog-crawler crawl --strategy brand-name,family-name --loop --idle 10m`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := &rt.cfg.Crawl
			if cmd.Flags().Changed("idle") {
				c.Idle = idle
			}
			if cmd.Flags().Changed("shuffle") {
				c.Shuffle = shuffle
			}
			if cmd.Flags().Changed("concurrency") {
				c.Concurrency = concurrency
			}
			if cmd.Flags().Changed("rate-delay") {
				c.RateDelay = rateDelay
			}
			return rt.application().Crawl(cmd.Context(), app.CrawlOptions{Strategies: strategies, Loop: loop})
		},
	}
	cmd.Flags().StringSliceVar(&strategies, "strategy", nil,
		"comma separated strategies: letter-bigram, letter-trigram, digit-range, brand-name, family-name, tool-term")
	cmd.Flags().BoolVar(&loop, "loop", false, "cycle through the strategies until interrupted")
	cmd.Flags().DurationVar(&idle, "idle", 10*time.Minute, "pause between loop cycles")
	cmd.Flags().BoolVar(&shuffle, "shuffle", false, "shuffle dispatch order within each chunk on fresh sweeps")
	cmd.Flags().IntVar(&concurrency, "concurrency", 5, "concurrent requests")
	cmd.Flags().DurationVar(&rateDelay, "rate-delay", 400*time.Millisecond, "minimum delay before each request")
	return cmd
}

func newMigrateCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the catalog schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.application().Migrate(cmd.Context())
		},
	}
}

func newBackfillCommand(rt *runtime) *cobra.Command {
	var opts app.BackfillOptions
	cmd := &cobra.Command{
		Use:   "backfill-codes",
		Short: "Look up products stored without a barcode and attach one",
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := rt.application().Backfill(cmd.Context(), opts)
			if err != nil {
				return err
			}
			cmd.Printf("scanned=%d found=%d attached=%d missing=%d failed=%d\n",
				summary.Scanned, summary.Found, summary.Attached, summary.Missing, summary.Failed)
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.Limit, "limit", 1000, "products per batch")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "report codes without writing them")
	cmd.Flags().IntVar(&opts.MaxBatches, "max-batches", 0, "stop after this many batches (0 = all)")
	return cmd
}
