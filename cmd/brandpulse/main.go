// BrandPulse: brand sentiment monitoring for social mentions.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/brandpulse/brandpulse/api"
	"github.com/brandpulse/brandpulse/internal/classify"
	"github.com/brandpulse/brandpulse/internal/config"
	"github.com/brandpulse/brandpulse/internal/infra"
	"github.com/brandpulse/brandpulse/internal/llm"
	"github.com/brandpulse/brandpulse/internal/logging"
	"github.com/brandpulse/brandpulse/internal/monitor"
	"github.com/brandpulse/brandpulse/internal/notify"
	"github.com/brandpulse/brandpulse/internal/source"
	"github.com/brandpulse/brandpulse/internal/store"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var (
	cfg *config.Config
	log *logrus.Logger
)

func main() {
	// Local .env is optional; real deployments use the environment.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "brandpulse",
	Short: "BrandPulse: brand sentiment monitoring",
	Long: `BrandPulse fetches recent brand mentions from social sources,
classifies their sentiment and strategic signals with an LLM, aggregates
them into a report, and delivers the result to chat.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.Logging.Level
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			level = "debug"
		}
		log = logging.New("brandpulse", level, cfg.Logging.Format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(keysCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("BrandPulse %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Run Command ---

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one monitoring run",
	Long: `Fetch mentions from the configured sources, classify them, build the
report, persist it, and deliver it to chat. Intended to be cron-triggered.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		hours, _ := cmd.Flags().GetInt("hours")
		if hours <= 0 {
			hours = cfg.Sources.Twitter.WindowHours
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		noCache, _ := cmd.Flags().GetBool("no-cache")
		output, _ := cmd.Flags().GetString("output")

		runner, cleanup, err := buildRunner(noCache, nil)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Minute)
		defer cancel()

		report, err := runner.Run(ctx, monitor.Options{
			Hours:      hours,
			DryRun:     dryRun,
			OutputPath: output,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Run %s: %d mentions, score %+.2f (%s), cost $%.4f\n",
			report.RunID, report.TotalCount, report.SentimentScore, report.Trend, report.Cost.USD)
		if report.Cost.BudgetExceeded {
			fmt.Println("Warning: budget ceiling hit, report is partial")
		}
		return nil
	},
}

func init() {
	runCmd.Flags().Int("hours", 0, "time window in hours (default from config)")
	runCmd.Flags().Bool("dry-run", false, "render the report without delivering or recording history")
	runCmd.Flags().Bool("no-cache", false, "skip the classification cache for this run")
	runCmd.Flags().String("output", "", "also write the report JSON to this path")
}

// --- Serve Command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Serve the latest report, accept run triggers, and stream run
progress over WebSocket.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		port, _ := cmd.Flags().GetInt("port")
		if port == 0 {
			port = cfg.API.Port
		}

		files, err := store.NewFileStore(cfg.Store.ReportDir)
		if err != nil {
			return err
		}

		// The server's sink is wired after construction: the runner pushes
		// progress into the hub the server owns.
		var srv *api.Server
		runner, cleanup, err := buildRunner(false, func(e monitor.Event) {
			srv.EventSink()(e)
		})
		if err != nil {
			return err
		}
		defer cleanup()

		srv = api.NewServer(cfg, runner, files, version, log)

		addr := fmt.Sprintf("%s:%d", cfg.API.Host, port)
		log.WithField("addr", addr).Info("starting API server")
		return srv.ListenAndServe(addr)
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (default from config)")
}

// --- Keys Command ---

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Show credential status",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Credentials:")
		for _, k := range config.CheckCredentials(cfg) {
			status := "not set"
			if k.IsSet {
				status = fmt.Sprintf("set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("  %-25s %s\n", k.Name+":", status)
		}
		return nil
	},
}

// --- Wiring ---

// buildRunner assembles the pipeline from config. The returned cleanup
// closes any opened connections.
func buildRunner(noCache bool, sink monitor.Sink) (*monitor.Runner, func(), error) {
	var closers []func()
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	provider, err := buildProvider()
	if err != nil {
		return nil, cleanup, err
	}

	var cache classify.Cache
	if cfg.Cache.Enabled && !noCache {
		ttl := time.Duration(cfg.Cache.TTLHours) * time.Hour
		if cfg.Cache.RedisAddr != "" {
			redis := classify.NewRedisCache(cfg.Cache.RedisAddr, ttl)
			pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err := redis.Ping(pingCtx)
			cancel()
			if err != nil {
				log.WithError(err).Warn("redis unreachable, falling back to in-memory cache")
				_ = redis.Close()
			} else {
				cache = redis
				closers = append(closers, func() { _ = redis.Close() })
			}
		}
		if cache == nil {
			cache = infra.NewMemoryCache(ttl)
		}
	}

	classifier := classify.New(provider, cache, classify.Config{
		Brand:       cfg.Brand.Name,
		Model:       cfg.Classifier.Model,
		BatchSize:   cfg.Classifier.BatchSize,
		MaxAttempts: cfg.Classifier.MaxRetries,
		MaxTokens:   cfg.Classifier.MaxTokens,
		Temperature: cfg.Classifier.Temperature,
	}, log)

	sources, err := buildSources()
	if err != nil {
		return nil, cleanup, err
	}

	opts := []monitor.RunnerOption{
		monitor.WithMaxResults(cfg.Sources.Twitter.MaxResults),
	}
	if sink != nil {
		opts = append(opts, monitor.WithSink(sink))
	}

	files, err := store.NewFileStore(cfg.Store.ReportDir)
	if err != nil {
		return nil, cleanup, err
	}
	opts = append(opts, monitor.WithFileStore(files, cfg.Store.RetentionDays))

	if cfg.Store.PostgresDSN != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		pg, err := store.NewPGStore(ctx, cfg.Store.PostgresDSN)
		cancel()
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, func() { _ = pg.Close() })
		opts = append(opts, monitor.WithHistory(pg))
	}

	if cfg.Notify.WebhookURL != "" || cfg.Notify.BotToken != "" {
		slack, err := notify.NewSlack(cfg.Notify.WebhookURL, cfg.Notify.BotToken, cfg.Notify.Channel,
			notify.WithEscalation(cfg.Notify.EscalationMention, cfg.Notify.CriticalThreshold),
			notify.WithSlackLogger(log))
		if err != nil {
			return nil, cleanup, err
		}
		opts = append(opts, monitor.WithNotifier(slack))
	} else {
		log.Warn("no chat destination configured, reports will only be persisted")
	}

	pricing := classify.Pricing{
		InputPerMTok:  cfg.Classifier.PriceInPerM,
		OutputPerMTok: cfg.Classifier.PriceOutPerM,
	}
	runner := monitor.NewRunner(cfg.Brand.Name, cfg.Brand.Keywords, sources,
		classifier, pricing, cfg.Classifier.BudgetUSD, log, opts...)
	return runner, cleanup, nil
}

func buildProvider() (llm.Provider, error) {
	switch cfg.Classifier.Provider {
	case "anthropic":
		return llm.NewAnthropicProvider(cfg.Classifier.AnthropicKey,
			llm.WithAnthropicModel(cfg.Classifier.Model))
	case "openai":
		return llm.NewOpenAIProvider(cfg.Classifier.OpenAIKey,
			llm.WithOpenAIModel(cfg.Classifier.Model))
	default:
		return nil, fmt.Errorf("unknown classifier provider %q", cfg.Classifier.Provider)
	}
}

func buildSources() ([]source.Source, error) {
	var sources []source.Source

	if cfg.Sources.Twitter.BearerToken != "" {
		tw, err := source.NewTwitter(cfg.Sources.Twitter.BearerToken, source.WithTwitterLogger(log))
		if err != nil {
			return nil, err
		}
		sources = append(sources, tw)
	}
	if cfg.Sources.RSS.Enabled && len(cfg.Sources.RSS.Feeds) > 0 {
		sources = append(sources, source.NewRSS(cfg.Sources.RSS.Feeds, log))
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no mention sources configured")
	}
	return sources, nil
}
