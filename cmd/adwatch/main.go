package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/AdWatch/internal/artifacts"
	"github.com/TobiSchelling/AdWatch/internal/cache"
	"github.com/TobiSchelling/AdWatch/internal/collect"
	"github.com/TobiSchelling/AdWatch/internal/config"
	"github.com/TobiSchelling/AdWatch/internal/database"
	"github.com/TobiSchelling/AdWatch/internal/fetch"
	"github.com/TobiSchelling/AdWatch/internal/llm"
	"github.com/TobiSchelling/AdWatch/internal/logging"
	"github.com/TobiSchelling/AdWatch/internal/media"
	"github.com/TobiSchelling/AdWatch/internal/notify"
	"github.com/TobiSchelling/AdWatch/internal/pipeline"
	"github.com/TobiSchelling/AdWatch/internal/retry"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "adwatch",
	Short:   "Loan advertising compliance monitor",
	Long:    "AdWatch scans a social account for new posts, grades loan ads against the advertising policy, and alerts on non-compliant ones.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.New(os.Stderr, "info")
		slog.SetDefault(logger)

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config %s: %w", path, err)
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger = logging.New(os.Stderr, level)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(checkpointCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("adwatch", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/adwatch/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to set the monitored account, then put GEMINI_API_KEYS and SMTP credentials in .env.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show checkpoint and run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Account: %s (%s)\n\n", sourceLabel(), cfg.Source.Platform)
		fmt.Println("Checkpoint:")
		fmt.Printf("  Processed posts: %d\n", stats.Checkpoints)
		fmt.Println("\nRuns:")
		fmt.Printf("  Total: %d\n", stats.Runs)
		fmt.Printf("  Alerts raised: %d\n", stats.TotalAlerts)
		if stats.LastRunAt != nil {
			fmt.Printf("  Last run: %s\n", stats.LastRunAt.Local().Format(time.DateTime))
		}

		runs, err := db.RecentRuns(5)
		if err != nil {
			return err
		}
		if len(runs) > 0 {
			fmt.Println("\nRecent runs:")
			for _, r := range runs {
				mode := ""
				if r.DryRun {
					mode = " [dry-run]"
				}
				fmt.Printf("  %s  %s  discovered=%d processed=%d deduped=%d cached=%d alerts=%d failed=%d%s\n",
					r.ID, r.StartedAt.Local().Format(time.DateTime),
					r.Discovered, r.Processed, r.Deduped, r.CacheHits, r.Alerts, r.Failed, mode)
			}
		}
		return nil
	},
}

// --- run command ---

var (
	dryRun bool
	limit  int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one pass: discover -> dedup -> classify -> alert -> checkpoint -> cleanup",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		deps, err := buildDeps(db, dryRun)
		if err != nil {
			return err
		}
		pipe := pipeline.New(deps, pipeline.Options{
			Platform: cfg.Source.Platform,
			PostsDir: cfg.PostsDir(),
			Pacing:   cfg.Pipeline.Pacing,
			Limit:    limit,
		})

		if dryRun {
			result, err := pipe.DryRun(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("[dry-run] %d discovered, %d already processed, %d would be processed\n",
				result.Discovered, result.Deduped, len(result.Pending))
			for _, u := range result.Pending {
				fmt.Printf("  %s\n", u)
			}
			return nil
		}

		result, err := pipe.Run(ctx)
		if err != nil {
			return err
		}

		fmt.Println("\nRun complete:")
		fmt.Printf("  Discovered: %d\n", result.Discovered)
		fmt.Printf("  Processed: %d (%d from cache)\n", result.Processed, result.CacheHits)
		fmt.Printf("  Already processed: %d\n", result.Deduped)
		fmt.Printf("  Alerts: %d\n", result.Alerts)
		if result.NotifyFailed > 0 {
			fmt.Printf("  Alerts not delivered: %d\n", result.NotifyFailed)
		}
		if result.Failed > 0 {
			fmt.Printf("  Failed (retried next run): %d\n", result.Failed)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only discover and dedup, print what would be processed")
	runCmd.Flags().IntVar(&limit, "limit", 0, "Process at most N discovered posts")
}

// --- purge command ---

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete downloaded media, post records and cached classifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := artifacts.NewPurger(logger, cfg.PostsDir(), cfg.DownloadsDir(), cfg.CacheDir())
		if err := p.Purge(); err != nil {
			return err
		}
		fmt.Println("Artifacts purged.")
		return nil
	},
}

// buildDeps wires the pipeline collaborators from config. A dry run only
// needs discovery and the checkpoint store.
func buildDeps(db *database.DB, dry bool) (pipeline.Deps, error) {
	deps := pipeline.Deps{
		Source: newSource(),
		Store:  db,
		Runs:   db,
		Log:    logger,
	}
	if dry {
		return deps, nil
	}

	pool, err := llm.NewKeyPool(cfg.APIKeys())
	if err != nil {
		return deps, fmt.Errorf("%w: set %s in the environment or .env", err, cfg.Classifier.APIKeysEnv)
	}
	gen := llm.NewGeminiProvider(cfg.Classifier.Model, cfg.Classifier.Endpoint)
	deps.Classifier = llm.NewClient(gen, pool, llm.ClientOptions{
		Policy: retry.Policy{
			MaxAttempts: cfg.Classifier.MaxAttempts,
			BaseDelay:   cfg.Classifier.BaseDelay,
			Multiplier:  2,
		},
		Timeout: cfg.Classifier.Timeout,
		Logger:  logger,
	})

	c, err := cache.New(cfg.CacheDir())
	if err != nil {
		return deps, err
	}
	deps.Cache = c

	deps.Posts = fetch.NewPostFetcher(cfg.Pipeline.FetchTimeout)

	var video media.VideoExtractor
	if len(cfg.Media.VideoCommand) > 0 {
		video = &media.CommandExtractor{Command: cfg.Media.VideoCommand, Dir: cfg.DownloadsDir()}
	}
	deps.Media = media.NewFetcher(cfg.PostsDir(), cfg.Media.ImageTimeout, video)

	n, err := newNotifier()
	if err != nil {
		return deps, err
	}
	deps.Notifier = n

	if cfg.Cleanup.Enabled {
		dirs := []string{cfg.PostsDir(), cfg.DownloadsDir()}
		if cfg.Cleanup.PurgeCache {
			dirs = append(dirs, cfg.CacheDir())
		}
		deps.Purger = artifacts.NewPurger(logger, dirs...)
	}
	return deps, nil
}

func newSource() pipeline.Source {
	if cfg.Source.FeedURL != "" {
		return collect.NewFeedSource(cfg.Source.FeedURL, cfg.Source.MaxPosts, logger)
	}
	return collect.NewPageSource(cfg.Source.AccountURL, cfg.LinkPatterns(), cfg.Source.MaxPosts, cfg.Pipeline.FetchTimeout, logger)
}

func newNotifier() (notify.Notifier, error) {
	var multi notify.Multi

	email := cfg.Notify.Email
	if email.Enabled {
		n, err := notify.NewEmailNotifier(notify.EmailConfig{
			Host:     email.Host,
			Port:     email.Port,
			Username: os.Getenv(email.UsernameEnv),
			Password: os.Getenv(email.PasswordEnv),
			From:     email.From,
			To:       email.To,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set %s and %s)", err, email.UsernameEnv, email.PasswordEnv)
		}
		multi = append(multi, n)
	}

	tg := cfg.Notify.Telegram
	if tg.Enabled {
		multi = append(multi, notify.NewTelegramNotifier(os.Getenv(tg.TokenEnv), os.Getenv(tg.ChatIDEnv)))
	}

	if len(multi) == 0 {
		logger.Warn("no notifier enabled; alerts will only be logged")
		return nil, nil
	}
	return multi, nil
}

func sourceLabel() string {
	if cfg.Source.FeedURL != "" {
		return cfg.Source.FeedURL
	}
	return cfg.Source.AccountURL
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return database.Open(cfg.DBPath())
}
