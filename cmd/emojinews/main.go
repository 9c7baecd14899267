package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"emojinews/internal/config"
	"emojinews/internal/dedup"
	"emojinews/internal/feed"
	"emojinews/internal/pipeline"
	"emojinews/internal/server"
	"emojinews/internal/store"
	"emojinews/internal/thumbnail"
	"emojinews/internal/transform"
	"emojinews/internal/xai"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "emojinews",
	Short:   "Turn news articles into emojipasta",
	Long:    "emojinews fetches a news feed, converts articles into emojipasta with generated thumbnails, and publishes them as flat JSON records.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("emojinews", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/emojinews/",
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
		fmt.Println("Edit it to configure the feed, output dirs, and API key env vars.")
		return nil
	},
}

// --- run command ---

var (
	runArticles int
	dryRun      bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch articles and convert them to emojipasta",
	RunE: func(cmd *cobra.Command, args []string) error {
		articles := cfg.Feed.Articles
		if runArticles > 0 {
			articles = runArticles
		}

		records := store.New(cfg.NewsDir(), cfg.ThumbnailsDir())

		if dryRun {
			index, err := dedup.Load(records.NewsDir(), cfg.Retention(), time.Now().UTC())
			if err != nil {
				return err
			}
			fmt.Printf("[dry-run] Would fetch %d article(s) from %s\n", articles, cfg.Feed.URL)
			fmt.Printf("[dry-run] %d recent article hashes in the dedup window\n", index.Len())
			fmt.Printf("[dry-run] Output: %s\n", records.NewsDir())
			return nil
		}

		apiKey := cfg.APIKey()
		if apiKey == "" {
			return fmt.Errorf("%s is not set; nothing can be generated", cfg.XAI.APIKeyEnv)
		}

		client := xai.NewClient(cfg.XAI.BaseURL, apiKey, cfg.XAI.ChatModel, cfg.XAI.ImageModel, cfg.XAITimeout())

		pipe := pipeline.New(pipeline.Options{
			Reader:      feed.NewReader(cfg.Feed.URL, 0),
			Engine:      transform.NewEngine(client, cfg.XAI.MaxAttempts, cfg.XAI.MaxArticleChars),
			Thumbnailer: thumbnail.NewGenerator(client, thumbnail.DefaultMaxBytes),
			Store:       records,
			HashKey:     cfg.HashKey(),
			Articles:    articles,
			WorkerCap:   cfg.Pipeline.Workers,
			Retention:   cfg.Retention(),
		})

		summary, err := pipe.Run(context.Background())
		if err != nil {
			return err
		}

		printSummary(summary)
		return nil
	},
}

func init() {
	runCmd.Flags().IntVarP(&runArticles, "articles", "n", 0, "Number of articles to process (overrides config)")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without calling any backends")
}

func printSummary(summary *pipeline.Summary) {
	fmt.Printf("\nRun complete: %d accepted, %d skipped, %d failed\n",
		summary.Accepted(), summary.Skipped(), summary.Failed())

	for _, o := range summary.Outcomes {
		switch o.Status {
		case pipeline.StatusAccepted:
			fmt.Printf("  accepted  %s  (%s)\n", o.Title, o.File)
		case pipeline.StatusSkipped:
			fmt.Printf("  skipped   %s\n", o.Title)
		case pipeline.StatusFailed:
			fmt.Printf("  failed    %s: %v\n", o.Title, o.Err)
		}
	}
}

// --- status command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show output and dedup-window status",
	RunE: func(cmd *cobra.Command, args []string) error {
		records := store.New(cfg.NewsDir(), cfg.ThumbnailsDir())

		all, err := records.List()
		if err != nil {
			return fmt.Errorf("listing records: %w", err)
		}

		index, err := dedup.Load(records.NewsDir(), cfg.Retention(), time.Now().UTC())
		if err != nil {
			return fmt.Errorf("loading dedup window: %w", err)
		}

		withImage := 0
		for _, r := range all {
			if r.Record.Image != "" {
				withImage++
			}
		}

		fmt.Printf("Output: %s\n\n", records.NewsDir())
		fmt.Printf("Records:\n")
		fmt.Printf("  Total: %d\n", len(all))
		fmt.Printf("  With thumbnail: %d\n", withImage)
		fmt.Printf("\nDedup:\n")
		fmt.Printf("  Retention: %d days\n", cfg.Dedup.RetentionDays)
		fmt.Printf("  Tokens in window: %d\n", index.Len())
		if cfg.HashKey() == "" {
			fmt.Printf("  Hash key: NOT SET (%s) - dedup disabled\n", cfg.Dedup.HashKeyEnv)
		} else {
			fmt.Printf("  Hash key: set\n")
		}
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local preview server",
	RunE: func(cmd *cobra.Command, args []string) error {
		port := cfg.Server.Port
		if servePort > 0 {
			port = servePort
		}

		records := store.New(cfg.NewsDir(), cfg.ThumbnailsDir())

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(records, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (overrides config)")
}
