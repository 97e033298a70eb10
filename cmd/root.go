package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pable/go-pong-stats/internal/carousel"
	"github.com/pable/go-pong-stats/internal/config"
	"github.com/pable/go-pong-stats/internal/source"
	"github.com/pable/go-pong-stats/internal/storage"
)

var (
	configPath string
	dbPath     string
	apiURL     string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger

	// logCloser releases the log file, if the logger writes to one.
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "pongstats",
	Short: "Beer pong tournament stats",
	Long:  "Record beer pong tournaments and show their live stats carousel.",

	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to SQLite database (overrides config)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "read dashboards from a pongstats server instead of the database")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides config)")

	rootCmd.AddCommand(carouselCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(recapCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(dropCmd)
}

// loadConfig reads the config file, applies flag overrides and builds the
// default logger on stderr.
func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if dbPath != "" {
		c.DB = dbPath
	}
	if apiURL != "" {
		c.API.URL = apiURL
	}
	if logLevel != "" {
		c.Log.Level = logLevel
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c
	return setLogger(cfg.Log)
}

func setLogger(lc config.LogConfig) error {
	var w io.Writer = os.Stderr
	if lc.File != "" {
		f, err := config.OpenLogFile(lc.File)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		if logCloser != nil {
			logCloser.Close()
		}
		logCloser = f
		w = f
	}
	l, err := lc.NewLogger(w)
	if err != nil {
		return err
	}
	logger = l
	slog.SetDefault(l)
	return nil
}

// openDB opens the configured event store.
func openDB() (*storage.DB, error) {
	db, err := storage.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return db, nil
}

// newFetcher picks the dashboard source: a snapshot file, a remote server,
// or the local database. The returned func releases it.
func newFetcher(snapshotPath string) (carousel.Fetcher, func(), error) {
	switch {
	case snapshotPath != "":
		logger.Debug("dashboard source", "snapshot", snapshotPath)
		return source.SnapshotFile{Path: snapshotPath}, func() {}, nil
	case cfg.API.URL != "":
		logger.Debug("dashboard source", "api", cfg.API.URL)
		return source.NewClient(cfg.API.URL), func() {}, nil
	default:
		logger.Debug("dashboard source", "db", cfg.DB)
		db, err := openDB()
		if err != nil {
			return nil, nil, err
		}
		return source.NewLocal(db), func() { db.Close() }, nil
	}
}

func parseTournamentID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid tournament id %q", s)
	}
	return id, nil
}
