package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rfsouza1492/factory-endurance-sub000/internal/config"
	"github.com/rfsouza1492/factory-endurance-sub000/internal/git"
	"github.com/rfsouza1492/factory-endurance-sub000/internal/logging"
	"github.com/rfsouza1492/factory-endurance-sub000/internal/pipeline"
	"github.com/rfsouza1492/factory-endurance-sub000/internal/storage"
)

var version = "dev"

var (
	rootDir    string
	configPath string
	logLevel   string
	devLogs    bool

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "factory",
	Short: "Quality pipeline: analyze, decide, remediate, approve",
	Long: `Factory runs a project's analyzers, consolidates their findings into a
Go/No-Go decision, folds the concerns into a remediation backlog and applies
the next batch of automatic fixes.

Artifacts live in the state dir (default .factory/) and are the source of
truth for pipeline progress.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootDir, "root", "C", ".", "Project root to analyze")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default <root>/.factory/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&devLogs, "dev-logs", false, "Human-readable console logs")
	rootCmd.Version = version
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup resolves the project root, loads configuration and builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return fmt.Errorf("failed to resolve project root: %w", err)
	}
	rootDir = abs

	path := configPath
	if path == "" {
		path = filepath.Join(rootDir, config.DefaultStateDir, config.DefaultFile)
	}
	cfg, err = config.Load(path)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger, err = logging.New(cfg.LogLevel, devLogs)
	if err != nil {
		return err
	}
	logger = logger.With(zap.String("root", rootDir))
	return nil
}

// session bundles what a pipeline command needs and releases it on close.
type session struct {
	ctrl  *pipeline.Controller
	store *storage.DualStore
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		logger.Warn("failed to close store", zap.Error(err))
	}
}

func openStore(ctx context.Context) (*storage.DualStore, error) {
	layout := pipeline.NewLayout(rootDir, cfg.StateDir)
	return storage.Open(ctx, &storage.Config{
		StateDir:       layout.StateDir,
		DisablePrimary: cfg.DisableStore,
		Logger:         logger,
	})
}

func openSession(ctx context.Context) (*session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	store, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	opts := pipeline.Options{
		Root:    rootDir,
		Config:  cfg,
		Store:   store,
		Logger:  logger,
		Version: version,
	}
	if g, err := git.NewGit(ctx); err != nil {
		logger.Warn("git unavailable", zap.Error(err))
	} else {
		opts.Git = g
	}

	ctrl, err := pipeline.New(opts)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &session{ctrl: ctrl, store: store}, nil
}
