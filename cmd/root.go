package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/theirongolddev/agencyplan/internal/config"
	"github.com/theirongolddev/agencyplan/internal/logging"
	"github.com/theirongolddev/agencyplan/internal/progress"
	"github.com/theirongolddev/agencyplan/internal/roadmap"
	"github.com/theirongolddev/agencyplan/internal/store"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	flagPlan    string
	flagDB      string
	flagQuiet   bool
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "agencyplan",
	Short: "Insurance agency launch planner",
	Long:  "Track the timeline, startup budget and checklist for opening an independent insurance agency.",
	RunE:  runStatus,

	SilenceUsage: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagPlan, "plan", "", "Plan file (TOML); defaults to the built-in plan")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "Progress database path")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Only log errors")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log debug output")
}

// newLogger returns the stderr logger used by CLI commands.
func newLogger() *log.Logger {
	opts := logging.DefaultOptions()
	opts.Level = logLevel()
	return logging.New(os.Stderr, opts)
}

func logLevel() log.Level {
	switch {
	case flagVerbose:
		return log.DebugLevel
	case flagQuiet:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// loadConfig reads the config file. A broken file is reported and defaults are used.
func loadConfig(logger *log.Logger) config.Config {
	cfg, err := config.Load()
	if err != nil {
		logger.Warn("using default config", "err", err)
	}
	return cfg
}

func storePath(cfg config.Config) string {
	switch {
	case flagDB != "":
		return flagDB
	case cfg.General.StorePath != "":
		return cfg.General.StorePath
	default:
		return store.DefaultPath()
	}
}

func loadPlan(cfg config.Config) (*roadmap.Plan, error) {
	path := flagPlan
	if path == "" {
		path = cfg.General.PlanFile
	}
	plan, err := roadmap.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading plan: %w", err)
	}
	return plan, nil
}

// session is the state most commands work against: a plan plus progress
// loaded from the store.
type session struct {
	cfg     config.Config
	plan    *roadmap.Plan
	db      *store.SQLite
	dbPath  string
	tracker *progress.Tracker
	logger  *log.Logger
}

// openSession loads config and plan, opens the store and reads saved progress.
func openSession(ctx context.Context) (*session, error) {
	logger := newLogger()
	cfg := loadConfig(logger)

	plan, err := loadPlan(cfg)
	if err != nil {
		return nil, err
	}

	path := storePath(cfg)
	db, err := store.Open(path)
	if err != nil {
		return nil, err
	}

	tr := progress.New(db,
		progress.WithKey(cfg.General.StorageKey),
		progress.WithLogger(logger),
	)
	if err := tr.Load(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Debug("loaded progress", "store", path, "key", tr.Key(), "found", tr.Found())

	return &session{
		cfg:     cfg,
		plan:    plan,
		db:      db,
		dbPath:  path,
		tracker: tr,
		logger:  logger,
	}, nil
}

func (s *session) Close() error {
	return s.db.Close()
}
