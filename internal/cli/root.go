// Package cli implements the techdoc command line.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmynk/techdoc/internal/config"
	"github.com/mmynk/techdoc/internal/metrics"
	"github.com/mmynk/techdoc/internal/repository"
	"github.com/mmynk/techdoc/internal/storage"
	"github.com/mmynk/techdoc/internal/storage/bolt"
	"github.com/mmynk/techdoc/internal/storage/sqlite"
	"github.com/mmynk/techdoc/pkg/logging"
)

// AppName is the binary name.
const AppName = "techdoc"

// app carries what every command shares: the flags of the root command and
// the configuration they resolve to.
type app struct {
	configPath string
	envPath    string
	logLevel   string
	verbose    bool

	cfg *config.Config
	now func() time.Time
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{now: time.Now}

	root := &cobra.Command{
		Use:   AppName,
		Short: "Field service job records for on-site technicians",
		Long: `TechDoc keeps clients, jobs and their photos in a local store.

Run "techdoc serve" to start the local API, or use the subcommands to
inspect, seed, export and import the store directly.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "YAML config file")
	flags.StringVar(&a.envPath, "env-file", ".env", "dotenv file loaded before the environment")
	flags.StringVar(&a.logLevel, "log-level", "", "override the configured log level")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newServeCmd(a),
		newSeedCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newUsageCmd(a),
		newWipeCmd(a),
		newClientsCmd(a),
		newJobsCmd(a),
		newLiveCmd(a),
		newHashPasswordCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath, a.envPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if a.verbose {
		logging.SetupWithLevel(slog.LevelDebug)
		return nil
	}
	level := cfg.Logging.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	if _, err := logging.Setup(logging.Options{Level: level, Format: cfg.Logging.Format}); err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	return nil
}

// openStore opens the configured medium.
func (a *app) openStore(m *metrics.Metrics) (*storage.Store, error) {
	sc := a.cfg.Store

	var medium storage.Medium
	var err error
	switch sc.Driver {
	case config.DriverBolt:
		medium, err = bolt.New(sc.Path, bolt.WithQuota(sc.QuotaBytes))
	default:
		medium, err = sqlite.New(sc.Path, sqlite.WithQuota(sc.QuotaBytes))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", sc.Driver, err)
	}
	slog.Debug("Store opened", "driver", sc.Driver, "path", sc.Path, "quota_bytes", sc.QuotaBytes)
	return storage.New(medium, storage.WithMetrics(m)), nil
}

// withRepo opens the store, runs fn and closes the store again.
func (a *app) withRepo(fn func(*repository.Repository) error) error {
	store, err := a.openStore(nil)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(repository.New(store, repository.WithClock(a.now)))
}
