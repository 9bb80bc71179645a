package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"reading_roundup/internal/config"
	"reading_roundup/internal/publisher"
	"reading_roundup/internal/service"
	"reading_roundup/internal/source/journal"
	"reading_roundup/internal/storage/catalog"
)

var (
	cfgFile    string
	dbPath     string
	journalDir string
	bindAddr   string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "roundup",
	Short: "Reading list catalog and roundup curator",
	Long: `roundup collects tagged links from a directory of dated markdown notes
into a catalog and composes them into dated reading roundups.

Example usage:
  roundup serve --journal ~/notes --db reading_list.db
  roundup ingest --journal ~/notes
  roundup export 2024-03-01 > 2024-03-01.md
  roundup migrate --db reading_list.db`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "sqlite catalog file (overrides database.path)")
	rootCmd.PersistentFlags().StringVar(&journalDir, "journal", "", "journal directory (overrides journal.dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides log_level)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		os.Exit(1)
	}
}

func initConfig(cmd *cobra.Command) error {
	logger = setupLogger("info")

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Database.Driver = catalog.DriverSQLite
		cfg.Database.Path = dbPath
	}
	if flags.Changed("journal") {
		cfg.Journal.Dir = journalDir
	}
	if flags.Changed("bind") {
		cfg.HTTP.Addr = bindAddr
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}

	logger = setupLogger(cfg.LogLevel)
	return nil
}

func setupLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

func openCatalog(ctx context.Context) (*sqlx.DB, error) {
	db, err := catalog.Open(ctx, catalog.Config{
		Driver: cfg.Database.Driver,
		Path:   cfg.Database.Path,
		DSN:    cfg.Database.DSN(),
	})
	if err != nil {
		return nil, err
	}
	logger.Info("connected to catalog", "driver", cfg.Database.Driver)
	return db, nil
}

// openPublisher returns nil when publishing is disabled.
func openPublisher() (*publisher.RabbitMQ, error) {
	if !cfg.RabbitMQ.Enabled {
		return nil, nil
	}
	return publisher.NewRabbitMQ(publisher.Config{
		URL:        cfg.RabbitMQ.URL,
		Exchange:   cfg.RabbitMQ.Exchange,
		RoutingKey: cfg.RabbitMQ.RoutingKey,
		QueueName:  cfg.RabbitMQ.QueueName,
	}, logger)
}

type app struct {
	db        *sqlx.DB
	publisher *publisher.RabbitMQ
	catalog   *service.CatalogService
	sync      *service.SyncService
}

func (a *app) Close() {
	if a.publisher != nil {
		a.publisher.Close()
	}
	a.db.Close()
}

func newApp(ctx context.Context) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	db, err := openCatalog(ctx)
	if err != nil {
		return nil, err
	}

	pub, err := openPublisher()
	if err != nil {
		db.Close()
		return nil, err
	}

	var p service.Publisher
	if pub != nil {
		p = pub
	}

	catalogService := service.NewCatalogService(
		catalog.NewEntryStore(db),
		catalog.NewRoundupStore(db),
		catalog.NewTransactionManager(db),
		p,
		logger,
	)
	source := journal.New(journal.Config{Dir: cfg.Journal.Dir}, logger)

	return &app{
		db:        db,
		publisher: pub,
		catalog:   catalogService,
		sync:      service.NewSyncService(source, catalogService, logger),
	}, nil
}
