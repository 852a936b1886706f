package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"catalog-sync/core/config"
	"catalog-sync/core/database"
	"catalog-sync/core/logger"
	"catalog-sync/core/storage"
	"catalog-sync/feature/catalog"
	"catalog-sync/feature/catalog/docstore"
	"catalog-sync/feature/catalog/engine"
	"catalog-sync/feature/catalog/models"
	"catalog-sync/feature/catalog/notify"
	"catalog-sync/feature/catalog/source"
	"catalog-sync/feature/catalog/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the sync command
	syncMerchant string
	syncFile     string
	syncFormat   string
	syncMapping  string
)

// syncCmd runs a one-off catalog sync from a local file.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a one-off catalog sync from a local file",
	Long: `Sync a merchant's catalog from a local CSV or JSON export without going
through the HTTP API. The merchant must already have a sync configuration.

Examples:
  # Sync from a CSV export
  catalog-sync sync --merchant m1 --file products.csv

  # Sync a JSON export with an explicit format
  catalog-sync sync --merchant m1 --file export.dat --format json

  # Override the configured field mapping for this run
  catalog-sync sync --merchant m1 --file products.csv --mapping '{"sku":"id","title":"name","description":"desc"}'`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncMerchant, "merchant", "", "Merchant identifier (required)")
	syncCmd.Flags().StringVar(&syncFile, "file", "", "Path to the catalog file (required)")
	syncCmd.Flags().StringVar(&syncFormat, "format", "", "File format: csv or json (default: from file extension)")
	syncCmd.Flags().StringVar(&syncMapping, "mapping", "", "JSON field-mapping override for this run")
	_ = syncCmd.MarkFlagRequired("merchant")
	_ = syncCmd.MarkFlagRequired("file")

	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Resolve format from the extension when not given
	format := syncFormat
	if format == "" {
		switch strings.ToLower(filepath.Ext(syncFile)) {
		case ".csv":
			format = source.FormatCSV
		case ".json":
			format = source.FormatJSON
		default:
			return fmt.Errorf("cannot infer format from %q, pass --format", syncFile)
		}
	}

	// Parse the mapping override
	var override map[string]string
	if syncMapping != "" {
		if err := json.Unmarshal([]byte(syncMapping), &override); err != nil {
			return fmt.Errorf("malformed --mapping value: %w", err)
		}
	}

	data, err := os.ReadFile(syncFile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", syncFile, err)
	}

	// Connect to database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	repo := store.NewRepository(db)
	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate sync tables: %w", err)
	}

	// Connect to storage
	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to connect to storage: %w", err)
	}

	// Build the service without a scheduler; one-off runs don't need it
	docs := docstore.NewObjectStore(client, cfg.Storage.Bucket)
	notifier := notify.New(cfg.Sync.NotifyURL, l)
	fetcher := source.NewAPIPull(cfg.Sync.SourceTimeout())
	executor := engine.NewExecutor(repo, docs, fetcher, notifier, l, cfg.Sync)
	svc := catalog.NewService(repo, executor, nil, client, cfg.Storage.Bucket, l)

	l.Info("Starting catalog sync",
		zap.String("merchant_id", syncMerchant),
		zap.String("file", syncFile),
		zap.String("format", format),
	)

	run, err := svc.Upload(ctx, syncMerchant, format, data, override)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	printRunReport(l, run)
	return nil
}

// printRunReport prints a formatted run report using the logger.
func printRunReport(l *zap.Logger, run *models.SyncRun) {
	l.Info("Sync run report",
		zap.String("sync_id", run.SyncID),
		zap.String("status", run.Status),
		zap.Int("total", run.Counts.Total),
		zap.Int("created", run.Counts.Created),
		zap.Int("updated", run.Counts.Updated),
		zap.Int("skipped", run.Counts.Skipped),
		zap.Int("failed", run.Counts.Failed),
		zap.Int("deleted", run.Counts.Deleted),
	)

	if len(run.PendingDeletions) > 0 {
		l.Warn("Products missing from the file were not deleted (deleteMissing is off)",
			zap.Int("count", len(run.PendingDeletions)),
			zap.Strings("skus", run.PendingDeletions),
		)
	}

	// Show sample of errors (max 5 for logger)
	maxShow := 5
	if len(run.Errors) < maxShow {
		maxShow = len(run.Errors)
	}
	for i := 0; i < maxShow; i++ {
		recErr := run.Errors[i]
		l.Warn("Record failed",
			zap.String("sku", recErr.SKU),
			zap.String("stage", recErr.Stage),
			zap.String("reason", recErr.Message),
		)
	}
	if len(run.Errors) > maxShow {
		l.Warn("Additional record failures not shown", zap.Int("count", len(run.Errors)-maxShow))
	}
}
