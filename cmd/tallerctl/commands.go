// cmd/tallerctl/commands.go
package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tallerpiolin/inventory-backend/internal/config"
	"github.com/tallerpiolin/inventory-backend/internal/database"
	"github.com/tallerpiolin/inventory-backend/internal/gateway"
	"github.com/tallerpiolin/inventory-backend/internal/services"
)

// --- Global Command Variables ---
var (
	cfg     *config.Config
	verbose bool

	outPath   string
	checksum  string
	labelSize string
	upload    bool
	pruneDays int
	confirmed bool

	rootCmd = &cobra.Command{
		Use:           "tallerctl",
		Short:         "Operator tool for the TallerPiolin inventory backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
			loaded, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			cfg = loaded
			return nil
		},
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create tables, indexes and change-feed triggers",
		Args:  cobra.NoArgs,
		RunE:  runMigrate,
	}

	// --- Backup ---
	backupCmd = &cobra.Command{
		Use:   "backup",
		Short: "Export, import and upload backup documents",
	}
	backupExportCmd = &cobra.Command{
		Use:   "export",
		Short: "Write a backup document to a file (\"-\" for stdout)",
		Args:  cobra.NoArgs,
		RunE:  runBackupExport, // Defined in cmd_backup.go
	}
	backupImportCmd = &cobra.Command{
		Use:   "import [file]",
		Short: "Import products and sales from a backup document",
		Args:  cobra.ExactArgs(1),
		RunE:  runBackupImport, // Defined in cmd_backup.go
	}
	backupUploadCmd = &cobra.Command{
		Use:   "upload",
		Short: "Export a backup and store it in the configured bucket or backup directory",
		Args:  cobra.NoArgs,
		RunE:  runBackupUpload, // Defined in cmd_backup.go
	}

	// --- Labels ---
	labelCmd = &cobra.Command{
		Use:   "label [product-id]",
		Short: "Render the barcode label of a product as PNG",
		Args:  cobra.ExactArgs(1),
		RunE:  runLabel, // Defined in cmd_label.go
	}

	// --- Maintenance ---
	notificationsCmd = &cobra.Command{
		Use:   "notifications",
		Short: "Manage the notification ledger",
	}
	notificationsPruneCmd = &cobra.Command{
		Use:   "prune",
		Short: "Delete notifications older than --days",
		Args:  cobra.NoArgs,
		RunE:  runNotificationsPrune, // Defined in cmd_maintenance.go
	}
	clearCmd = &cobra.Command{
		Use:   "clear",
		Short: "DANGER: delete all sales and notifications and deactivate every product",
		Args:  cobra.NoArgs,
		RunE:  runClear, // Defined in cmd_maintenance.go
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	backupExportCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default: respaldo_<negocio>_<fecha>.json)")
	backupImportCmd.Flags().StringVar(&checksum, "sha256", "", "refuse to import unless the file matches this SHA-256")
	backupCmd.AddCommand(backupExportCmd, backupImportCmd, backupUploadCmd)

	labelCmd.Flags().StringVarP(&labelSize, "size", "s", "mediano", "label size: pequeno, mediano or grande")
	labelCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default: etiqueta_<codigo>_<tamano>.png)")
	labelCmd.Flags().BoolVar(&upload, "upload", false, "store the label in the configured storage instead of a local file")

	notificationsPruneCmd.Flags().IntVar(&pruneDays, "days", 30, "age in days")
	notificationsCmd.AddCommand(notificationsPruneCmd)

	clearCmd.Flags().BoolVar(&confirmed, "yes", false, "confirm the deletion")

	rootCmd.AddCommand(migrateCmd, backupCmd, labelCmd, notificationsCmd, clearCmd)
}

// openServices connects to the store and wires the services without a realtime feed.
func openServices(ctx context.Context) (*services.Services, func(), error) {
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() { database.Close(db) }

	storage, err := services.NewStorageService(cfg)
	if err != nil {
		closeDB()
		return nil, nil, err
	}

	svc := services.New(gateway.New(db, cfg.Store.Timeout, nil), storage, cfg.Business)
	if err := svc.Ledger.Load(ctx); err != nil {
		closeDB()
		return nil, nil, err
	}
	return svc, closeDB, nil
}

func withDB(fn func(db *gorm.DB) error) error {
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close(db)
	return fn(db)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	return withDB(func(db *gorm.DB) error {
		return database.RunMigrations(db, cfg.Realtime.Channel)
	})
}
