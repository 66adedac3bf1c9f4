// cmd/tallerctl/cmd_backup.go
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tallerpiolin/inventory-backend/internal/utils"
)

func runBackupExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, closeDB, err := openServices(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	doc, err := svc.Backup.Export(ctx)
	if err != nil {
		return err
	}
	data, err := svc.Backup.Encode(doc)
	if err != nil {
		return err
	}

	if outPath == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	path := outPath
	if path == "" {
		path = svc.Backup.FileName(doc.Time().Local())
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	logrus.WithFields(logrus.Fields{
		"file":          path,
		"products":      doc.Metadata.TotalProducts,
		"sales":         doc.Metadata.TotalSales,
		"notifications": doc.Metadata.TotalNotifications,
	}).Info("Backup exported")
	return nil
}

func runBackupImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	if checksum != "" && !utils.VerifyChecksum(data, checksum) {
		return fmt.Errorf("checksum mismatch for %s: got %s", args[0], utils.Checksum(data))
	}

	ctx := cmd.Context()
	svc, closeDB, err := openServices(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	result, err := svc.Backup.Import(ctx, data)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "productos importados: %d, duplicados omitidos: %d, con error: %d\nventas importadas: %d, con error: %d\n",
		result.ImportedProducts, result.SkippedDuplicates, result.FailedProducts, result.ImportedSales, result.FailedSales)
	if result.Failed() {
		return fmt.Errorf("import finished with %d failed products and %d failed sales", result.FailedProducts, result.FailedSales)
	}
	return nil
}

func runBackupUpload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, closeDB, err := openServices(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	result, err := svc.Backup.Upload(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\nsha256 %s\n", result.URL, result.SHA256)
	return nil
}
