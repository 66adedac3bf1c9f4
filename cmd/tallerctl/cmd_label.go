// cmd/tallerctl/cmd_label.go
package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tallerpiolin/inventory-backend/internal/services"
)

func runLabel(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid product id %q: %w", args[0], err)
	}

	ctx := cmd.Context()
	svc, closeDB, err := openServices(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	if upload {
		result, err := svc.Labels.Store(ctx, id, labelSize)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), result.URL)
		return nil
	}

	data, product, err := svc.Labels.Render(ctx, id, labelSize)
	if err != nil {
		return err
	}
	path := outPath
	if path == "" {
		path = services.LabelFileName(product, labelSize)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
