// cmd/tallerctl/cmd_maintenance.go
package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func runNotificationsPrune(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, closeDB, err := openServices(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	count, err := svc.Ledger.PruneOlderThan(ctx, time.Duration(pruneDays)*24*time.Hour)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d notificaciones eliminadas\n", count)
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	if !confirmed {
		return errors.New("refusing to clear the database without --yes")
	}

	ctx := cmd.Context()
	svc, closeDB, err := openServices(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	return svc.Backup.ClearAll(ctx)
}
