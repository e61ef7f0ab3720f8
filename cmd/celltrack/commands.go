package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"celltracker/internal/adapters/storage"
	backupStore "celltracker/internal/adapters/storage/backup"
	recordStore "celltracker/internal/adapters/storage/servicerecord"
	"celltracker/internal/application/orchestrators"
	"celltracker/internal/application/projections"
	"celltracker/internal/domain/leader"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd, func(mg *storage.Migrator) error { return mg.Up() })
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back all migrations (drops every table)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd, func(mg *storage.Migrator) error { return mg.Down() })
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd, func(mg *storage.Migrator) error {
			version, dirty, err := mg.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty=%t)\n", version, dirty)
			return nil
		})
	},
}

func withMigrator(cmd *cobra.Command, fn func(*storage.Migrator) error) error {
	db, err := openDB(false)
	if err != nil {
		return err
	}
	defer db.Close()
	mg, err := storage.NewMigrator(db)
	if err != nil {
		return err
	}
	return fn(mg)
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace all data with the sample leaders",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.IsProduction() {
			return errors.New("seeding is disabled in production")
		}
		db, err := openDB(true)
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := orchestrators.ExecuteSeedLeaders(cmd.Context(), orchestrators.SeedLeadersDeps{
			BackupStore: backupStore.NewSQLiteStore(db),
			Directory:   leader.NewDirectory(cfg.Church.Zones, cfg.Church.CellDays),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d leaders\n", n)
		return nil
	},
}

var backupOutput string

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write a JSON backup of all leaders and service records",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(true)
		if err != nil {
			return err
		}
		defer db.Close()

		body, err := projections.QueryBackupSnapshot(cmd.Context(), projections.BackupSnapshotDeps{
			BackupStore: backupStore.NewSQLiteStore(db),
		})
		if err != nil {
			return err
		}
		out, err := openOutput(cmd, backupOutput)
		if err != nil {
			return err
		}
		if _, err := out.Write(body); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <file.json>",
	Short: "Replace all data with a JSON backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		db, err := openDB(true)
		if err != nil {
			return err
		}
		defer db.Close()

		res, err := orchestrators.ExecuteRestoreBackup(cmd.Context(), orchestrators.RestoreBackupInput{
			Filename: filepath.Base(args[0]),
			Data:     data,
		}, orchestrators.RestoreBackupDeps{BackupStore: backupStore.NewSQLiteStore(db)})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored %d leaders and %d service records\n", res.Leaders, res.Records)
		return nil
	},
}

var exportFlags struct {
	output    string
	startDate string
	endDate   string
	zone      string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export service records as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(true)
		if err != nil {
			return err
		}
		defer db.Close()

		out, err := openOutput(cmd, exportFlags.output)
		if err != nil {
			return err
		}
		err = projections.QueryExportCSV(cmd.Context(), projections.ExportCSVQuery{
			StartDate: exportFlags.startDate,
			EndDate:   exportFlags.endDate,
			Zone:      exportFlags.zone,
		}, out, projections.ExportCSVDeps{RecordStore: recordStore.NewSQLiteStore(db)})
		if err != nil {
			out.Close()
			return err
		}
		return out.Close()
	},
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Read a password from stdin and print its bcrypt hash for auth.admin_password_hash",
	RunE: func(cmd *cobra.Command, args []string) error {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return errors.New("no password on stdin")
		}
		password := strings.TrimRight(line, "\r\n")
		if password == "" {
			return errors.New("password cannot be empty")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(hash))
		return nil
	},
}

func init() {
	backupCmd.Flags().StringVarP(&backupOutput, "output", "o", "", "output file (default: stdout)")

	exportCmd.Flags().StringVarP(&exportFlags.output, "output", "o", "", "output file (default: stdout)")
	exportCmd.Flags().StringVar(&exportFlags.startDate, "start-date", "", "first service date, YYYY-MM-DD")
	exportCmd.Flags().StringVar(&exportFlags.endDate, "end-date", "", "last service date, YYYY-MM-DD")
	exportCmd.Flags().StringVar(&exportFlags.zone, "zone", "", "restrict to one zone")
}
