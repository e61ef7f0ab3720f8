// Command celltrack is the admin CLI for the cell tracker database.
package main

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"celltracker/internal/adapters/storage"
	"celltracker/internal/config"
)

var (
	cfg    *config.Config
	dbPath string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:           "celltrack",
	Short:         "Administer the cell tracker database",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		slog.SetDefault(cfg.NewLogger(cmd.ErrOrStderr()))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "sqlite database path (default: from configuration)")

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
	rootCmd.AddCommand(migrateCmd, seedCmd, backupCmd, restoreCmd, exportCmd, hashPasswordCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// openDB opens the configured database, applying migrations unless migrate is false.
func openDB(migrate bool) (*sql.DB, error) {
	path := dbPath
	if path == "" {
		path = cfg.DatabasePath()
	}
	db, err := storage.Open(path)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := storage.Migrate(db); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

// openOutput returns stdout for "" or "-", otherwise a created file.
func openOutput(cmd *cobra.Command, path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{cmd.OutOrStdout()}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
