// Package cli implements the quizapp commands.
package cli

import (
	"database/sql"
	"fmt"

	"github.com/quiz-app/backend/internal/config"
	"github.com/quiz-app/backend/internal/database"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the top-level command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "quizapp",
		Short:        "Quiz question backend",
		Long:         "Stores quiz questions imported from spreadsheets and serves them over a REST API.",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringP("config", "c", "", "Path to a YAML config file")
	flags.String("port", "", "HTTP port (default: $PORT or 8080)")
	flags.String("db-driver", "", "Database driver: postgres or sqlite (default: $DB_DRIVER or postgres)")
	flags.String("db-dsn", "", "Database DSN, or file path for sqlite (default: $DB_DSN)")

	root.AddCommand(newServeCmd(), newMigrateCmd(), newImportCmd())
	return root
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	return config.Load(path, cmd.Flags())
}

// openDatabase connects and brings the schema up to date.
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Connect(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := database.Migrate(db, cfg.DB.Driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}
