package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v10"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gokatarajesh/millionaire/internal/config"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load("configs/.env")
	}

	if err := newRootCmd().Execute(); err != nil {
		log.Fatal().Err(err).Msg("migrator failed")
	}
}

func newRootCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:           "migrator",
		Short:         "Schema migrations and question seeding for the millionaire service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "db/migrations", "directory containing migration files")

	cmd.AddCommand(
		newGooseCmd("up", "Apply all pending migrations", &dir, goose.Up),
		newGooseCmd("down", "Roll back the latest migration", &dir, goose.Down),
		newGooseCmd("status", "Print migration status", &dir, goose.Status),
		newSeedCmd(),
	)
	return cmd
}

func newGooseCmd(use, short string, dir *string, run func(*sql.DB, string, ...goose.OptionsFunc) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			migrationDir, err := filepath.Abs(*dir)
			if err != nil {
				return fmt.Errorf("resolve migration directory: %w", err)
			}
			if _, err := os.Stat(migrationDir); err != nil {
				return fmt.Errorf("migration directory %s: %w", migrationDir, err)
			}

			pg, err := loadPostgres()
			if err != nil {
				return err
			}
			db, err := sql.Open("pgx", pg.DSN())
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			if err := db.PingContext(cmd.Context()); err != nil {
				return fmt.Errorf("ping database: %w", err)
			}
			log.Info().
				Str("host", pg.Host).
				Int("port", pg.Port).
				Str("database", pg.Database).
				Str("migration_dir", migrationDir).
				Msg("connected to database")

			goose.SetTableName("goose_db_version")
			if err := goose.SetDialect("postgres"); err != nil {
				return err
			}
			if err := run(db, migrationDir); err != nil {
				return fmt.Errorf("goose %s: %w", use, err)
			}
			log.Info().Str("command", use).Msg("migration command finished")
			return nil
		},
	}
}

// loadPostgres reads only the PG_* variables so migrations run without the rest of the service config.
func loadPostgres() (config.Postgres, error) {
	var pg config.Postgres
	if err := env.ParseWithOptions(&pg, env.Options{RequiredIfNoDef: true}); err != nil {
		return pg, fmt.Errorf("parse postgres config: %w", err)
	}
	return pg, nil
}
