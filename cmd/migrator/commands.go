package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gokatarajesh/trivia-api/internal/config"
	"github.com/gokatarajesh/trivia-api/internal/db/migrations"
	"github.com/gokatarajesh/trivia-api/internal/db/repository"
	"github.com/gokatarajesh/trivia-api/internal/logging"
	"github.com/gokatarajesh/trivia-api/internal/trivia"
)

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	envFile    string
	driver     string
	sqlitePath string

	cfg    *config.App
	logger zerolog.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "migrator",
		Short:         "Manage the trivia database schema and seed data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "optional .env file loaded before reading the environment")
	cmd.PersistentFlags().StringVar(&opts.driver, "driver", "", "storage driver (postgres|sqlite); defaults to STORAGE_DRIVER")
	cmd.PersistentFlags().StringVar(&opts.sqlitePath, "sqlite-path", "", "sqlite database file; defaults to SQLITE_PATH")

	cmd.AddCommand(
		newMigrateCommand(opts, "up", "Apply all pending migrations", (*migrations.Runner).Up),
		newMigrateCommand(opts, "down", "Roll back the most recent migration", (*migrations.Runner).Down),
		newMigrateCommand(opts, "status", "Log the state of every migration", (*migrations.Runner).Status),
		newVersionCommand(opts),
		newSeedCommand(opts),
	)
	return cmd
}

func (o *rootOptions) load(cmd *cobra.Command) error {
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if o.driver != "" {
		cfg.Storage.Driver = o.driver
	}
	if o.sqlitePath != "" {
		cfg.SQLite.Path = o.sqlitePath
	}
	if cfg.Storage.Driver != config.DriverPostgres && cfg.Storage.Driver != config.DriverSQLite {
		return fmt.Errorf("driver %q has no schema to manage", cfg.Storage.Driver)
	}

	o.cfg = cfg
	o.logger = logging.NewWithWriter(cmd.ErrOrStderr(), "trivia-migrator", cfg.Env).
		With().Str("driver", cfg.Storage.Driver).Logger()
	return nil
}

// openRunner opens a database/sql handle for goose.
func (o *rootOptions) openRunner(ctx context.Context) (*migrations.Runner, func() error, error) {
	var (
		db      *sql.DB
		dialect string
		err     error
	)
	switch o.cfg.Storage.Driver {
	case config.DriverSQLite:
		dialect = migrations.DialectSQLite
		db, err = repository.OpenSQLiteDB(ctx, o.cfg.SQLite.Path)
	default:
		dialect = migrations.DialectPostgres
		db, err = sql.Open("pgx", o.cfg.Postgres.ConnString())
		if err == nil {
			err = db.PingContext(ctx)
		}
	}
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	runner, err := migrations.NewRunner(db, dialect, o.logger)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return runner, db.Close, nil
}

func newMigrateCommand(opts *rootOptions, use, short string, action func(*migrations.Runner, context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, closeDB, err := opts.openRunner(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			if err := action(runner, cmd.Context()); err != nil {
				return fmt.Errorf("migrate %s: %w", use, err)
			}
			opts.logger.Info().Str("command", use).Msg("migration command finished")
			return nil
		},
	}
}

func newVersionCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, closeDB, err := opts.openRunner(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			version, err := runner.Version(cmd.Context())
			if err != nil {
				return fmt.Errorf("read version: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
}

// seedQuestion is one entry of a seed file.
type seedQuestion struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Category   int    `json:"category"`
	Difficulty int    `json:"difficulty"`
}

func newSeedCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <questions.json>",
		Short: "Migrate, then insert the questions listed in a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			questions, err := readSeedFile(args[0])
			if err != nil {
				return err
			}

			store, closeStore, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			svc := trivia.NewService(store, trivia.ServiceOptions{})
			for i, q := range questions {
				created, err := svc.CreateQuestion(cmd.Context(), trivia.NewQuestion(q))
				if err != nil {
					return fmt.Errorf("seed question %d: %w", i, err)
				}
				opts.logger.Debug().Int("question_id", created.ID).Msg("question seeded")
			}

			opts.logger.Info().Int("count", len(questions)).Str("file", args[0]).Msg("seed finished")
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d questions\n", len(questions))
			return nil
		},
	}
}

func readSeedFile(path string) ([]seedQuestion, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var questions []seedQuestion
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return questions, nil
}

// openStore returns a migrated store for the configured driver.
func (o *rootOptions) openStore(ctx context.Context) (trivia.Store, func(), error) {
	if o.cfg.Storage.Driver == config.DriverSQLite {
		store, err := repository.OpenSQLite(ctx, o.cfg.SQLite.Path, o.logger)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}

	runner, closeDB, err := o.openRunner(ctx)
	if err != nil {
		return nil, nil, err
	}
	err = runner.Up(ctx)
	_ = closeDB()
	if err != nil {
		return nil, nil, fmt.Errorf("migrate up: %w", err)
	}

	pool, err := pgxpool.New(ctx, o.cfg.Postgres.ConnString())
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	return repository.NewPostgresStore(pool), pool.Close, nil
}
