// Package migrations embeds the schema for each supported SQL dialect and
// applies it with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Dialects supported by the embedded migrations, keyed by goose dialect name.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

var dirs = map[string]string{
	DialectPostgres: "postgres",
	DialectSQLite:   "sqlite",
}

// goose keeps its configuration in package globals.
var mu sync.Mutex

// Runner applies migrations for one dialect.
type Runner struct {
	db      *sql.DB
	dialect string
	logger  zerolog.Logger
}

// NewRunner validates dialect and binds the runner to db.
func NewRunner(db *sql.DB, dialect string, logger zerolog.Logger) (*Runner, error) {
	if _, ok := dirs[dialect]; !ok {
		return nil, fmt.Errorf("unsupported migration dialect %q", dialect)
	}
	return &Runner{
		db:      db,
		dialect: dialect,
		logger:  logger.With().Str("component", "migrations").Str("dialect", dialect).Logger(),
	}, nil
}

// Up applies every pending migration.
func (r *Runner) Up(ctx context.Context) error {
	return r.run(func(dir string) error { return goose.UpContext(ctx, r.db, dir) })
}

// Down rolls back the most recent migration.
func (r *Runner) Down(ctx context.Context) error {
	return r.run(func(dir string) error { return goose.DownContext(ctx, r.db, dir) })
}

// Status logs the applied state of every migration.
func (r *Runner) Status(ctx context.Context) error {
	return r.run(func(dir string) error { return goose.StatusContext(ctx, r.db, dir) })
}

// Version returns the current schema version.
func (r *Runner) Version(ctx context.Context) (int64, error) {
	var version int64
	err := r.run(func(string) error {
		v, err := goose.GetDBVersionContext(ctx, r.db)
		version = v
		return err
	})
	return version, err
}

func (r *Runner) run(fn func(dir string) error) error {
	mu.Lock()
	defer mu.Unlock()

	goose.SetBaseFS(files)
	goose.SetTableName("goose_db_version")
	goose.SetLogger(gooseLogger{r.logger})
	if err := goose.SetDialect(r.dialect); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	return fn(dirs[r.dialect])
}

// gooseLogger routes goose output through zerolog.
type gooseLogger struct {
	logger zerolog.Logger
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error().Msgf(format, v...)
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug().Msgf(format, v...)
}
