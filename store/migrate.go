package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// MigrationsTable records the applied schema version.
const MigrationsTable = "schema_migrations"

// MigrationSource returns the embedded schema steps as a migrate source.
func MigrationSource() (source.Driver, error) {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	return src, nil
}

// Migrator applies the embedded migrations through the pool.
type Migrator struct {
	m *migrate.Migrate
}

func NewMigrator(pool *pgxpool.Pool, logger *zerolog.Logger) (*Migrator, error) {
	src, err := MigrationSource()
	if err != nil {
		return nil, err
	}
	driver, err := pgxmigrate.WithInstance(stdlib.OpenDBFromPool(pool), &pgxmigrate.Config{
		MigrationsTable: MigrationsTable,
	})
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("migration driver: %w", classify(err))
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return nil, fmt.Errorf("init migrations: %w", err)
	}
	m.Log = migrateLogger{log: logger}
	return &Migrator{m: m}, nil
}

// Up applies every pending step and returns the resulting version and
// whether anything changed.
func (mg *Migrator) Up(ctx context.Context) (uint, bool, error) {
	stop := mg.stopOnCancel(ctx)
	defer stop()

	err := mg.m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		v, err := mg.Version()
		return v, false, err
	}
	if err != nil {
		return 0, false, fmt.Errorf("apply migrations: %w", err)
	}
	v, err := mg.Version()
	return v, true, err
}

// Down reverts the most recently applied step and returns its version. It
// returns 0 when nothing is applied.
func (mg *Migrator) Down(ctx context.Context) (uint, error) {
	current, err := mg.Version()
	if err != nil || current == 0 {
		return 0, err
	}

	stop := mg.stopOnCancel(ctx)
	defer stop()

	if err := mg.m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("revert migration %d: %w", current, err)
	}
	return current, nil
}

// Version reports the applied schema version, 0 for an empty database.
func (mg *Migrator) Version() (uint, error) {
	v, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		return v, fmt.Errorf("schema version %d is dirty, fix it by hand and force the version", v)
	}
	return v, nil
}

func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}

// stopOnCancel asks migrate to stop after the current step once ctx ends.
func (mg *Migrator) stopOnCancel(ctx context.Context) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			select {
			case mg.m.GracefulStop <- true:
			default:
			}
		case <-done:
		}
	}()
	return func() { close(done) }
}

type migrateLogger struct {
	log *zerolog.Logger
}

func (l migrateLogger) Printf(format string, v ...interface{}) {
	l.log.Info().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool {
	return l.log.GetLevel() <= zerolog.DebugLevel
}
