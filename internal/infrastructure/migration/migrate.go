package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// engine is the part of *migrate.Migrate the Migrator drives
type engine interface {
	Up() error
	Down() error
	Steps(n int) error
	Migrate(version uint) error
	Version() (uint, bool, error)
	Force(version int) error
	Close() (error, error)
}

// Migrator applies the SQL files under migrations/ to PostgreSQL
type Migrator struct {
	engine engine
	logger *zap.Logger
}

// New creates a Migrator on an open lib/pq connection
func New(db *sql.DB, migrationsPath string, logger *zap.Logger) (*Migrator, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return &Migrator{engine: m, logger: logger}, nil
}

// Up applies all pending migrations
func (m *Migrator) Up() error {
	return m.apply("up", m.engine.Up)
}

// Down rolls back every migration
func (m *Migrator) Down() error {
	return m.apply("down", m.engine.Down)
}

// Steps applies n migrations; negative n rolls back
func (m *Migrator) Steps(n int) error {
	return m.apply("steps "+strconv.Itoa(n), func() error { return m.engine.Steps(n) })
}

// GoTo migrates up or down to version
func (m *Migrator) GoTo(version uint) error {
	return m.apply(fmt.Sprintf("goto %d", version), func() error { return m.engine.Migrate(version) })
}

// Version returns the current version; an empty schema reports 0
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.engine.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// Force records version without running SQL, to clear a dirty state
func (m *Migrator) Force(version int) error {
	m.logger.Warn("Forcing migration version", zap.Int("version", version))
	if err := m.engine.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	return nil
}

// Close releases the source and database handles
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.engine.Close()
	return errors.Join(sourceErr, dbErr)
}

// Run dispatches a CLI command: up, down, steps N, goto V, version, force V
func (m *Migrator) Run(command string, args []string) error {
	intArg := func() (int, error) {
		if len(args) == 0 {
			return 0, fmt.Errorf("%s requires a numeric argument", command)
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return 0, fmt.Errorf("%s: invalid number %q", command, args[0])
		}
		return n, nil
	}

	switch command {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "steps":
		n, err := intArg()
		if err != nil {
			return err
		}
		return m.Steps(n)
	case "goto":
		n, err := intArg()
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("goto: version must not be negative")
		}
		return m.GoTo(uint(n))
	case "force":
		n, err := intArg()
		if err != nil {
			return err
		}
		return m.Force(n)
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		m.logger.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	}
	return fmt.Errorf("unknown command %q", command)
}

func (m *Migrator) apply(name string, fn func() error) error {
	m.logger.Info("Running migrations", zap.String("command", name))

	err := fn()
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.Info("No migrations to apply")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration %s failed: %w", name, err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	m.logger.Info("Migrations completed", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}
