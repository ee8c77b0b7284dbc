package migration

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/BaSui01/warmtransfer/config"
)

//go:embed migrations/postgres/*.sql migrations/mysql/*.sql
var migrationsFS embed.FS

// DatabaseType is a dialect that has versioned migrations. SQLite has none;
// the sqlite store relies on gorm AutoMigrate.
type DatabaseType string

const (
	DatabaseTypePostgres DatabaseType = "postgres"
	DatabaseTypeMySQL    DatabaseType = "mysql"
)

// DefaultTable is the bookkeeping table used by golang-migrate.
const DefaultTable = "schema_migrations"

// ParseDatabaseType accepts the usual aliases of each dialect.
func ParseDatabaseType(s string) (DatabaseType, error) {
	switch strings.ToLower(s) {
	case "postgres", "postgresql", "pg":
		return DatabaseTypePostgres, nil
	case "mysql", "mariadb":
		return DatabaseTypeMySQL, nil
	default:
		return "", fmt.Errorf("no versioned migrations for database type %q", s)
	}
}

// MigrationStatus describes one migration file.
type MigrationStatus struct {
	Version uint
	Name    string
	Applied bool
	Dirty   bool
}

// MigrationInfo summarizes the schema state.
type MigrationInfo struct {
	CurrentVersion    uint
	Dirty             bool
	TotalMigrations   int
	AppliedMigrations int
	PendingMigrations int
}

// Migrator is what the migrate command drives.
type Migrator interface {
	Up(ctx context.Context) error
	Down(ctx context.Context) error
	Steps(ctx context.Context, n int) error
	Force(ctx context.Context, version int) error
	Version(ctx context.Context) (uint, bool, error)
	Status(ctx context.Context) ([]MigrationStatus, error)
	Info(ctx context.Context) (*MigrationInfo, error)
	Close() error
}

// DefaultMigrator runs the embedded migrations through golang-migrate.
type DefaultMigrator struct {
	dbType  DatabaseType
	migrate *migrate.Migrate
}

// NewMigrator opens databaseURL (postgres:// or mysql://) and prepares the
// embedded migrations of dbType.
func NewMigrator(dbType DatabaseType, databaseURL, table string) (*DefaultMigrator, error) {
	if databaseURL == "" {
		return nil, errors.New("database URL is required")
	}
	src, err := iofs.New(migrationsFS, sourcePath(dbType))
	if err != nil {
		return nil, fmt.Errorf("load %s migrations: %w", dbType, err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, withTable(databaseURL, table))
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return &DefaultMigrator{dbType: dbType, migrate: m}, nil
}

// NewMigratorFromConfig builds a migrator for the configured database.
func NewMigratorFromConfig(db config.DatabaseConfig) (*DefaultMigrator, error) {
	dbType, err := ParseDatabaseType(db.Driver)
	if err != nil {
		return nil, err
	}
	db.Driver = string(dbType)
	return NewMigrator(dbType, db.MigrationURL(), DefaultTable)
}

func sourcePath(dbType DatabaseType) string {
	return "migrations/" + string(dbType)
}

func withTable(databaseURL, table string) string {
	if table == "" || table == DefaultTable {
		return databaseURL
	}
	sep := "?"
	if strings.Contains(databaseURL, "?") {
		sep = "&"
	}
	return databaseURL + sep + "x-migrations-table=" + url.QueryEscape(table)
}

func ignoreNoChange(op string, err error) error {
	if err == nil || errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return fmt.Errorf("migration %s failed: %w", op, err)
}

func (m *DefaultMigrator) Up(ctx context.Context) error {
	return ignoreNoChange("up", m.migrate.Up())
}

// Down rolls back the latest migration only.
func (m *DefaultMigrator) Down(ctx context.Context) error {
	return ignoreNoChange("down", m.migrate.Steps(-1))
}

func (m *DefaultMigrator) Steps(ctx context.Context, n int) error {
	return ignoreNoChange("steps", m.migrate.Steps(n))
}

func (m *DefaultMigrator) Force(ctx context.Context, version int) error {
	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("migration force failed: %w", err)
	}
	return nil
}

// Version reports 0 when nothing has been applied.
func (m *DefaultMigrator) Version(ctx context.Context) (uint, bool, error) {
	v, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read migration version: %w", err)
	}
	return v, dirty, nil
}

func (m *DefaultMigrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	current, dirty, err := m.Version(ctx)
	if err != nil {
		return nil, err
	}
	files, err := ListMigrations(m.dbType)
	if err != nil {
		return nil, err
	}
	return statusOf(files, current, dirty), nil
}

func (m *DefaultMigrator) Info(ctx context.Context) (*MigrationInfo, error) {
	statuses, err := m.Status(ctx)
	if err != nil {
		return nil, err
	}
	current, dirty, err := m.Version(ctx)
	if err != nil {
		return nil, err
	}
	return summarize(statuses, current, dirty), nil
}

func (m *DefaultMigrator) Close() error {
	srcErr, dbErr := m.migrate.Close()
	return errors.Join(srcErr, dbErr)
}

// ListMigrations returns the embedded migrations of dbType by version.
func ListMigrations(dbType DatabaseType) ([]MigrationStatus, error) {
	entries, err := fs.ReadDir(migrationsFS, sourcePath(dbType))
	if err != nil {
		return nil, fmt.Errorf("read %s migrations: %w", dbType, err)
	}

	var out []MigrationStatus
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		num, rest, ok := strings.Cut(name, "_")
		if !ok {
			continue
		}
		v, err := strconv.ParseUint(num, 10, 32)
		if err != nil {
			continue
		}
		out = append(out, MigrationStatus{Version: uint(v), Name: strings.TrimSuffix(rest, ".up.sql")})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func statusOf(files []MigrationStatus, current uint, dirty bool) []MigrationStatus {
	out := make([]MigrationStatus, len(files))
	for i, f := range files {
		f.Applied = f.Version <= current
		f.Dirty = dirty && f.Version == current
		out[i] = f
	}
	return out
}

func summarize(statuses []MigrationStatus, current uint, dirty bool) *MigrationInfo {
	info := &MigrationInfo{CurrentVersion: current, Dirty: dirty, TotalMigrations: len(statuses)}
	for _, s := range statuses {
		if s.Applied {
			info.AppliedMigrations++
		}
	}
	info.PendingMigrations = info.TotalMigrations - info.AppliedMigrations
	return info
}
