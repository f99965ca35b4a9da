package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"path"
	"regexp"
	"slices"
	"strconv"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	"github.com/colonyops/goodvibes/internal/core/logging"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var migrationName = regexp.MustCompile(`^(\d+)_(.+)\.(up|down)\.sql$`)

// Migration is one schema version with its forward and reverse SQL.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
	DownSQL string
}

// loadMigrations reads the embedded migration files. Every version must have
// exactly one up and one down file.
func loadMigrations() ([]Migration, error) {
	files, err := doublestar.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}

	byVersion := make(map[int]*Migration)
	for _, file := range files {
		base := path.Base(file)
		version, name, direction, err := parseFilename(base)
		if err != nil {
			return nil, fmt.Errorf("invalid migration filename %q: %w", base, err)
		}

		content, err := migrationsFS.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", base, err)
		}

		m, ok := byVersion[version]
		if !ok {
			m = &Migration{Version: version, Name: name}
			byVersion[version] = m
		}

		slot := &m.UpSQL
		if direction == "down" {
			slot = &m.DownSQL
		}
		if *slot != "" {
			return nil, fmt.Errorf("duplicate %s migration for version %04d", direction, version)
		}
		*slot = string(content)
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		switch {
		case m.UpSQL == "":
			return nil, fmt.Errorf("migration %04d has down file but no up file", m.Version)
		case m.DownSQL == "":
			return nil, fmt.Errorf("migration %04d has up file but no down file", m.Version)
		}
		migrations = append(migrations, *m)
	}

	slices.SortFunc(migrations, func(a, b Migration) int { return a.Version - b.Version })
	return migrations, nil
}

// parseFilename splits "NNNN_name.up.sql" into version, name and direction.
func parseFilename(filename string) (int, string, string, error) {
	match := migrationName.FindStringSubmatch(filename)
	if match == nil {
		return 0, "", "", fmt.Errorf("expected format NNNN_name.{up,down}.sql")
	}

	version, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, "", "", fmt.Errorf("version %q is not a valid integer: %w", match[1], err)
	}
	if version <= 0 {
		return 0, "", "", fmt.Errorf("version must be positive, got %d", version)
	}

	return version, match[2], match[3], nil
}

// migrator applies migrations and tracks them in schema_migrations.
type migrator struct {
	conn *sql.DB
	log  zerolog.Logger
}

func newMigrator(ctx context.Context, conn *sql.DB) (*migrator, []Migration, map[int]bool, error) {
	migrations, err := loadMigrations()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load migrations: %w", err)
	}

	m := &migrator{conn: conn, log: logging.Component("db")}
	if _, err := conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at INTEGER NOT NULL
		)
	`); err != nil {
		return nil, nil, nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	applied, err := m.applied(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return m, migrations, applied, nil
}

// migrateUp applies every migration not yet recorded, oldest first.
func migrateUp(ctx context.Context, conn *sql.DB) error {
	m, migrations, applied, err := newMigrator(ctx, conn)
	if err != nil {
		return err
	}

	for _, mig := range migrations {
		if applied[mig.Version] {
			continue
		}
		m.log.Info().Int("version", mig.Version).Str("name", mig.Name).Msg("applying migration")
		err := m.inTx(ctx, mig.UpSQL,
			"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
			mig.Version, mig.Name, time.Now().UnixNano())
		if err != nil {
			return fmt.Errorf("migration %04d (%s): %w", mig.Version, mig.Name, err)
		}
	}
	return nil
}

// MigrateDown reverts the n most recently applied migrations.
func MigrateDown(ctx context.Context, conn *sql.DB, n int) error {
	if n <= 0 {
		return fmt.Errorf("n must be positive, got %d", n)
	}

	m, migrations, applied, err := newMigrator(ctx, conn)
	if err != nil {
		return err
	}

	var revert []Migration
	for _, mig := range slices.Backward(migrations) {
		if applied[mig.Version] {
			revert = append(revert, mig)
		}
	}
	if n > len(revert) {
		return fmt.Errorf("requested %d down migrations but only %d are applied", n, len(revert))
	}

	for _, mig := range revert[:n] {
		m.log.Info().Int("version", mig.Version).Str("name", mig.Name).Msg("reverting migration")
		err := m.inTx(ctx, mig.DownSQL, "DELETE FROM schema_migrations WHERE version = ?", mig.Version)
		if err != nil {
			return fmt.Errorf("revert migration %04d (%s): %w", mig.Version, mig.Name, err)
		}
	}
	return nil
}

func (m *migrator) applied(ctx context.Context) (map[int]bool, error) {
	rows, err := m.conn.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("query applied versions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		out[v] = true
	}
	return out, rows.Err()
}

// inTx runs the migration body and its bookkeeping statement atomically.
func (m *migrator) inTx(ctx context.Context, body, record string, args ...any) error {
	tx, err := m.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, body); err != nil {
		return fmt.Errorf("execute migration: %w", err)
	}
	if _, err := tx.ExecContext(ctx, record, args...); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}
	return tx.Commit()
}
