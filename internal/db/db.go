// Package db owns the SQLite store: schema migrations, circuit and course
// reconciliation, and import batch history.
package db

import (
	"database/sql"
	"fmt"

	"github.com/muthuarun3/kart/internal/monitoring"
	"github.com/muthuarun3/kart/internal/timeutil"
	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB

	// Path is the database file path, kept for the admin console label
	// and backups.
	Path string

	clock timeutil.Clock
}

// OpenDB opens the database and applies connection pragmas without touching
// the schema. Use NewDB when the schema should be migrated to the latest
// version on open.
func OpenDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{DB: sqlDB, Path: path, clock: timeutil.RealClock{}}
	if err := db.applyPragmas(); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return db, nil
}

// NewDB opens the database and migrates the schema to the latest embedded
// version.
func NewDB(path string) (*DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}

	migrationsFS, err := getMigrationsFS()
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := db.MigrateUp(migrationsFS); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// NewDBWithMigrationCheck opens the database and verifies the schema version
// without applying anything. A database that predates the migration table is
// matched against known schema versions; when autoBaseline is set and the
// schema matches the latest version exactly, it is baselined in place.
// An out-of-date schema is reported as an error so the caller can run the
// migrate command deliberately.
func NewDBWithMigrationCheck(path string, autoBaseline bool) (*DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}

	migrationsFS, err := getMigrationsFS()
	if err != nil {
		db.Close()
		return nil, err
	}

	hasMigrations, err := db.hasSchemaMigrationsTable()
	if err != nil {
		db.Close()
		return nil, err
	}

	if !hasMigrations {
		empty, err := db.isEmptyDatabase()
		if err != nil {
			db.Close()
			return nil, err
		}
		if empty {
			db.Close()
			return nil, fmt.Errorf("database %s has no schema; run 'kart migrate up' first", path)
		}

		// Legacy database: try to match it against a known schema version.
		detected, score, _, err := db.DetectSchemaVersion(migrationsFS)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to detect schema version: %w", err)
		}
		latest, err := GetLatestMigrationVersion(migrationsFS)
		if err != nil {
			db.Close()
			return nil, err
		}
		if !autoBaseline || score != 100 || detected != latest {
			db.Close()
			return nil, fmt.Errorf("database %s has no migration history (closest schema version %d at %d%%); run 'kart migrate detect'", path, detected, score)
		}
		if err := db.BaselineAtVersion(detected); err != nil {
			db.Close()
			return nil, err
		}
		monitoring.Logf("baselined legacy database at version %d", detected)
	}

	if exit, err := db.CheckAndPromptMigrations(migrationsFS); exit {
		db.Close()
		return nil, err
	}

	return db, nil
}

// SetClock swaps the clock used for import batch timestamps. Tests use this
// with a MockClock to pin times.
func (db *DB) SetClock(c timeutil.Clock) {
	db.clock = c
}

// applyPragmas configures the connection for concurrent readers with a
// single writer. foreign_keys is enforced because courses reference
// circuits.
func (db *DB) applyPragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	return nil
}

// hasSchemaMigrationsTable reports whether golang-migrate has stamped this
// database.
func (db *DB) hasSchemaMigrationsTable() (bool, error) {
	var exists bool
	err := db.QueryRow(`
		SELECT COUNT(*) > 0
		FROM sqlite_master
		WHERE type='table' AND name='schema_migrations'
	`).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check schema_migrations table: %w", err)
	}
	return exists, nil
}

// isEmptyDatabase reports whether the database has no user tables at all.
func (db *DB) isEmptyDatabase() (bool, error) {
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*)
		FROM sqlite_master
		WHERE type='table' AND name NOT LIKE 'sqlite_%'
	`).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to count tables: %w", err)
	}
	return count == 0, nil
}
