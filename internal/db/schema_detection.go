package db

import (
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// GetDatabaseSchema extracts the schema of all user tables and indexes as a
// map of object name to its normalized CREATE statement. Internal sqlite
// objects and the migration bookkeeping table are excluded.
func (db *DB) GetDatabaseSchema() (map[string]string, error) {
	rows, err := db.Query(`
		SELECT name, sql
		FROM sqlite_master
		WHERE sql IS NOT NULL
		  AND name NOT LIKE 'sqlite_%'
		  AND name NOT IN ('schema_migrations', 'version_unique')
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query schema: %w", err)
	}
	defer rows.Close()

	schema := make(map[string]string)
	for rows.Next() {
		var name, createSQL string
		if err := rows.Scan(&name, &createSQL); err != nil {
			return nil, fmt.Errorf("failed to scan schema row: %w", err)
		}
		schema[name] = normalizeSchemaSQL(createSQL)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schema: %w", err)
	}

	return schema, nil
}

// normalizeSchemaSQL collapses whitespace and strips SQL comments so schemas
// written with different formatting still compare equal.
func normalizeSchemaSQL(s string) string {
	var parts []string
	for _, line := range strings.Split(s, "\n") {
		if idx := strings.Index(line, "--"); idx >= 0 {
			line = line[:idx]
		}
		parts = append(parts, line)
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// CompareSchemas compares two schemas and returns a similarity percentage
// along with the list of differences. The score is the share of object names
// in either schema whose definitions match exactly.
func CompareSchemas(current, candidate map[string]string) (int, []string) {
	names := make(map[string]bool, len(current)+len(candidate))
	for name := range current {
		names[name] = true
	}
	for name := range candidate {
		names[name] = true
	}

	if len(names) == 0 {
		return 100, nil
	}

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	matches := 0
	var diffs []string
	for _, name := range sorted {
		cur, inCurrent := current[name]
		cand, inCandidate := candidate[name]
		switch {
		case !inCurrent:
			diffs = append(diffs, fmt.Sprintf("missing: %s", name))
		case !inCandidate:
			diffs = append(diffs, fmt.Sprintf("extra: %s", name))
		case cur != cand:
			diffs = append(diffs, fmt.Sprintf("differs: %s", name))
		default:
			matches++
		}
	}

	return matches * 100 / len(names), diffs
}

// GetSchemaAtMigration returns the schema a fresh database would have after
// migrating to the given version. The migrations run against a scratch
// in-memory database.
func GetSchemaAtMigration(migrationsFS fs.FS, version uint) (map[string]string, error) {
	scratchSQL, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open scratch database: %w", err)
	}
	defer scratchSQL.Close()

	scratch := &DB{DB: scratchSQL}
	if err := scratch.MigrateTo(migrationsFS, version); err != nil {
		return nil, fmt.Errorf("failed to migrate scratch database to version %d: %w", version, err)
	}

	return scratch.GetDatabaseSchema()
}

// DetectSchemaVersion matches the database schema against every known
// migration point and returns the best matching version, its similarity
// score, and the differences at that version. Used to upgrade databases
// created before migration bookkeeping existed.
func (db *DB) DetectSchemaVersion(migrationsFS fs.FS) (uint, int, []string, error) {
	current, err := db.GetDatabaseSchema()
	if err != nil {
		return 0, 0, nil, err
	}

	latest, err := GetLatestMigrationVersion(migrationsFS)
	if err != nil {
		return 0, 0, nil, err
	}

	var (
		bestVersion uint
		bestScore   = -1
		bestDiffs   []string
	)
	for v := uint(1); v <= latest; v++ {
		candidate, err := GetSchemaAtMigration(migrationsFS, v)
		if err != nil {
			return 0, 0, nil, err
		}
		score, diffs := CompareSchemas(current, candidate)
		// Strictly greater keeps the earliest version on ties, so the
		// remaining migrations still get applied after baselining.
		if score > bestScore {
			bestVersion = v
			bestScore = score
			bestDiffs = diffs
		}
	}

	return bestVersion, bestScore, bestDiffs, nil
}
