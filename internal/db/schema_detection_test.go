package db

import (
	"os"
	"strings"
	"testing"
)

// TestGetDatabaseSchema verifies we can extract schema from a database
func TestGetDatabaseSchema(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	schema, err := db.GetDatabaseSchema()
	if err != nil {
		t.Fatalf("GetDatabaseSchema failed: %v", err)
	}

	// Should have some tables
	if len(schema) == 0 {
		t.Error("Expected schema to have some objects")
	}

	// Check for the core tables
	for _, table := range []string{"circuits", "courses", "import_batches"} {
		if _, found := schema[table]; !found {
			t.Errorf("Expected to find %s table in schema", table)
		}
	}

	// schema_migrations bookkeeping must not leak into the comparison set
	if _, found := schema["schema_migrations"]; found {
		t.Error("Did not expect schema_migrations in extracted schema")
	}
}

// TestCompareSchemas verifies schema comparison works correctly
func TestCompareSchemas(t *testing.T) {
	schema1 := map[string]string{
		"table1": "CREATE TABLE table1 (id INT)",
		"table2": "CREATE TABLE table2 (name TEXT)",
	}

	schema2 := map[string]string{
		"table1": "CREATE TABLE table1 (id INT)",
		"table2": "CREATE TABLE table2 (name TEXT)",
	}

	score, diffs := CompareSchemas(schema1, schema2)
	if score != 100 {
		t.Errorf("Expected 100%% match, got %d%%", score)
	}
	if len(diffs) != 0 {
		t.Errorf("Expected no differences, got %d", len(diffs))
	}
}

// TestCompareSchemas_WithDifferences verifies schema comparison detects differences
func TestCompareSchemas_WithDifferences(t *testing.T) {
	schema1 := map[string]string{
		"table1": "CREATE TABLE table1 (id INT)",
		"table3": "CREATE TABLE table3 (extra TEXT)",
	}

	schema2 := map[string]string{
		"table1": "CREATE TABLE table1 (id INT)",
		"table2": "CREATE TABLE table2 (name TEXT)",
	}

	score, diffs := CompareSchemas(schema1, schema2)

	// Should be 33% match (1 out of 3 unique objects match)
	if score != 33 {
		t.Errorf("Expected 33%% match, got %d%%", score)
	}

	if len(diffs) == 0 {
		t.Error("Expected differences to be reported")
	}
}

// TestCompareSchemas_IgnoresWhitespaceAndComments verifies normalization
func TestCompareSchemas_IgnoresWhitespaceAndComments(t *testing.T) {
	schema1 := map[string]string{
		"circuits": `CREATE TABLE circuits (
			id INTEGER PRIMARY KEY, -- surrogate key
			nom_circuit TEXT
		)`,
	}

	schema2 := map[string]string{
		"circuits": "CREATE TABLE circuits ( id INTEGER PRIMARY KEY, nom_circuit TEXT )",
	}

	score, diffs := CompareSchemas(schema1, schema2)
	if score != 100 {
		t.Errorf("Expected 100%% match after normalization, got %d%%: %v", score, diffs)
	}
}

// TestGetSchemaAtMigration verifies we can recreate schema at a specific migration
func TestGetSchemaAtMigration(t *testing.T) {
	migFS, err := getMigrationsFS()
	if err != nil {
		t.Fatalf("getMigrationsFS failed: %v", err)
	}

	// Version 1 has circuits and courses but no import history yet
	schema, err := GetSchemaAtMigration(migFS, 1)
	if err != nil {
		t.Fatalf("GetSchemaAtMigration failed: %v", err)
	}

	if _, exists := schema["circuits"]; !exists {
		t.Error("Expected circuits to exist at version 1")
	}
	if _, exists := schema["courses"]; !exists {
		t.Error("Expected courses to exist at version 1")
	}
	if _, exists := schema["import_batches"]; exists {
		t.Error("Did not expect import_batches to exist at version 1")
	}

	// Version 2 adds import history
	schema, err = GetSchemaAtMigration(migFS, 2)
	if err != nil {
		t.Fatalf("GetSchemaAtMigration failed: %v", err)
	}
	if _, exists := schema["import_batches"]; !exists {
		t.Error("Expected import_batches to exist at version 2")
	}
}

// TestDetectSchemaVersion verifies schema version detection works
func TestDetectSchemaVersion(t *testing.T) {
	// Create a database at version 1
	db := setupEmptyTestDB(t)
	defer cleanupTestDB(t, db)

	migFS, err := getMigrationsFS()
	if err != nil {
		t.Fatalf("getMigrationsFS failed: %v", err)
	}

	// Apply migration 1
	err = db.MigrateTo(migFS, 1)
	if err != nil {
		t.Fatalf("MigrateTo(1) failed: %v", err)
	}

	// Remove schema_migrations table to simulate legacy database
	_, err = db.Exec("DROP TABLE schema_migrations")
	if err != nil {
		t.Fatalf("Failed to drop schema_migrations: %v", err)
	}

	// Detect version
	detectedVersion, matchScore, diffs, err := db.DetectSchemaVersion(migFS)
	if err != nil {
		t.Fatalf("DetectSchemaVersion failed: %v", err)
	}

	if detectedVersion != 1 {
		t.Errorf("Expected version 1, got %d", detectedVersion)
	}

	if matchScore != 100 {
		t.Errorf("Expected 100%% match, got %d%%", matchScore)
		for _, diff := range diffs {
			t.Logf("Diff: %s", diff)
		}
	}

	if len(diffs) != 0 {
		t.Errorf("Expected no differences, got %d", len(diffs))
	}
}

// TestNewDBWithMigrationCheck_LegacyDatabase verifies an out-of-date legacy
// database is rejected with a pointer at the detect command
func TestNewDBWithMigrationCheck_LegacyDatabase(t *testing.T) {
	// Create a database at version 1 without schema_migrations
	tmpDB := setupEmptyTestDB(t)

	migFS, err := getMigrationsFS()
	if err != nil {
		t.Fatalf("getMigrationsFS failed: %v", err)
	}

	// Apply migration 1
	err = tmpDB.MigrateTo(migFS, 1)
	if err != nil {
		t.Fatalf("MigrateTo(1) failed: %v", err)
	}

	// Remove schema_migrations table to simulate legacy database
	_, err = tmpDB.Exec("DROP TABLE schema_migrations")
	if err != nil {
		t.Fatalf("Failed to drop schema_migrations: %v", err)
	}

	dbPath := t.Name() + ".db"
	tmpDB.Close()

	// Try to open with migration check - should detect version and error
	// since the schema is not at the latest version
	_, err = NewDBWithMigrationCheck(dbPath, true)
	if err == nil {
		t.Error("Expected error about needing migrations")
	} else {
		t.Logf("Got expected error: %v", err)
	}

	// Cleanup
	os.Remove(dbPath)
	os.Remove(dbPath + "-shm")
	os.Remove(dbPath + "-wal")
}

// TestNewDBWithMigrationCheck_LegacyDatabasePerfectMatch tests baselining when perfect match found
func TestNewDBWithMigrationCheck_LegacyDatabasePerfectMatch(t *testing.T) {
	// Create a database at the latest version without schema_migrations
	tmpDB := setupEmptyTestDB(t)

	migFS, err := getMigrationsFS()
	if err != nil {
		t.Fatalf("getMigrationsFS failed: %v", err)
	}

	// Apply all migrations
	err = tmpDB.MigrateUp(migFS)
	if err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}

	// Remove schema_migrations table
	_, err = tmpDB.Exec("DROP TABLE schema_migrations")
	if err != nil {
		t.Fatalf("Failed to drop schema_migrations: %v", err)
	}

	dbPath := t.Name() + ".db"
	tmpDB.Close()

	// Try to open with migration check - should detect the latest version
	// and baseline in place
	db, err := NewDBWithMigrationCheck(dbPath, true)
	if err != nil {
		t.Errorf("Expected success when at latest version, got: %v", err)
	}

	if db != nil {
		db.Close()
	}

	// Cleanup
	os.Remove(dbPath)
	os.Remove(dbPath + "-shm")
	os.Remove(dbPath + "-wal")
}

// TestNewDBWithMigrationCheck_NoAutoBaseline tests that a perfect match is
// still rejected when auto baselining is off
func TestNewDBWithMigrationCheck_NoAutoBaseline(t *testing.T) {
	tmpDB := setupEmptyTestDB(t)

	migFS, err := getMigrationsFS()
	if err != nil {
		t.Fatalf("getMigrationsFS failed: %v", err)
	}

	if err := tmpDB.MigrateUp(migFS); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}
	if _, err := tmpDB.Exec("DROP TABLE schema_migrations"); err != nil {
		t.Fatalf("Failed to drop schema_migrations: %v", err)
	}

	dbPath := t.Name() + ".db"
	tmpDB.Close()

	_, err = NewDBWithMigrationCheck(dbPath, false)
	if err == nil {
		t.Error("Expected error with auto baseline off")
	} else if !strings.Contains(err.Error(), "migrate detect") {
		t.Errorf("Expected error to point at the detect command, got: %v", err)
	}

	os.Remove(dbPath)
	os.Remove(dbPath + "-shm")
	os.Remove(dbPath + "-wal")
}

// TestNewDBWithMigrationCheck_EmptyDatabase tests that a brand new file is
// told to migrate first
func TestNewDBWithMigrationCheck_EmptyDatabase(t *testing.T) {
	dbPath := t.Name() + ".db"
	_ = os.Remove(dbPath)

	_, err := NewDBWithMigrationCheck(dbPath, true)
	if err == nil {
		t.Error("Expected error for empty database")
	} else if !strings.Contains(err.Error(), "migrate up") {
		t.Errorf("Expected error to point at migrate up, got: %v", err)
	}

	os.Remove(dbPath)
	os.Remove(dbPath + "-shm")
	os.Remove(dbPath + "-wal")
}
