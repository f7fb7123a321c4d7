package db

import (
	"testing"
)

// TestCreateCourse_Success tests successful course creation
func TestCreateCourse_Success(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	circuit := createTestCircuit(t, db, "Le Mans Karting", "International")

	course := &Course{
		Section:       3,
		Pilote:        "Margaux",
		Date:          "2024-06-15",
		CircuitID:     circuit.ID,
		Kart:          intPtr(14),
		Note:          9,
		MeilleurTourS: floatPtr(61.842),
		Ecart:         strPtr("0.3"),
		Tours:         15,
		Humidite:      35,
	}

	err := db.CreateCourse(course)
	if err != nil {
		t.Fatalf("CreateCourse failed: %v", err)
	}

	if course.ID == 0 {
		t.Error("Expected course ID to be set after creation")
	}

	retrieved, err := db.GetCourse(course.ID)
	if err != nil {
		t.Fatalf("GetCourse failed: %v", err)
	}

	if retrieved.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt timestamp to be set")
	}
	if retrieved.UpdatedAt.IsZero() {
		t.Error("Expected UpdatedAt timestamp to be set")
	}
}

// TestCreateCourse_MissingMeasures tests that absent kart, lap time and gap
// are stored as NULL and come back as nil
func TestCreateCourse_MissingMeasures(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	circuit := createTestCircuit(t, db, "Le Mans Karting", "International")

	course := &Course{
		Section:   1,
		Pilote:    "Théo",
		Date:      "2024-06-15",
		CircuitID: circuit.ID,
	}

	if err := db.CreateCourse(course); err != nil {
		t.Fatalf("CreateCourse failed: %v", err)
	}

	retrieved, err := db.GetCourse(course.ID)
	if err != nil {
		t.Fatalf("GetCourse failed: %v", err)
	}

	if retrieved.Kart != nil {
		t.Errorf("Expected nil Kart, got %d", *retrieved.Kart)
	}
	if retrieved.MeilleurTourS != nil {
		t.Errorf("Expected nil MeilleurTourS, got %f", *retrieved.MeilleurTourS)
	}
	if retrieved.Ecart != nil {
		t.Errorf("Expected nil Ecart, got %s", *retrieved.Ecart)
	}
}

// TestCreateCourse_DuplicateNaturalKey tests that the same section, pilot
// and date triple is rejected
func TestCreateCourse_DuplicateNaturalKey(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	circuit := createTestCircuit(t, db, "Le Mans Karting", "International")

	createTestCourse(t, db, circuit.ID, 2, "Margaux", "2024-06-15")

	duplicate := &Course{
		Section:   2,
		Pilote:    "Margaux",
		Date:      "2024-06-15",
		CircuitID: circuit.ID,
	}
	err := db.CreateCourse(duplicate)
	if err == nil {
		t.Error("Expected error for duplicate natural key, got nil")
	}
}

// TestCreateCourse_UnknownCircuit tests that the circuit foreign key is
// enforced
func TestCreateCourse_UnknownCircuit(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	course := &Course{
		Section:   1,
		Pilote:    "Margaux",
		Date:      "2024-06-15",
		CircuitID: 99999,
	}

	err := db.CreateCourse(course)
	if err == nil {
		t.Error("Expected foreign key error for unknown circuit, got nil")
	}
}

// TestGetCourse_Exists tests retrieving an existing course
func TestGetCourse_Exists(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	circuit := createTestCircuit(t, db, "Le Mans Karting", "International")
	original := createTestCourse(t, db, circuit.ID, 4, "Margaux", "2024-06-15")

	retrieved, err := db.GetCourse(original.ID)
	if err != nil {
		t.Fatalf("GetCourse failed: %v", err)
	}

	if retrieved.ID != original.ID {
		t.Errorf("ID mismatch: got %d, want %d", retrieved.ID, original.ID)
	}
	if retrieved.Section != original.Section {
		t.Errorf("Section mismatch: got %d, want %d", retrieved.Section, original.Section)
	}
	if retrieved.Pilote != original.Pilote {
		t.Errorf("Pilote mismatch: got %s, want %s", retrieved.Pilote, original.Pilote)
	}
	if retrieved.Date != original.Date {
		t.Errorf("Date mismatch: got %s, want %s", retrieved.Date, original.Date)
	}
	if retrieved.CircuitID != circuit.ID {
		t.Errorf("CircuitID mismatch: got %d, want %d", retrieved.CircuitID, circuit.ID)
	}
	if retrieved.Kart == nil || *retrieved.Kart != *original.Kart {
		t.Errorf("Kart mismatch: got %v, want %d", retrieved.Kart, *original.Kart)
	}
	if retrieved.MeilleurTourS == nil || *retrieved.MeilleurTourS != *original.MeilleurTourS {
		t.Errorf("MeilleurTourS mismatch: got %v, want %f", retrieved.MeilleurTourS, *original.MeilleurTourS)
	}
	if retrieved.Ecart == nil || *retrieved.Ecart != *original.Ecart {
		t.Errorf("Ecart mismatch: got %v, want %s", retrieved.Ecart, *original.Ecart)
	}
	if retrieved.Tours != original.Tours {
		t.Errorf("Tours mismatch: got %d, want %d", retrieved.Tours, original.Tours)
	}
	if retrieved.Humidite != original.Humidite {
		t.Errorf("Humidite mismatch: got %f, want %f", retrieved.Humidite, original.Humidite)
	}
}

// TestGetCourse_NotFound tests retrieving a non-existent course
func TestGetCourse_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	_, err := db.GetCourse(99999)
	if err == nil {
		t.Fatal("Expected error for non-existent course, got nil")
	}
	if !IsNotFound(err) {
		t.Errorf("Expected NotFoundError, got %v", err)
	}
}

// TestListCourses_ChronologicalOrder tests that courses come back ordered by
// date then section
func TestListCourses_ChronologicalOrder(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	circuit := createTestCircuit(t, db, "Le Mans Karting", "International")

	createTestCourse(t, db, circuit.ID, 2, "Margaux", "2024-06-15")
	createTestCourse(t, db, circuit.ID, 1, "Margaux", "2024-03-02")
	createTestCourse(t, db, circuit.ID, 1, "Margaux", "2024-06-15")

	courses, err := db.ListCourses(0, 10)
	if err != nil {
		t.Fatalf("ListCourses failed: %v", err)
	}
	if len(courses) != 3 {
		t.Fatalf("Expected 3 courses, got %d", len(courses))
	}

	if courses[0].Date != "2024-03-02" {
		t.Errorf("Expected oldest course first, got date %s", courses[0].Date)
	}
	if courses[1].Date != "2024-06-15" || courses[1].Section != 1 {
		t.Errorf("Expected 2024-06-15 section 1 second, got %s section %d", courses[1].Date, courses[1].Section)
	}
	if courses[2].Date != "2024-06-15" || courses[2].Section != 2 {
		t.Errorf("Expected 2024-06-15 section 2 last, got %s section %d", courses[2].Date, courses[2].Section)
	}
}

// TestListAllCourseDetails tests the circuit join
func TestListAllCourseDetails(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	lemans := createTestCircuit(t, db, "Le Mans Karting", "International")
	rennes := createTestCircuit(t, db, "Kart'in Rennes", "Indoor")

	createTestCourse(t, db, lemans.ID, 1, "Margaux", "2024-06-15")
	createTestCourse(t, db, rennes.ID, 1, "Théo", "2024-06-16")

	details, err := db.ListAllCourseDetails()
	if err != nil {
		t.Fatalf("ListAllCourseDetails failed: %v", err)
	}
	if len(details) != 2 {
		t.Fatalf("Expected 2 course details, got %d", len(details))
	}

	if details[0].NomCircuit != "Le Mans Karting" {
		t.Errorf("NomCircuit mismatch: got %s, want Le Mans Karting", details[0].NomCircuit)
	}
	if details[0].ConfigurationPiste != "International" {
		t.Errorf("ConfigurationPiste mismatch: got %s", details[0].ConfigurationPiste)
	}
	if details[1].NomCircuit != "Kart'in Rennes" {
		t.Errorf("NomCircuit mismatch: got %s, want Kart'in Rennes", details[1].NomCircuit)
	}
}

// TestUpdateCourse_Success tests updating course measures
func TestUpdateCourse_Success(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	circuit := createTestCircuit(t, db, "Le Mans Karting", "International")
	course := createTestCourse(t, db, circuit.ID, 1, "Margaux", "2024-06-15")

	course.Note = 10
	course.MeilleurTourS = floatPtr(59.95)
	course.Tours = 18
	if err := db.UpdateCourse(course); err != nil {
		t.Fatalf("UpdateCourse failed: %v", err)
	}

	retrieved, err := db.GetCourse(course.ID)
	if err != nil {
		t.Fatalf("GetCourse failed: %v", err)
	}
	if retrieved.Note != 10 {
		t.Errorf("Note mismatch: got %d, want 10", retrieved.Note)
	}
	if retrieved.MeilleurTourS == nil || *retrieved.MeilleurTourS != 59.95 {
		t.Errorf("MeilleurTourS mismatch: got %v, want 59.95", retrieved.MeilleurTourS)
	}
	if retrieved.Tours != 18 {
		t.Errorf("Tours mismatch: got %d, want 18", retrieved.Tours)
	}
}

// TestUpdateCourse_KeepsCircuitBinding tests that UpdateCourse never moves a
// course to another circuit
func TestUpdateCourse_KeepsCircuitBinding(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	lemans := createTestCircuit(t, db, "Le Mans Karting", "International")
	rennes := createTestCircuit(t, db, "Kart'in Rennes", "Indoor")

	course := createTestCourse(t, db, lemans.ID, 1, "Margaux", "2024-06-15")

	course.CircuitID = rennes.ID
	if err := db.UpdateCourse(course); err != nil {
		t.Fatalf("UpdateCourse failed: %v", err)
	}

	retrieved, err := db.GetCourse(course.ID)
	if err != nil {
		t.Fatalf("GetCourse failed: %v", err)
	}
	if retrieved.CircuitID != lemans.ID {
		t.Errorf("Expected circuit binding to stay %d, got %d", lemans.ID, retrieved.CircuitID)
	}
}

// TestUpdateCourse_NotFound tests updating a non-existent course
func TestUpdateCourse_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	course := &Course{
		ID:      99999,
		Section: 1,
		Pilote:  "Personne",
		Date:    "2024-06-15",
	}

	err := db.UpdateCourse(course)
	if err == nil {
		t.Fatal("Expected error for non-existent course, got nil")
	}
	if !IsNotFound(err) {
		t.Errorf("Expected NotFoundError, got %v", err)
	}
}

// TestDeleteCourse_Success tests deleting a course
func TestDeleteCourse_Success(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	circuit := createTestCircuit(t, db, "Le Mans Karting", "International")
	course := createTestCourse(t, db, circuit.ID, 1, "Margaux", "2024-06-15")

	if err := db.DeleteCourse(course.ID); err != nil {
		t.Fatalf("DeleteCourse failed: %v", err)
	}

	_, err := db.GetCourse(course.ID)
	if !IsNotFound(err) {
		t.Errorf("Expected NotFoundError after delete, got %v", err)
	}
}

// TestCountCourses tests the course count
func TestCountCourses(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	circuit := createTestCircuit(t, db, "Le Mans Karting", "International")

	count, err := db.CountCourses()
	if err != nil {
		t.Fatalf("CountCourses failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 courses, got %d", count)
	}

	createTestCourse(t, db, circuit.ID, 1, "Margaux", "2024-06-15")
	createTestCourse(t, db, circuit.ID, 2, "Margaux", "2024-06-15")

	count, err = db.CountCourses()
	if err != nil {
		t.Fatalf("CountCourses failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 courses, got %d", count)
	}
}

// TestLookupCourseID tests natural key resolution
func TestLookupCourseID(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	circuit := createTestCircuit(t, db, "Le Mans Karting", "International")
	course := createTestCourse(t, db, circuit.ID, 3, "Margaux", "2024-06-15")

	id, found, err := db.lookupCourseID(3, "Margaux", "2024-06-15")
	if err != nil {
		t.Fatalf("lookupCourseID failed: %v", err)
	}
	if !found {
		t.Fatal("Expected course to be found")
	}
	if id != course.ID {
		t.Errorf("ID mismatch: got %d, want %d", id, course.ID)
	}

	_, found, err = db.lookupCourseID(4, "Margaux", "2024-06-15")
	if err != nil {
		t.Fatalf("lookupCourseID failed: %v", err)
	}
	if found {
		t.Error("Expected no match for a different section")
	}
}
