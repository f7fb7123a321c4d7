package db

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"
)

// Course represents one race session. The triple (Section, Pilote, Date) is
// the natural key. Date is stored as ISO YYYY-MM-DD text so lexical order is
// chronological order; Kart, MeilleurTourS and Ecart are nil when the source
// sheet had no usable value.
type Course struct {
	ID            int       `json:"id"`
	Section       int       `json:"Section"`
	Pilote        string    `json:"Pilote"`
	Date          string    `json:"Date"`
	CircuitID     int       `json:"circuit_id"`
	Kart          *int      `json:"Kart"`
	Note          int       `json:"Note"`
	MeilleurTourS *float64  `json:"meilleur_tour_s"`
	Ecart         *string   `json:"Ecart"`
	Tours         int       `json:"Tours"`
	Humidite      float64   `json:"Humidite"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CourseDetail is a course joined with its circuit's natural key, the shape
// the analysis and export layers consume.
type CourseDetail struct {
	Course
	NomCircuit         string `json:"Nom_Circuit"`
	ConfigurationPiste string `json:"Configuration_Piste"`
}

// CreateCourse creates a new course in the database
func (db *DB) CreateCourse(course *Course) error {
	query := `
		INSERT INTO courses (section, pilote, date, circuit_id, kart, note,
			meilleur_tour_s, ecart, tours, humidite)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := db.DB.Exec(
		query,
		course.Section,
		course.Pilote,
		course.Date,
		course.CircuitID,
		course.Kart,
		course.Note,
		course.MeilleurTourS,
		course.Ecart,
		course.Tours,
		course.Humidite,
	)
	if err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}

	course.ID = int(id)
	return nil
}

// GetCourse retrieves a course by ID
func (db *DB) GetCourse(id int) (*Course, error) {
	query := `
		SELECT id, section, pilote, date, circuit_id, kart, note,
			meilleur_tour_s, ecart, tours, humidite, created_at, updated_at
		FROM courses
		WHERE id = ?
	`

	var course Course
	var createdAtUnix, updatedAtUnix int64

	err := db.DB.QueryRow(query, id).Scan(
		&course.ID,
		&course.Section,
		&course.Pilote,
		&course.Date,
		&course.CircuitID,
		&course.Kart,
		&course.Note,
		&course.MeilleurTourS,
		&course.Ecart,
		&course.Tours,
		&course.Humidite,
		&createdAtUnix,
		&updatedAtUnix,
	)

	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Entity: "course", Ref: "id " + strconv.Itoa(id)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	course.CreatedAt = time.Unix(createdAtUnix, 0)
	course.UpdatedAt = time.Unix(updatedAtUnix, 0)

	return &course, nil
}

// ListCourses retrieves a page of courses in chronological order.
func (db *DB) ListCourses(offset, limit int) ([]Course, error) {
	query := `
		SELECT id, section, pilote, date, circuit_id, kart, note,
			meilleur_tour_s, ecart, tours, humidite, created_at, updated_at
		FROM courses
		ORDER BY date ASC, section ASC, pilote ASC
		LIMIT ? OFFSET ?
	`

	rows, err := db.DB.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	var courses []Course
	for rows.Next() {
		var course Course
		var createdAtUnix, updatedAtUnix int64

		err := rows.Scan(
			&course.ID,
			&course.Section,
			&course.Pilote,
			&course.Date,
			&course.CircuitID,
			&course.Kart,
			&course.Note,
			&course.MeilleurTourS,
			&course.Ecart,
			&course.Tours,
			&course.Humidite,
			&createdAtUnix,
			&updatedAtUnix,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}

		course.CreatedAt = time.Unix(createdAtUnix, 0)
		course.UpdatedAt = time.Unix(updatedAtUnix, 0)

		courses = append(courses, course)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating courses: %w", err)
	}

	return courses, nil
}

// ListAllCourseDetails retrieves every course joined with its circuit, in
// chronological order. Analysis, charts and exports all read from this.
func (db *DB) ListAllCourseDetails() ([]CourseDetail, error) {
	query := `
		SELECT c.id, c.section, c.pilote, c.date, c.circuit_id, c.kart, c.note,
			c.meilleur_tour_s, c.ecart, c.tours, c.humidite,
			c.created_at, c.updated_at,
			ci.nom_circuit, ci.configuration_piste
		FROM courses c
		JOIN circuits ci ON ci.id = c.circuit_id
		ORDER BY c.date ASC, c.section ASC, c.pilote ASC
	`

	rows, err := db.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query course details: %w", err)
	}
	defer rows.Close()

	var details []CourseDetail
	for rows.Next() {
		var detail CourseDetail
		var createdAtUnix, updatedAtUnix int64

		err := rows.Scan(
			&detail.ID,
			&detail.Section,
			&detail.Pilote,
			&detail.Date,
			&detail.CircuitID,
			&detail.Kart,
			&detail.Note,
			&detail.MeilleurTourS,
			&detail.Ecart,
			&detail.Tours,
			&detail.Humidite,
			&createdAtUnix,
			&updatedAtUnix,
			&detail.NomCircuit,
			&detail.ConfigurationPiste,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course detail: %w", err)
		}

		detail.CreatedAt = time.Unix(createdAtUnix, 0)
		detail.UpdatedAt = time.Unix(updatedAtUnix, 0)

		details = append(details, detail)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating course details: %w", err)
	}

	return details, nil
}

// UpdateCourse updates an existing course in the database. The circuit
// binding is fixed at creation, so circuit_id is deliberately not part of
// the update.
func (db *DB) UpdateCourse(course *Course) error {
	query := `
		UPDATE courses SET
			section = ?,
			pilote = ?,
			date = ?,
			kart = ?,
			note = ?,
			meilleur_tour_s = ?,
			ecart = ?,
			tours = ?,
			humidite = ?,
			updated_at = strftime('%s', 'now')
		WHERE id = ?
	`

	result, err := db.DB.Exec(
		query,
		course.Section,
		course.Pilote,
		course.Date,
		course.Kart,
		course.Note,
		course.MeilleurTourS,
		course.Ecart,
		course.Tours,
		course.Humidite,
		course.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return &NotFoundError{Entity: "course", Ref: "id " + strconv.Itoa(course.ID)}
	}

	return nil
}

// DeleteCourse deletes a course from the database
func (db *DB) DeleteCourse(id int) error {
	result, err := db.DB.Exec(`DELETE FROM courses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return &NotFoundError{Entity: "course", Ref: "id " + strconv.Itoa(id)}
	}

	return nil
}

// CountCourses returns the number of courses.
func (db *DB) CountCourses() (int, error) {
	var count int
	if err := db.DB.QueryRow(`SELECT COUNT(*) FROM courses`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count courses: %w", err)
	}
	return count, nil
}

// lookupCourseID resolves a course by its natural key. The second return
// reports whether the course exists.
func (db *DB) lookupCourseID(section int, pilote, date string) (int, bool, error) {
	var id int
	err := db.DB.QueryRow(
		`SELECT id FROM courses WHERE section = ? AND pilote = ? AND date = ?`,
		section, pilote, date,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to look up course: %w", err)
	}
	return id, true, nil
}
