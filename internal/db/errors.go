package db

import (
	"errors"
	"fmt"
)

// NotFoundError reports a lookup that matched no row.
type NotFoundError struct {
	Entity string // "circuit" or "course"
	Ref    string // human-readable lookup reference
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.Ref)
}

// IsNotFound reports whether err is a NotFoundError. The API layer maps
// these to 404 responses.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
