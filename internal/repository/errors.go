// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// capacity ledger and the HTTP handlers to distinguish between different
// failure scenarios without inspecting driver errors. ErrNotFound signals
// that a row scoped to an event does not exist, while ErrConflict signals
// that the requested state change collides with existing state (for
// example a second open check-in for the same attendee).
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist within
// the given event. Handlers should translate this into an HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write cannot be performed because of
// conflicting state. Handlers should translate this into an HTTP 409.
var ErrConflict = errors.New("conflict")

// mysqlDuplicateEntry is the server error number for unique key violations.
const mysqlDuplicateEntry = 1062

// isDuplicate reports whether err is a MySQL unique key violation.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
