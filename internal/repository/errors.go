// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own (e.g. editing another user's review).
var ErrForbidden = errors.New("forbidden")

var (
	ErrMovieNotFound    = errors.New("movie not found")
	ErrReviewNotFound   = errors.New("review not found")
	ErrPetitionNotFound = errors.New("petition not found")

	// ErrInvalidStars rejects ratings outside 1..5 before touching the DB.
	ErrInvalidStars = errors.New("stars must be between 1 and 5")

	// ErrAlreadyUpvoted is returned when a concurrent request inserted the
	// same (petition, user) upvote first.
	ErrAlreadyUpvoted = errors.New("already upvoted")

	ErrUsernameExists = errors.New("username already exists")
)

const (
	mysqlDuplicateEntry  = 1062 // ER_DUP_ENTRY
	mysqlNoReferencedRow = 1452 // ER_NO_REFERENCED_ROW_2
)

// isDuplicateKey reports whether err is a unique constraint violation.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	// some proxies flatten driver errors into plain text
	return strings.Contains(strings.ToLower(err.Error()), "error 1062")
}

// isMissingReference reports whether err is a foreign key violation on insert.
func isMissingReference(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlNoReferencedRow
}
