package postgres

import (
	"github.com/lib/pq"
	ierr "github.com/rentledger/rentledger/internal/errors"
)

const pqUniqueViolation = "23505"

// isUniqueViolation reports whether err is a postgres unique-constraint failure
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if !ierr.As(err, &pqErr) {
		return false
	}
	return string(pqErr.Code) == pqUniqueViolation
}
