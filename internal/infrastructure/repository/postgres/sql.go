package postgres

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"
)

func isNotFound(err error) bool {
	return err == sql.ErrNoRows
}

// isBindParameterMismatch detects protocol error 08P01, which transaction
// poolers produce when a statement prepared on another backend is executed
// with this request's parameters.
func isBindParameterMismatch(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "08P01" {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "08P01") ||
		strings.Contains(msg, "bind message supplies")
}

// isUnnamedPreparedStatementMissing detects error 26000, raised when a
// pooler hands the execute phase to a backend that never saw the unnamed
// prepared statement.
func isUnnamedPreparedStatementMissing(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "26000" {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "26000") ||
		strings.Contains(msg, "unnamed prepared statement does not exist")
}
