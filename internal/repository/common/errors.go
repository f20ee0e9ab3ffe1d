package common

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

// IsUniqueViolation распознаёт нарушение уникальности в PostgreSQL и SQLite.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
