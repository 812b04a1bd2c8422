package dao

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrConcurrentWrite is returned when postgres aborts a transaction because a
// concurrent one touched the same rows. Callers must re-run their full
// check-then-write sequence rather than resume.
var ErrConcurrentWrite = errors.New("concurrent write detected")

var serializable = &sql.TxOptions{Isolation: sql.LevelSerializable}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isConcurrentWrite(err error) bool {
	switch pgCode(err) {
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
		return true
	}
	return false
}

func isUniqueViolation(err error) bool {
	return pgCode(err) == pgerrcode.UniqueViolation
}
