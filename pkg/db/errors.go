package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation = "23505"
	pgForeignKey      = "23503"
	pgCheckViolation  = "23514"
)

// IsNotFound reports whether err is GORM's record-not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsUniqueViolation reports whether err is a unique-constraint failure.
func IsUniqueViolation(err error) bool {
	return hasSQLState(err, pgUniqueViolation) ||
		strings.Contains(strings.ToLower(errText(err)), "unique constraint failed")
}

// IsForeignKeyViolation reports whether err is a foreign-key failure.
func IsForeignKeyViolation(err error) bool {
	return hasSQLState(err, pgForeignKey)
}

// IsCheckViolation reports whether err is a check-constraint failure.
func IsCheckViolation(err error) bool {
	return hasSQLState(err, pgCheckViolation)
}

func hasSQLState(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == code
	}
	return false
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
