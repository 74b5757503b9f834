package errors

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ParseDBError maps a database error to an APIError. Returns nil for nil input.
func ParseDBError(err error) *APIError {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrResourceNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 23505: unique_violation
		if pgErr.Code == "23505" {
			return ErrDuplicateResource
		}
		return ErrDatabase
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		// 1062: ER_DUP_ENTRY
		if mysqlErr.Number == 1062 {
			return ErrDuplicateResource
		}
		return ErrDatabase
	}

	// SQLite reports constraint violations as plain text.
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrDuplicateResource
	}

	return ErrDatabase
}
