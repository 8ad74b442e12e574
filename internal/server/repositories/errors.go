package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/stockadmin/console/internal/models"
)

// MySQL server error numbers
const (
	errDuplicateEntry  = 1062
	errNoReferencedRow = 1452
	errRowIsReferenced = 1451
)

// mapWriteError translates constraint violations into model errors
func mapWriteError(err error, entity string) error {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case errDuplicateEntry:
			return fmt.Errorf("%s %w", entity, models.ErrAlreadyExists)
		case errNoReferencedRow:
			return fmt.Errorf("%w: %s references a missing record", models.ErrValidation, entity)
		case errRowIsReferenced:
			return fmt.Errorf("%w: %s is still referenced", models.ErrValidation, entity)
		}
	}
	return fmt.Errorf("failed to write %s: %w", entity, err)
}

// affectedRows reports how many rows an INSERT, UPDATE or DELETE touched
func affectedRows(result sql.Result) (int, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}
