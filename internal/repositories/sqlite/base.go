package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"viswords-api/internal/repositories"

	"github.com/sirupsen/logrus"
)

// baseRepository holds the statement helpers shared by SQLite repositories
type baseRepository struct {
	db     *sql.DB
	table  string
	logger *logrus.Logger
}

func newBaseRepository(db *sql.DB, table string, logger *logrus.Logger) baseRepository {
	if logger == nil {
		logger = logrus.New()
	}
	return baseRepository{db: db, table: table, logger: logger}
}

func (r *baseRepository) logQuery(operation string, duration time.Duration, err error) {
	entry := r.logger.WithFields(logrus.Fields{
		"operation": operation,
		"table":     r.table,
		"duration":  duration,
	})
	if err != nil {
		entry.WithError(err).Error("Query failed")
		return
	}
	entry.Debug("Query executed")
}

func (r *baseRepository) query(ctx context.Context, operation, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query, args...)
	r.logQuery(operation, time.Since(start), err)
	if err != nil {
		return nil, repositories.NewRepositoryError(operation, r.table, "", err)
	}
	return rows, nil
}

func (r *baseRepository) queryRow(ctx context.Context, operation, query string, args ...any) *sql.Row {
	start := time.Now()
	row := r.db.QueryRowContext(ctx, query, args...)
	r.logQuery(operation, time.Since(start), row.Err())
	return row
}

func (r *baseRepository) exec(ctx context.Context, operation, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	result, err := r.db.ExecContext(ctx, query, args...)
	r.logQuery(operation, time.Since(start), err)
	if err != nil {
		return nil, repositories.NewRepositoryError(operation, r.table, "", err)
	}
	return result, nil
}

func (r *baseRepository) checkRowsAffected(result sql.Result, operation, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return repositories.NewRepositoryError(operation, r.table, id, err)
	}
	if n == 0 {
		return repositories.NotFoundError(r.table, id)
	}
	return nil
}

func (r *baseRepository) validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return repositories.NewRepositoryError("validate", r.table, id, repositories.ErrInvalidID)
	}
	return nil
}
