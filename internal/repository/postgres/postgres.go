// Package postgres implements the repositories on PostgreSQL through sqlx.
package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/gurkanbulca/taskhub/internal/models"
)

const uniqueViolation = "23505"

// mapError translates driver errors into model sentinels and wraps the rest.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return models.ErrAlreadyExists
	}
	return fmt.Errorf("%s: %w", op, err)
}

func uuidArray(ids []uuid.UUID) pq.StringArray {
	out := make(pq.StringArray, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
