package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx operations the repositories need. Both
// *pgxpool.Pool and pgx.Tx satisfy it, so a repository can be rebound to
// a transaction for multi-row atomic units.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Common errors for repository operations.
var (
	ErrPlayerNotFound     = errors.New("player not found")
	ErrDistrictNotFound   = errors.New("district not found")
	ErrPoliticianNotFound = errors.New("politician not found")
	ErrActionNotFound     = errors.New("action not found")
	ErrCollectiveNotFound = errors.New("collective action not found")
	ErrCycleNotFound      = errors.New("cycle not found")
	ErrOfferNotFound      = errors.New("trade offer not found")
	ErrInsufficientFunds  = errors.New("insufficient resource balance")
	ErrDuplicateJoin      = errors.New("player already joined this collective action")
	ErrNotPending         = errors.New("action is not pending")
)

// uniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation.
func uniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
