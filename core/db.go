package core

import (
	"context"
	"database/sql"

	"github.com/volatiletech/strmangle"
)

type (
	DBExecutor interface {
		Exec(query string, args ...interface{}) (sql.Result, error)
		ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
		Query(query string, args ...interface{}) (*sql.Rows, error)
		QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
		QueryRow(query string, args ...interface{}) *sql.Row
		QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	}

	DB interface {
		DBExecutor

		Begin() (*sql.Tx, error)
		BeginTx(context.Context, *sql.TxOptions) (*sql.Tx, error)
	}

	DBTransactor interface {
		DBExecutor

		Commit() error
		Rollback() error
	}

	// Transactor runs a unit of work. Repositories called with the ctx handed to fn join the
	// same transaction; nested calls join the outer one. fn's error rolls everything back.
	Transactor interface {
		InTx(ctx context.Context, fn func(ctx context.Context) error) error
	}
)

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return strmangle.IdentQuote('"', '"', ord.Field) + " " + direction
}

// FilterOrderings keeps the orderings on allowed fields, falling back to def.
func FilterOrderings(ordering []DBOrdering, allowed map[string]bool, def ...DBOrdering) []DBOrdering {
	kept := make([]DBOrdering, 0, len(ordering))
	for _, ord := range ordering {
		if allowed[ord.Field] {
			kept = append(kept, ord)
		}
	}
	if len(kept) == 0 {
		return def
	}
	return kept
}
