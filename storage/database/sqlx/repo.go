package sqlxrepos

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/storage/database"
)

type repository struct {
	db *sqlx.DB
}

func (repo repository) getExec(ctx context.Context) database.Executor {
	return database.Exec(ctx, repo.db)
}

// trapNoRowsErr maps the psql "no rows" error to notFound.
func trapNoRowsErr(err error, notFound error, msg string) error {
	if notFound != nil && errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// trapWriteErr maps constraint violations to domain errors.
func trapWriteErr(err error, conflict, inUse error, msg string) error {
	switch {
	case conflict != nil && database.IsUniqueViolation(err):
		return conflict
	case inUse != nil && database.IsForeignKeyViolation(err):
		return inUse
	}
	return errors.Wrap(err, msg)
}

func (repo repository) get(ctx context.Context, dest interface{}, notFound error, query string, args ...interface{}) error {
	if err := sqlx.GetContext(ctx, repo.getExec(ctx), dest, query, args...); err != nil {
		return trapNoRowsErr(err, notFound, "querying "+tableOf(query))
	}
	return nil
}

func (repo repository) list(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return errors.Wrap(sqlx.SelectContext(ctx, repo.getExec(ctx), dest, query, args...), "listing "+tableOf(query))
}

// insert runs a named INSERT ... RETURNING id.
func (repo repository) insert(ctx context.Context, query string, arg interface{}, conflict error) (int64, error) {
	exec := repo.getExec(ctx)
	q, args, err := exec.BindNamed(query, arg)
	if err != nil {
		return 0, errors.Wrap(err, "binding insert")
	}
	var id int64
	if err = exec.QueryRowxContext(ctx, q, args...).Scan(&id); err != nil {
		return 0, trapWriteErr(err, conflict, nil, "inserting into "+tableOf(query))
	}
	return id, nil
}

// update runs a named UPDATE and reports notFound when no row matched.
func (repo repository) update(ctx context.Context, query string, arg interface{}, notFound, conflict error) error {
	exec := repo.getExec(ctx)
	q, args, err := exec.BindNamed(query, arg)
	if err != nil {
		return errors.Wrap(err, "binding update")
	}
	res, err := exec.ExecContext(ctx, q, args...)
	if err != nil {
		return trapWriteErr(err, conflict, nil, "updating "+tableOf(query))
	}
	return checkAffected(res, notFound)
}

func (repo repository) delete(ctx context.Context, table string, id int64, notFound, inUse error) error {
	res, err := repo.getExec(ctx).ExecContext(ctx, "DELETE FROM "+table+" WHERE id = $1", id)
	if err != nil {
		return trapWriteErr(err, nil, inUse, "deleting from "+table)
	}
	return checkAffected(res, notFound)
}

func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "counting affected rows")
	}
	if n == 0 && notFound != nil {
		return notFound
	}
	return nil
}

// tableOf extracts the table name of a simple statement, for error messages.
func tableOf(query string) string {
	fields := strings.Fields(query)
	for i, f := range fields {
		switch strings.ToUpper(f) {
		case "FROM", "INTO", "UPDATE":
			if i+1 < len(fields) {
				return strings.Trim(fields[i+1], `"(`)
			}
		}
	}
	return "rows"
}

// where accumulates AND-ed conditions with positional arguments.
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(w.args))))
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func orderBy(ordering []core.DBOrdering) string {
	if len(ordering) == 0 {
		return ""
	}
	parts := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		parts = append(parts, ord.String())
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}
