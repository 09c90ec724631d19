package database

import (
	"context"
	"database/sql"
	"net/url"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/trezcool/goose"

	"github.com/kizito-simon15/montessori-sub000/core"
	appfs "github.com/kizito-simon15/montessori-sub000/fs"
)

const (
	pingAttempts = 30
	migrationDir = "migrations"
)

// dsn builds the connection URL for dbName, as the admin role when asAdmin is set and one is configured.
func dsn(conf *core.Config, dbName string, asAdmin bool) string {
	creds := url.UserPassword(conf.Database.User, conf.Database.Password)
	if asAdmin && conf.Database.AdminUser != "" {
		creds = url.UserPassword(conf.Database.AdminUser, conf.Database.AdminPassword)
	}
	q := url.Values{"timezone": {"utc"}, "sslmode": {"require"}}
	if conf.Database.DisableTLS {
		q.Set("sslmode", "disable")
	}
	return (&url.URL{
		Scheme:   "postgres",
		User:     creds,
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}).String()
}

// connect opens dbName and waits until the server answers.
func connect(ctx context.Context, conf *core.Config, dbName string, asAdmin bool) (*sqlx.DB, error) {
	db, err := sqlx.Open(conf.Database.DriverName(), dsn(conf, dbName, asAdmin))
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", dbName)
	}
	if err = waitReady(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// waitReady pings with a linear backoff of 100ms per attempt.
func waitReady(ctx context.Context, db *sqlx.DB) error {
	var err error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "waiting for database")
		case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
		}
	}
	return errors.Wrap(err, "DB ping timeout")
}

// Open connects to the ledger database through the configured driver (lib/pq or pgx).
func Open(conf *core.Config) (*sqlx.DB, error) {
	return connect(context.Background(), conf, conf.Database.Name, false)
}

func exists(ctx context.Context, db *sqlx.DB, query string, arg string) (bool, error) {
	var found bool
	err := db.GetContext(ctx, &found, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return found, err
}

// CreateIfNotExist makes sure the application role and the ledger database exist.
// The role is created by the admin connection, the database by the application role so it owns it.
func CreateIfNotExist(conf *core.Config) error {
	ctx := context.Background()

	admin, err := connect(ctx, conf, "postgres", true)
	if err != nil {
		return err
	}
	defer func() { _ = admin.Close() }()

	if role := conf.Database.User; role != "" {
		found, err := exists(ctx, admin, "SELECT true FROM pg_roles WHERE rolname = $1", role)
		if err != nil {
			return errors.Wrap(err, "looking up app role")
		}
		if !found {
			q := "CREATE USER " + pq.QuoteIdentifier(role) + " CREATEDB ENCRYPTED PASSWORD " + pq.QuoteLiteral(conf.Database.Password)
			if _, err = admin.ExecContext(ctx, q); err != nil {
				return errors.Wrap(err, "creating app role")
			}
		}
	}

	app, err := connect(ctx, conf, "postgres", false)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	found, err := exists(ctx, app, "SELECT true FROM pg_database WHERE datname = $1", conf.Database.Name)
	if err != nil {
		return errors.Wrap(err, "looking up database")
	}
	if !found {
		if _, err = app.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(conf.Database.Name)); err != nil {
			return errors.Wrapf(err, "creating database %s", conf.Database.Name)
		}
	}
	return nil
}

// Migrate runs a goose command ("up", "down", "status"...) over the embedded ledger migrations.
func Migrate(db *sql.DB, command string, args ...string) error {
	if command == "" {
		command = "up"
	}
	if err := goose.RunFS(command, db, appfs.FS, migrationDir, args...); err != nil {
		return errors.Wrapf(err, "running migration command %q", command)
	}
	return nil
}
