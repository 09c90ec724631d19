package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	dig_container "github.com/kizito-simon15/montessori-sub000/apps/api/di/dig"
	echoapi "github.com/kizito-simon15/montessori-sub000/apps/api/echo"
	"github.com/kizito-simon15/montessori-sub000/core"
)

// ledgerAPI is everything the process needs once the container has built it.
type ledgerAPI struct {
	conf     *core.Config
	logger   core.Logger
	dbLogger core.Logger
	db       *sqlx.DB
	server   *echoapi.Server
}

func startWithDig() {
	var api ledgerAPI
	err := dig_container.New().Invoke(func(
		conf *core.Config,
		logger core.Logger,
		dbLogger dig_container.DBLoggerParam,
		db *sqlx.DB,
		server *echoapi.Server,
	) {
		api = ledgerAPI{conf: conf, logger: logger, dbLogger: dbLogger.Logger, db: db, server: server}
	})
	if err != nil {
		log.Fatal(errors.Wrap(err, "building the ledger API"))
	}

	api.logger.Info(fmt.Sprintf("ledger API starting : version %q, env %q", api.conf.Build, api.conf.Env))
	if err = api.run(); err != nil {
		api.logger.Fatal(err.Error(), err)
	}
	api.logger.Info("ledger API stopped")
}

func (api ledgerAPI) run() error {
	defer func() {
		if err := api.db.Close(); err != nil {
			api.dbLogger.Error("closing database", err)
		}
	}()

	api.serveDebug()
	go api.server.Start()

	select {
	case err := <-api.server.Errors():
		return errors.Wrap(err, "serving")
	case sig := <-api.server.ShutdownSignal():
		api.logger.Info(fmt.Sprintf("%v: draining requests for up to %s", sig, api.conf.Server.ShutdownTimeout))
		return api.shutdown()
	}
}

// serveDebug exposes /debug/pprof and /debug/vars (build, env) on the debug host.
func (api ledgerAPI) serveDebug() {
	expvar.NewString("build").Set(api.conf.Build)
	expvar.NewString("env").Set(api.conf.Env)

	go func() {
		if err := http.ListenAndServe(api.conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			api.logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()
}

// shutdown lets in-flight requests finish, then forces the listener closed.
func (api ledgerAPI) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), api.conf.Server.ShutdownTimeout)
	defer cancel()

	if err := api.server.Shutdown(ctx); err != nil {
		api.logger.Warn("graceful shutdown failed, closing", err)
		if err = api.server.Close(); err != nil {
			return errors.Wrap(err, "closing server")
		}
	}
	return nil
}
