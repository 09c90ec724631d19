package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path"

	"github.com/google/subcommands"

	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/core/budget"
	"github.com/kizito-simon15/montessori-sub000/core/inventory"
	"github.com/kizito-simon15/montessori-sub000/core/report"
	"github.com/kizito-simon15/montessori-sub000/core/results"
	"github.com/kizito-simon15/montessori-sub000/core/school"
	logsvc "github.com/kizito-simon15/montessori-sub000/services/logger"
	"github.com/kizito-simon15/montessori-sub000/storage/database"
	boiledrepos "github.com/kizito-simon15/montessori-sub000/storage/database/sqlboiler"
	sqlxrepos "github.com/kizito-simon15/montessori-sub000/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewStdLogger(conf, "REPORT : ", log.LstdFlags)

	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal("opening database: "+err.Error(), err)
	}
	defer func() { _ = db.Close() }()

	validate, _ := core.NewValidator()
	tx := database.NewTransactor(db)
	sch := school.NewService(sqlxrepos.NewSchoolRepository(db), tx, validate, conf, logger)
	budgets := budget.NewService(sqlxrepos.NewBudgetRepository(db, boiledrepos.NewAggregatesRepository(db)), tx, sch, validate, logger)

	e := &env{
		out:       os.Stdout,
		render:    renderTerminal,
		report:    report.NewService(boiledrepos.NewReportRepository(db), logger),
		budget:    budgets,
		inventory: inventory.NewService(sqlxrepos.NewInventoryRepository(db), tx, budgets, validate, conf, logger),
		results:   results.NewService(sqlxrepos.NewResultsRepository(db), tx, sch, validate, logger),
		school:    sch,
	}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range commands(e) {
		commander.Register(c, "")
	}

	flag.Parse()
	status := commander.Execute(context.Background())
	_ = db.Close()
	os.Exit(int(status))
}
