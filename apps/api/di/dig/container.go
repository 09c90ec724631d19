package dig_container

import (
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/kizito-simon15/montessori-sub000/apps/api/echo"
	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/core/budget"
	"github.com/kizito-simon15/montessori-sub000/core/fees"
	"github.com/kizito-simon15/montessori-sub000/core/inventory"
	"github.com/kizito-simon15/montessori-sub000/core/ledger"
	"github.com/kizito-simon15/montessori-sub000/core/payroll"
	"github.com/kizito-simon15/montessori-sub000/core/report"
	"github.com/kizito-simon15/montessori-sub000/core/results"
	"github.com/kizito-simon15/montessori-sub000/core/school"
	"github.com/kizito-simon15/montessori-sub000/services/filestore"
	logsvc "github.com/kizito-simon15/montessori-sub000/services/logger"
	"github.com/kizito-simon15/montessori-sub000/storage/database"
	boiledrepos "github.com/kizito-simon15/montessori-sub000/storage/database/sqlboiler"
	sqlxrepos "github.com/kizito-simon15/montessori-sub000/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	return logsvc.NewStdLogger(conf, "API : ", log.LstdFlags)
}

func newDBLogger(conf *core.Config) core.Logger {
	return logsvc.NewStdLogger(conf, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db.DB, "up"); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newTransactor(db *sqlx.DB) core.Transactor {
	return database.NewTransactor(db)
}

func newFileStore(conf *core.Config, logger core.Logger) core.FileStore {
	store, err := filestore.NewFromConfig(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up file store: %v", err), err)
	}
	return store
}

// Services

func newSchoolService(db *sqlx.DB, tx core.Transactor, validate *validator.Validate, conf *core.Config, logger core.Logger) *school.Service {
	return school.NewService(sqlxrepos.NewSchoolRepository(db), tx, validate, conf, logger)
}

func newFeesService(db *sqlx.DB, tx core.Transactor, sch *school.Service, validate *validator.Validate, logger core.Logger) *fees.Service {
	return fees.NewService(sqlxrepos.NewFeesRepository(db), tx, sch, validate, logger)
}

func newLedgerService(
	db *sqlx.DB, tx core.Transactor, sch *school.Service, catalog *fees.Service, validate *validator.Validate, logger core.Logger,
) *ledger.Service {
	return ledger.NewService(sqlxrepos.NewLedgerRepository(db), tx, sch, catalog, validate, logger)
}

func newBudgetService(db *sqlx.DB, tx core.Transactor, sch *school.Service, validate *validator.Validate, logger core.Logger) *budget.Service {
	repo := sqlxrepos.NewBudgetRepository(db, boiledrepos.NewAggregatesRepository(db))
	return budget.NewService(repo, tx, sch, validate, logger)
}

func newPayrollService(
	db *sqlx.DB, tx core.Transactor, sch *school.Service, budgets *budget.Service,
	validate *validator.Validate, conf *core.Config, logger core.Logger,
) *payroll.Service {
	return payroll.NewService(sqlxrepos.NewPayrollRepository(db), tx, sch, budgets, validate, conf, logger)
}

func newResultsService(db *sqlx.DB, tx core.Transactor, sch *school.Service, validate *validator.Validate, logger core.Logger) *results.Service {
	return results.NewService(sqlxrepos.NewResultsRepository(db), tx, sch, validate, logger)
}

func newInventoryService(
	db *sqlx.DB, tx core.Transactor, budgets *budget.Service, validate *validator.Validate, conf *core.Config, logger core.Logger,
) *inventory.Service {
	return inventory.NewService(sqlxrepos.NewInventoryRepository(db), tx, budgets, validate, conf, logger)
}

func newReportService(db *sqlx.DB, logger core.Logger) *report.Service {
	return report.NewService(boiledrepos.NewReportRepository(db), logger)
}

type ServerParams struct {
	dig.In

	Conf       *core.Config
	Logger     core.Logger
	Translator ut.Translator
	Files      core.FileStore

	School    *school.Service
	Fees      *fees.Service
	Ledger    *ledger.Service
	Budget    *budget.Service
	Payroll   *payroll.Service
	Results   *results.Service
	Inventory *inventory.Service
	Report    *report.Service
}

func newServer(p ServerParams) *echoapi.Server {
	return echoapi.NewServer(&echoapi.Options{
		Conf:       p.Conf,
		Logger:     p.Logger,
		Translator: p.Translator,
		Files:      p.Files,
		School:     p.School,
		Fees:       p.Fees,
		Ledger:     p.Ledger,
		Budget:     p.Budget,
		Payroll:    p.Payroll,
		Results:    p.Results,
		Inventory:  p.Inventory,
		Report:     p.Report,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newTransactor))
	must(c.Provide(newFileStore))
	must(c.Provide(core.NewValidator))

	must(c.Provide(newSchoolService))
	must(c.Provide(newFeesService))
	must(c.Provide(newLedgerService))
	must(c.Provide(newBudgetService))
	must(c.Provide(newPayrollService))
	must(c.Provide(newResultsService))
	must(c.Provide(newInventoryService))
	must(c.Provide(newReportService))
	must(c.Provide(newServer))

	if os.Getenv("DIG_VISUALIZE") != "" {
		_ = dig.Visualize(c, os.Stdout)
	}
	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
