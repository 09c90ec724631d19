package main

import (
	"log"
	"os"

	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/core/school"
	logsvc "github.com/kizito-simon15/montessori-sub000/services/logger"
	"github.com/kizito-simon15/montessori-sub000/storage/database"
	sqlxrepos "github.com/kizito-simon15/montessori-sub000/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewStdLogger(conf, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	cli := commandLine{
		conf: conf,
		out:  os.Stdout,
		connect: func(cli *commandLine) error {
			db, err := database.Open(conf)
			if err != nil {
				return err
			}
			validate, _ := core.NewValidator()
			cli.db = db.DB
			cli.school = school.NewService(sqlxrepos.NewSchoolRepository(db), database.NewTransactor(db), validate, conf, logger)
			return nil
		},
	}
	err := cli.run(os.Args)
	if cli.db != nil {
		_ = cli.db.Close()
	}
	if err != nil {
		if err != errHelp {
			logger.Error("command failed: "+err.Error(), err)
		}
		os.Exit(1)
	}
}
