package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/core/school"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf   *core.Config
	out    io.Writer
	db     *sql.DB
	school *school.Service

	// connect opens the database and sets db and school; nil once connected.
	connect func(cli *commandLine) error
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  createdb [-prompt]                    - create the app database user and database")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                - run a goose migration command (up, down, status...)")
	fmt.Fprintln(cli.out, "  token -staff ID -role ROLE            - issue an API token for an active staff member")
	fmt.Fprintln(cli.out, "  importstudents -file PATH             - create the students listed in a CSV file")
	fmt.Fprintln(cli.out, "  setcurrent -kind KIND -id ID          - make a period the current one of its kind")
}

func (cli *commandLine) ensureDB() error {
	if cli.connect == nil {
		return nil
	}
	err := cli.connect(cli)
	cli.connect = nil
	return err
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createDBCmd := flag.NewFlagSet("createdb", flag.ContinueOnError)
	createDBPrompt := createDBCmd.Bool("prompt", false, "Prompt for the database admin password.")

	tokenCmd := flag.NewFlagSet("token", flag.ContinueOnError)
	tokenStaff := tokenCmd.Int64("staff", 0, "The staff member's id.")
	tokenRole := tokenCmd.String("role", "", "One of admin, bursar, teacher, storekeeper.")

	importCmd := flag.NewFlagSet("importstudents", flag.ContinueOnError)
	importFile := importCmd.String("file", "", "Path to the students CSV file.")

	setCurrentCmd := flag.NewFlagSet("setcurrent", flag.ContinueOnError)
	setCurrentKind := setCurrentCmd.String("kind", "", "One of session, term, exam, installment.")
	setCurrentID := setCurrentCmd.Int64("id", 0, "The period's id.")

	for _, fs := range []*flag.FlagSet{createDBCmd, tokenCmd, importCmd, setCurrentCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "createdb":
		if err := createDBCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.createDB(*createDBPrompt)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		if err := cli.ensureDB(); err != nil {
			return err
		}
		return cli.migrate(args[2:])

	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *tokenStaff <= 0 || *tokenRole == "" {
			tokenCmd.Usage()
			return errHelp
		}
		if err := cli.ensureDB(); err != nil {
			return err
		}
		return cli.token(*tokenStaff, *tokenRole)

	case "importstudents":
		if err := importCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		if err := cli.ensureDB(); err != nil {
			return err
		}
		return cli.importStudents(*importFile)

	case "setcurrent":
		if err := setCurrentCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *setCurrentKind == "" || *setCurrentID <= 0 {
			setCurrentCmd.Usage()
			return errHelp
		}
		if err := cli.ensureDB(); err != nil {
			return err
		}
		return cli.setCurrent(school.PeriodKind(*setCurrentKind), *setCurrentID)

	default:
		cli.printUsage()
		return errHelp
	}
}
