package main

import (
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/kizito-simon15/montessori-sub000/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword          // mockable
	createDBFunc     = database.CreateIfNotExist // mockable
)

// createDB creates the app user and database, connecting as the admin user.
func (cli *commandLine) createDB(prompt bool) error {
	if prompt {
		fmt.Fprintf(cli.out, "Enter password for %s:", cli.conf.Database.AdminUser)
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			return errHelp
		}
		cli.conf.Database.AdminPassword = string(pwd)
	}
	if err := createDBFunc(cli.conf); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "database %q is ready\n", cli.conf.Database.Name)
	return nil
}
