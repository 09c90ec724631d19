package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/kizito-simon15/montessori-sub000/core/school"
)

func (cli *commandLine) importStudents(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening CSV file")
	}
	defer func() { _ = f.Close() }()

	res, err := cli.school.ImportStudents(context.Background(), f)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%d students created\n", len(res.Created))
	for _, rowErr := range res.Errors {
		if rowErr.Field != "" {
			fmt.Fprintf(cli.out, "  line %d: %s: %s\n", rowErr.Line, rowErr.Field, rowErr.Error)
		} else {
			fmt.Fprintf(cli.out, "  line %d: %s\n", rowErr.Line, rowErr.Error)
		}
	}
	if len(res.Errors) > 0 {
		return errors.Errorf("%d rows skipped", len(res.Errors))
	}
	return nil
}

func (cli *commandLine) setCurrent(kind school.PeriodKind, id int64) error {
	cycle, err := cli.school.SetCurrent(context.Background(), kind, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "current %s is now %d\n", kind, cycle.Get(kind).Int64)
	return nil
}
