package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/kizito-simon15/montessori-sub000/core/budget"
	"github.com/kizito-simon15/montessori-sub000/core/inventory"
	"github.com/kizito-simon15/montessori-sub000/core/report"
	"github.com/kizito-simon15/montessori-sub000/core/results"
	"github.com/kizito-simon15/montessori-sub000/core/school"
)

// env is what the commands read from and write to.
type env struct {
	out    io.Writer
	render func(w io.Writer, md string) error

	report    *report.Service
	budget    *budget.Service
	inventory *inventory.Service
	results   *results.Service
	school    *school.Service
}

func commands(e *env) []subcommands.Command {
	return []subcommands.Command{
		&yearLedgerCmd{env: e},
		&lowStockCmd{env: e},
		&budgetsCmd{env: e},
		&classReportCmd{env: e},
	}
}

func (e *env) print(md string) subcommands.ExitStatus {
	if err := e.render(e.out, md); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}

// currentID returns id, or the id of the current period of kind when id is 0.
func (e *env) currentID(ctx context.Context, kind school.PeriodKind, id int64) (int64, error) {
	if id > 0 {
		return id, nil
	}
	p, err := e.school.Current(ctx, kind)
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}

type yearLedgerCmd struct {
	*env
	year int
}

func (*yearLedgerCmd) Name() string     { return "yearledger" }
func (*yearLedgerCmd) Synopsis() string { return "display the monthly income, costs and profit of a year" }
func (*yearLedgerCmd) Usage() string {
	return `report yearledger -year <yyyy>

  Displays the year ledger: fee income, salaries, expenses, budget allocations and stock movement per month.
`
}

func (c *yearLedgerCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.year, "year", 0, "the calendar year")
}

func (c *yearLedgerCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.year == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	l, err := c.report.YearLedger(ctx, c.year)
	if err != nil {
		return fail(err)
	}
	return c.print(ledgerMarkdown(l))
}

type lowStockCmd struct {
	*env
}

func (*lowStockCmd) Name() string     { return "lowstock" }
func (*lowStockCmd) Synopsis() string { return "list the products below their low-stock threshold" }
func (*lowStockCmd) Usage() string {
	return `report lowstock

  Lists seasonal, processed and kitchen products whose stock is below the threshold.
`
}

func (*lowStockCmd) SetFlags(*flag.FlagSet) {}

func (c *lowStockCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	levels, err := c.inventory.LowStock(ctx)
	if err != nil {
		return fail(err)
	}
	return c.print(lowStockMarkdown(levels))
}

type budgetsCmd struct {
	*env
	session int64
}

func (*budgetsCmd) Name() string     { return "budgets" }
func (*budgetsCmd) Synopsis() string { return "display the budgets of a session with their usage" }
func (*budgetsCmd) Usage() string {
	return `report budgets [-session <id>]

  Displays allocated, used and remaining amounts of every budget. Defaults to the current session.
`
}

func (c *budgetsCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.session, "session", 0, "the session id (defaults to the current session)")
}

func (c *budgetsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sessionID, err := c.currentID(ctx, school.KindSession, c.session)
	if err != nil {
		return fail(err)
	}
	sums, err := c.budget.Summaries(ctx, sessionID)
	if err != nil {
		return fail(err)
	}
	return c.print(budgetsMarkdown(sums))
}

type classReportCmd struct {
	*env
	class, session, term, exam int64
}

func (*classReportCmd) Name() string     { return "classreport" }
func (*classReportCmd) Synopsis() string { return "display the ranked results of a class" }
func (*classReportCmd) Usage() string {
	return `report classreport -class <id> [-session <id>] [-term <id>] [-exam <id>]

  Displays the students of a class ranked by average. Periods default to the current ones.
`
}

func (c *classReportCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.class, "class", 0, "the class id")
	f.Int64Var(&c.session, "session", 0, "the session id")
	f.Int64Var(&c.term, "term", 0, "the term id")
	f.Int64Var(&c.exam, "exam", 0, "the exam id")
}

func (c *classReportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.class <= 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	filter := results.Filter{ClassID: c.class}
	var err error
	if filter.SessionID, err = c.currentID(ctx, school.KindSession, c.session); err != nil {
		return fail(err)
	}
	if filter.TermID, err = c.currentID(ctx, school.KindTerm, c.term); err != nil {
		return fail(err)
	}
	if filter.ExamID, err = c.currentID(ctx, school.KindExam, c.exam); err != nil {
		return fail(err)
	}

	class, err := c.school.GetClass(ctx, c.class)
	if err != nil {
		return fail(err)
	}
	rep, err := c.results.ClassReport(ctx, filter)
	if err != nil {
		return fail(err)
	}
	return c.print(classReportMarkdown(class.Name, rep))
}
