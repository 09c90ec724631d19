package main

import (
	"bytes"
	"context"
	"flag"
	"strconv"
	"testing"
	"time"

	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/core/school"
	testutil "github.com/kizito-simon15/montessori-sub000/tests"
)

func setup(t *testing.T) (*testutil.Env, *bytes.Buffer, func(args ...string) subcommands.ExitStatus) {
	te := testutil.NewEnv(t)
	out := new(bytes.Buffer)
	e := &env{
		out:       out,
		render:    renderPlain,
		report:    te.Report,
		budget:    te.Budget,
		inventory: te.Inventory,
		results:   te.Results,
		school:    te.School,
	}
	run := func(args ...string) subcommands.ExitStatus {
		out.Reset()
		fs := flag.NewFlagSet("report", flag.ContinueOnError)
		commander := subcommands.NewCommander(fs, "report")
		for _, c := range commands(e) {
			commander.Register(c, "")
		}
		require.NoError(t, fs.Parse(args))
		return commander.Execute(context.Background())
	}
	return te, out, run
}

func TestYearLedgerCmd(t *testing.T) {
	te, out, run := setup(t)
	testutil.Freeze(t, time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC))

	session := te.Current(t, school.KindSession, "2025")
	inst := te.Period(t, school.KindInstallment, "1st")
	tier := te.Tier(t, session.ID, school.CategoryBoarding, 900_000)
	std := te.Student(t, "S0000001/2025/0001", "Amani", "Mushi", 0)
	inv := te.Invoice(t, std.ID, session.ID, inst.ID, tier.ID, 0)
	te.Receipt(t, inv.ID, core.M(300_000))

	assert.Equal(t, subcommands.ExitUsageError, run("yearledger"))
	assert.Equal(t, subcommands.ExitFailure, run("yearledger", "-year", "1999"))

	require.Equal(t, subcommands.ExitSuccess, run("yearledger", "-year", "2025"))
	md := out.String()
	assert.Contains(t, md, "# Ledger 2025")
	assert.Contains(t, md, "| March |")
	assert.Contains(t, md, "| **Total** |")
}

func TestLowStockCmd(t *testing.T) {
	te, out, run := setup(t)

	require.Equal(t, subcommands.ExitSuccess, run("lowstock"))
	assert.Contains(t, out.String(), "Every product is above its threshold.")

	te.SeasonalProduct(t, "Maize", true)
	require.Equal(t, subcommands.ExitSuccess, run("lowstock"))
	assert.Contains(t, out.String(), "Maize")
}

func TestBudgetsCmd(t *testing.T) {
	te, out, run := setup(t)

	assert.Equal(t, subcommands.ExitFailure, run("budgets"), "no current session")

	session := te.Current(t, school.KindSession, "2025")
	te.AllocateBudget(t, session.ID, "Kitchen", 2_000_000)

	require.Equal(t, subcommands.ExitSuccess, run("budgets"))
	assert.Contains(t, out.String(), "| Kitchen |")

	other := te.Period(t, school.KindSession, "2026")
	require.Equal(t, subcommands.ExitSuccess, run("budgets", "-session", itoa(other.ID)))
	assert.Contains(t, out.String(), "No budget allocated.")
}

func TestClassReportCmd(t *testing.T) {
	te, out, run := setup(t)
	class := te.Class(t, "Standard 4")

	assert.Equal(t, subcommands.ExitUsageError, run("classreport"))
	assert.Equal(t, subcommands.ExitFailure, run("classreport", "-class", itoa(class.ID)), "no current periods")

	te.Current(t, school.KindSession, "2025")
	te.Current(t, school.KindTerm, "Term 1")
	te.Current(t, school.KindExam, "Midterm")
	require.Equal(t, subcommands.ExitSuccess, run("classreport", "-class", itoa(class.ID)))
	assert.Contains(t, out.String(), "# Standard 4")
	assert.Contains(t, out.String(), "No results recorded.")
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
