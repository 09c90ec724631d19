package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/kizito-simon15/montessori-sub000/core/budget"
	"github.com/kizito-simon15/montessori-sub000/core/inventory"
	"github.com/kizito-simon15/montessori-sub000/core/report"
	"github.com/kizito-simon15/montessori-sub000/core/results"
)

// renderTerminal styles markdown for the terminal, falling back to the raw text.
func renderTerminal(w io.Writer, md string) error {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err != nil {
		_, err = io.WriteString(w, md)
		return err
	}
	out, err := r.Render(md)
	if err != nil {
		_, err = io.WriteString(w, md)
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func renderPlain(w io.Writer, md string) error {
	_, err := io.WriteString(w, md)
	return err
}

type table struct {
	strings.Builder
}

func (t *table) row(cells ...interface{}) {
	t.WriteString("|")
	for _, c := range cells {
		fmt.Fprintf(t, " %v |", c)
	}
	t.WriteString("\n")
}

func (t *table) header(cells ...interface{}) {
	t.row(cells...)
	t.WriteString("|")
	for range cells {
		t.WriteString(" --- |")
	}
	t.WriteString("\n")
}

func ledgerMarkdown(l report.Ledger) string {
	var t table
	fmt.Fprintf(&t, "# Ledger %d\n\n", l.Year)
	t.header("Month", "Income", "Salaries", "Expenses", "Allocations", "Processed", "Remaining raw", "Profit")
	for _, m := range append(l.Months, l.Totals) {
		name := "**Total**"
		if m.Month > 0 {
			name = m.Month.String()
		}
		t.row(name, m.Income, m.Salaries, m.Expenses, m.Allocations, m.ProcessedOutput, m.RemainingRaw, m.Profit)
	}
	return t.String()
}

func lowStockMarkdown(levels []inventory.Level) string {
	var t table
	t.WriteString("# Low stock\n\n")
	if len(levels) == 0 {
		t.WriteString("Every product is above its threshold.\n")
		return t.String()
	}
	t.header("Kind", "Product", "Stock", "Threshold")
	for _, l := range levels {
		t.row(l.Kind, l.Name, l.Stock.String()+" "+l.Unit, l.Threshold.String()+" "+l.Unit)
	}
	return t.String()
}

func budgetsMarkdown(sums []budget.Summary) string {
	var t table
	t.WriteString("# Budgets\n\n")
	if len(sums) == 0 {
		t.WriteString("No budget allocated.\n")
		return t.String()
	}
	t.header("Budget", "Category", "Allocated", "Used", "Remaining")
	for _, s := range sums {
		t.row(s.Name, s.Category, s.Allocated, s.Used, s.Remaining)
	}
	return t.String()
}

func classReportMarkdown(title string, rep results.ClassReport) string {
	var t table
	fmt.Fprintf(&t, "# %s\n\n", title)
	if len(rep.Students) == 0 {
		t.WriteString("No results recorded.\n")
		return t.String()
	}
	t.header("Pos.", "Student", "Subjects", "Average", "Grade", "GPA", "Status")
	for _, s := range rep.Students {
		t.row(s.Position, s.StudentName, s.Subjects, s.Average.StringFixed(2), s.Grade, s.GPA.StringFixed(2), s.Status)
	}
	return t.String()
}
