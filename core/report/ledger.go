package report

import (
	"context"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/kizito-simon15/montessori-sub000/core"
)

// Streams aggregated by month.
const (
	StreamIncome          Stream = "income"           // receipts by date paid
	StreamSalaries        Stream = "salaries"         // net salary by slip month
	StreamExpenditures    Stream = "expenditures"     // operating expenditures by date
	StreamKitchen         Stream = "kitchen"          // kitchen purchases by date
	StreamSeasonal        Stream = "seasonal"         // seasonal purchases by date
	StreamProcessingFees  Stream = "processing_fees"  // batch fees by date
	StreamAllocations     Stream = "allocations"      // budget allocations by creation month
	StreamProcessedOutput Stream = "processed_output" // batch outputs by date
	StreamRemainingRaw    Stream = "remaining_raw"    // purchase quantity minus its batch inputs, by purchase date
)

var Streams = []Stream{
	StreamIncome, StreamSalaries, StreamExpenditures, StreamKitchen, StreamSeasonal,
	StreamProcessingFees, StreamAllocations, StreamProcessedOutput, StreamRemainingRaw,
}

var ErrInvalidYear = core.NewFieldError("year", "year must be between 2000 and 2100")

type (
	Stream string

	// MonthTotal is one month (1-12) of a stream.
	MonthTotal struct {
		Month int             `boil:"month" db:"month"`
		Total decimal.Decimal `boil:"total" db:"total"`
	}

	Repository interface {
		MonthlyTotals(ctx context.Context, year int, stream Stream) ([]MonthTotal, error)
	}

	Month struct {
		Month           time.Month    `json:"month"`
		Income          core.Money    `json:"income"`
		Salaries        core.Money    `json:"salaries"`
		Expenses        core.Money    `json:"expenses"`
		Allocations     core.Money    `json:"allocations"`
		ProcessedOutput core.Quantity `json:"processed_output"`
		RemainingRaw    core.Quantity `json:"remaining_raw"`
		Profit          core.Money    `json:"profit"`
	}

	Ledger struct {
		Year   int     `json:"year"`
		Months []Month `json:"months"`
		Totals Month   `json:"totals"`
	}

	Service struct {
		repo   Repository
		logger core.Logger
	}
)

func NewService(repo Repository, logger core.Logger) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Service{repo: repo, logger: logger}
}

func emptyMonth(m time.Month) Month {
	return Month{
		Month:           m,
		Income:          core.M(0),
		Salaries:        core.M(0),
		Expenses:        core.M(0),
		Allocations:     core.M(0),
		ProcessedOutput: core.Q(0),
		RemainingRaw:    core.Q(0),
		Profit:          core.M(0),
	}
}

func (m *Month) add(stream Stream, v decimal.Decimal) {
	switch stream {
	case StreamIncome:
		m.Income = m.Income.Add(core.M(v))
	case StreamSalaries:
		m.Salaries = m.Salaries.Add(core.M(v))
	case StreamExpenditures, StreamKitchen, StreamSeasonal, StreamProcessingFees:
		m.Expenses = m.Expenses.Add(core.M(v))
	case StreamAllocations:
		m.Allocations = m.Allocations.Add(core.M(v))
	case StreamProcessedOutput:
		m.ProcessedOutput = m.ProcessedOutput.Add(core.Q(v))
	case StreamRemainingRaw:
		m.RemainingRaw = m.RemainingRaw.Add(core.Q(v))
	}
}

func (m *Month) close() {
	m.Income, m.Salaries, m.Expenses, m.Allocations = m.Income.R2(), m.Salaries.R2(), m.Expenses.R2(), m.Allocations.R2()
	m.ProcessedOutput, m.RemainingRaw = m.ProcessedOutput.R2(), m.RemainingRaw.R2()
	m.Profit = m.Income.Sub(m.Salaries).Sub(m.Expenses).R2()
}

// YearLedger reports twelve months of income, cost, profit and stock movement, plus the totals.
func (svc *Service) YearLedger(ctx context.Context, year int) (Ledger, error) {
	if year < 2000 || year > 2100 {
		return Ledger{}, ErrInvalidYear
	}
	l := Ledger{Year: year, Months: make([]Month, 12), Totals: emptyMonth(0)}
	for i := range l.Months {
		l.Months[i] = emptyMonth(time.Month(i + 1))
	}
	for _, stream := range Streams {
		rows, err := svc.repo.MonthlyTotals(ctx, year, stream)
		if err != nil {
			return Ledger{}, errors.Wrapf(err, "aggregating %s", stream)
		}
		for _, r := range rows {
			if r.Month < 1 || r.Month > 12 {
				continue
			}
			l.Months[r.Month-1].add(stream, r.Total)
			l.Totals.add(stream, r.Total)
		}
	}
	for i := range l.Months {
		l.Months[i].close()
	}
	l.Totals.close()
	return l, nil
}
