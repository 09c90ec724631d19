package inmemdb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/kizito-simon15/montessori-sub000/core/report"
)

type reportRepository struct {
	db *DB
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *DB) *reportRepository {
	return &reportRepository{db: db}
}

type monthSums map[int]decimal.Decimal

func (m monthSums) add(year int, d time.Time, v decimal.Decimal) {
	if d.Year() == year {
		m[int(d.Month())] = m[int(d.Month())].Add(v)
	}
}

func (m monthSums) rows() []report.MonthTotal {
	out := make([]report.MonthTotal, 0, len(m))
	for month := 1; month <= 12; month++ {
		if v, ok := m[month]; ok {
			out = append(out, report.MonthTotal{Month: month, Total: v})
		}
	}
	return out
}

func (repo reportRepository) MonthlyTotals(ctx context.Context, year int, stream report.Stream) ([]report.MonthTotal, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	sums := monthSums{}
	switch stream {
	case report.StreamIncome:
		for _, r := range t.receipts.rows {
			sums.add(year, r.DatePaid, r.Amount.Decimal())
		}
	case report.StreamSalaries:
		for _, s := range t.slips.rows {
			sums.add(year, s.Month, s.NetSalary.Decimal())
		}
	case report.StreamExpenditures:
		for _, e := range t.expenditures.rows {
			sums.add(year, e.Date, e.TotalCost.Decimal())
		}
	case report.StreamKitchen:
		for _, p := range t.kitchenPurchases.rows {
			sums.add(year, p.Date, p.TotalCost.Decimal())
		}
	case report.StreamSeasonal:
		for _, p := range t.purchases.rows {
			sums.add(year, p.Date, p.TotalCost.Decimal())
		}
	case report.StreamProcessingFees:
		for _, b := range t.batches.rows {
			sums.add(year, b.Date, b.ProcessingFee.Decimal())
		}
	case report.StreamAllocations:
		for _, b := range t.budgets.rows {
			sums.add(year, b.CreatedAt, b.Allocated.Decimal())
		}
	case report.StreamProcessedOutput:
		for _, b := range t.batches.rows {
			sums.add(year, b.Date, b.OutputQuantity.Decimal())
		}
	case report.StreamRemainingRaw:
		for _, p := range t.purchases.rows {
			remaining := p.Quantity.Decimal()
			for _, b := range t.batches.rows {
				if b.PurchaseID == p.ID {
					remaining = remaining.Sub(b.InputQuantity.Decimal())
				}
			}
			sums.add(year, p.Date, remaining)
		}
	default:
		return nil, errors.Errorf("unknown stream %q", stream)
	}
	return sums.rows(), nil
}
