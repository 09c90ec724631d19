package boiledrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/sqlboiler/v4/queries"

	"github.com/kizito-simon15/montessori-sub000/core/report"
	"github.com/kizito-simon15/montessori-sub000/storage/database"
)

// streamQueries select (month, total) for one calendar year ($1).
var streamQueries = map[report.Stream]string{
	report.StreamIncome: `
		SELECT EXTRACT(MONTH FROM date_paid)::int AS month, SUM(amount_paid) AS total
		FROM receipt WHERE EXTRACT(YEAR FROM date_paid) = $1 GROUP BY 1`,
	report.StreamSalaries: `
		SELECT EXTRACT(MONTH FROM month)::int AS month, SUM(net_salary) AS total
		FROM salary_invoice WHERE EXTRACT(YEAR FROM month) = $1 GROUP BY 1`,
	report.StreamExpenditures: `
		SELECT EXTRACT(MONTH FROM date)::int AS month, SUM(total_cost) AS total
		FROM expenditure WHERE EXTRACT(YEAR FROM date) = $1 GROUP BY 1`,
	report.StreamKitchen: `
		SELECT EXTRACT(MONTH FROM date)::int AS month, SUM(total_cost) AS total
		FROM kitchen_purchase WHERE EXTRACT(YEAR FROM date) = $1 GROUP BY 1`,
	report.StreamSeasonal: `
		SELECT EXTRACT(MONTH FROM date)::int AS month, SUM(total_cost) AS total
		FROM seasonal_purchase WHERE EXTRACT(YEAR FROM date) = $1 GROUP BY 1`,
	report.StreamProcessingFees: `
		SELECT EXTRACT(MONTH FROM date)::int AS month, SUM(processing_fee) AS total
		FROM processing_batch WHERE EXTRACT(YEAR FROM date) = $1 GROUP BY 1`,
	report.StreamAllocations: `
		SELECT EXTRACT(MONTH FROM created_at)::int AS month, SUM(allocated_amount) AS total
		FROM budget WHERE EXTRACT(YEAR FROM created_at) = $1 GROUP BY 1`,
	report.StreamProcessedOutput: `
		SELECT EXTRACT(MONTH FROM date)::int AS month, SUM(output_quantity) AS total
		FROM processing_batch WHERE EXTRACT(YEAR FROM date) = $1 GROUP BY 1`,
	report.StreamRemainingRaw: `
		SELECT EXTRACT(MONTH FROM p.date)::int AS month,
			SUM(p.quantity - COALESCE((
				SELECT SUM(b.input_quantity) FROM processing_batch b WHERE b.source_purchase_id = p.id
			), 0)) AS total
		FROM seasonal_purchase p WHERE EXTRACT(YEAR FROM p.date) = $1 GROUP BY 1`,
}

type reportRepository struct {
	db *sqlx.DB
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *sqlx.DB) *reportRepository {
	return &reportRepository{db: db}
}

func (repo reportRepository) MonthlyTotals(ctx context.Context, year int, stream report.Stream) ([]report.MonthTotal, error) {
	query, ok := streamQueries[stream]
	if !ok {
		return nil, errors.Errorf("unknown stream %q", stream)
	}
	var rows []report.MonthTotal
	if err := queries.Raw(query, year).Bind(ctx, database.Exec(ctx, repo.db), &rows); err != nil {
		return nil, errors.Wrapf(err, "summing %s", stream)
	}
	return rows, nil
}
