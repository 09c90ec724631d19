package boiledrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/sqlboiler/v4/queries"

	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/core/budget"
	"github.com/kizito-simon15/montessori-sub000/storage/database"
	sqlxrepos "github.com/kizito-simon15/montessori-sub000/storage/database/sqlx"
)

const budgetUsageQuery = `
SELECT
	COALESCE((SELECT SUM(net_salary) FROM salary_invoice WHERE budget_id = $1), 0) AS salaries,
	COALESCE((SELECT SUM(total_cost) FROM expenditure WHERE budget_id = $1), 0) AS expenditures,
	COALESCE((SELECT SUM(total_cost) FROM seasonal_purchase WHERE budget_id = $1), 0) AS seasonal,
	COALESCE((SELECT SUM(total_cost) FROM kitchen_purchase WHERE budget_id = $1), 0) AS kitchen,
	COALESCE((
		SELECT SUM(b.processing_fee)
		FROM processing_batch b JOIN seasonal_purchase p ON p.id = b.source_purchase_id
		WHERE p.budget_id = $1
	), 0) AS processing_fees,
	(SELECT COUNT(*) FROM salary_invoice WHERE budget_id = $1)
		+ (SELECT COUNT(*) FROM expenditure WHERE budget_id = $1)
		+ (SELECT COUNT(*) FROM seasonal_purchase WHERE budget_id = $1)
		+ (SELECT COUNT(*) FROM kitchen_purchase WHERE budget_id = $1) AS rows`

const cashReceivedQuery = `
SELECT COALESCE(SUM(r.amount_paid), 0) AS total
FROM receipt r JOIN invoice i ON i.id = r.invoice_id
WHERE i.session_id = $1`

// aggregatesRepository runs the read-only sums behind budget summaries.
type aggregatesRepository struct {
	db *sqlx.DB
}

var _ sqlxrepos.BudgetAggregates = (*aggregatesRepository)(nil) // interface compliance check

func NewAggregatesRepository(db *sqlx.DB) *aggregatesRepository {
	return &aggregatesRepository{db: db}
}

func (repo aggregatesRepository) Usage(ctx context.Context, id int64) (budget.Usage, error) {
	var usage budget.Usage
	if err := queries.Raw(budgetUsageQuery, id).Bind(ctx, database.Exec(ctx, repo.db), &usage); err != nil {
		return budget.Usage{}, errors.Wrap(err, "summing budget usage")
	}
	return usage, nil
}

func (repo aggregatesRepository) CashReceived(ctx context.Context, sessionID int64) (core.Money, error) {
	var row struct {
		Total core.Money `boil:"total"`
	}
	if err := queries.Raw(cashReceivedQuery, sessionID).Bind(ctx, database.Exec(ctx, repo.db), &row); err != nil {
		return core.Money{}, errors.Wrap(err, "summing cash received")
	}
	return row.Total, nil
}
