package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/core/budget"
)

// BudgetAggregates computes the cross-table sums of a budget.
type BudgetAggregates interface {
	Usage(ctx context.Context, id int64) (budget.Usage, error)
	CashReceived(ctx context.Context, sessionID int64) (core.Money, error)
}

type budgetRepository struct {
	repository
	BudgetAggregates
}

var _ budget.Repository = (*budgetRepository)(nil) // interface compliance check

func NewBudgetRepository(db *sqlx.DB, aggregates BudgetAggregates) *budgetRepository {
	return &budgetRepository{repository: repository{db: db}, BudgetAggregates: aggregates}
}

func (repo budgetRepository) CreateBudget(ctx context.Context, b budget.Budget) (budget.Budget, error) {
	id, err := repo.insert(ctx, `
		INSERT INTO budget (name, category, session_id, allocated_amount, description, created_at)
		VALUES (:name, :category, :session_id, :allocated_amount, :description, :created_at) RETURNING id`, b, nil)
	if err != nil {
		return budget.Budget{}, err
	}
	b.ID = id
	return b, nil
}

func (repo budgetRepository) UpdateBudget(ctx context.Context, b budget.Budget) (budget.Budget, error) {
	err := repo.update(ctx, `
		UPDATE budget SET
			name = :name, category = :category, session_id = :session_id, allocated_amount = :allocated_amount,
			description = :description
		WHERE id = :id`, b, budget.ErrNotFound, nil)
	return b, err
}

func (repo budgetRepository) DeleteBudget(ctx context.Context, id int64) error {
	return repo.delete(ctx, "budget", id, budget.ErrNotFound, budget.ErrInUse)
}

func (repo budgetRepository) GetBudget(ctx context.Context, id int64) (budget.Budget, error) {
	var b budget.Budget
	err := repo.get(ctx, &b, budget.ErrNotFound, `SELECT * FROM budget WHERE id = $1`, id)
	return b, err
}

func (repo budgetRepository) LockBudget(ctx context.Context, id int64) (budget.Budget, error) {
	var b budget.Budget
	err := repo.get(ctx, &b, budget.ErrNotFound, `SELECT * FROM budget WHERE id = $1 FOR UPDATE`, id)
	return b, err
}

func (repo budgetRepository) ListBudgets(ctx context.Context, sessionID int64) ([]budget.Budget, error) {
	w := &where{}
	if sessionID != 0 {
		w.add("session_id = ?", sessionID)
	}
	budgets := []budget.Budget{}
	err := repo.list(ctx, &budgets, `SELECT * FROM budget`+w.String()+` ORDER BY id`, w.args...)
	return budgets, err
}

func (repo budgetRepository) CreateLine(ctx context.Context, l budget.Line) (budget.Line, error) {
	id, err := repo.insert(ctx, `INSERT INTO budget_line (name, description) VALUES (:name, :description) RETURNING id`, l, budget.ErrLineExists)
	if err != nil {
		return budget.Line{}, err
	}
	l.ID = id
	return l, nil
}

func (repo budgetRepository) UpdateLine(ctx context.Context, l budget.Line) (budget.Line, error) {
	err := repo.update(ctx, `UPDATE budget_line SET name = :name, description = :description WHERE id = :id`, l, budget.ErrLineNotFound, budget.ErrLineExists)
	return l, err
}

func (repo budgetRepository) DeleteLine(ctx context.Context, id int64) error {
	return repo.delete(ctx, "budget_line", id, budget.ErrLineNotFound, budget.ErrLineInUse)
}

func (repo budgetRepository) GetLine(ctx context.Context, id int64) (budget.Line, error) {
	var l budget.Line
	err := repo.get(ctx, &l, budget.ErrLineNotFound, `SELECT * FROM budget_line WHERE id = $1`, id)
	return l, err
}

func (repo budgetRepository) ListLines(ctx context.Context) ([]budget.Line, error) {
	lines := []budget.Line{}
	err := repo.list(ctx, &lines, `SELECT * FROM budget_line ORDER BY name`)
	return lines, err
}

func (repo budgetRepository) CreateExpenditure(ctx context.Context, e budget.Expenditure) (budget.Expenditure, error) {
	id, err := repo.insert(ctx, `
		INSERT INTO expenditure (
			budget_id, budget_line_id, item_name, unit, quantity, price_per_unit, total_cost, date, description,
			attachment, created_at
		) VALUES (
			:budget_id, :budget_line_id, :item_name, :unit, :quantity, :price_per_unit, :total_cost, :date,
			:description, :attachment, :created_at
		) RETURNING id`, e, nil)
	if err != nil {
		return budget.Expenditure{}, err
	}
	e.ID = id
	return e, nil
}

func (repo budgetRepository) UpdateExpenditure(ctx context.Context, e budget.Expenditure) (budget.Expenditure, error) {
	err := repo.update(ctx, `
		UPDATE expenditure SET
			budget_id = :budget_id, budget_line_id = :budget_line_id, item_name = :item_name, unit = :unit,
			quantity = :quantity, price_per_unit = :price_per_unit, total_cost = :total_cost, date = :date,
			description = :description, attachment = :attachment
		WHERE id = :id`, e, budget.ErrExpenditureNotFound, nil)
	return e, err
}

func (repo budgetRepository) DeleteExpenditure(ctx context.Context, id int64) error {
	return repo.delete(ctx, "expenditure", id, budget.ErrExpenditureNotFound, nil)
}

func (repo budgetRepository) GetExpenditure(ctx context.Context, id int64) (budget.Expenditure, error) {
	var e budget.Expenditure
	err := repo.get(ctx, &e, budget.ErrExpenditureNotFound, `SELECT * FROM expenditure WHERE id = $1`, id)
	return e, err
}

func (repo budgetRepository) ListExpenditures(ctx context.Context, filter budget.ExpenditureFilter) ([]budget.Expenditure, error) {
	w := &where{}
	if filter.BudgetID != 0 {
		w.add("budget_id = ?", filter.BudgetID)
	}
	if filter.LineID != 0 {
		w.add("budget_line_id = ?", filter.LineID)
	}
	if !filter.From.IsZero() {
		w.add("date >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		w.add("date <= ?", filter.To)
	}
	expenditures := []budget.Expenditure{}
	err := repo.list(ctx, &expenditures, `SELECT * FROM expenditure`+w.String()+` ORDER BY date, id`, w.args...)
	return expenditures, err
}
