package inmemdb

import (
	"context"
	"sort"

	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/core/budget"
)

type budgetRepository struct {
	db *DB
}

var _ budget.Repository = (*budgetRepository)(nil) // interface compliance check

func NewBudgetRepository(db *DB) *budgetRepository {
	return &budgetRepository{db: db}
}

func (repo budgetRepository) CreateBudget(ctx context.Context, b budget.Budget) (budget.Budget, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	b.ID = t.budgets.nextID()
	t.budgets.put(b.ID, b)
	return b, nil
}

func (repo budgetRepository) UpdateBudget(ctx context.Context, b budget.Budget) (budget.Budget, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.budgets.has(b.ID) {
		return budget.Budget{}, budget.ErrNotFound
	}
	t.budgets.put(b.ID, b)
	return b, nil
}

func (repo budgetRepository) DeleteBudget(ctx context.Context, id int64) error {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.budgets.has(id) {
		return budget.ErrNotFound
	}
	if t.budgetUsage(id).Rows > 0 {
		return budget.ErrInUse
	}
	t.budgets.remove(id)
	return nil
}

func (repo budgetRepository) GetBudget(ctx context.Context, id int64) (budget.Budget, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if b, ok := t.budgets.get(id); ok {
		return b, nil
	}
	return budget.Budget{}, budget.ErrNotFound
}

// LockBudget is GetBudget: the DB lock already serialises the transaction.
func (repo budgetRepository) LockBudget(ctx context.Context, id int64) (budget.Budget, error) {
	return repo.GetBudget(ctx, id)
}

func (repo budgetRepository) ListBudgets(ctx context.Context, sessionID int64) ([]budget.Budget, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	return t.budgets.filter(func(b budget.Budget) bool { return sessionID == 0 || b.SessionID == sessionID }), nil
}

func (t *tables) budgetUsage(id int64) budget.Usage {
	u := budget.Usage{
		Salaries: core.M(0), Expenditures: core.M(0), Seasonal: core.M(0), Kitchen: core.M(0), ProcessingFees: core.M(0),
	}
	for _, s := range t.slips.rows {
		if s.BudgetID == id {
			u.Salaries = u.Salaries.Add(s.NetSalary)
			u.Rows++
		}
	}
	for _, e := range t.expenditures.rows {
		if e.BudgetID == id {
			u.Expenditures = u.Expenditures.Add(e.TotalCost)
			u.Rows++
		}
	}
	for _, p := range t.purchases.rows {
		if p.BudgetID == id {
			u.Seasonal = u.Seasonal.Add(p.TotalCost)
			u.Rows++
		}
	}
	for _, p := range t.kitchenPurchases.rows {
		if p.BudgetID == id {
			u.Kitchen = u.Kitchen.Add(p.TotalCost)
			u.Rows++
		}
	}
	for _, b := range t.batches.rows {
		if p, ok := t.purchases.get(b.PurchaseID); ok && p.BudgetID == id {
			u.ProcessingFees = u.ProcessingFees.Add(b.ProcessingFee)
		}
	}
	return u
}

func (repo budgetRepository) Usage(ctx context.Context, id int64) (budget.Usage, error) {
	t, done := repo.db.begin(ctx)
	defer done()
	return t.budgetUsage(id), nil
}

func (repo budgetRepository) CashReceived(ctx context.Context, sessionID int64) (core.Money, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	total := core.M(0)
	for _, r := range t.receipts.rows {
		if inv, ok := t.invoices.get(r.InvoiceID); ok && inv.SessionID == sessionID {
			total = total.Add(r.Amount)
		}
	}
	return total, nil
}

// Lines

func (t *tables) lineTaken(l budget.Line) bool {
	return t.lines.exists(func(o budget.Line) bool { return o.ID != l.ID && o.Name == l.Name })
}

func (repo budgetRepository) CreateLine(ctx context.Context, l budget.Line) (budget.Line, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if t.lineTaken(l) {
		return budget.Line{}, budget.ErrLineExists
	}
	l.ID = t.lines.nextID()
	t.lines.put(l.ID, l)
	return l, nil
}

func (repo budgetRepository) UpdateLine(ctx context.Context, l budget.Line) (budget.Line, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.lines.has(l.ID) {
		return budget.Line{}, budget.ErrLineNotFound
	}
	if t.lineTaken(l) {
		return budget.Line{}, budget.ErrLineExists
	}
	t.lines.put(l.ID, l)
	return l, nil
}

func (repo budgetRepository) DeleteLine(ctx context.Context, id int64) error {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.lines.has(id) {
		return budget.ErrLineNotFound
	}
	if t.expenditures.exists(func(e budget.Expenditure) bool { return e.LineID.Valid && e.LineID.Int64 == id }) {
		return budget.ErrLineInUse
	}
	t.lines.remove(id)
	return nil
}

func (repo budgetRepository) GetLine(ctx context.Context, id int64) (budget.Line, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if l, ok := t.lines.get(id); ok {
		return l, nil
	}
	return budget.Line{}, budget.ErrLineNotFound
}

func (repo budgetRepository) ListLines(ctx context.Context) ([]budget.Line, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	lines := t.lines.filter(nil)
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Name < lines[j].Name })
	return lines, nil
}

// Expenditures

func (repo budgetRepository) CreateExpenditure(ctx context.Context, e budget.Expenditure) (budget.Expenditure, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.budgets.has(e.BudgetID) {
		return budget.Expenditure{}, budget.ErrNotFound
	}
	if e.LineID.Valid && !t.lines.has(e.LineID.Int64) {
		return budget.Expenditure{}, budget.ErrLineNotFound
	}
	e.ID = t.expenditures.nextID()
	t.expenditures.put(e.ID, e)
	return e, nil
}

func (repo budgetRepository) UpdateExpenditure(ctx context.Context, e budget.Expenditure) (budget.Expenditure, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.expenditures.has(e.ID) {
		return budget.Expenditure{}, budget.ErrExpenditureNotFound
	}
	if e.LineID.Valid && !t.lines.has(e.LineID.Int64) {
		return budget.Expenditure{}, budget.ErrLineNotFound
	}
	t.expenditures.put(e.ID, e)
	return e, nil
}

func (repo budgetRepository) DeleteExpenditure(ctx context.Context, id int64) error {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.expenditures.has(id) {
		return budget.ErrExpenditureNotFound
	}
	t.expenditures.remove(id)
	return nil
}

func (repo budgetRepository) GetExpenditure(ctx context.Context, id int64) (budget.Expenditure, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if e, ok := t.expenditures.get(id); ok {
		return e, nil
	}
	return budget.Expenditure{}, budget.ErrExpenditureNotFound
}

func (repo budgetRepository) ListExpenditures(ctx context.Context, filter budget.ExpenditureFilter) ([]budget.Expenditure, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	rows := t.expenditures.filter(func(e budget.Expenditure) bool {
		if filter.BudgetID != 0 && e.BudgetID != filter.BudgetID {
			return false
		}
		if filter.LineID != 0 && (!e.LineID.Valid || e.LineID.Int64 != filter.LineID) {
			return false
		}
		return inRange(e.Date, filter.From, filter.To)
	})
	sortByDate(rows, func(e budget.Expenditure) (int64, int64) { return e.Date.Unix(), e.ID })
	return rows, nil
}
