package budget

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/core/school"
)

type (
	Repository interface {
		CreateBudget(ctx context.Context, b Budget) (Budget, error)
		UpdateBudget(ctx context.Context, b Budget) (Budget, error)
		DeleteBudget(ctx context.Context, id int64) error
		GetBudget(ctx context.Context, id int64) (Budget, error)
		// LockBudget fetches the budget and holds its row lock until the surrounding transaction ends.
		LockBudget(ctx context.Context, id int64) (Budget, error)
		ListBudgets(ctx context.Context, sessionID int64) ([]Budget, error)
		// Usage sums the five expense streams pointing at the budget.
		Usage(ctx context.Context, id int64) (Usage, error)
		// CashReceived sums the receipts of invoices billed in the session.
		CashReceived(ctx context.Context, sessionID int64) (core.Money, error)

		CreateLine(ctx context.Context, l Line) (Line, error)
		UpdateLine(ctx context.Context, l Line) (Line, error)
		DeleteLine(ctx context.Context, id int64) error
		GetLine(ctx context.Context, id int64) (Line, error)
		ListLines(ctx context.Context) ([]Line, error)

		CreateExpenditure(ctx context.Context, e Expenditure) (Expenditure, error)
		UpdateExpenditure(ctx context.Context, e Expenditure) (Expenditure, error)
		DeleteExpenditure(ctx context.Context, id int64) error
		GetExpenditure(ctx context.Context, id int64) (Expenditure, error)
		ListExpenditures(ctx context.Context, filter ExpenditureFilter) ([]Expenditure, error)
	}

	Calendar interface {
		GetPeriodOf(ctx context.Context, kind school.PeriodKind, id int64) (school.Period, error)
	}

	Service struct {
		repo     Repository
		tx       core.Transactor
		calendar Calendar
		validate *validator.Validate
		logger   core.Logger
	}
)

func NewService(repo Repository, tx core.Transactor, calendar Calendar, validate *validator.Validate, logger core.Logger) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(tx, "tx"),
		vala.IsNotNil(calendar, "calendar"),
		vala.IsNotNil(validate, "validate"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Service{repo: repo, tx: tx, calendar: calendar, validate: validate, logger: logger}
}

// Draw checks that the budget can absorb delta more spending. It locks the budget row, so callers
// run it inside the transaction that writes the spending row, before that write.
// A non-positive delta always passes.
func (svc *Service) Draw(ctx context.Context, budgetID int64, delta core.Money) error {
	return svc.tx.InTx(ctx, func(ctx context.Context) error {
		b, err := svc.repo.LockBudget(ctx, budgetID)
		if err != nil {
			return err
		}
		if !delta.IsPositive() {
			return nil
		}
		usage, err := svc.repo.Usage(ctx, budgetID)
		if err != nil {
			return errors.Wrap(err, "computing budget usage")
		}
		used := usage.Used()
		if used.Add(delta).GreaterThan(b.Allocated) {
			svc.logger.Info(fmt.Sprintf("budget %d refused %s (used %s of %s)", b.ID, delta, used, b.Allocated))
			return errors.Wrapf(ErrOverrun, "budget %q: remaining %s, requested %s", b.Name, b.Allocated.Sub(used).R2(), delta.R2())
		}
		return nil
	})
}

// Redraw moves spending between budgets: the old budget releases oldCost while the new one draws
// newCost, or only the difference when the budget is unchanged.
func (svc *Service) Redraw(ctx context.Context, oldBudgetID, newBudgetID int64, oldCost, newCost core.Money) error {
	if oldBudgetID == newBudgetID {
		return svc.Draw(ctx, newBudgetID, newCost.Sub(oldCost))
	}
	return svc.Draw(ctx, newBudgetID, newCost)
}

func (svc *Service) Allocate(ctx context.Context, in Input) (Budget, error) {
	if err := in.Validate(svc.validate); err != nil {
		return Budget{}, err
	}
	if _, err := svc.calendar.GetPeriodOf(ctx, school.KindSession, in.SessionID); err != nil {
		return Budget{}, err
	}
	return svc.repo.CreateBudget(ctx, Budget{
		Name:        in.Name,
		Category:    in.Category,
		SessionID:   in.SessionID,
		Allocated:   in.Allocated.R2(),
		Description: in.Description,
		CreatedAt:   core.NowFunc().UTC(),
	})
}

// UpdateBudget refuses to bring the allocation below what the budget already funds.
func (svc *Service) UpdateBudget(ctx context.Context, id int64, in Input) (Budget, error) {
	if err := in.Validate(svc.validate); err != nil {
		return Budget{}, err
	}
	var b Budget
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		if b, err = svc.repo.LockBudget(ctx, id); err != nil {
			return err
		}
		if _, err = svc.calendar.GetPeriodOf(ctx, school.KindSession, in.SessionID); err != nil {
			return err
		}
		usage, err := svc.repo.Usage(ctx, id)
		if err != nil {
			return err
		}
		if in.Allocated.LessThan(usage.Used()) {
			return errors.Wrapf(ErrBelowUsed, "budget %q uses %s", b.Name, usage.Used().R2())
		}
		b.Name = in.Name
		b.Category = in.Category
		b.SessionID = in.SessionID
		b.Allocated = in.Allocated.R2()
		b.Description = in.Description
		b, err = svc.repo.UpdateBudget(ctx, b)
		return err
	})
	return b, err
}

func (svc *Service) DeleteBudget(ctx context.Context, id int64) error {
	return svc.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := svc.repo.LockBudget(ctx, id); err != nil {
			return err
		}
		usage, err := svc.repo.Usage(ctx, id)
		if err != nil {
			return err
		}
		if usage.Rows > 0 || usage.Used().IsPositive() {
			return ErrInUse
		}
		return svc.repo.DeleteBudget(ctx, id)
	})
}

func (svc *Service) GetBudget(ctx context.Context, id int64) (Budget, error) {
	return svc.repo.GetBudget(ctx, id)
}

func (svc *Service) ListBudgets(ctx context.Context, sessionID int64) ([]Budget, error) {
	return svc.repo.ListBudgets(ctx, sessionID)
}

// Summary reports the budget's usage, remaining funds (2dp) and the cash received in its session.
func (svc *Service) Summary(ctx context.Context, id int64) (Summary, error) {
	b, err := svc.repo.GetBudget(ctx, id)
	if err != nil {
		return Summary{}, err
	}
	usage, err := svc.repo.Usage(ctx, id)
	if err != nil {
		return Summary{}, err
	}
	cash, err := svc.repo.CashReceived(ctx, b.SessionID)
	if err != nil {
		return Summary{}, err
	}
	used := usage.Used()
	return Summary{
		Budget:       b,
		Usage:        usage,
		Used:         used.R2(),
		Remaining:    b.Allocated.Sub(used).R2(),
		CashReceived: cash.R2(),
	}, nil
}

// Summaries reports every budget of a session (0 for all).
func (svc *Service) Summaries(ctx context.Context, sessionID int64) ([]Summary, error) {
	budgets, err := svc.repo.ListBudgets(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sums := make([]Summary, 0, len(budgets))
	for _, b := range budgets {
		s, err := svc.Summary(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		sums = append(sums, s)
	}
	return sums, nil
}

// Budget lines

func (svc *Service) CreateLine(ctx context.Context, name, description string) (Line, error) {
	name = core.CleanString(name)
	if name == "" {
		return Line{}, core.NewFieldError("name", "this field is required")
	}
	return svc.repo.CreateLine(ctx, Line{Name: name, Description: core.CleanString(description)})
}

func (svc *Service) UpdateLine(ctx context.Context, id int64, name, description string) (Line, error) {
	name = core.CleanString(name)
	if name == "" {
		return Line{}, core.NewFieldError("name", "this field is required")
	}
	return svc.repo.UpdateLine(ctx, Line{ID: id, Name: name, Description: core.CleanString(description)})
}

func (svc *Service) DeleteLine(ctx context.Context, id int64) error {
	return svc.repo.DeleteLine(ctx, id)
}

func (svc *Service) ListLines(ctx context.Context) ([]Line, error) {
	return svc.repo.ListLines(ctx)
}

// Expenditures

func (svc *Service) RecordExpenditure(ctx context.Context, in ExpenditureInput) (Expenditure, error) {
	if err := in.Validate(svc.validate); err != nil {
		return Expenditure{}, err
	}
	var exp Expenditure
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		if in.LineID.Valid {
			if _, err := svc.repo.GetLine(ctx, in.LineID.Int64); err != nil {
				return err
			}
		}
		exp = Expenditure{CreatedAt: core.NowFunc().UTC()}
		applyExpenditureInput(&exp, in)
		if err := svc.Draw(ctx, exp.BudgetID, exp.TotalCost); err != nil {
			return err
		}
		var err error
		exp, err = svc.repo.CreateExpenditure(ctx, exp)
		return err
	})
	return exp, err
}

// UpdateExpenditure draws the cost difference, or the full new cost when the budget changes.
func (svc *Service) UpdateExpenditure(ctx context.Context, id int64, in ExpenditureInput) (Expenditure, error) {
	if err := in.Validate(svc.validate); err != nil {
		return Expenditure{}, err
	}
	var exp Expenditure
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		if exp, err = svc.repo.GetExpenditure(ctx, id); err != nil {
			return err
		}
		if in.LineID.Valid {
			if _, err = svc.repo.GetLine(ctx, in.LineID.Int64); err != nil {
				return err
			}
		}
		oldBudget, oldCost := exp.BudgetID, exp.TotalCost
		applyExpenditureInput(&exp, in)
		if err = svc.Redraw(ctx, oldBudget, exp.BudgetID, oldCost, exp.TotalCost); err != nil {
			return err
		}
		exp, err = svc.repo.UpdateExpenditure(ctx, exp)
		return err
	})
	return exp, err
}

func applyExpenditureInput(exp *Expenditure, in ExpenditureInput) {
	exp.BudgetID = in.BudgetID
	exp.LineID = in.LineID
	exp.ItemName = in.ItemName
	exp.Unit = in.Unit
	exp.Quantity = in.Quantity
	exp.PricePerUnit = in.PricePerUnit
	exp.TotalCost = in.PricePerUnit.Mul(in.Quantity).R2()
	exp.Date = in.Date
	exp.Description = in.Description
	if in.Attachment != "" {
		exp.Attachment = in.Attachment
	}
}

func (svc *Service) DeleteExpenditure(ctx context.Context, id int64) error {
	return svc.repo.DeleteExpenditure(ctx, id)
}

func (svc *Service) GetExpenditure(ctx context.Context, id int64) (Expenditure, error) {
	return svc.repo.GetExpenditure(ctx, id)
}

func (svc *Service) ListExpenditures(ctx context.Context, filter ExpenditureFilter) ([]Expenditure, error) {
	return svc.repo.ListExpenditures(ctx, filter)
}
