package payroll

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/core/budget"
	"github.com/kizito-simon15/montessori-sub000/core/school"
)

type (
	Repository interface {
		CreateSlip(ctx context.Context, s Slip) (Slip, error)
		UpdateSlip(ctx context.Context, s Slip) (Slip, error)
		// DeleteSlip removes the slip and its deductions.
		DeleteSlip(ctx context.Context, id int64) error
		GetSlip(ctx context.Context, id int64) (Slip, error)
		// LockSlip fetches the slip and holds its row lock until the surrounding transaction ends.
		LockSlip(ctx context.Context, id int64) (Slip, error)
		// FindSlip returns ErrSlipNotFound when the staff member has no slip for the month.
		FindSlip(ctx context.Context, staffID int64, month time.Time) (Slip, error)
		ListSlips(ctx context.Context, filter SlipFilter) ([]Slip, error)

		CreateDeduction(ctx context.Context, d Deduction) (Deduction, error)
		UpdateDeduction(ctx context.Context, d Deduction) (Deduction, error)
		DeleteDeduction(ctx context.Context, id int64) error
		GetDeduction(ctx context.Context, id int64) (Deduction, error)
		// ListDeductions returns the slip's deductions ordered by id.
		ListDeductions(ctx context.Context, slipID int64) ([]Deduction, error)
	}

	Directory interface {
		GetStaff(ctx context.Context, id int64) (school.Staff, error)
	}

	Budgets interface {
		GetBudget(ctx context.Context, id int64) (budget.Budget, error)
		Draw(ctx context.Context, budgetID int64, delta core.Money) error
		Redraw(ctx context.Context, oldBudgetID, newBudgetID int64, oldCost, newCost core.Money) error
	}

	Service struct {
		repo      Repository
		tx        core.Transactor
		directory Directory
		budgets   Budgets
		validate  *validator.Validate
		rates     Rates
		logger    core.Logger
	}
)

func NewService(repo Repository, tx core.Transactor, directory Directory, budgets Budgets, validate *validator.Validate, conf *core.Config, logger core.Logger) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(tx, "tx"),
		vala.IsNotNil(directory, "directory"),
		vala.IsNotNil(budgets, "budgets"),
		vala.IsNotNil(validate, "validate"),
		vala.IsNotNil(conf, "conf"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Service{
		repo:      repo,
		tx:        tx,
		directory: directory,
		budgets:   budgets,
		validate:  validate,
		rates:     Rates{NSSF: conf.Payroll.NSSFRate, WCF: conf.Payroll.WCFRate},
		logger:    logger,
	}
}

func (svc *Service) Rates() Rates {
	return svc.rates
}

func helsbTerms(stf school.Staff) HELSBTerms {
	return HELSBTerms{HasHELSB: stf.HasHELSB, Rate: stf.HELSBRate}
}

// SaveSlip creates the slip when id is 0, otherwise replaces the inputs of slip id.
// A zero basic salary or special allowance takes the staff master's figure on a new slip
// and keeps the slip's current figure on an update.
// Snapshots are always recomputed and the budget is drawn by the change in net salary.
func (svc *Service) SaveSlip(ctx context.Context, id int64, in SlipInput) (Slip, error) {
	if err := in.Validate(svc.validate); err != nil {
		return Slip{}, err
	}
	var slip Slip
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		stf, err := svc.directory.GetStaff(ctx, in.StaffID)
		if err != nil {
			return err
		}
		if _, err = svc.budgets.GetBudget(ctx, in.BudgetID); err != nil {
			return err
		}

		existing, err := svc.repo.FindSlip(ctx, in.StaffID, in.Month)
		switch {
		case err == nil && existing.ID != id:
			return errors.Wrapf(ErrDuplicateSlip, "%s, %s", stf.FullName(), in.Month.Format("January 2006"))
		case err != nil && errors.Cause(err) != ErrSlipNotFound:
			return err
		}

		var deductions []Deduction
		oldBudget, oldNet := int64(0), core.M(0)
		now := core.NowFunc().UTC()
		if id == 0 {
			slip = Slip{CreatedAt: now}
			if in.BasicSalary.IsZero() {
				in.BasicSalary = stf.Salary
			}
			if in.SpecialAllowance.IsZero() {
				in.SpecialAllowance = stf.SpecialAllowance
			}
		} else {
			if slip, err = svc.repo.LockSlip(ctx, id); err != nil {
				return err
			}
			if deductions, err = svc.repo.ListDeductions(ctx, id); err != nil {
				return err
			}
			oldBudget, oldNet = slip.BudgetID, slip.NetSalary
			if in.BasicSalary.IsZero() {
				in.BasicSalary = slip.Inputs.BasicSalary
			}
			if in.SpecialAllowance.IsZero() {
				in.SpecialAllowance = slip.Inputs.SpecialAllowance
			}
		}
		if !in.BasicSalary.IsPositive() {
			return core.NewFieldError("basic_salary", "basic salary must be greater than 0")
		}

		slip.BudgetID = in.BudgetID
		slip.StaffID = in.StaffID
		slip.Month = in.Month
		slip.IssuedDate = in.IssuedDate
		slip.Remarks = in.Remarks
		slip.Inputs = Inputs{
			BasicSalary:      in.BasicSalary.R2(),
			SpecialAllowance: in.SpecialAllowance.R2(),
			Allowance:        in.Allowance.R2(),
			PAYE:             in.PAYE.R2(),
		}
		slip.Snapshots = Compute(slip.Inputs, helsbTerms(stf), deductions, svc.rates)
		slip.UpdatedAt = now

		if id == 0 {
			if err = svc.budgets.Draw(ctx, slip.BudgetID, slip.NetSalary); err != nil {
				return err
			}
			slip, err = svc.repo.CreateSlip(ctx, slip)
		} else {
			if err = svc.budgets.Redraw(ctx, oldBudget, slip.BudgetID, oldNet, slip.NetSalary); err != nil {
				return err
			}
			slip, err = svc.repo.UpdateSlip(ctx, slip)
		}
		if err != nil {
			return err
		}
		slip.Deductions = deductions
		return nil
	})
	if err != nil {
		return Slip{}, err
	}
	svc.logger.Info(fmt.Sprintf("slip %d saved for staff %d (%s): net %s", slip.ID, slip.StaffID, slip.Month.Format("2006-01"), slip.NetSalary))
	return slip, nil
}

// recompute re-derives the locked slip's snapshots from its current deductions.
func (svc *Service) recompute(ctx context.Context, slip Slip) (Slip, error) {
	stf, err := svc.directory.GetStaff(ctx, slip.StaffID)
	if err != nil {
		return Slip{}, err
	}
	deductions, err := svc.repo.ListDeductions(ctx, slip.ID)
	if err != nil {
		return Slip{}, err
	}
	oldNet := slip.NetSalary
	slip.Snapshots = Compute(slip.Inputs, helsbTerms(stf), deductions, svc.rates)
	if err = svc.budgets.Draw(ctx, slip.BudgetID, slip.NetSalary.Sub(oldNet)); err != nil {
		return Slip{}, err
	}
	slip.UpdatedAt = core.NowFunc().UTC()
	if slip, err = svc.repo.UpdateSlip(ctx, slip); err != nil {
		return Slip{}, errors.Wrap(err, "updating slip snapshots")
	}
	slip.Deductions = deductions
	if !oldNet.Equal(slip.NetSalary) {
		svc.logger.Info(fmt.Sprintf("slip %d recomputed: net %s -> %s", slip.ID, oldNet, slip.NetSalary))
	}
	return slip, nil
}

// RecordDeduction adds a deduction and recomputes its slip in the same transaction.
func (svc *Service) RecordDeduction(ctx context.Context, slipID int64, in DeductionInput) (Deduction, Slip, error) {
	if err := in.Validate(svc.validate); err != nil {
		return Deduction{}, Slip{}, err
	}
	var (
		ded  Deduction
		slip Slip
	)
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		if slip, err = svc.repo.LockSlip(ctx, slipID); err != nil {
			return err
		}
		if ded, err = svc.repo.CreateDeduction(ctx, Deduction{SlipID: slipID, Reason: in.Reason, Amount: in.Amount.R2()}); err != nil {
			return err
		}
		slip, err = svc.recompute(ctx, slip)
		return err
	})
	return ded, slip, err
}

func (svc *Service) UpdateDeduction(ctx context.Context, id int64, in DeductionInput) (Deduction, Slip, error) {
	if err := in.Validate(svc.validate); err != nil {
		return Deduction{}, Slip{}, err
	}
	var (
		ded  Deduction
		slip Slip
	)
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		if ded, err = svc.repo.GetDeduction(ctx, id); err != nil {
			return err
		}
		if slip, err = svc.repo.LockSlip(ctx, ded.SlipID); err != nil {
			return err
		}
		ded.Reason = in.Reason
		ded.Amount = in.Amount.R2()
		if ded, err = svc.repo.UpdateDeduction(ctx, ded); err != nil {
			return err
		}
		slip, err = svc.recompute(ctx, slip)
		return err
	})
	return ded, slip, err
}

func (svc *Service) DeleteDeduction(ctx context.Context, id int64) (Slip, error) {
	var slip Slip
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		ded, err := svc.repo.GetDeduction(ctx, id)
		if err != nil {
			return err
		}
		if slip, err = svc.repo.LockSlip(ctx, ded.SlipID); err != nil {
			return err
		}
		if err = svc.repo.DeleteDeduction(ctx, id); err != nil {
			return err
		}
		slip, err = svc.recompute(ctx, slip)
		return err
	})
	return slip, err
}

// UpsertDeductions replaces all the slip's deductions with rows, then recomputes the slip.
func (svc *Service) UpsertDeductions(ctx context.Context, slipID int64, rows []DeductionInput) (Slip, error) {
	for i := range rows {
		if err := rows[i].Validate(svc.validate); err != nil {
			return Slip{}, errors.Wrapf(err, "deduction %d", i+1)
		}
	}
	var slip Slip
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		if slip, err = svc.repo.LockSlip(ctx, slipID); err != nil {
			return err
		}
		current, err := svc.repo.ListDeductions(ctx, slipID)
		if err != nil {
			return err
		}
		for _, d := range current {
			if err = svc.repo.DeleteDeduction(ctx, d.ID); err != nil {
				return err
			}
		}
		for _, row := range rows {
			if _, err = svc.repo.CreateDeduction(ctx, Deduction{SlipID: slipID, Reason: row.Reason, Amount: row.Amount.R2()}); err != nil {
				return err
			}
		}
		slip, err = svc.recompute(ctx, slip)
		return err
	})
	return slip, err
}

// GetSlip returns the slip with its deductions.
func (svc *Service) GetSlip(ctx context.Context, id int64) (Slip, error) {
	slip, err := svc.repo.GetSlip(ctx, id)
	if err != nil {
		return Slip{}, err
	}
	if slip.Deductions, err = svc.repo.ListDeductions(ctx, id); err != nil {
		return Slip{}, err
	}
	return slip, nil
}

func (svc *Service) ListSlips(ctx context.Context, filter SlipFilter) ([]Slip, error) {
	if !filter.Month.IsZero() {
		filter.Month = core.FirstOfMonth(filter.Month)
	}
	return svc.repo.ListSlips(ctx, filter)
}

func (svc *Service) DeleteSlip(ctx context.Context, id int64) error {
	return svc.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := svc.repo.LockSlip(ctx, id); err != nil {
			return err
		}
		return svc.repo.DeleteSlip(ctx, id)
	})
}
