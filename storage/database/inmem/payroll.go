package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/kizito-simon15/montessori-sub000/core/payroll"
)

type payrollRepository struct {
	db *DB
}

var _ payroll.Repository = (*payrollRepository)(nil) // interface compliance check

func NewPayrollRepository(db *DB) *payrollRepository {
	return &payrollRepository{db: db}
}

func (t *tables) slipTaken(s payroll.Slip) bool {
	return t.slips.exists(func(o payroll.Slip) bool {
		return o.ID != s.ID && o.StaffID == s.StaffID && o.Month.Equal(s.Month)
	})
}

func storedSlip(s payroll.Slip) payroll.Slip {
	s.Deductions = nil
	return s
}

func (repo payrollRepository) CreateSlip(ctx context.Context, s payroll.Slip) (payroll.Slip, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if t.slipTaken(s) {
		return payroll.Slip{}, payroll.ErrSlipConflict
	}
	s.ID = t.slips.nextID()
	t.slips.put(s.ID, storedSlip(s))
	return s, nil
}

func (repo payrollRepository) UpdateSlip(ctx context.Context, s payroll.Slip) (payroll.Slip, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.slips.has(s.ID) {
		return payroll.Slip{}, payroll.ErrSlipNotFound
	}
	if t.slipTaken(s) {
		return payroll.Slip{}, payroll.ErrSlipConflict
	}
	t.slips.put(s.ID, storedSlip(s))
	return s, nil
}

func (repo payrollRepository) DeleteSlip(ctx context.Context, id int64) error {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.slips.has(id) {
		return payroll.ErrSlipNotFound
	}
	t.deductions.removeWhere(func(d payroll.Deduction) bool { return d.SlipID == id })
	t.slips.remove(id)
	return nil
}

func (repo payrollRepository) GetSlip(ctx context.Context, id int64) (payroll.Slip, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if s, ok := t.slips.get(id); ok {
		return s, nil
	}
	return payroll.Slip{}, payroll.ErrSlipNotFound
}

func (repo payrollRepository) LockSlip(ctx context.Context, id int64) (payroll.Slip, error) {
	return repo.GetSlip(ctx, id)
}

func (repo payrollRepository) FindSlip(ctx context.Context, staffID int64, month time.Time) (payroll.Slip, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	found := t.slips.filter(func(s payroll.Slip) bool { return s.StaffID == staffID && s.Month.Equal(month) })
	if len(found) == 0 {
		return payroll.Slip{}, payroll.ErrSlipNotFound
	}
	return found[0], nil
}

func (repo payrollRepository) ListSlips(ctx context.Context, filter payroll.SlipFilter) ([]payroll.Slip, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	slips := t.slips.filter(func(s payroll.Slip) bool {
		switch {
		case filter.StaffID != 0 && s.StaffID != filter.StaffID:
			return false
		case filter.BudgetID != 0 && s.BudgetID != filter.BudgetID:
			return false
		case !filter.Month.IsZero() && !s.Month.Equal(filter.Month):
			return false
		case filter.Year != 0 && s.Month.Year() != filter.Year:
			return false
		}
		return true
	})
	sort.SliceStable(slips, func(i, j int) bool {
		if !slips[i].Month.Equal(slips[j].Month) {
			return slips[i].Month.Before(slips[j].Month)
		}
		return slips[i].StaffID < slips[j].StaffID
	})
	return slips, nil
}

// Deductions

func (repo payrollRepository) CreateDeduction(ctx context.Context, d payroll.Deduction) (payroll.Deduction, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.slips.has(d.SlipID) {
		return payroll.Deduction{}, payroll.ErrSlipNotFound
	}
	d.ID = t.deductions.nextID()
	t.deductions.put(d.ID, d)
	return d, nil
}

func (repo payrollRepository) UpdateDeduction(ctx context.Context, d payroll.Deduction) (payroll.Deduction, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.deductions.has(d.ID) {
		return payroll.Deduction{}, payroll.ErrDeductionNotFound
	}
	t.deductions.put(d.ID, d)
	return d, nil
}

func (repo payrollRepository) DeleteDeduction(ctx context.Context, id int64) error {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.deductions.has(id) {
		return payroll.ErrDeductionNotFound
	}
	t.deductions.remove(id)
	return nil
}

func (repo payrollRepository) GetDeduction(ctx context.Context, id int64) (payroll.Deduction, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if d, ok := t.deductions.get(id); ok {
		return d, nil
	}
	return payroll.Deduction{}, payroll.ErrDeductionNotFound
}

func (repo payrollRepository) ListDeductions(ctx context.Context, slipID int64) ([]payroll.Deduction, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	return t.deductions.filter(func(d payroll.Deduction) bool { return d.SlipID == slipID }), nil
}
