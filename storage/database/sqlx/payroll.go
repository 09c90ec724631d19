package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kizito-simon15/montessori-sub000/core/payroll"
)

type payrollRepository struct {
	repository
}

var _ payroll.Repository = (*payrollRepository)(nil) // interface compliance check

func NewPayrollRepository(db *sqlx.DB) *payrollRepository {
	return &payrollRepository{repository{db: db}}
}

func (repo payrollRepository) CreateSlip(ctx context.Context, s payroll.Slip) (payroll.Slip, error) {
	id, err := repo.insert(ctx, `
		INSERT INTO salary_invoice (
			budget_id, staff_id, month, issued_date, remarks, basic_salary, special_allowance, allowance,
			paye_amount, taxable_gross, gross_salary, nssf_amount, wcf_amount, helsb_amount, extra_deductions,
			net_salary, total_given_salary, created_at, updated_at
		) VALUES (
			:budget_id, :staff_id, :month, :issued_date, :remarks, :basic_salary, :special_allowance, :allowance,
			:paye_amount, :taxable_gross, :gross_salary, :nssf_amount, :wcf_amount, :helsb_amount,
			:extra_deductions, :net_salary, :total_given_salary, :created_at, :updated_at
		) RETURNING id`, s, payroll.ErrSlipConflict)
	if err != nil {
		return payroll.Slip{}, err
	}
	s.ID = id
	return s, nil
}

func (repo payrollRepository) UpdateSlip(ctx context.Context, s payroll.Slip) (payroll.Slip, error) {
	err := repo.update(ctx, `
		UPDATE salary_invoice SET
			budget_id = :budget_id, staff_id = :staff_id, month = :month, issued_date = :issued_date,
			remarks = :remarks, basic_salary = :basic_salary, special_allowance = :special_allowance,
			allowance = :allowance, paye_amount = :paye_amount, taxable_gross = :taxable_gross,
			gross_salary = :gross_salary, nssf_amount = :nssf_amount, wcf_amount = :wcf_amount,
			helsb_amount = :helsb_amount, extra_deductions = :extra_deductions, net_salary = :net_salary,
			total_given_salary = :total_given_salary, updated_at = :updated_at
		WHERE id = :id`, s, payroll.ErrSlipNotFound, payroll.ErrSlipConflict)
	return s, err
}

func (repo payrollRepository) DeleteSlip(ctx context.Context, id int64) error {
	return repo.delete(ctx, "salary_invoice", id, payroll.ErrSlipNotFound, nil)
}

func (repo payrollRepository) GetSlip(ctx context.Context, id int64) (payroll.Slip, error) {
	var s payroll.Slip
	err := repo.get(ctx, &s, payroll.ErrSlipNotFound, `SELECT * FROM salary_invoice WHERE id = $1`, id)
	return s, err
}

func (repo payrollRepository) LockSlip(ctx context.Context, id int64) (payroll.Slip, error) {
	var s payroll.Slip
	err := repo.get(ctx, &s, payroll.ErrSlipNotFound, `SELECT * FROM salary_invoice WHERE id = $1 FOR UPDATE`, id)
	return s, err
}

func (repo payrollRepository) FindSlip(ctx context.Context, staffID int64, month time.Time) (payroll.Slip, error) {
	var s payroll.Slip
	err := repo.get(ctx, &s, payroll.ErrSlipNotFound, `SELECT * FROM salary_invoice WHERE staff_id = $1 AND month = $2`, staffID, month)
	return s, err
}

func (repo payrollRepository) ListSlips(ctx context.Context, filter payroll.SlipFilter) ([]payroll.Slip, error) {
	w := &where{}
	if filter.StaffID != 0 {
		w.add("staff_id = ?", filter.StaffID)
	}
	if filter.BudgetID != 0 {
		w.add("budget_id = ?", filter.BudgetID)
	}
	if !filter.Month.IsZero() {
		w.add("month = ?", filter.Month)
	}
	if filter.Year != 0 {
		w.add("EXTRACT(YEAR FROM month) = ?", filter.Year)
	}
	slips := []payroll.Slip{}
	err := repo.list(ctx, &slips, `SELECT * FROM salary_invoice`+w.String()+` ORDER BY month, staff_id`, w.args...)
	return slips, err
}

func (repo payrollRepository) CreateDeduction(ctx context.Context, d payroll.Deduction) (payroll.Deduction, error) {
	id, err := repo.insert(ctx, `
		INSERT INTO salary_deduction (salary_invoice_id, reason, amount)
		VALUES (:salary_invoice_id, :reason, :amount) RETURNING id`, d, nil)
	if err != nil {
		return payroll.Deduction{}, err
	}
	d.ID = id
	return d, nil
}

func (repo payrollRepository) UpdateDeduction(ctx context.Context, d payroll.Deduction) (payroll.Deduction, error) {
	err := repo.update(ctx, `UPDATE salary_deduction SET reason = :reason, amount = :amount WHERE id = :id`, d, payroll.ErrDeductionNotFound, nil)
	return d, err
}

func (repo payrollRepository) DeleteDeduction(ctx context.Context, id int64) error {
	return repo.delete(ctx, "salary_deduction", id, payroll.ErrDeductionNotFound, nil)
}

func (repo payrollRepository) GetDeduction(ctx context.Context, id int64) (payroll.Deduction, error) {
	var d payroll.Deduction
	err := repo.get(ctx, &d, payroll.ErrDeductionNotFound, `SELECT * FROM salary_deduction WHERE id = $1`, id)
	return d, err
}

func (repo payrollRepository) ListDeductions(ctx context.Context, slipID int64) ([]payroll.Deduction, error) {
	deductions := []payroll.Deduction{}
	err := repo.list(ctx, &deductions, `SELECT * FROM salary_deduction WHERE salary_invoice_id = $1 ORDER BY id`, slipID)
	return deductions, err
}
