package payroll

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/kizito-simon15/montessori-sub000/core"
)

var (
	// errors
	ErrSlipNotFound      = core.NewError(core.KindNotFound, "NotFound", "salary slip not found")
	ErrDuplicateSlip     = core.NewError(core.KindInvariant, "DuplicateSlip", "the staff member already has a salary slip for this month")
	ErrSlipConflict      = core.NewError(core.KindConflict, "DuplicateSlip", "the staff member already has a salary slip for this month")
	ErrNegativePaye      = core.NewError(core.KindValidation, "NegativePaye", "PAYE cannot be negative")
	ErrMissingBudget     = core.NewError(core.KindValidation, "MissingBudget", "a salary slip must be funded by a budget")
	ErrInvalidAmount     = core.NewError(core.KindValidation, "InvalidAmount", "amount is not valid")
	ErrDeductionNotFound = core.NewError(core.KindNotFound, "NotFound", "deduction not found")
)

// Rates are the statutory fractions applied to the taxable gross.
type Rates struct {
	NSSF decimal.Decimal `json:"nssf_rate"`
	WCF  decimal.Decimal `json:"wcf_rate"`
}

// Inputs are the user-entered figures of a slip.
type Inputs struct {
	BasicSalary      core.Money `json:"basic_salary" db:"basic_salary"`
	SpecialAllowance core.Money `json:"special_allowance" db:"special_allowance"`
	Allowance        core.Money `json:"allowance" db:"allowance"` // untaxed
	PAYE             core.Money `json:"paye_amount" db:"paye_amount"`
}

// Snapshots are derived from the inputs, the staff HELSB terms and the deductions.
type Snapshots struct {
	TaxableGross    core.Money `json:"taxable_gross" db:"taxable_gross"`
	GrossSalary     core.Money `json:"gross_salary" db:"gross_salary"`
	NSSF            core.Money `json:"nssf_amount" db:"nssf_amount"`
	WCF             core.Money `json:"wcf_amount" db:"wcf_amount"`
	HELSB           core.Money `json:"helsb_amount" db:"helsb_amount"`
	ExtraDeductions core.Money `json:"extra_deductions" db:"extra_deductions"`
	NetSalary       core.Money `json:"net_salary" db:"net_salary"`
	TotalGiven      core.Money `json:"total_given_salary" db:"total_given_salary"`
}

// Slip is a staff member's salary for a calendar month.
type Slip struct {
	ID         int64     `json:"id" db:"id"`
	BudgetID   int64     `json:"budget_id" db:"budget_id"`
	StaffID    int64     `json:"staff_id" db:"staff_id"`
	Month      time.Time `json:"month" db:"month"` // first day of the month
	IssuedDate time.Time `json:"issued_date" db:"issued_date"`
	Remarks    string    `json:"remarks" db:"remarks"`
	Inputs
	Snapshots
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	Deductions []Deduction `json:"deductions,omitempty" db:"-"`
}

// SlipInput creates a slip or, with ID set, replaces the inputs of an existing one.
// Zero basic salary or special allowance default to the staff master figures on creation.
type SlipInput struct {
	BudgetID         int64      `json:"budget_id"`
	StaffID          int64      `json:"staff_id" validate:"required"`
	Month            time.Time  `json:"month" validate:"required"`
	IssuedDate       time.Time  `json:"issued_date"`
	BasicSalary      core.Money `json:"basic_salary" validate:"money_gte0"`
	SpecialAllowance core.Money `json:"special_allowance" validate:"money_gte0"`
	Allowance        core.Money `json:"allowance" validate:"money_gte0"`
	PAYE             core.Money `json:"paye_amount"`
	Remarks          string     `json:"remarks"`
}

func (in *SlipInput) Validate(validate *validator.Validate) error {
	in.Remarks = core.CleanString(in.Remarks)
	in.Month = core.FirstOfMonth(in.Month)
	if in.IssuedDate.IsZero() {
		in.IssuedDate = core.Today()
	}
	in.IssuedDate = core.Day(in.IssuedDate)
	if in.BudgetID == 0 {
		return ErrMissingBudget
	}
	if in.PAYE.IsNegative() {
		return ErrNegativePaye
	}
	return validate.Struct(in)
}

type SlipFilter struct {
	StaffID  int64     `query:"staff_id"`
	BudgetID int64     `query:"budget_id"`
	Month    time.Time `query:"-"`
	Year     int       `query:"year"`
}

// Deduction is an extra, user-entered deduction from a slip.
type Deduction struct {
	ID     int64      `json:"id" db:"id"`
	SlipID int64      `json:"salary_invoice_id" db:"salary_invoice_id"`
	Reason string     `json:"reason" db:"reason"`
	Amount core.Money `json:"amount" db:"amount"`
}

type DeductionInput struct {
	Reason string     `json:"reason" validate:"required,max=200"`
	Amount core.Money `json:"amount" validate:"money_gte0"`
}

func (in *DeductionInput) Validate(validate *validator.Validate) error {
	in.Reason = core.CleanString(in.Reason)
	if in.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	return validate.Struct(in)
}
