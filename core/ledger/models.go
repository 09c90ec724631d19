package ledger

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/kizito-simon15/montessori-sub000/core"
)

var (
	// errors
	ErrInvoiceNotFound         = core.NewError(core.KindNotFound, "NotFound", "invoice not found")
	ErrInvoiceExists           = core.NewError(core.KindConflict, "Conflict", "the student already has an invoice for this installment")
	ErrAnnualFeeExceeded       = core.NewError(core.KindInvariant, "AnnualFeeExceeded", "the session's invoices would exceed the annual fee")
	ErrInvoiceHasReceipts      = core.NewError(core.KindInUse, "InvoiceHasReceipts", "an invoice with receipts cannot be deleted")
	ErrReceiptNotFound         = core.NewError(core.KindNotFound, "NotFound", "receipt not found")
	ErrReceiptExists           = core.NewError(core.KindConflict, "Conflict", "a receipt with this number already exists")
	ErrOverpayReceipt          = core.NewError(core.KindInvariant, "OverpayReceipt", "the amount exceeds the invoice's outstanding balance")
	ErrInsufficientOutstanding = core.NewError(core.KindInvariant, "InsufficientOutstanding", "the amount exceeds the student's outstanding balance")
	ErrItemNotFound            = core.NewError(core.KindNotFound, "NotFound", "invoice item not found")
)

// Invoice statuses. They are derived from the balance, never set by callers.
const (
	StatusDraft  = "draft"
	StatusActive = "active"
	StatusClosed = "closed"
)

// Payment methods
const (
	MethodNMB    = "NMB"
	MethodCRDB   = "CRDB"
	MethodMobile = "MOBILE"
	MethodCash   = "CASH"
)

// Item categories
const (
	ItemTuition   = "TUITION"
	ItemTransport = "TRANSPORT"
	ItemUniform   = "UNIFORM"
	ItemOther     = "OTHER"
)

const (
	invoicePrefix = "INV"
	receiptPrefix = "REC"
)

// FormatInvoiceNumber renders e.g. INV-2025-42-00007.
func FormatInvoiceNumber(year int, studentID int64, serial int) string {
	return fmt.Sprintf("%s-%d-%d-%05d", invoicePrefix, year, studentID, serial)
}

// FormatReceiptNumber renders e.g. REC-2025-00031.
func FormatReceiptNumber(year, serial int) string {
	return fmt.Sprintf("%s-%d-%05d", receiptPrefix, year, serial)
}

// Invoice bills one student for one installment of a session.
// BalanceFromPrevious is the signed debt carried from the student's earlier invoices,
// ordered by (session, installment). Paid is the sum of the receipts.
type Invoice struct {
	ID                  int64      `json:"id" db:"id"`
	Number              string     `json:"invoice_number" db:"invoice_number"`
	StudentID           int64      `json:"student_id" db:"student_id"`
	SessionID           int64      `json:"session_id" db:"session_id"`
	InstallmentID       int64      `json:"installment_id" db:"installment_id"`
	ClassID             null.Int64 `json:"class_id" db:"class_id"`
	TierID              int64      `json:"fee_tier_id" db:"fee_tier_id"`
	Amount              int64      `json:"invoice_amount" db:"invoice_amount"` // whole TZS
	DueDate             time.Time  `json:"due_date" db:"due_date"`
	Notes               string     `json:"notes" db:"notes"`
	Status              string     `json:"status" db:"status"`
	BalanceFromPrevious core.Money `json:"balance_from_previous_install" db:"balance_from_previous"`
	Paid                core.Money `json:"amount_paid" db:"amount_paid"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`

	Items []Item `json:"items,omitempty" db:"-"`
}

// OwnBalance is what remains of this invoice's own amount.
func (inv Invoice) OwnBalance() core.Money {
	return core.M(inv.Amount).Sub(inv.Paid)
}

// OverallBalance includes the carried balance: amount + previous − paid.
func (inv Invoice) OverallBalance() core.Money {
	return core.M(inv.Amount).Add(inv.BalanceFromPrevious).Sub(inv.Paid)
}

// DeriveStatus returns closed once the overall balance is settled, active otherwise.
func DeriveStatus(overall core.Money) string {
	if overall.IsPositive() {
		return StatusActive
	}
	return StatusClosed
}

type NewInvoice struct {
	StudentID     int64     `json:"student_id" validate:"required"`
	SessionID     int64     `json:"session_id" validate:"required"`
	InstallmentID int64     `json:"installment_id" validate:"required"`
	TierID        int64     `json:"fee_tier_id" validate:"required"`
	// Amount is this installment's own charge. When 0 it is the tier's installment amount;
	// the balance carried from earlier invoices is never folded into it.
	Amount        int64     `json:"invoice_amount" validate:"gte=0"`
	DueDate       time.Time `json:"due_date" validate:"required"`
	Notes         string    `json:"notes" validate:"max=500"`
}

func (in *NewInvoice) Validate(validate *validator.Validate) error {
	in.Notes = core.CleanString(in.Notes)
	in.DueDate = core.Day(in.DueDate)
	return validate.Struct(in)
}

type InvoiceUpdate struct {
	Amount  int64     `json:"invoice_amount" validate:"gt=0"`
	DueDate time.Time `json:"due_date" validate:"required"`
	Notes   string    `json:"notes" validate:"max=500"`
}

func (in *InvoiceUpdate) Validate(validate *validator.Validate) error {
	in.Notes = core.CleanString(in.Notes)
	in.DueDate = core.Day(in.DueDate)
	return validate.Struct(in)
}

type InvoiceFilter struct {
	StudentID     int64  `query:"student_id"`
	SessionID     int64  `query:"session_id"`
	InstallmentID int64  `query:"installment_id"`
	ClassID       int64  `query:"class_id"`
	Status        string `query:"status"`
}

// Receipt records cash received against an invoice.
type Receipt struct {
	ID         int64      `json:"id" db:"id"`
	Number     string     `json:"receipt_number" db:"receipt_number"`
	InvoiceID  int64      `json:"invoice_id" db:"invoice_id"`
	Amount     core.Money `json:"amount_paid" db:"amount_paid"`
	DatePaid   time.Time  `json:"date_paid" db:"date_paid"`
	Method     string     `json:"payment_method" db:"payment_method"`
	Reference  string     `json:"reference" db:"reference"`
	Comment    string     `json:"comment" db:"comment"`
	ReceivedBy null.Int64 `json:"received_by" db:"received_by"` // staff id
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

type ReceiptInput struct {
	InvoiceID  int64      `json:"invoice_id" validate:"required"`
	Amount     core.Money `json:"amount_paid" validate:"money_gt0,money_max"`
	DatePaid   time.Time  `json:"date_paid"`
	Method     string     `json:"payment_method" validate:"required,oneof=NMB CRDB MOBILE CASH"`
	Reference  string     `json:"reference" validate:"max=100"`
	Comment    string     `json:"comment" validate:"max=500"`
	ReceivedBy null.Int64 `json:"-"`
}

func (in *ReceiptInput) Validate(validate *validator.Validate) error {
	in.Reference = core.CleanString(in.Reference)
	in.Comment = core.CleanString(in.Comment)
	in.Method = core.CleanString(in.Method)
	in.Amount = in.Amount.R2()
	var err error
	if in.DatePaid, err = checkDatePaid(in.DatePaid); err != nil {
		return err
	}
	return validate.Struct(in)
}

type ReceiptUpdate struct {
	Amount    core.Money `json:"amount_paid" validate:"money_gt0,money_max"`
	DatePaid  time.Time  `json:"date_paid"`
	Method    string     `json:"payment_method" validate:"required,oneof=NMB CRDB MOBILE CASH"`
	Reference string     `json:"reference" validate:"max=100"`
	Comment   string     `json:"comment" validate:"max=500"`
}

func (in *ReceiptUpdate) Validate(validate *validator.Validate) error {
	in.Reference = core.CleanString(in.Reference)
	in.Comment = core.CleanString(in.Comment)
	in.Method = core.CleanString(in.Method)
	in.Amount = in.Amount.R2()
	var err error
	if in.DatePaid, err = checkDatePaid(in.DatePaid); err != nil {
		return err
	}
	return validate.Struct(in)
}

// checkDatePaid defaults the date to today and refuses future dates.
func checkDatePaid(d time.Time) (time.Time, error) {
	if d.IsZero() {
		return core.Today(), nil
	}
	d = core.Day(d)
	if d.After(core.Today()) {
		return d, core.NewFieldError("date_paid", "date paid cannot be in the future")
	}
	return d, nil
}

type ReceiptFilter struct {
	InvoiceID int64     `query:"invoice_id"`
	StudentID int64     `query:"student_id"`
	From      time.Time `query:"-"`
	To        time.Time `query:"-"`
}

// AllocationInput spreads one payment over a student's invoices, oldest first.
type AllocationInput struct {
	StudentID  int64      `json:"student_id" validate:"required"`
	Amount     core.Money `json:"amount" validate:"money_gt0,money_max"`
	DatePaid   time.Time  `json:"date_paid"`
	Method     string     `json:"payment_method" validate:"required,oneof=NMB CRDB MOBILE CASH"`
	Reference  string     `json:"reference" validate:"max=100"`
	Comment    string     `json:"comment" validate:"max=500"`
	ReceivedBy null.Int64 `json:"-"`
}

func (in *AllocationInput) Validate(validate *validator.Validate) error {
	in.Reference = core.CleanString(in.Reference)
	in.Comment = core.CleanString(in.Comment)
	in.Method = core.CleanString(in.Method)
	in.Amount = in.Amount.R2()
	var err error
	if in.DatePaid, err = checkDatePaid(in.DatePaid); err != nil {
		return err
	}
	return validate.Struct(in)
}

// Item is an informational breakdown line of an invoice.
type Item struct {
	ID          int64         `json:"id" db:"id"`
	InvoiceID   int64         `json:"invoice_id" db:"invoice_id"`
	Description string        `json:"description" db:"description"`
	Category    string        `json:"category" db:"category"`
	Quantity    core.Quantity `json:"quantity" db:"quantity"`
	UnitPrice   core.Money    `json:"unit_price" db:"unit_price"`
	Amount      core.Money    `json:"amount" db:"amount"`
}

type ItemInput struct {
	Description string        `json:"description" validate:"required,max=200"`
	Category    string        `json:"category" validate:"required,oneof=TUITION TRANSPORT UNIFORM OTHER"`
	Quantity    core.Quantity `json:"quantity" validate:"qty_gt0"`
	UnitPrice   core.Money    `json:"unit_price" validate:"money_gt0"`
}

func (in *ItemInput) Validate(validate *validator.Validate) error {
	in.Description = core.CleanString(in.Description)
	in.Category = core.CleanString(in.Category)
	if in.Category == "" {
		in.Category = ItemOther
	}
	return validate.Struct(in)
}

// StudentSummary aggregates a student's invoices.
type StudentSummary struct {
	StudentID         int64      `json:"student_id"`
	StudentName       string     `json:"student_name"`
	ClassID           null.Int64 `json:"class_id"`
	Invoices          int        `json:"invoices"`
	Expected          core.Money `json:"expected"`
	Paid              core.Money `json:"paid"`
	Balance           core.Money `json:"balance"`
	LatestInstallment int64      `json:"latest_installment_id"`
	LatestStatus      string     `json:"latest_status"`
}
