package budget

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/kizito-simon15/montessori-sub000/core"
)

var (
	// errors
	ErrNotFound            = core.NewError(core.KindNotFound, "NotFound", "budget not found")
	ErrOverrun             = core.NewError(core.KindInvariant, "BudgetOverrun", "the budget does not have enough remaining funds")
	ErrBelowUsed           = core.NewError(core.KindInvariant, "BudgetOverrun", "the allocated amount cannot be lower than what is already used")
	ErrInUse               = core.NewError(core.KindInUse, "BudgetInUse", "the budget is referenced by salaries, purchases or expenditures")
	ErrLineNotFound        = core.NewError(core.KindNotFound, "NotFound", "budget line not found")
	ErrLineExists          = core.NewError(core.KindConflict, "Conflict", "a budget line with this name already exists")
	ErrLineInUse           = core.NewError(core.KindInUse, "BudgetLineInUse", "the budget line is referenced by expenditures")
	ErrExpenditureNotFound = core.NewError(core.KindNotFound, "NotFound", "expenditure not found")
)

// Budget categories. They describe the envelope and never change how it is drawn.
const (
	CategoryAnnual   = "ANNUAL"
	CategoryMonthly  = "MONTHLY"
	CategoryTerm     = "TERM"
	CategorySeasonal = "SEASONAL"
)

// Budget is an allocation pool drawn down by salaries, expenditures, purchases and processing fees.
type Budget struct {
	ID          int64      `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Category    string     `json:"category" db:"category"`
	SessionID   int64      `json:"session_id" db:"session_id"`
	Allocated   core.Money `json:"allocated_amount" db:"allocated_amount"`
	Description string     `json:"description" db:"description"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

type Input struct {
	Name        string     `json:"name" validate:"required,max=100"`
	Category    string     `json:"category" validate:"required,oneof=ANNUAL MONTHLY TERM SEASONAL"`
	SessionID   int64      `json:"session_id" validate:"required"`
	Allocated   core.Money `json:"allocated_amount" validate:"money_gt0"`
	Description string     `json:"description"`
}

func (in *Input) Validate(validate *validator.Validate) error {
	in.Name = core.CleanString(in.Name)
	in.Category = strings.ToUpper(core.CleanString(in.Category))
	in.Description = core.CleanString(in.Description)
	return validate.Struct(in)
}

// Usage breaks down what was drawn from a budget. Rows counts the referencing records.
type Usage struct {
	Salaries       core.Money `json:"salaries" boil:"salaries"`
	Expenditures   core.Money `json:"expenditures" boil:"expenditures"`
	Seasonal       core.Money `json:"seasonal_purchases" boil:"seasonal"`
	Kitchen        core.Money `json:"kitchen_purchases" boil:"kitchen"`
	ProcessingFees core.Money `json:"processing_fees" boil:"processing_fees"`
	Rows           int        `json:"rows" boil:"rows"`
}

// Used is the sum of every stream.
func (u Usage) Used() core.Money {
	return core.SumMoney(u.Salaries, u.Expenditures, u.Seasonal, u.Kitchen, u.ProcessingFees)
}

type Summary struct {
	Budget
	Usage        Usage      `json:"usage"`
	Used         core.Money `json:"used"`
	Remaining    core.Money `json:"remaining"`
	CashReceived core.Money `json:"cash_received"`
}

// Line is a named expense heading (stationery, transport, repairs...).
type Line struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
}

// Expenditure is an operating expense paid from a budget.
type Expenditure struct {
	ID           int64         `json:"id" db:"id"`
	BudgetID     int64         `json:"budget_id" db:"budget_id"`
	LineID       null.Int64    `json:"budget_line_id" db:"budget_line_id"`
	ItemName     string        `json:"item_name" db:"item_name"`
	Unit         string        `json:"unit" db:"unit"`
	Quantity     core.Quantity `json:"quantity" db:"quantity"`
	PricePerUnit core.Money    `json:"price_per_unit" db:"price_per_unit"`
	TotalCost    core.Money    `json:"total_cost" db:"total_cost"`
	Date         time.Time     `json:"date" db:"date"`
	Description  string        `json:"description" db:"description"`
	Attachment   string        `json:"attachment" db:"attachment"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
}

type ExpenditureInput struct {
	BudgetID     int64         `json:"budget_id" validate:"required"`
	LineID       null.Int64    `json:"budget_line_id"`
	ItemName     string        `json:"item_name" validate:"required,max=200"`
	Unit         string        `json:"unit" validate:"max=20"`
	Quantity     core.Quantity `json:"quantity" validate:"qty_gte0"`
	PricePerUnit core.Money    `json:"price_per_unit" validate:"money_gt0"`
	Date         time.Time     `json:"date"`
	Description  string        `json:"description"`
	Attachment   string        `json:"attachment"`
}

// Validate cleans the input; a zero quantity stands for a single unit.
func (in *ExpenditureInput) Validate(validate *validator.Validate) error {
	in.ItemName = core.CleanString(in.ItemName)
	in.Unit = core.CleanString(in.Unit)
	in.Description = core.CleanString(in.Description)
	if in.Quantity.IsZero() {
		in.Quantity = core.Q(1)
	}
	if in.Date.IsZero() {
		in.Date = core.Today()
	}
	in.Date = core.Day(in.Date)
	return validate.Struct(in)
}

type ExpenditureFilter struct {
	BudgetID int64     `query:"budget_id"`
	LineID   int64     `query:"budget_line_id"`
	From     time.Time `query:"-"`
	To       time.Time `query:"-"`
}
