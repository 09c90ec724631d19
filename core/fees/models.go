package fees

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kizito-simon15/montessori-sub000/core"
)

var (
	// errors
	ErrTierNotFound        = core.NewError(core.KindNotFound, "NotFound", "fee tier not found")
	ErrTierExists          = core.NewError(core.KindConflict, "Conflict", "fees for this session and category already exist")
	ErrTierInUse           = core.NewError(core.KindInUse, "FeeTierInUse", "fee tier is referenced by invoices")
	ErrUniformTypeNotFound = core.NewError(core.KindNotFound, "NotFound", "uniform type not found")
	ErrUniformTypeExists   = core.NewError(core.KindConflict, "Conflict", "a uniform type with this name already exists")
	ErrUniformTypeInUse    = core.NewError(core.KindInUse, "UniformTypeInUse", "uniform type has been issued")
	ErrUniformNotFound     = core.NewError(core.KindNotFound, "NotFound", "uniform not found")
)

// Tier is the annual fee charged for a student category during a session.
type Tier struct {
	ID           int64     `json:"id" db:"id"`
	SessionID    int64     `json:"session_id" db:"session_id"`
	Category     string    `json:"category" db:"category"`
	AnnualAmount int64     `json:"annual_amount" db:"annual_amount"` // whole TZS
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// InstallmentAmount splits the annual amount evenly between the installments (integer division).
func (t Tier) InstallmentAmount(installments int) int64 {
	if installments < 1 {
		installments = 1
	}
	return t.AnnualAmount / int64(installments)
}

type TierInput struct {
	SessionID    int64  `json:"session_id" validate:"required"`
	Category     string `json:"category" validate:"required,oneof=boarding day_walker day_bus"`
	AnnualAmount int64  `json:"annual_amount" validate:"gt=0"`
}

func (in *TierInput) Validate(validate *validator.Validate) error {
	in.Category = core.CleanString(in.Category, true /* lower */)
	return validate.Struct(in)
}

type UniformType struct {
	ID    int64      `json:"id" db:"id"`
	Name  string     `json:"name" db:"name"`
	Price core.Money `json:"price" db:"price"`
}

type UniformTypeInput struct {
	Name  string     `json:"name" validate:"required,max=100"`
	Price core.Money `json:"price" validate:"money_gte0"`
}

func (in *UniformTypeInput) Validate(validate *validator.Validate) error {
	in.Name = core.CleanString(in.Name)
	return validate.Struct(in)
}

// Uniform is an item issued to a student. Price is a snapshot of type price × quantity.
type Uniform struct {
	ID        int64      `json:"id" db:"id"`
	StudentID int64      `json:"student_id" db:"student_id"`
	SessionID int64      `json:"session_id" db:"session_id"`
	TermID    int64      `json:"term_id" db:"term_id"`
	ClassID   int64      `json:"class_id" db:"class_id"`
	TypeID    int64      `json:"uniform_type_id" db:"uniform_type_id"`
	Quantity  int        `json:"quantity" db:"quantity"`
	Price     core.Money `json:"price" db:"price"`
	IssuedAt  time.Time  `json:"issued_at" db:"issued_at"`
}

type IssueInput struct {
	StudentID int64 `json:"student_id" validate:"required"`
	SessionID int64 `json:"session_id" validate:"required"`
	TermID    int64 `json:"term_id" validate:"required"`
	ClassID   int64 `json:"class_id" validate:"required"`
	TypeID    int64 `json:"uniform_type_id" validate:"required"`
	Quantity  int   `json:"quantity" validate:"gt=0"`
}

// StudentUniform records what a student has paid for uniforms in a (session, term, class).
type StudentUniform struct {
	ID        int64      `json:"id" db:"id"`
	StudentID int64      `json:"student_id" db:"student_id"`
	SessionID int64      `json:"session_id" db:"session_id"`
	TermID    int64      `json:"term_id" db:"term_id"`
	ClassID   int64      `json:"class_id" db:"class_id"`
	Amount    core.Money `json:"amount" db:"amount"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

type PaymentInput struct {
	StudentID int64      `json:"student_id" validate:"required"`
	SessionID int64      `json:"session_id" validate:"required"`
	TermID    int64      `json:"term_id" validate:"required"`
	ClassID   int64      `json:"class_id" validate:"required"`
	Amount    core.Money `json:"amount" validate:"money_gte0,money_max"`
}

type UniformFilter struct {
	StudentID int64 `query:"student_id"`
	SessionID int64 `query:"session_id"`
	TermID    int64 `query:"term_id"`
}

// UniformBalance sums what was issued and paid for a student's uniforms.
type UniformBalance struct {
	StudentID int64      `json:"student_id"`
	Issued    core.Money `json:"issued"`
	Paid      core.Money `json:"paid"`
	Balance   core.Money `json:"balance"`
}
