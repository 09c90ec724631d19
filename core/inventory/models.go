package inventory

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/kizito-simon15/montessori-sub000/core"
)

var (
	// errors
	ErrProductNotFound     = core.NewError(core.KindNotFound, "NotFound", "product not found")
	ErrProductExists       = core.NewError(core.KindConflict, "Conflict", "a product with this name already exists")
	ErrProductInUse        = core.NewError(core.KindInUse, "ProductInUse", "the product has purchases, batches or usage")
	ErrPurchaseNotFound    = core.NewError(core.KindNotFound, "NotFound", "purchase not found")
	ErrBatchNotFound       = core.NewError(core.KindNotFound, "NotFound", "processing batch not found")
	ErrUsageNotFound       = core.NewError(core.KindNotFound, "NotFound", "usage record not found")
	ErrUsageExists         = core.NewError(core.KindConflict, "Conflict", "usage for this product and date already exists")
	ErrInsufficientRaw     = core.NewError(core.KindInvariant, "InsufficientRaw", "not enough raw stock left on the purchase")
	ErrInsufficientStock   = core.NewError(core.KindInvariant, "InsufficientStock", "not enough stock on hand")
	ErrOutputExceedsInput  = core.NewError(core.KindInvariant, "OutputExceedsInput", "output quantity cannot exceed input quantity")
	ErrSourceMismatch      = core.NewError(core.KindValidation, "SourceMismatch", "the processed product is not made from the purchased product")
	ErrNotProcessable      = core.NewError(core.KindValidation, "NotProcessable", "the seasonal product is not processable")
	ErrInvalidAmount       = core.NewError(core.KindValidation, "InvalidAmount", "quantities and prices must be greater than 0")
	ErrInvalidKitchenUnit  = core.NewError(core.KindValidation, "InvalidUnit", "unit must be one of kg, g, l, pcs, bag")
	ErrConsumptionNotFound = core.NewError(core.KindNotFound, "NotFound", "consumption record not found")
)

// Purchase statuses
const (
	StatusUnprocessed   = "Unprocessed"
	StatusPartProcessed = "Part-processed"
	StatusProcessed     = "Processed"
)

// Seasonal product categories
const (
	CategoryProcessable = "Processable"
	CategoryRaw         = "Raw"
)

var KitchenUnits = []string{"kg", "g", "l", "pcs", "bag"}

func positive(q core.Quantity, what string) error {
	if !q.IsPositive() {
		return errors.Wrapf(ErrInvalidAmount, "%s must be greater than 0", what)
	}
	return nil
}

func positivePrice(m core.Money, what string) error {
	if !m.IsPositive() {
		return errors.Wrapf(ErrInvalidAmount, "%s must be greater than 0", what)
	}
	return nil
}

func dayOrToday(d time.Time) time.Time {
	if d.IsZero() {
		return core.Today()
	}
	return core.Day(d)
}

// Seasonal raw stock

// SeasonalProduct is a raw commodity bought in bags (maize, beans, rice...).
type SeasonalProduct struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Unit        string    `json:"unit" db:"unit"`
	Processable bool      `json:"processable" db:"processable"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

func (p SeasonalProduct) Category() string {
	if p.Processable {
		return CategoryProcessable
	}
	return CategoryRaw
}

type SeasonalProductInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Unit        string `json:"unit" validate:"max=20"`
	Processable bool   `json:"processable"`
	Description string `json:"description"`
}

func (in *SeasonalProductInput) Validate(validate *validator.Validate) error {
	in.Name = core.CleanString(in.Name)
	in.Unit = core.CleanString(in.Unit, true /* lower */)
	if in.Unit == "" {
		in.Unit = "kg"
	}
	in.Description = core.CleanString(in.Description)
	return validate.Struct(in)
}

// Purchase is a bag-based purchase of a seasonal product. Quantity and TotalCost are derived.
type Purchase struct {
	ID           int64          `json:"id" db:"id"`
	BudgetID     int64          `json:"budget_id" db:"budget_id"`
	ProductID    int64          `json:"product_id" db:"product_id"`
	BagsCount    int64          `json:"bags_count" db:"bags_count"`
	BagWeight    *core.Quantity `json:"bag_weight" db:"bag_weight"` // kg, optional
	Quantity     core.Quantity  `json:"quantity" db:"quantity"`
	PricePerUnit core.Money     `json:"price_per_unit" db:"price_per_unit"`
	TotalCost    core.Money     `json:"total_cost" db:"total_cost"`
	Date         time.Time      `json:"date" db:"date"`
	InvoiceFile  string         `json:"invoice_file" db:"invoice_file"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
}

type PurchaseInput struct {
	BudgetID     int64          `json:"budget_id" validate:"required"`
	ProductID    int64          `json:"product_id" validate:"required"`
	BagsCount    int64          `json:"bags_count"`
	BagWeight    *core.Quantity `json:"bag_weight"`
	PricePerUnit core.Money     `json:"price_per_unit"`
	Date         time.Time      `json:"date"`
	InvoiceFile  string         `json:"invoice_file"`
}

func (in *PurchaseInput) Validate(validate *validator.Validate) error {
	if in.BagsCount <= 0 {
		return errors.Wrap(ErrInvalidAmount, "bags count must be greater than 0")
	}
	if in.BagWeight != nil {
		if err := positive(*in.BagWeight, "bag weight"); err != nil {
			return err
		}
	}
	if err := positivePrice(in.PricePerUnit, "price per unit"); err != nil {
		return err
	}
	in.Date = dayOrToday(in.Date)
	return validate.Struct(in)
}

type PurchaseFilter struct {
	ProductID int64     `query:"product_id"`
	BudgetID  int64     `query:"budget_id"`
	From      time.Time `query:"-"`
	To        time.Time `query:"-"`
}

// PurchaseStatus is a purchase with its processing progress.
type PurchaseStatus struct {
	Purchase
	Processed    core.Quantity `json:"processed_quantity"`
	RawRemaining core.Quantity `json:"raw_remaining"`
	Status       string        `json:"status"`
}

// SeasonalStock is the raw position of a seasonal product.
type SeasonalStock struct {
	Product     SeasonalProduct `json:"product"`
	Category    string          `json:"category"`
	Purchased   core.Quantity   `json:"total_purchased"`
	Processed   core.Quantity   `json:"total_processed"`
	Raw         core.Quantity   `json:"stock_raw"`
	Value       core.Money      `json:"stock_value"`
	LatestPrice core.Money      `json:"latest_price"`
	AvgPrice    core.Money      `json:"avg_price"`
	MinPrice    core.Money      `json:"min_price"`
	MaxPrice    core.Money      `json:"max_price"`
}

// Processing

// ProcessedProduct is made from a seasonal product (flour from maize...).
type ProcessedProduct struct {
	ID              int64     `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	SourceProductID int64     `json:"source_product_id" db:"source_product_id"`
	Unit            string    `json:"unit" db:"unit"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

type ProcessedProductInput struct {
	Name            string `json:"name" validate:"required,max=100"`
	SourceProductID int64  `json:"source_product_id" validate:"required"`
	Unit            string `json:"unit" validate:"max=20"`
}

func (in *ProcessedProductInput) Validate(validate *validator.Validate) error {
	in.Name = core.CleanString(in.Name)
	in.Unit = core.CleanString(in.Unit, true /* lower */)
	if in.Unit == "" {
		in.Unit = "kg"
	}
	return validate.Struct(in)
}

// Batch converts raw stock from a purchase into a processed product.
type Batch struct {
	ID                 int64           `json:"id" db:"id"`
	PurchaseID         int64           `json:"source_purchase_id" db:"source_purchase_id"`
	ProcessedProductID int64           `json:"processed_product_id" db:"processed_product_id"`
	InputQuantity      core.Quantity   `json:"input_quantity" db:"input_quantity"`
	OutputQuantity     core.Quantity   `json:"output_quantity" db:"output_quantity"`
	ProcessingFee      core.Money      `json:"processing_fee" db:"processing_fee"`
	YieldPct           decimal.Decimal `json:"yield_pct" db:"yield_pct"`
	Date               time.Time       `json:"date" db:"date"`
	Remarks            string          `json:"remarks" db:"remarks"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
}

type BatchInput struct {
	PurchaseID         int64         `json:"source_purchase_id" validate:"required"`
	ProcessedProductID int64         `json:"processed_product_id" validate:"required"`
	InputQuantity      core.Quantity `json:"input_quantity"`
	OutputQuantity     core.Quantity `json:"output_quantity"`
	ProcessingFee      core.Money    `json:"processing_fee"`
	Date               time.Time     `json:"date"`
	Remarks            string        `json:"remarks"`
}

func (in *BatchInput) Validate(validate *validator.Validate) error {
	if err := positive(in.InputQuantity, "input quantity"); err != nil {
		return err
	}
	if err := positive(in.OutputQuantity, "output quantity"); err != nil {
		return err
	}
	if in.ProcessingFee.IsNegative() {
		return errors.Wrap(ErrInvalidAmount, "processing fee cannot be negative")
	}
	in.Remarks = core.CleanString(in.Remarks)
	in.Date = dayOrToday(in.Date)
	return validate.Struct(in)
}

type BatchFilter struct {
	PurchaseID         int64     `query:"source_purchase_id"`
	ProcessedProductID int64     `query:"processed_product_id"`
	From               time.Time `query:"-"`
	To                 time.Time `query:"-"`
}

// Consumption is the daily use of a processed product; one per product per date.
type Consumption struct {
	ID                 int64         `json:"id" db:"id"`
	ProcessedProductID int64         `json:"processed_product_id" db:"processed_product_id"`
	Quantity           core.Quantity `json:"quantity_used" db:"quantity_used"`
	Date               time.Time     `json:"date" db:"date"`
	RecordedBy         null.Int64    `json:"recorded_by" db:"recorded_by"`
	Remarks            string        `json:"remarks" db:"remarks"`
}

// ProcessedStock is the position of a processed product.
type ProcessedStock struct {
	Product            ProcessedProduct `json:"product"`
	Produced           core.Quantity    `json:"produced"`
	Consumed           core.Quantity    `json:"consumed"`
	OnHand             core.Quantity    `json:"stock_on_hand"`
	SourceRawRemaining core.Quantity    `json:"source_raw_remaining"`
}

// Kitchen

type KitchenProduct struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Unit      string    `json:"unit" db:"unit"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type KitchenProductInput struct {
	Name string `json:"name" validate:"required,max=100"`
	Unit string `json:"unit"`
}

func (in *KitchenProductInput) Validate(validate *validator.Validate) error {
	in.Name = core.CleanString(in.Name)
	in.Unit = core.CleanString(in.Unit, true /* lower */)
	valid := false
	for _, u := range KitchenUnits {
		if in.Unit == u {
			valid = true
			break
		}
	}
	if !valid {
		return ErrInvalidKitchenUnit
	}
	return validate.Struct(in)
}

type KitchenPurchase struct {
	ID           int64         `json:"id" db:"id"`
	BudgetID     int64         `json:"budget_id" db:"budget_id"`
	ProductID    int64         `json:"product_id" db:"product_id"`
	Quantity     core.Quantity `json:"quantity" db:"quantity"`
	PricePerUnit core.Money    `json:"price_per_unit" db:"price_per_unit"`
	TotalCost    core.Money    `json:"total_cost" db:"total_cost"`
	Date         time.Time     `json:"date" db:"date"`
	InvoiceFile  string        `json:"invoice_file" db:"invoice_file"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
}

type KitchenPurchaseInput struct {
	BudgetID     int64         `json:"budget_id" validate:"required"`
	ProductID    int64         `json:"product_id" validate:"required"`
	Quantity     core.Quantity `json:"quantity"`
	PricePerUnit core.Money    `json:"price_per_unit"`
	Date         time.Time     `json:"date"`
	InvoiceFile  string        `json:"invoice_file"`
}

func (in *KitchenPurchaseInput) Validate(validate *validator.Validate) error {
	if err := positive(in.Quantity, "quantity"); err != nil {
		return err
	}
	if err := positivePrice(in.PricePerUnit, "price per unit"); err != nil {
		return err
	}
	in.Date = dayOrToday(in.Date)
	return validate.Struct(in)
}

// Usage is the daily use of a kitchen product; one per product per date.
type Usage struct {
	ID         int64         `json:"id" db:"id"`
	ProductID  int64         `json:"product_id" db:"product_id"`
	Quantity   core.Quantity `json:"quantity_used" db:"quantity_used"`
	Date       time.Time     `json:"date" db:"date"`
	RecordedBy null.Int64    `json:"recorded_by" db:"recorded_by"`
	Remarks    string        `json:"remarks" db:"remarks"`
}

// UsageInput records the use of a kitchen or processed product.
type UsageInput struct {
	ProductID  int64         `json:"product_id" validate:"required"`
	Quantity   core.Quantity `json:"quantity_used"`
	Date       time.Time     `json:"date"`
	Remarks    string        `json:"remarks"`
	RecordedBy null.Int64    `json:"-"`
}

func (in *UsageInput) Validate(validate *validator.Validate) error {
	if err := positive(in.Quantity, "quantity used"); err != nil {
		return err
	}
	in.Remarks = core.CleanString(in.Remarks)
	in.Date = dayOrToday(in.Date)
	return validate.Struct(in)
}

type UsageFilter struct {
	ProductID int64     `query:"product_id"`
	From      time.Time `query:"-"`
	To        time.Time `query:"-"`
}

type KitchenStock struct {
	Product   KitchenProduct `json:"product"`
	Purchased core.Quantity  `json:"purchased"`
	Used      core.Quantity  `json:"used"`
	OnHand    core.Quantity  `json:"stock_on_hand"`
}
