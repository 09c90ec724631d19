package tests

import (
	"context"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/core/budget"
	"github.com/kizito-simon15/montessori-sub000/core/fees"
	"github.com/kizito-simon15/montessori-sub000/core/inventory"
	"github.com/kizito-simon15/montessori-sub000/core/ledger"
	"github.com/kizito-simon15/montessori-sub000/core/payroll"
	"github.com/kizito-simon15/montessori-sub000/core/report"
	"github.com/kizito-simon15/montessori-sub000/core/results"
	"github.com/kizito-simon15/montessori-sub000/core/school"
	"github.com/kizito-simon15/montessori-sub000/storage/database/inmem"
)

// Env wires every service over one in-memory database.
type Env struct {
	Ctx        context.Context
	Conf       *core.Config
	Validate   *validator.Validate
	Translator ut.Translator
	DB         *inmemdb.DB

	School    *school.Service
	Fees      *fees.Service
	Ledger    *ledger.Service
	Budget    *budget.Service
	Payroll   *payroll.Service
	Results   *results.Service
	Inventory *inventory.Service
	Report    *report.Service
}

// Config returns the default configuration with test mode on.
func Config() *core.Config {
	return &core.Config{
		AppName:   "Montessori",
		Env:       "TEST",
		TestMode:  true,
		SecretKey: "test-secret",
		Server:    core.ServerConfig{Host: ":0", JWTExpirationDelta: time.Hour},
		Payroll: core.PayrollConfig{
			NSSFRate: decimal.RequireFromString("0.10"),
			WCFRate:  decimal.Zero,
		},
		School: core.SchoolConfig{GraduationClass: "Standard 7", Currency: "TZS"},
		Inventory: core.InventoryConfig{
			RawLowFloor:     decimal.NewFromInt(50),
			RawLowRatio:     decimal.RequireFromString("0.10"),
			KitchenLowFloor: decimal.NewFromInt(10),
		},
		Storage: core.StorageConfig{UploadDir: "uploads"},
	}
}

func NewEnv(t *testing.T, conf ...*core.Config) *Env {
	t.Helper()
	cfg := Config()
	if len(conf) > 0 {
		cfg = conf[0]
	}

	db := inmemdb.Open()
	validate, translator := core.NewValidator()
	logger := &core.NopLogger{}

	env := &Env{Ctx: context.Background(), Conf: cfg, Validate: validate, Translator: translator, DB: db}
	env.School = school.NewService(inmemdb.NewSchoolRepository(db), db, validate, cfg, logger)
	env.Fees = fees.NewService(inmemdb.NewFeesRepository(db), db, env.School, validate, logger)
	env.Ledger = ledger.NewService(inmemdb.NewLedgerRepository(db), db, env.School, env.Fees, validate, logger)
	env.Budget = budget.NewService(inmemdb.NewBudgetRepository(db), db, env.School, validate, logger)
	env.Payroll = payroll.NewService(inmemdb.NewPayrollRepository(db), db, env.School, env.Budget, validate, cfg, logger)
	env.Results = results.NewService(inmemdb.NewResultsRepository(db), db, env.School, validate, logger)
	env.Inventory = inventory.NewService(inmemdb.NewInventoryRepository(db), db, env.Budget, validate, cfg, logger)
	env.Report = report.NewService(inmemdb.NewReportRepository(db), logger)
	return env
}

// Freeze pins core.NowFunc to now until the test ends.
func Freeze(t *testing.T, now time.Time) {
	t.Helper()
	core.NowFunc = func() time.Time { return now }
	t.Cleanup(func() { core.NowFunc = time.Now })
}

func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (env *Env) Period(t *testing.T, kind school.PeriodKind, name string) school.Period {
	t.Helper()
	p, err := env.School.CreatePeriod(env.Ctx, school.PeriodInput{Kind: kind, Name: name})
	if err != nil {
		t.Fatalf("Period(%s, %s) failed: %v", kind, name, err)
	}
	return p
}

// Current creates the period and makes it the current one of its kind.
func (env *Env) Current(t *testing.T, kind school.PeriodKind, name string) school.Period {
	t.Helper()
	p := env.Period(t, kind, name)
	if _, err := env.School.SetCurrent(env.Ctx, kind, p.ID); err != nil {
		t.Fatalf("SetCurrent(%s, %d) failed: %v", kind, p.ID, err)
	}
	return p
}

func (env *Env) Class(t *testing.T, name string) school.Class {
	t.Helper()
	c, err := env.School.CreateClass(env.Ctx, name)
	if err != nil {
		t.Fatalf("Class(%s) failed: %v", name, err)
	}
	return c
}

func (env *Env) Subject(t *testing.T, name string) school.Subject {
	t.Helper()
	s, err := env.School.CreateSubject(env.Ctx, name)
	if err != nil {
		t.Fatalf("Subject(%s) failed: %v", name, err)
	}
	return s
}

// Student creates a boarding student; classID 0 leaves the class unset.
func (env *Env) Student(t *testing.T, regNo, firstname, surname string, classID int64) school.Student {
	t.Helper()
	in := school.StudentInput{
		RegistrationNumber: regNo,
		Firstname:          firstname,
		Surname:            surname,
		Gender:             "M",
		Category:           school.CategoryBoarding,
	}
	if classID > 0 {
		in.ClassID = null.Int64From(classID)
	}
	s, err := env.School.CreateStudent(env.Ctx, in)
	if err != nil {
		t.Fatalf("Student(%s) failed: %v", regNo, err)
	}
	return s
}

func (env *Env) Staff(t *testing.T, firstname, surname string, salary int64) school.Staff {
	t.Helper()
	s, err := env.School.CreateStaff(env.Ctx, school.StaffInput{
		Firstname: firstname,
		Surname:   surname,
		Gender:    "female",
		Salary:    core.M(salary),
	})
	if err != nil {
		t.Fatalf("Staff(%s) failed: %v", firstname, err)
	}
	return s
}

func (env *Env) AllocateBudget(t *testing.T, sessionID int64, name string, allocated int64) budget.Budget {
	t.Helper()
	b, err := env.Budget.Allocate(env.Ctx, budget.Input{
		Name:      name,
		Category:  budget.CategoryAnnual,
		SessionID: sessionID,
		Allocated: core.M(allocated),
	})
	if err != nil {
		t.Fatalf("Budget(%s) failed: %v", name, err)
	}
	return b
}

func (env *Env) Tier(t *testing.T, sessionID int64, category string, annual int64) fees.Tier {
	t.Helper()
	tier, err := env.Fees.CreateTier(env.Ctx, fees.TierInput{SessionID: sessionID, Category: category, AnnualAmount: annual})
	if err != nil {
		t.Fatalf("Tier(%s) failed: %v", category, err)
	}
	return tier
}

func (env *Env) Invoice(t *testing.T, studentID, sessionID, installmentID, tierID, amount int64) ledger.Invoice {
	t.Helper()
	inv, err := env.Ledger.CreateInvoice(env.Ctx, ledger.NewInvoice{
		StudentID:     studentID,
		SessionID:     sessionID,
		InstallmentID: installmentID,
		TierID:        tierID,
		Amount:        amount,
		DueDate:       core.Today().AddDate(0, 1, 0),
	})
	if err != nil {
		t.Fatalf("Invoice(student %d, installment %d) failed: %v", studentID, installmentID, err)
	}
	return inv
}

func (env *Env) Receipt(t *testing.T, invoiceID int64, amount core.Money) ledger.Receipt {
	t.Helper()
	rec, err := env.Ledger.PostReceipt(env.Ctx, ledger.ReceiptInput{
		InvoiceID: invoiceID,
		Amount:    amount,
		Method:    ledger.MethodCash,
	})
	if err != nil {
		t.Fatalf("Receipt(invoice %d, %s) failed: %v", invoiceID, amount, err)
	}
	return rec
}

func (env *Env) SeasonalProduct(t *testing.T, name string, processable bool) inventory.SeasonalProduct {
	t.Helper()
	p, err := env.Inventory.CreateSeasonalProduct(env.Ctx, inventory.SeasonalProductInput{Name: name, Processable: processable})
	if err != nil {
		t.Fatalf("SeasonalProduct(%s) failed: %v", name, err)
	}
	return p
}

func (env *Env) Purchase(t *testing.T, budgetID, productID, bags int64, bagWeight int64, price int64, date time.Time) inventory.Purchase {
	t.Helper()
	in := inventory.PurchaseInput{
		BudgetID:     budgetID,
		ProductID:    productID,
		BagsCount:    bags,
		PricePerUnit: core.M(price),
		Date:         date,
	}
	if bagWeight > 0 {
		w := core.Q(bagWeight)
		in.BagWeight = &w
	}
	p, err := env.Inventory.RecordPurchase(env.Ctx, in)
	if err != nil {
		t.Fatalf("Purchase(product %d) failed: %v", productID, err)
	}
	return p
}

// CheckErr fails the test when err does not match want, compared by cause.
func CheckErr(t *testing.T, name string, err error, want error) {
	t.Helper()
	if want == nil {
		if err != nil {
			t.Fatalf("%s() error = %v, wantErr %v", name, err, want)
		}
		return
	}
	if errors.Cause(err) != want {
		t.Fatalf("%s() error = %v, wantErr %v", name, err, want)
	}
}
