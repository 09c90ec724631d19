package report_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/core/budget"
	"github.com/kizito-simon15/montessori-sub000/core/inventory"
	"github.com/kizito-simon15/montessori-sub000/core/ledger"
	"github.com/kizito-simon15/montessori-sub000/core/payroll"
	"github.com/kizito-simon15/montessori-sub000/core/report"
	"github.com/kizito-simon15/montessori-sub000/core/school"
	testutil "github.com/kizito-simon15/montessori-sub000/tests"
)

func TestYearLedger(t *testing.T) {
	env := testutil.NewEnv(t)
	testutil.Freeze(t, time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC))
	ctx := env.Ctx

	session := env.Current(t, school.KindSession, "2025")
	inst := env.Period(t, school.KindInstallment, "1st")
	tier := env.Tier(t, session.ID, school.CategoryBoarding, 900_000)
	std := env.Student(t, "S0000001/2025/0001", "Amani", "Mushi", 0)
	inv := env.Invoice(t, std.ID, session.ID, inst.ID, tier.ID, 0)
	env.Receipt(t, inv.ID, core.M(300_000))
	_, err := env.Ledger.PostReceipt(ctx, ledger.ReceiptInput{
		InvoiceID: inv.ID, Amount: core.M(1_000), Method: ledger.MethodMobile, DatePaid: testutil.Date(2024, time.December, 30),
	})
	require.NoError(t, err)

	b := env.AllocateBudget(t, session.ID, "Operations", 5_000_000)
	stf := env.Staff(t, "Rehema", "Nyerere", 500_000)
	_, err = env.Payroll.SaveSlip(ctx, 0, payroll.SlipInput{BudgetID: b.ID, StaffID: stf.ID, Month: testutil.Date(2025, time.February, 1)})
	require.NoError(t, err)
	_, err = env.Budget.RecordExpenditure(ctx, budget.ExpenditureInput{
		BudgetID: b.ID, ItemName: "Generator service", PricePerUnit: core.M(100_000), Date: testutil.Date(2025, time.April, 5),
	})
	require.NoError(t, err)
	sugar, err := env.Inventory.CreateKitchenProduct(ctx, inventory.KitchenProductInput{Name: "Sugar", Unit: "kg"})
	require.NoError(t, err)
	_, err = env.Inventory.RecordKitchenPurchase(ctx, inventory.KitchenPurchaseInput{
		BudgetID: b.ID, ProductID: sugar.ID, Quantity: core.Q(10), PricePerUnit: core.M(3000), Date: testutil.Date(2025, time.April, 20),
	})
	require.NoError(t, err)
	maize := env.SeasonalProduct(t, "Maize", true)
	purchase := env.Purchase(t, b.ID, maize.ID, 20, 50, 800, testutil.Date(2025, time.May, 2))
	flour, err := env.Inventory.CreateProcessedProduct(ctx, inventory.ProcessedProductInput{Name: "Maize flour", SourceProductID: maize.ID})
	require.NoError(t, err)
	_, err = env.Inventory.RecordBatch(ctx, inventory.BatchInput{
		PurchaseID: purchase.ID, ProcessedProductID: flour.ID, InputQuantity: core.Q(600), OutputQuantity: core.Q(480),
		ProcessingFee: core.M(20_000), Date: testutil.Date(2025, time.June, 1),
	})
	require.NoError(t, err)

	l, err := env.Report.YearLedger(ctx, 2025)
	require.NoError(t, err)
	require.Len(t, l.Months, 12)

	type row struct {
		income, salaries, expenses, allocations, profit int64
		output, raw                                     int64
	}
	want := map[time.Month]row{
		time.February: {salaries: 450_000, profit: -450_000},
		time.March:    {income: 300_000, allocations: 5_000_000, profit: 300_000},
		time.April:    {expenses: 130_000, profit: -130_000},
		time.May:      {expenses: 800_000, raw: 400, profit: -800_000},
		time.June:     {expenses: 20_000, output: 480, profit: -20_000},
	}
	for i, m := range l.Months {
		assert.Equal(t, time.Month(i+1), m.Month)
		w := want[m.Month]
		assert.True(t, core.M(w.income).Equal(m.Income), "%s income = %s", m.Month, m.Income)
		assert.True(t, core.M(w.salaries).Equal(m.Salaries), "%s salaries = %s", m.Month, m.Salaries)
		assert.True(t, core.M(w.expenses).Equal(m.Expenses), "%s expenses = %s", m.Month, m.Expenses)
		assert.True(t, core.M(w.allocations).Equal(m.Allocations), "%s allocations = %s", m.Month, m.Allocations)
		assert.True(t, core.M(w.profit).Equal(m.Profit), "%s profit = %s", m.Month, m.Profit)
		assert.True(t, core.Q(w.output).Equal(m.ProcessedOutput), "%s output = %s", m.Month, m.ProcessedOutput)
		assert.True(t, core.Q(w.raw).Equal(m.RemainingRaw), "%s raw = %s", m.Month, m.RemainingRaw)
	}
	assert.True(t, core.M(300_000).Equal(l.Totals.Income))
	assert.True(t, core.M(950_000).Equal(l.Totals.Expenses))
	assert.True(t, core.M(-1_100_000).Equal(l.Totals.Profit), "profit = %s", l.Totals.Profit)

	previous, err := env.Report.YearLedger(ctx, 2024)
	require.NoError(t, err)
	assert.True(t, core.M(1_000).Equal(previous.Months[11].Income))
	assert.True(t, core.M(1_000).Equal(previous.Totals.Profit))
}

func TestYearLedger_invalidYear(t *testing.T) {
	env := testutil.NewEnv(t)

	tests := []struct {
		year    int
		wantErr bool
	}{
		{1999, true},
		{2000, false},
		{2100, false},
		{2101, true},
	}
	for _, tt := range tests {
		_, err := env.Report.YearLedger(env.Ctx, tt.year)
		if (err != nil) != tt.wantErr {
			t.Errorf("YearLedger(%d) error = %v, wantErr %v", tt.year, err, tt.wantErr)
		}
		if tt.wantErr {
			assert.Equal(t, report.ErrInvalidYear, err)
			assert.Equal(t, core.KindValidation, core.KindOf(err))
		}
	}
}
