package budget_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/core/budget"
	"github.com/kizito-simon15/montessori-sub000/core/inventory"
	"github.com/kizito-simon15/montessori-sub000/core/payroll"
	"github.com/kizito-simon15/montessori-sub000/core/school"
	testutil "github.com/kizito-simon15/montessori-sub000/tests"
)

func used(t *testing.T, env *testutil.Env, id int64) core.Money {
	t.Helper()
	sum, err := env.Budget.Summary(env.Ctx, id)
	require.NoError(t, err)
	return sum.Used
}

func TestDraw_overrunRefused(t *testing.T) {
	env := testutil.NewEnv(t)
	session := env.Current(t, school.KindSession, "2025")
	b := env.AllocateBudget(t, session.ID, "Operations", 1_000_000)

	// 450 000 of salary (500 000 less 10% NSSF)
	stf := env.Staff(t, "Rehema", "Nyerere", 500_000)
	_, err := env.Payroll.SaveSlip(env.Ctx, 0, payroll.SlipInput{BudgetID: b.ID, StaffID: stf.ID, Month: testutil.Date(2025, time.January, 15)})
	require.NoError(t, err)
	// 250 000 of stationery
	_, err = env.Budget.RecordExpenditure(env.Ctx, budget.ExpenditureInput{
		BudgetID: b.ID, ItemName: "Exercise books", Quantity: core.Q(500), PricePerUnit: core.M(500),
	})
	require.NoError(t, err)
	// 200 000 of maize
	maize := env.SeasonalProduct(t, "Maize", true)
	env.Purchase(t, b.ID, maize.ID, 20, 0, 10_000, testutil.Date(2025, time.February, 1))
	require.True(t, core.M(900_000).Equal(used(t, env, b.ID)), "used = %s", used(t, env, b.ID))

	_, err = env.Inventory.RecordPurchase(env.Ctx, inventory.PurchaseInput{
		BudgetID: b.ID, ProductID: maize.ID, BagsCount: 10, BagWeight: qty(50), PricePerUnit: core.M(250),
		Date: testutil.Date(2025, time.February, 2),
	})
	testutil.CheckErr(t, "RecordPurchase", err, budget.ErrOverrun)
	assert.Equal(t, core.KindInvariant, core.KindOf(err))
	assert.True(t, core.M(900_000).Equal(used(t, env, b.ID)), "used = %s", used(t, env, b.ID))

	purchases, err := env.Inventory.ListPurchases(env.Ctx, inventory.PurchaseFilter{ProductID: maize.ID})
	require.NoError(t, err)
	assert.Len(t, purchases, 1)

	// exactly the remaining amount is accepted
	_, err = env.Budget.RecordExpenditure(env.Ctx, budget.ExpenditureInput{
		BudgetID: b.ID, ItemName: "Chalk", PricePerUnit: core.M(100_000),
	})
	require.NoError(t, err)
	sum, err := env.Budget.Summary(env.Ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, sum.Remaining.IsZero(), "remaining = %s", sum.Remaining)
	assert.True(t, core.M(450_000).Equal(sum.Usage.Salaries))
	assert.True(t, core.M(350_000).Equal(sum.Usage.Expenditures))
	assert.True(t, core.M(200_000).Equal(sum.Usage.Seasonal))
}

func qty(v int64) *core.Quantity {
	q := core.Q(v)
	return &q
}

func TestDraw_nonPositiveDelta(t *testing.T) {
	env := testutil.NewEnv(t)
	session := env.Current(t, school.KindSession, "2025")
	b := env.AllocateBudget(t, session.ID, "Kitchen", 100)

	tests := []struct {
		name    string
		budget  int64
		delta   core.Money
		wantErr error
	}{
		{"zero", b.ID, core.M(0), nil},
		{"release", b.ID, core.M(-50), nil},
		{"exact", b.ID, core.M(100), nil},
		{"over", b.ID, core.M("100.01"), budget.ErrOverrun},
		{"unknown budget", b.ID + 100, core.M(1), budget.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.Budget.Draw(env.Ctx, tt.budget, tt.delta)
			testutil.CheckErr(t, "Draw", err, tt.wantErr)
		})
	}
}

func TestUpdateExpenditure(t *testing.T) {
	env := testutil.NewEnv(t)
	session := env.Current(t, school.KindSession, "2025")
	a := env.AllocateBudget(t, session.ID, "A", 1000)
	b := env.AllocateBudget(t, session.ID, "B", 600)
	line, err := env.Budget.CreateLine(env.Ctx, "Repairs", "")
	require.NoError(t, err)

	exp, err := env.Budget.RecordExpenditure(env.Ctx, budget.ExpenditureInput{
		BudgetID: a.ID, LineID: null.Int64From(line.ID), ItemName: "Paint", Quantity: core.Q(2), PricePerUnit: core.M(400),
	})
	require.NoError(t, err)
	assert.True(t, core.M(800).Equal(exp.TotalCost))

	// growing within the same budget only draws the difference
	in := budget.ExpenditureInput{BudgetID: a.ID, ItemName: "Paint", Quantity: core.Q(2), PricePerUnit: core.M(500)}
	exp, err = env.Budget.UpdateExpenditure(env.Ctx, exp.ID, in)
	require.NoError(t, err)
	assert.True(t, core.M(1000).Equal(used(t, env, a.ID)))

	in.BudgetID = b.ID
	_, err = env.Budget.UpdateExpenditure(env.Ctx, exp.ID, in)
	testutil.CheckErr(t, "UpdateExpenditure", err, budget.ErrOverrun)

	in.PricePerUnit = core.M(300)
	_, err = env.Budget.UpdateExpenditure(env.Ctx, exp.ID, in)
	require.NoError(t, err)
	assert.True(t, used(t, env, a.ID).IsZero())
	assert.True(t, core.M(600).Equal(used(t, env, b.ID)))

	err = env.Budget.DeleteLine(env.Ctx, line.ID)
	assert.NoError(t, err, "the line is no longer referenced")
}

func TestUpdateAndDeleteBudget(t *testing.T) {
	env := testutil.NewEnv(t)
	session := env.Current(t, school.KindSession, "2025")
	b := env.AllocateBudget(t, session.ID, "Operations", 1000)
	empty := env.AllocateBudget(t, session.ID, "Spare", 1000)

	_, err := env.Budget.RecordExpenditure(env.Ctx, budget.ExpenditureInput{BudgetID: b.ID, ItemName: "Fuel", PricePerUnit: core.M(700)})
	require.NoError(t, err)

	in := budget.Input{Name: "Operations", Category: "monthly", SessionID: session.ID, Allocated: core.M(699)}
	_, err = env.Budget.UpdateBudget(env.Ctx, b.ID, in)
	testutil.CheckErr(t, "UpdateBudget", err, budget.ErrBelowUsed)

	in.Allocated = core.M(700)
	got, err := env.Budget.UpdateBudget(env.Ctx, b.ID, in)
	require.NoError(t, err)
	assert.Equal(t, budget.CategoryMonthly, got.Category)

	testutil.CheckErr(t, "DeleteBudget", env.Budget.DeleteBudget(env.Ctx, b.ID), budget.ErrInUse)
	require.NoError(t, env.Budget.DeleteBudget(env.Ctx, empty.ID))
	_, err = env.Budget.GetBudget(env.Ctx, empty.ID)
	testutil.CheckErr(t, "GetBudget", err, budget.ErrNotFound)

	_, err = env.Budget.Allocate(env.Ctx, budget.Input{Name: "Zero", Category: budget.CategoryTerm, SessionID: session.ID, Allocated: core.M(0)})
	assert.Error(t, err)
}

func TestSummary_cashReceived(t *testing.T) {
	env := testutil.NewEnv(t)
	testutil.Freeze(t, time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC))
	session := env.Current(t, school.KindSession, "2025")
	inst := env.Period(t, school.KindInstallment, "1st")
	tier := env.Tier(t, session.ID, school.CategoryBoarding, 900_000)
	std := env.Student(t, "S0000001/2025/0001", "Amani", "Mushi", 0)
	inv := env.Invoice(t, std.ID, session.ID, inst.ID, tier.ID, 0)
	env.Receipt(t, inv.ID, core.M("125000.50"))

	b := env.AllocateBudget(t, session.ID, "Operations", 1000)
	sums, err := env.Budget.Summaries(env.Ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, sums, 1)
	assert.Equal(t, b.ID, sums[0].ID)
	assert.True(t, core.M("125000.50").Equal(sums[0].CashReceived), "cash = %s", sums[0].CashReceived)
	assert.True(t, core.M(1000).Equal(sums[0].Remaining))
}
