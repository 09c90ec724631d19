package inventory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/core/budget"
	"github.com/kizito-simon15/montessori-sub000/core/inventory"
	"github.com/kizito-simon15/montessori-sub000/core/school"
	testutil "github.com/kizito-simon15/montessori-sub000/tests"
)

func setup(t *testing.T) (*testutil.Env, int64) {
	t.Helper()
	env := testutil.NewEnv(t)
	testutil.Freeze(t, time.Date(2025, time.June, 2, 8, 0, 0, 0, time.UTC))
	session := env.Current(t, school.KindSession, "2025")
	b := env.AllocateBudget(t, session.ID, "Food", 5_000_000)
	return env, b.ID
}

func TestProcessing(t *testing.T) {
	env, budgetID := setup(t)
	maize := env.SeasonalProduct(t, "Maize", true)
	purchase := env.Purchase(t, budgetID, maize.ID, 40, 50, 800, testutil.Date(2025, time.May, 20))
	assert.True(t, core.Q(2000).Equal(purchase.Quantity), "quantity = %s", purchase.Quantity)
	assert.True(t, core.M(1_600_000).Equal(purchase.TotalCost))

	flour, err := env.Inventory.CreateProcessedProduct(env.Ctx, inventory.ProcessedProductInput{Name: "Maize flour", SourceProductID: maize.ID})
	require.NoError(t, err)
	assert.Equal(t, "kg", flour.Unit)

	batch, err := env.Inventory.RecordBatch(env.Ctx, inventory.BatchInput{
		PurchaseID: purchase.ID, ProcessedProductID: flour.ID,
		InputQuantity: core.Q(1500), OutputQuantity: core.Q(1200), ProcessingFee: core.M(45_000),
	})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(80).Equal(batch.YieldPct), "yield = %s", batch.YieldPct)

	tests := []struct {
		name    string
		in      inventory.BatchInput
		wantErr error
	}{
		{"more than the raw left", inventory.BatchInput{InputQuantity: core.Q(600), OutputQuantity: core.Q(500)}, inventory.ErrInsufficientRaw},
		{"output above input", inventory.BatchInput{InputQuantity: core.Q(500), OutputQuantity: core.Q(600)}, inventory.ErrOutputExceedsInput},
		{"zero input", inventory.BatchInput{InputQuantity: core.Q(0), OutputQuantity: core.Q(1)}, inventory.ErrInvalidAmount},
		{"negative fee", inventory.BatchInput{InputQuantity: core.Q(1), OutputQuantity: core.Q(1), ProcessingFee: core.M(-1)}, inventory.ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.PurchaseID = purchase.ID
			tt.in.ProcessedProductID = flour.ID
			_, err := env.Inventory.RecordBatch(env.Ctx, tt.in)
			testutil.CheckErr(t, "RecordBatch", err, tt.wantErr)
		})
	}

	statuses, err := env.Inventory.ListPurchases(env.Ctx, inventory.PurchaseFilter{ProductID: maize.ID})
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, inventory.StatusPartProcessed, statuses[0].Status)
	assert.True(t, core.Q(500).Equal(statuses[0].RawRemaining))

	raw, err := env.Inventory.SeasonalStock(env.Ctx, maize.ID)
	require.NoError(t, err)
	assert.True(t, core.Q(500).Equal(raw.Raw))
	assert.True(t, core.M(400_000).Equal(raw.Value), "value = %s", raw.Value)
	assert.Equal(t, inventory.CategoryProcessable, raw.Category)

	stock, err := env.Inventory.ProcessedStock(env.Ctx, flour.ID)
	require.NoError(t, err)
	assert.True(t, core.Q(1200).Equal(stock.OnHand))
	assert.True(t, core.Q(500).Equal(stock.SourceRawRemaining))

	sum, err := env.Budget.Summary(env.Ctx, budgetID)
	require.NoError(t, err)
	assert.True(t, core.M(45_000).Equal(sum.Usage.ProcessingFees))
	assert.True(t, core.M(1_645_000).Equal(sum.Used), "used = %s", sum.Used)

	// the rest of the raw stock completes the purchase
	_, err = env.Inventory.RecordBatch(env.Ctx, inventory.BatchInput{
		PurchaseID: purchase.ID, ProcessedProductID: flour.ID, InputQuantity: core.Q(500), OutputQuantity: core.Q(390),
	})
	require.NoError(t, err)
	statuses, err = env.Inventory.ListPurchases(env.Ctx, inventory.PurchaseFilter{ProductID: maize.ID})
	require.NoError(t, err)
	assert.Equal(t, inventory.StatusProcessed, statuses[0].Status)
}

func TestUpdatePurchase_moveBudget(t *testing.T) {
	env, foodID := setup(t)
	food, err := env.Budget.GetBudget(env.Ctx, foodID)
	require.NoError(t, err)
	stores := env.AllocateBudget(t, food.SessionID, "Stores", 1_600_000)

	maize := env.SeasonalProduct(t, "Maize", true)
	purchase := env.Purchase(t, foodID, maize.ID, 40, 50, 800, testutil.Date(2025, time.May, 20))
	flour, err := env.Inventory.CreateProcessedProduct(env.Ctx, inventory.ProcessedProductInput{Name: "Maize flour", SourceProductID: maize.ID})
	require.NoError(t, err)
	_, err = env.Inventory.RecordBatch(env.Ctx, inventory.BatchInput{
		PurchaseID: purchase.ID, ProcessedProductID: flour.ID,
		InputQuantity: core.Q(1000), OutputQuantity: core.Q(800), ProcessingFee: core.M(45_000),
	})
	require.NoError(t, err)

	used := func(budgetID int64) core.Money {
		t.Helper()
		sum, err := env.Budget.Summary(env.Ctx, budgetID)
		require.NoError(t, err)
		assert.False(t, sum.Used.GreaterThan(sum.Allocated), "budget %d used %s of %s", budgetID, sum.Used, sum.Allocated)
		return sum.Used
	}
	in := inventory.PurchaseInput{
		BudgetID: stores.ID, ProductID: maize.ID, BagsCount: 40, BagWeight: purchase.BagWeight,
		PricePerUnit: core.M(800), Date: purchase.Date,
	}

	// the purchase cost fits but its processing fee does not
	_, err = env.Inventory.UpdatePurchase(env.Ctx, purchase.ID, in)
	testutil.CheckErr(t, "UpdatePurchase", err, budget.ErrOverrun)
	assert.True(t, core.M(1_645_000).Equal(used(foodID)))
	assert.True(t, core.M(0).Equal(used(stores.ID)))

	_, err = env.Budget.UpdateBudget(env.Ctx, stores.ID, budget.Input{
		Name: stores.Name, Category: stores.Category, SessionID: stores.SessionID, Allocated: core.M(1_645_000),
	})
	require.NoError(t, err)
	moved, err := env.Inventory.UpdatePurchase(env.Ctx, purchase.ID, in)
	require.NoError(t, err)
	assert.Equal(t, stores.ID, moved.BudgetID)
	assert.True(t, core.M(0).Equal(used(foodID)))
	assert.True(t, core.M(1_645_000).Equal(used(stores.ID)))

	// a bigger purchase on the same budget draws only the difference, which no longer fits
	in.BagsCount = 41
	_, err = env.Inventory.UpdatePurchase(env.Ctx, purchase.ID, in)
	testutil.CheckErr(t, "UpdatePurchase", err, budget.ErrOverrun)
}

func TestUpdateKitchenPurchase_moveBudget(t *testing.T) {
	env, foodID := setup(t)
	food, err := env.Budget.GetBudget(env.Ctx, foodID)
	require.NoError(t, err)
	petty := env.AllocateBudget(t, food.SessionID, "Petty cash", 50_000)
	stores := env.AllocateBudget(t, food.SessionID, "Stores", 100_000)

	sugar, err := env.Inventory.CreateKitchenProduct(env.Ctx, inventory.KitchenProductInput{Name: "Sugar", Unit: "kg"})
	require.NoError(t, err)
	in := inventory.KitchenPurchaseInput{BudgetID: foodID, ProductID: sugar.ID, Quantity: core.Q(30), PricePerUnit: core.M(3000)}
	purchase, err := env.Inventory.RecordKitchenPurchase(env.Ctx, in)
	require.NoError(t, err)

	tests := []struct {
		name     string
		budgetID int64
		wantErr  error
	}{
		{"budget too small", petty.ID, budget.ErrOverrun},
		{"budget with room", stores.ID, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in.BudgetID = tt.budgetID
			_, err := env.Inventory.UpdateKitchenPurchase(env.Ctx, purchase.ID, in)
			testutil.CheckErr(t, "UpdateKitchenPurchase", err, tt.wantErr)
		})
	}

	for id, want := range map[int64]int64{foodID: 0, petty.ID: 0, stores.ID: 90_000} {
		sum, err := env.Budget.Summary(env.Ctx, id)
		require.NoError(t, err)
		assert.True(t, core.M(want).Equal(sum.Used), "budget %d used = %s", id, sum.Used)
	}
}

func TestProcessedProduct_errors(t *testing.T) {
	env, budgetID := setup(t)
	beans := env.SeasonalProduct(t, "Beans", false)
	maize := env.SeasonalProduct(t, "Maize", true)
	rice := env.SeasonalProduct(t, "Rice", true)

	_, err := env.Inventory.CreateProcessedProduct(env.Ctx, inventory.ProcessedProductInput{Name: "Bean flour", SourceProductID: beans.ID})
	testutil.CheckErr(t, "CreateProcessedProduct", err, inventory.ErrNotProcessable)

	flour, err := env.Inventory.CreateProcessedProduct(env.Ctx, inventory.ProcessedProductInput{Name: "Maize flour", SourceProductID: maize.ID})
	require.NoError(t, err)
	ricePurchase := env.Purchase(t, budgetID, rice.ID, 10, 25, 2500, time.Time{})

	_, err = env.Inventory.RecordBatch(env.Ctx, inventory.BatchInput{
		PurchaseID: ricePurchase.ID, ProcessedProductID: flour.ID, InputQuantity: core.Q(10), OutputQuantity: core.Q(9),
	})
	testutil.CheckErr(t, "RecordBatch", err, inventory.ErrSourceMismatch)

	require.NoError(t, env.Inventory.DeleteSeasonalProduct(env.Ctx, beans.ID))
	testutil.CheckErr(t, "DeleteSeasonalProduct", env.Inventory.DeleteSeasonalProduct(env.Ctx, rice.ID), inventory.ErrProductInUse)
}

func TestConsumption(t *testing.T) {
	env, budgetID := setup(t)
	maize := env.SeasonalProduct(t, "Maize", true)
	purchase := env.Purchase(t, budgetID, maize.ID, 20, 50, 800, testutil.Date(2025, time.May, 20))
	flour, err := env.Inventory.CreateProcessedProduct(env.Ctx, inventory.ProcessedProductInput{Name: "Maize flour", SourceProductID: maize.ID})
	require.NoError(t, err)
	batch, err := env.Inventory.RecordBatch(env.Ctx, inventory.BatchInput{
		PurchaseID: purchase.ID, ProcessedProductID: flour.ID, InputQuantity: core.Q(1000), OutputQuantity: core.Q(800),
	})
	require.NoError(t, err)

	day := testutil.Date(2025, time.June, 1)
	tests := []struct {
		name    string
		in      inventory.UsageInput
		wantErr error
	}{
		{"above stock", inventory.UsageInput{Quantity: core.Q(801), Date: day}, inventory.ErrInsufficientStock},
		{"first of the day", inventory.UsageInput{Quantity: core.Q(120), Date: day}, nil},
		{"second of the day", inventory.UsageInput{Quantity: core.Q(10), Date: day}, inventory.ErrUsageExists},
		{"next day", inventory.UsageInput{Quantity: core.Q("80.5"), Date: day.AddDate(0, 0, 1)}, nil},
		{"zero", inventory.UsageInput{Quantity: core.Q(0)}, inventory.ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.ProductID = flour.ID
			_, err := env.Inventory.RecordConsumption(env.Ctx, tt.in)
			testutil.CheckErr(t, "RecordConsumption", err, tt.wantErr)
		})
	}

	stock, err := env.Inventory.ProcessedStock(env.Ctx, flour.ID)
	require.NoError(t, err)
	assert.True(t, core.Q("599.5").Equal(stock.OnHand), "on hand = %s", stock.OnHand)

	// part of the batch output is gone, so the batch cannot be undone
	testutil.CheckErr(t, "DeleteBatch", env.Inventory.DeleteBatch(env.Ctx, batch.ID), inventory.ErrInsufficientStock)
}

func TestKitchen(t *testing.T) {
	env, budgetID := setup(t)

	_, err := env.Inventory.CreateKitchenProduct(env.Ctx, inventory.KitchenProductInput{Name: "Sugar", Unit: "tonnes"})
	testutil.CheckErr(t, "CreateKitchenProduct", err, inventory.ErrInvalidKitchenUnit)

	sugar, err := env.Inventory.CreateKitchenProduct(env.Ctx, inventory.KitchenProductInput{Name: "Sugar", Unit: "KG"})
	require.NoError(t, err)
	assert.Equal(t, "kg", sugar.Unit)

	purchase, err := env.Inventory.RecordKitchenPurchase(env.Ctx, inventory.KitchenPurchaseInput{
		BudgetID: budgetID, ProductID: sugar.ID, Quantity: core.Q(30), PricePerUnit: core.M(3000),
	})
	require.NoError(t, err)
	assert.True(t, core.M(90_000).Equal(purchase.TotalCost))
	assert.Equal(t, core.Today(), purchase.Date)

	day := testutil.Date(2025, time.June, 1)
	_, err = env.Inventory.RecordKitchenUsage(env.Ctx, inventory.UsageInput{ProductID: sugar.ID, Quantity: core.Q(25), Date: day})
	require.NoError(t, err)
	_, err = env.Inventory.RecordKitchenUsage(env.Ctx, inventory.UsageInput{ProductID: sugar.ID, Quantity: core.Q(1), Date: day})
	testutil.CheckErr(t, "RecordKitchenUsage", err, inventory.ErrUsageExists)
	_, err = env.Inventory.RecordKitchenUsage(env.Ctx, inventory.UsageInput{ProductID: sugar.ID, Quantity: core.Q(6), Date: day.AddDate(0, 0, 1)})
	testutil.CheckErr(t, "RecordKitchenUsage", err, inventory.ErrInsufficientStock)

	in := inventory.KitchenPurchaseInput{BudgetID: budgetID, ProductID: sugar.ID, Quantity: core.Q(20), PricePerUnit: core.M(3000)}
	_, err = env.Inventory.UpdateKitchenPurchase(env.Ctx, purchase.ID, in)
	testutil.CheckErr(t, "UpdateKitchenPurchase", err, inventory.ErrInsufficientStock)
	testutil.CheckErr(t, "DeleteKitchenPurchase", env.Inventory.DeleteKitchenPurchase(env.Ctx, purchase.ID), inventory.ErrInsufficientStock)

	in.Quantity = core.Q(40)
	updated, err := env.Inventory.UpdateKitchenPurchase(env.Ctx, purchase.ID, in)
	require.NoError(t, err)
	assert.True(t, core.M(120_000).Equal(updated.TotalCost))

	stock, err := env.Inventory.KitchenStock(env.Ctx, sugar.ID)
	require.NoError(t, err)
	assert.True(t, core.Q(15).Equal(stock.OnHand))

	sum, err := env.Budget.Summary(env.Ctx, budgetID)
	require.NoError(t, err)
	assert.True(t, core.M(120_000).Equal(sum.Usage.Kitchen), "kitchen = %s", sum.Usage.Kitchen)

	testutil.CheckErr(t, "DeleteKitchenProduct", env.Inventory.DeleteKitchenProduct(env.Ctx, sugar.ID), inventory.ErrProductInUse)
}

func TestStockValue_newestFirst(t *testing.T) {
	older := inventory.Purchase{ID: 1, Quantity: core.Q(100), PricePerUnit: core.M(1000), Date: testutil.Date(2025, time.January, 10)}
	newer := inventory.Purchase{ID: 2, Quantity: core.Q(100), PricePerUnit: core.M(1500), Date: testutil.Date(2025, time.February, 10)}
	sameDay := inventory.Purchase{ID: 3, Quantity: core.Q(10), PricePerUnit: core.M(2000), Date: testutil.Date(2025, time.February, 10)}

	tests := []struct {
		name      string
		purchases []inventory.Purchase
		raw       core.Quantity
		want      core.Money
	}{
		{"within the newest", []inventory.Purchase{older, newer}, core.Q(80), core.M(120_000)},
		{"spills into the older", []inventory.Purchase{older, newer}, core.Q(150), core.M(200_000)},
		{"higher id wins a tie", []inventory.Purchase{older, newer, sameDay}, core.Q(20), core.M(35_000)},
		{"nothing left", []inventory.Purchase{older, newer}, core.Q(0), core.M(0)},
		{"more raw than purchased", []inventory.Purchase{older}, core.Q(130), core.M(100_000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := inventory.StockValue(tt.purchases, tt.raw)
			assert.True(t, tt.want.Equal(got), "StockValue() = %s, want %s", got, tt.want)
		})
	}
}

func TestLowStock(t *testing.T) {
	policy := inventory.Policy{
		RawLowFloor:     decimal.NewFromInt(50),
		RawLowRatio:     decimal.RequireFromString("0.10"),
		KitchenLowFloor: decimal.NewFromInt(10),
	}
	tests := []struct {
		name    string
		level   inventory.Level
		wantLow bool
	}{
		{"raw under the floor", inventory.Level{Kind: inventory.LevelRaw, Stock: core.Q(50), Inflow: core.Q(100)}, true},
		{"raw above the floor", inventory.Level{Kind: inventory.LevelRaw, Stock: core.Q(51), Inflow: core.Q(100)}, false},
		{"raw under the ratio", inventory.Level{Kind: inventory.LevelRaw, Stock: core.Q(200), Inflow: core.Q(2000)}, true},
		{"processed above the ratio", inventory.Level{Kind: inventory.LevelProcessed, Stock: core.Q(201), Inflow: core.Q(2000)}, false},
		{"kitchen at the floor", inventory.Level{Kind: inventory.LevelKitchen, Stock: core.Q(10), Inflow: core.Q(1000)}, true},
		{"kitchen above the floor", inventory.Level{Kind: inventory.LevelKitchen, Stock: core.Q(11), Inflow: core.Q(1000)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			low := inventory.LowStock([]inventory.Level{tt.level}, policy)
			assert.Equal(t, tt.wantLow, len(low) == 1)
		})
	}
}

func TestService_LowStock(t *testing.T) {
	env, budgetID := setup(t)
	maize := env.SeasonalProduct(t, "Maize", true)
	env.Purchase(t, budgetID, maize.ID, 40, 50, 800, time.Time{})
	rice := env.SeasonalProduct(t, "Rice", false)
	env.Purchase(t, budgetID, rice.ID, 4, 10, 2500, time.Time{})
	salt, err := env.Inventory.CreateKitchenProduct(env.Ctx, inventory.KitchenProductInput{Name: "Salt", Unit: "kg"})
	require.NoError(t, err)
	_, err = env.Inventory.RecordKitchenPurchase(env.Ctx, inventory.KitchenPurchaseInput{
		BudgetID: budgetID, ProductID: salt.ID, Quantity: core.Q(8), PricePerUnit: core.M(1000),
	})
	require.NoError(t, err)

	low, err := env.Inventory.LowStock(env.Ctx)
	require.NoError(t, err)
	names := map[string]string{}
	for _, l := range low {
		names[l.Name] = l.Kind
	}
	assert.Equal(t, map[string]string{"Rice": inventory.LevelRaw, "Salt": inventory.LevelKitchen}, names)
}
