package inmemdb

import (
	"context"
	"sort"

	"github.com/kizito-simon15/montessori-sub000/core/budget"
	"github.com/kizito-simon15/montessori-sub000/core/inventory"
)

type inventoryRepository struct {
	db *DB
}

var _ inventory.Repository = (*inventoryRepository)(nil) // interface compliance check

func NewInventoryRepository(db *DB) *inventoryRepository {
	return &inventoryRepository{db: db}
}

func byName[T any](rows []T, name func(T) string) []T {
	sort.SliceStable(rows, func(i, j int) bool { return name(rows[i]) < name(rows[j]) })
	return rows
}

func matchPurchase(filter inventory.PurchaseFilter, p inventory.Purchase) bool {
	if filter.ProductID != 0 && p.ProductID != filter.ProductID {
		return false
	}
	if filter.BudgetID != 0 && p.BudgetID != filter.BudgetID {
		return false
	}
	return inRange(p.Date, filter.From, filter.To)
}

// Seasonal products

func (t *tables) seasonalTaken(p inventory.SeasonalProduct) bool {
	return t.seasonalProducts.exists(func(o inventory.SeasonalProduct) bool { return o.ID != p.ID && o.Name == p.Name })
}

func (repo inventoryRepository) CreateSeasonalProduct(ctx context.Context, p inventory.SeasonalProduct) (inventory.SeasonalProduct, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if t.seasonalTaken(p) {
		return inventory.SeasonalProduct{}, inventory.ErrProductExists
	}
	p.ID = t.seasonalProducts.nextID()
	t.seasonalProducts.put(p.ID, p)
	return p, nil
}

func (repo inventoryRepository) UpdateSeasonalProduct(ctx context.Context, p inventory.SeasonalProduct) (inventory.SeasonalProduct, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.seasonalProducts.has(p.ID) {
		return inventory.SeasonalProduct{}, inventory.ErrProductNotFound
	}
	if t.seasonalTaken(p) {
		return inventory.SeasonalProduct{}, inventory.ErrProductExists
	}
	t.seasonalProducts.put(p.ID, p)
	return p, nil
}

func (repo inventoryRepository) DeleteSeasonalProduct(ctx context.Context, id int64) error {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.seasonalProducts.has(id) {
		return inventory.ErrProductNotFound
	}
	if t.purchases.exists(func(p inventory.Purchase) bool { return p.ProductID == id }) ||
		t.processedProducts.exists(func(pp inventory.ProcessedProduct) bool { return pp.SourceProductID == id }) {
		return inventory.ErrProductInUse
	}
	t.seasonalProducts.remove(id)
	return nil
}

func (repo inventoryRepository) GetSeasonalProduct(ctx context.Context, id int64) (inventory.SeasonalProduct, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if p, ok := t.seasonalProducts.get(id); ok {
		return p, nil
	}
	return inventory.SeasonalProduct{}, inventory.ErrProductNotFound
}

func (repo inventoryRepository) ListSeasonalProducts(ctx context.Context) ([]inventory.SeasonalProduct, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	return byName(t.seasonalProducts.filter(nil), func(p inventory.SeasonalProduct) string { return p.Name }), nil
}

// Seasonal purchases

func (t *tables) checkPurchaseRefs(p inventory.Purchase) error {
	if !t.seasonalProducts.has(p.ProductID) {
		return inventory.ErrProductNotFound
	}
	if !t.budgets.has(p.BudgetID) {
		return budget.ErrNotFound
	}
	return nil
}

func (repo inventoryRepository) CreatePurchase(ctx context.Context, p inventory.Purchase) (inventory.Purchase, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if err := t.checkPurchaseRefs(p); err != nil {
		return inventory.Purchase{}, err
	}
	p.ID = t.purchases.nextID()
	t.purchases.put(p.ID, p)
	return p, nil
}

func (repo inventoryRepository) UpdatePurchase(ctx context.Context, p inventory.Purchase) (inventory.Purchase, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.purchases.has(p.ID) {
		return inventory.Purchase{}, inventory.ErrPurchaseNotFound
	}
	if err := t.checkPurchaseRefs(p); err != nil {
		return inventory.Purchase{}, err
	}
	t.purchases.put(p.ID, p)
	return p, nil
}

func (repo inventoryRepository) DeletePurchase(ctx context.Context, id int64) error {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.purchases.has(id) {
		return inventory.ErrPurchaseNotFound
	}
	t.batches.removeWhere(func(b inventory.Batch) bool { return b.PurchaseID == id })
	t.purchases.remove(id)
	return nil
}

func (repo inventoryRepository) GetPurchase(ctx context.Context, id int64) (inventory.Purchase, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if p, ok := t.purchases.get(id); ok {
		return p, nil
	}
	return inventory.Purchase{}, inventory.ErrPurchaseNotFound
}

func (repo inventoryRepository) LockPurchase(ctx context.Context, id int64) (inventory.Purchase, error) {
	return repo.GetPurchase(ctx, id)
}

func (repo inventoryRepository) ListPurchases(ctx context.Context, filter inventory.PurchaseFilter) ([]inventory.Purchase, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	rows := t.purchases.filter(func(p inventory.Purchase) bool { return matchPurchase(filter, p) })
	sortByDate(rows, func(p inventory.Purchase) (int64, int64) { return p.Date.Unix(), p.ID })
	return rows, nil
}

// Processed products

func (t *tables) processedTaken(p inventory.ProcessedProduct) bool {
	return t.processedProducts.exists(func(o inventory.ProcessedProduct) bool { return o.ID != p.ID && o.Name == p.Name })
}

func (repo inventoryRepository) CreateProcessedProduct(ctx context.Context, p inventory.ProcessedProduct) (inventory.ProcessedProduct, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.seasonalProducts.has(p.SourceProductID) {
		return inventory.ProcessedProduct{}, inventory.ErrProductNotFound
	}
	if t.processedTaken(p) {
		return inventory.ProcessedProduct{}, inventory.ErrProductExists
	}
	p.ID = t.processedProducts.nextID()
	t.processedProducts.put(p.ID, p)
	return p, nil
}

func (repo inventoryRepository) UpdateProcessedProduct(ctx context.Context, p inventory.ProcessedProduct) (inventory.ProcessedProduct, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.processedProducts.has(p.ID) {
		return inventory.ProcessedProduct{}, inventory.ErrProductNotFound
	}
	if t.processedTaken(p) {
		return inventory.ProcessedProduct{}, inventory.ErrProductExists
	}
	t.processedProducts.put(p.ID, p)
	return p, nil
}

func (repo inventoryRepository) DeleteProcessedProduct(ctx context.Context, id int64) error {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.processedProducts.has(id) {
		return inventory.ErrProductNotFound
	}
	if t.batches.exists(func(b inventory.Batch) bool { return b.ProcessedProductID == id }) ||
		t.consumptions.exists(func(c inventory.Consumption) bool { return c.ProcessedProductID == id }) {
		return inventory.ErrProductInUse
	}
	t.processedProducts.remove(id)
	return nil
}

func (repo inventoryRepository) GetProcessedProduct(ctx context.Context, id int64) (inventory.ProcessedProduct, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if p, ok := t.processedProducts.get(id); ok {
		return p, nil
	}
	return inventory.ProcessedProduct{}, inventory.ErrProductNotFound
}

func (repo inventoryRepository) LockProcessedProduct(ctx context.Context, id int64) (inventory.ProcessedProduct, error) {
	return repo.GetProcessedProduct(ctx, id)
}

func (repo inventoryRepository) ListProcessedProducts(ctx context.Context) ([]inventory.ProcessedProduct, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	return byName(t.processedProducts.filter(nil), func(p inventory.ProcessedProduct) string { return p.Name }), nil
}

// Batches

func (repo inventoryRepository) CreateBatch(ctx context.Context, b inventory.Batch) (inventory.Batch, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.purchases.has(b.PurchaseID) {
		return inventory.Batch{}, inventory.ErrPurchaseNotFound
	}
	if !t.processedProducts.has(b.ProcessedProductID) {
		return inventory.Batch{}, inventory.ErrProductNotFound
	}
	b.ID = t.batches.nextID()
	t.batches.put(b.ID, b)
	return b, nil
}

func (repo inventoryRepository) DeleteBatch(ctx context.Context, id int64) error {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.batches.has(id) {
		return inventory.ErrBatchNotFound
	}
	t.batches.remove(id)
	return nil
}

func (repo inventoryRepository) GetBatch(ctx context.Context, id int64) (inventory.Batch, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if b, ok := t.batches.get(id); ok {
		return b, nil
	}
	return inventory.Batch{}, inventory.ErrBatchNotFound
}

func (repo inventoryRepository) ListBatches(ctx context.Context, filter inventory.BatchFilter) ([]inventory.Batch, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	rows := t.batches.filter(func(b inventory.Batch) bool {
		if filter.PurchaseID != 0 && b.PurchaseID != filter.PurchaseID {
			return false
		}
		if filter.ProcessedProductID != 0 && b.ProcessedProductID != filter.ProcessedProductID {
			return false
		}
		return inRange(b.Date, filter.From, filter.To)
	})
	sortByDate(rows, func(b inventory.Batch) (int64, int64) { return b.Date.Unix(), b.ID })
	return rows, nil
}

// Daily consumption

func (repo inventoryRepository) CreateConsumption(ctx context.Context, c inventory.Consumption) (inventory.Consumption, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.processedProducts.has(c.ProcessedProductID) {
		return inventory.Consumption{}, inventory.ErrProductNotFound
	}
	if t.consumptions.exists(func(o inventory.Consumption) bool {
		return o.ProcessedProductID == c.ProcessedProductID && sameDay(o.Date, c.Date)
	}) {
		return inventory.Consumption{}, inventory.ErrUsageExists
	}
	c.ID = t.consumptions.nextID()
	t.consumptions.put(c.ID, c)
	return c, nil
}

func (repo inventoryRepository) DeleteConsumption(ctx context.Context, id int64) error {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.consumptions.has(id) {
		return inventory.ErrConsumptionNotFound
	}
	t.consumptions.remove(id)
	return nil
}

func (repo inventoryRepository) GetConsumption(ctx context.Context, id int64) (inventory.Consumption, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if c, ok := t.consumptions.get(id); ok {
		return c, nil
	}
	return inventory.Consumption{}, inventory.ErrConsumptionNotFound
}

func (repo inventoryRepository) ListConsumptions(ctx context.Context, filter inventory.UsageFilter) ([]inventory.Consumption, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	rows := t.consumptions.filter(func(c inventory.Consumption) bool {
		return (filter.ProductID == 0 || c.ProcessedProductID == filter.ProductID) && inRange(c.Date, filter.From, filter.To)
	})
	sortByDate(rows, func(c inventory.Consumption) (int64, int64) { return c.Date.Unix(), c.ID })
	return rows, nil
}

// Kitchen products

func (t *tables) kitchenTaken(p inventory.KitchenProduct) bool {
	return t.kitchenProducts.exists(func(o inventory.KitchenProduct) bool { return o.ID != p.ID && o.Name == p.Name })
}

func (repo inventoryRepository) CreateKitchenProduct(ctx context.Context, p inventory.KitchenProduct) (inventory.KitchenProduct, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if t.kitchenTaken(p) {
		return inventory.KitchenProduct{}, inventory.ErrProductExists
	}
	p.ID = t.kitchenProducts.nextID()
	t.kitchenProducts.put(p.ID, p)
	return p, nil
}

func (repo inventoryRepository) UpdateKitchenProduct(ctx context.Context, p inventory.KitchenProduct) (inventory.KitchenProduct, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.kitchenProducts.has(p.ID) {
		return inventory.KitchenProduct{}, inventory.ErrProductNotFound
	}
	if t.kitchenTaken(p) {
		return inventory.KitchenProduct{}, inventory.ErrProductExists
	}
	t.kitchenProducts.put(p.ID, p)
	return p, nil
}

func (repo inventoryRepository) DeleteKitchenProduct(ctx context.Context, id int64) error {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.kitchenProducts.has(id) {
		return inventory.ErrProductNotFound
	}
	if t.kitchenPurchases.exists(func(p inventory.KitchenPurchase) bool { return p.ProductID == id }) ||
		t.usage.exists(func(u inventory.Usage) bool { return u.ProductID == id }) {
		return inventory.ErrProductInUse
	}
	t.kitchenProducts.remove(id)
	return nil
}

func (repo inventoryRepository) GetKitchenProduct(ctx context.Context, id int64) (inventory.KitchenProduct, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if p, ok := t.kitchenProducts.get(id); ok {
		return p, nil
	}
	return inventory.KitchenProduct{}, inventory.ErrProductNotFound
}

func (repo inventoryRepository) LockKitchenProduct(ctx context.Context, id int64) (inventory.KitchenProduct, error) {
	return repo.GetKitchenProduct(ctx, id)
}

func (repo inventoryRepository) ListKitchenProducts(ctx context.Context) ([]inventory.KitchenProduct, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	return byName(t.kitchenProducts.filter(nil), func(p inventory.KitchenProduct) string { return p.Name }), nil
}

// Kitchen purchases

func (t *tables) checkKitchenPurchaseRefs(p inventory.KitchenPurchase) error {
	if !t.kitchenProducts.has(p.ProductID) {
		return inventory.ErrProductNotFound
	}
	if !t.budgets.has(p.BudgetID) {
		return budget.ErrNotFound
	}
	return nil
}

func (repo inventoryRepository) CreateKitchenPurchase(ctx context.Context, p inventory.KitchenPurchase) (inventory.KitchenPurchase, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if err := t.checkKitchenPurchaseRefs(p); err != nil {
		return inventory.KitchenPurchase{}, err
	}
	p.ID = t.kitchenPurchases.nextID()
	t.kitchenPurchases.put(p.ID, p)
	return p, nil
}

func (repo inventoryRepository) UpdateKitchenPurchase(ctx context.Context, p inventory.KitchenPurchase) (inventory.KitchenPurchase, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.kitchenPurchases.has(p.ID) {
		return inventory.KitchenPurchase{}, inventory.ErrPurchaseNotFound
	}
	if err := t.checkKitchenPurchaseRefs(p); err != nil {
		return inventory.KitchenPurchase{}, err
	}
	t.kitchenPurchases.put(p.ID, p)
	return p, nil
}

func (repo inventoryRepository) DeleteKitchenPurchase(ctx context.Context, id int64) error {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.kitchenPurchases.has(id) {
		return inventory.ErrPurchaseNotFound
	}
	t.kitchenPurchases.remove(id)
	return nil
}

func (repo inventoryRepository) GetKitchenPurchase(ctx context.Context, id int64) (inventory.KitchenPurchase, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if p, ok := t.kitchenPurchases.get(id); ok {
		return p, nil
	}
	return inventory.KitchenPurchase{}, inventory.ErrPurchaseNotFound
}

func (repo inventoryRepository) ListKitchenPurchases(ctx context.Context, filter inventory.PurchaseFilter) ([]inventory.KitchenPurchase, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	rows := t.kitchenPurchases.filter(func(p inventory.KitchenPurchase) bool {
		return matchPurchase(filter, inventory.Purchase{ProductID: p.ProductID, BudgetID: p.BudgetID, Date: p.Date})
	})
	sortByDate(rows, func(p inventory.KitchenPurchase) (int64, int64) { return p.Date.Unix(), p.ID })
	return rows, nil
}

// Kitchen usage

func (repo inventoryRepository) CreateUsage(ctx context.Context, u inventory.Usage) (inventory.Usage, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.kitchenProducts.has(u.ProductID) {
		return inventory.Usage{}, inventory.ErrProductNotFound
	}
	if t.usage.exists(func(o inventory.Usage) bool { return o.ProductID == u.ProductID && sameDay(o.Date, u.Date) }) {
		return inventory.Usage{}, inventory.ErrUsageExists
	}
	u.ID = t.usage.nextID()
	t.usage.put(u.ID, u)
	return u, nil
}

func (repo inventoryRepository) DeleteUsage(ctx context.Context, id int64) error {
	t, done := repo.db.begin(ctx)
	defer done()

	if !t.usage.has(id) {
		return inventory.ErrUsageNotFound
	}
	t.usage.remove(id)
	return nil
}

func (repo inventoryRepository) GetUsage(ctx context.Context, id int64) (inventory.Usage, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	if u, ok := t.usage.get(id); ok {
		return u, nil
	}
	return inventory.Usage{}, inventory.ErrUsageNotFound
}

func (repo inventoryRepository) ListUsage(ctx context.Context, filter inventory.UsageFilter) ([]inventory.Usage, error) {
	t, done := repo.db.begin(ctx)
	defer done()

	rows := t.usage.filter(func(u inventory.Usage) bool {
		return (filter.ProductID == 0 || u.ProductID == filter.ProductID) && inRange(u.Date, filter.From, filter.To)
	})
	sortByDate(rows, func(u inventory.Usage) (int64, int64) { return u.Date.Unix(), u.ID })
	return rows, nil
}
