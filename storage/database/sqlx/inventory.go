package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/kizito-simon15/montessori-sub000/core/inventory"
)

type inventoryRepository struct {
	repository
}

var _ inventory.Repository = (*inventoryRepository)(nil) // interface compliance check

func NewInventoryRepository(db *sqlx.DB) *inventoryRepository {
	return &inventoryRepository{repository{db: db}}
}

func purchaseWhere(filter inventory.PurchaseFilter) *where {
	w := &where{}
	if filter.ProductID != 0 {
		w.add("product_id = ?", filter.ProductID)
	}
	if filter.BudgetID != 0 {
		w.add("budget_id = ?", filter.BudgetID)
	}
	if !filter.From.IsZero() {
		w.add("date >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		w.add("date <= ?", filter.To)
	}
	return w
}

func usageWhere(column string, filter inventory.UsageFilter) *where {
	w := &where{}
	if filter.ProductID != 0 {
		w.add(column+" = ?", filter.ProductID)
	}
	if !filter.From.IsZero() {
		w.add("date >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		w.add("date <= ?", filter.To)
	}
	return w
}

// Seasonal products

func (repo inventoryRepository) CreateSeasonalProduct(ctx context.Context, p inventory.SeasonalProduct) (inventory.SeasonalProduct, error) {
	id, err := repo.insert(ctx, `
		INSERT INTO seasonal_product (name, unit, processable, description, created_at)
		VALUES (:name, :unit, :processable, :description, :created_at) RETURNING id`, p, inventory.ErrProductExists)
	if err != nil {
		return inventory.SeasonalProduct{}, err
	}
	p.ID = id
	return p, nil
}

func (repo inventoryRepository) UpdateSeasonalProduct(ctx context.Context, p inventory.SeasonalProduct) (inventory.SeasonalProduct, error) {
	err := repo.update(ctx, `
		UPDATE seasonal_product SET name = :name, unit = :unit, processable = :processable, description = :description
		WHERE id = :id`, p, inventory.ErrProductNotFound, inventory.ErrProductExists)
	return p, err
}

func (repo inventoryRepository) DeleteSeasonalProduct(ctx context.Context, id int64) error {
	return repo.delete(ctx, "seasonal_product", id, inventory.ErrProductNotFound, inventory.ErrProductInUse)
}

func (repo inventoryRepository) GetSeasonalProduct(ctx context.Context, id int64) (inventory.SeasonalProduct, error) {
	var p inventory.SeasonalProduct
	err := repo.get(ctx, &p, inventory.ErrProductNotFound, `SELECT * FROM seasonal_product WHERE id = $1`, id)
	return p, err
}

func (repo inventoryRepository) ListSeasonalProducts(ctx context.Context) ([]inventory.SeasonalProduct, error) {
	products := []inventory.SeasonalProduct{}
	err := repo.list(ctx, &products, `SELECT * FROM seasonal_product ORDER BY name`)
	return products, err
}

// Seasonal purchases

func (repo inventoryRepository) CreatePurchase(ctx context.Context, p inventory.Purchase) (inventory.Purchase, error) {
	id, err := repo.insert(ctx, `
		INSERT INTO seasonal_purchase (
			budget_id, product_id, bags_count, bag_weight, quantity, price_per_unit, total_cost, date, invoice_file,
			created_at
		) VALUES (
			:budget_id, :product_id, :bags_count, :bag_weight, :quantity, :price_per_unit, :total_cost, :date,
			:invoice_file, :created_at
		) RETURNING id`, p, nil)
	if err != nil {
		return inventory.Purchase{}, err
	}
	p.ID = id
	return p, nil
}

func (repo inventoryRepository) UpdatePurchase(ctx context.Context, p inventory.Purchase) (inventory.Purchase, error) {
	err := repo.update(ctx, `
		UPDATE seasonal_purchase SET
			budget_id = :budget_id, product_id = :product_id, bags_count = :bags_count, bag_weight = :bag_weight,
			quantity = :quantity, price_per_unit = :price_per_unit, total_cost = :total_cost, date = :date,
			invoice_file = :invoice_file
		WHERE id = :id`, p, inventory.ErrPurchaseNotFound, nil)
	return p, err
}

// DeletePurchase relies on the cascade from processing_batch.
func (repo inventoryRepository) DeletePurchase(ctx context.Context, id int64) error {
	return repo.delete(ctx, "seasonal_purchase", id, inventory.ErrPurchaseNotFound, nil)
}

func (repo inventoryRepository) GetPurchase(ctx context.Context, id int64) (inventory.Purchase, error) {
	var p inventory.Purchase
	err := repo.get(ctx, &p, inventory.ErrPurchaseNotFound, `SELECT * FROM seasonal_purchase WHERE id = $1`, id)
	return p, err
}

func (repo inventoryRepository) LockPurchase(ctx context.Context, id int64) (inventory.Purchase, error) {
	var p inventory.Purchase
	err := repo.get(ctx, &p, inventory.ErrPurchaseNotFound, `SELECT * FROM seasonal_purchase WHERE id = $1 FOR UPDATE`, id)
	return p, err
}

func (repo inventoryRepository) ListPurchases(ctx context.Context, filter inventory.PurchaseFilter) ([]inventory.Purchase, error) {
	w := purchaseWhere(filter)
	purchases := []inventory.Purchase{}
	err := repo.list(ctx, &purchases, `SELECT * FROM seasonal_purchase`+w.String()+` ORDER BY date, id`, w.args...)
	return purchases, err
}

// Processed products

func (repo inventoryRepository) CreateProcessedProduct(ctx context.Context, p inventory.ProcessedProduct) (inventory.ProcessedProduct, error) {
	id, err := repo.insert(ctx, `
		INSERT INTO processed_product (name, source_product_id, unit, created_at)
		VALUES (:name, :source_product_id, :unit, :created_at) RETURNING id`, p, inventory.ErrProductExists)
	if err != nil {
		return inventory.ProcessedProduct{}, err
	}
	p.ID = id
	return p, nil
}

func (repo inventoryRepository) UpdateProcessedProduct(ctx context.Context, p inventory.ProcessedProduct) (inventory.ProcessedProduct, error) {
	err := repo.update(ctx, `
		UPDATE processed_product SET name = :name, source_product_id = :source_product_id, unit = :unit
		WHERE id = :id`, p, inventory.ErrProductNotFound, inventory.ErrProductExists)
	return p, err
}

func (repo inventoryRepository) DeleteProcessedProduct(ctx context.Context, id int64) error {
	return repo.delete(ctx, "processed_product", id, inventory.ErrProductNotFound, inventory.ErrProductInUse)
}

func (repo inventoryRepository) GetProcessedProduct(ctx context.Context, id int64) (inventory.ProcessedProduct, error) {
	var p inventory.ProcessedProduct
	err := repo.get(ctx, &p, inventory.ErrProductNotFound, `SELECT * FROM processed_product WHERE id = $1`, id)
	return p, err
}

func (repo inventoryRepository) LockProcessedProduct(ctx context.Context, id int64) (inventory.ProcessedProduct, error) {
	var p inventory.ProcessedProduct
	err := repo.get(ctx, &p, inventory.ErrProductNotFound, `SELECT * FROM processed_product WHERE id = $1 FOR UPDATE`, id)
	return p, err
}

func (repo inventoryRepository) ListProcessedProducts(ctx context.Context) ([]inventory.ProcessedProduct, error) {
	products := []inventory.ProcessedProduct{}
	err := repo.list(ctx, &products, `SELECT * FROM processed_product ORDER BY name`)
	return products, err
}

// Batches

func (repo inventoryRepository) CreateBatch(ctx context.Context, b inventory.Batch) (inventory.Batch, error) {
	id, err := repo.insert(ctx, `
		INSERT INTO processing_batch (
			source_purchase_id, processed_product_id, input_quantity, output_quantity, processing_fee, yield_pct,
			date, remarks, created_at
		) VALUES (
			:source_purchase_id, :processed_product_id, :input_quantity, :output_quantity, :processing_fee,
			:yield_pct, :date, :remarks, :created_at
		) RETURNING id`, b, nil)
	if err != nil {
		return inventory.Batch{}, err
	}
	b.ID = id
	return b, nil
}

func (repo inventoryRepository) DeleteBatch(ctx context.Context, id int64) error {
	return repo.delete(ctx, "processing_batch", id, inventory.ErrBatchNotFound, nil)
}

func (repo inventoryRepository) GetBatch(ctx context.Context, id int64) (inventory.Batch, error) {
	var b inventory.Batch
	err := repo.get(ctx, &b, inventory.ErrBatchNotFound, `SELECT * FROM processing_batch WHERE id = $1`, id)
	return b, err
}

func (repo inventoryRepository) ListBatches(ctx context.Context, filter inventory.BatchFilter) ([]inventory.Batch, error) {
	w := &where{}
	if filter.PurchaseID != 0 {
		w.add("source_purchase_id = ?", filter.PurchaseID)
	}
	if filter.ProcessedProductID != 0 {
		w.add("processed_product_id = ?", filter.ProcessedProductID)
	}
	if !filter.From.IsZero() {
		w.add("date >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		w.add("date <= ?", filter.To)
	}
	batches := []inventory.Batch{}
	err := repo.list(ctx, &batches, `SELECT * FROM processing_batch`+w.String()+` ORDER BY date, id`, w.args...)
	return batches, err
}

// Daily consumption

func (repo inventoryRepository) CreateConsumption(ctx context.Context, c inventory.Consumption) (inventory.Consumption, error) {
	id, err := repo.insert(ctx, `
		INSERT INTO daily_consumption (processed_product_id, quantity_used, date, recorded_by, remarks)
		VALUES (:processed_product_id, :quantity_used, :date, :recorded_by, :remarks) RETURNING id`, c, inventory.ErrUsageExists)
	if err != nil {
		return inventory.Consumption{}, err
	}
	c.ID = id
	return c, nil
}

func (repo inventoryRepository) DeleteConsumption(ctx context.Context, id int64) error {
	return repo.delete(ctx, "daily_consumption", id, inventory.ErrConsumptionNotFound, nil)
}

func (repo inventoryRepository) GetConsumption(ctx context.Context, id int64) (inventory.Consumption, error) {
	var c inventory.Consumption
	err := repo.get(ctx, &c, inventory.ErrConsumptionNotFound, `SELECT * FROM daily_consumption WHERE id = $1`, id)
	return c, err
}

func (repo inventoryRepository) ListConsumptions(ctx context.Context, filter inventory.UsageFilter) ([]inventory.Consumption, error) {
	w := usageWhere("processed_product_id", filter)
	rows := []inventory.Consumption{}
	err := repo.list(ctx, &rows, `SELECT * FROM daily_consumption`+w.String()+` ORDER BY date, id`, w.args...)
	return rows, err
}

// Kitchen products

func (repo inventoryRepository) CreateKitchenProduct(ctx context.Context, p inventory.KitchenProduct) (inventory.KitchenProduct, error) {
	id, err := repo.insert(ctx, `
		INSERT INTO kitchen_product (name, unit, created_at) VALUES (:name, :unit, :created_at) RETURNING id`, p, inventory.ErrProductExists)
	if err != nil {
		return inventory.KitchenProduct{}, err
	}
	p.ID = id
	return p, nil
}

func (repo inventoryRepository) UpdateKitchenProduct(ctx context.Context, p inventory.KitchenProduct) (inventory.KitchenProduct, error) {
	err := repo.update(ctx, `UPDATE kitchen_product SET name = :name, unit = :unit WHERE id = :id`, p, inventory.ErrProductNotFound, inventory.ErrProductExists)
	return p, err
}

func (repo inventoryRepository) DeleteKitchenProduct(ctx context.Context, id int64) error {
	return repo.delete(ctx, "kitchen_product", id, inventory.ErrProductNotFound, inventory.ErrProductInUse)
}

func (repo inventoryRepository) GetKitchenProduct(ctx context.Context, id int64) (inventory.KitchenProduct, error) {
	var p inventory.KitchenProduct
	err := repo.get(ctx, &p, inventory.ErrProductNotFound, `SELECT * FROM kitchen_product WHERE id = $1`, id)
	return p, err
}

func (repo inventoryRepository) LockKitchenProduct(ctx context.Context, id int64) (inventory.KitchenProduct, error) {
	var p inventory.KitchenProduct
	err := repo.get(ctx, &p, inventory.ErrProductNotFound, `SELECT * FROM kitchen_product WHERE id = $1 FOR UPDATE`, id)
	return p, err
}

func (repo inventoryRepository) ListKitchenProducts(ctx context.Context) ([]inventory.KitchenProduct, error) {
	products := []inventory.KitchenProduct{}
	err := repo.list(ctx, &products, `SELECT * FROM kitchen_product ORDER BY name`)
	return products, err
}

// Kitchen purchases

func (repo inventoryRepository) CreateKitchenPurchase(ctx context.Context, p inventory.KitchenPurchase) (inventory.KitchenPurchase, error) {
	id, err := repo.insert(ctx, `
		INSERT INTO kitchen_purchase (
			budget_id, product_id, quantity, price_per_unit, total_cost, date, invoice_file, created_at
		) VALUES (
			:budget_id, :product_id, :quantity, :price_per_unit, :total_cost, :date, :invoice_file, :created_at
		) RETURNING id`, p, nil)
	if err != nil {
		return inventory.KitchenPurchase{}, err
	}
	p.ID = id
	return p, nil
}

func (repo inventoryRepository) UpdateKitchenPurchase(ctx context.Context, p inventory.KitchenPurchase) (inventory.KitchenPurchase, error) {
	err := repo.update(ctx, `
		UPDATE kitchen_purchase SET
			budget_id = :budget_id, product_id = :product_id, quantity = :quantity, price_per_unit = :price_per_unit,
			total_cost = :total_cost, date = :date, invoice_file = :invoice_file
		WHERE id = :id`, p, inventory.ErrPurchaseNotFound, nil)
	return p, err
}

func (repo inventoryRepository) DeleteKitchenPurchase(ctx context.Context, id int64) error {
	return repo.delete(ctx, "kitchen_purchase", id, inventory.ErrPurchaseNotFound, nil)
}

func (repo inventoryRepository) GetKitchenPurchase(ctx context.Context, id int64) (inventory.KitchenPurchase, error) {
	var p inventory.KitchenPurchase
	err := repo.get(ctx, &p, inventory.ErrPurchaseNotFound, `SELECT * FROM kitchen_purchase WHERE id = $1`, id)
	return p, err
}

func (repo inventoryRepository) ListKitchenPurchases(ctx context.Context, filter inventory.PurchaseFilter) ([]inventory.KitchenPurchase, error) {
	w := purchaseWhere(filter)
	purchases := []inventory.KitchenPurchase{}
	err := repo.list(ctx, &purchases, `SELECT * FROM kitchen_purchase`+w.String()+` ORDER BY date, id`, w.args...)
	return purchases, err
}

// Kitchen usage

func (repo inventoryRepository) CreateUsage(ctx context.Context, u inventory.Usage) (inventory.Usage, error) {
	id, err := repo.insert(ctx, `
		INSERT INTO kitchen_usage (product_id, quantity_used, date, recorded_by, remarks)
		VALUES (:product_id, :quantity_used, :date, :recorded_by, :remarks) RETURNING id`, u, inventory.ErrUsageExists)
	if err != nil {
		return inventory.Usage{}, err
	}
	u.ID = id
	return u, nil
}

func (repo inventoryRepository) DeleteUsage(ctx context.Context, id int64) error {
	return repo.delete(ctx, "kitchen_usage", id, inventory.ErrUsageNotFound, nil)
}

func (repo inventoryRepository) GetUsage(ctx context.Context, id int64) (inventory.Usage, error) {
	var u inventory.Usage
	err := repo.get(ctx, &u, inventory.ErrUsageNotFound, `SELECT * FROM kitchen_usage WHERE id = $1`, id)
	return u, err
}

func (repo inventoryRepository) ListUsage(ctx context.Context, filter inventory.UsageFilter) ([]inventory.Usage, error) {
	w := usageWhere("product_id", filter)
	rows := []inventory.Usage{}
	err := repo.list(ctx, &rows, `SELECT * FROM kitchen_usage`+w.String()+` ORDER BY date, id`, w.args...)
	return rows, err
}
