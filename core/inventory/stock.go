package inventory

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/kizito-simon15/montessori-sub000/core"
)

// PurchaseQuantity is bags × bag weight, or the bag count when no weight is given.
func PurchaseQuantity(bags int64, bagWeight *core.Quantity) core.Quantity {
	if bagWeight == nil {
		return core.Q(bags)
	}
	return core.Q(bags).Mul(*bagWeight).R2()
}

// YieldPct is output / input × 100 at 1dp.
func YieldPct(input, output core.Quantity) decimal.Decimal {
	if input.IsZero() {
		return decimal.Zero
	}
	return output.Decimal().Div(input.Decimal()).Mul(decimal.NewFromInt(100)).Round(1)
}

// newestFirst sorts purchases by date then id, descending.
func newestFirst(purchases []Purchase) []Purchase {
	sorted := append([]Purchase(nil), purchases...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.After(sorted[j].Date)
		}
		return sorted[i].ID > sorted[j].ID
	})
	return sorted
}

// StockValue values raw stock walking the purchases newest-first, taking from each up to its
// quantity until raw is exhausted.
func StockValue(purchases []Purchase, raw core.Quantity) core.Money {
	value := core.M(0)
	left := raw
	for _, p := range newestFirst(purchases) {
		if !left.IsPositive() {
			break
		}
		taken := left.Min(p.Quantity)
		value = value.Add(p.PricePerUnit.Mul(taken))
		left = left.Sub(taken)
	}
	return value.R2()
}

// rawByPurchase sums the batch inputs of each purchase.
func rawByPurchase(batches []Batch) map[int64]core.Quantity {
	used := make(map[int64]core.Quantity)
	for _, b := range batches {
		used[b.PurchaseID] = used[b.PurchaseID].Add(b.InputQuantity)
	}
	return used
}

// StatusOf reports a purchase's processing progress.
func StatusOf(p Purchase, batches []Batch) PurchaseStatus {
	processed := core.Q(0)
	for _, b := range batches {
		if b.PurchaseID == p.ID {
			processed = processed.Add(b.InputQuantity)
		}
	}
	st := PurchaseStatus{Purchase: p, Processed: processed, RawRemaining: p.Quantity.Sub(processed)}
	switch {
	case processed.IsZero():
		st.Status = StatusUnprocessed
	case st.RawRemaining.IsPositive():
		st.Status = StatusPartProcessed
	default:
		st.Status = StatusProcessed
	}
	return st
}

// SeasonalStockOf aggregates the purchases of a product and the batches drawn from them.
func SeasonalStockOf(product SeasonalProduct, purchases []Purchase, batches []Batch) SeasonalStock {
	st := SeasonalStock{
		Product:     product,
		Category:    product.Category(),
		Purchased:   core.Q(0),
		Processed:   core.Q(0),
		Value:       core.M(0),
		LatestPrice: core.M(0),
		AvgPrice:    core.M(0),
		MinPrice:    core.M(0),
		MaxPrice:    core.M(0),
	}
	ids := make(map[int64]bool, len(purchases))
	cost := core.M(0)
	for i, p := range purchases {
		ids[p.ID] = true
		st.Purchased = st.Purchased.Add(p.Quantity)
		cost = cost.Add(p.TotalCost)
		if i == 0 || p.PricePerUnit.LessThan(st.MinPrice) {
			st.MinPrice = p.PricePerUnit
		}
		if i == 0 || p.PricePerUnit.GreaterThan(st.MaxPrice) {
			st.MaxPrice = p.PricePerUnit
		}
	}
	for _, b := range batches {
		if ids[b.PurchaseID] {
			st.Processed = st.Processed.Add(b.InputQuantity)
		}
	}
	st.Raw = st.Purchased.Sub(st.Processed)
	if len(purchases) > 0 {
		st.LatestPrice = newestFirst(purchases)[0].PricePerUnit
		st.Value = StockValue(purchases, st.Raw)
	}
	if st.Purchased.IsPositive() {
		st.AvgPrice = core.M(cost.R2().Decimal().Div(st.Purchased.Decimal())).R2()
	}
	return st
}

// ProcessedStockOf aggregates the batches and consumption of a processed product.
func ProcessedStockOf(product ProcessedProduct, batches []Batch, consumed []Consumption, sourceRaw core.Quantity) ProcessedStock {
	st := ProcessedStock{Product: product, Produced: core.Q(0), Consumed: core.Q(0), SourceRawRemaining: sourceRaw}
	for _, b := range batches {
		if b.ProcessedProductID == product.ID {
			st.Produced = st.Produced.Add(b.OutputQuantity)
		}
	}
	for _, c := range consumed {
		if c.ProcessedProductID == product.ID {
			st.Consumed = st.Consumed.Add(c.Quantity)
		}
	}
	st.OnHand = st.Produced.Sub(st.Consumed)
	return st
}

func KitchenStockOf(product KitchenProduct, purchases []KitchenPurchase, usage []Usage) KitchenStock {
	st := KitchenStock{Product: product, Purchased: core.Q(0), Used: core.Q(0)}
	for _, p := range purchases {
		if p.ProductID == product.ID {
			st.Purchased = st.Purchased.Add(p.Quantity)
		}
	}
	for _, u := range usage {
		if u.ProductID == product.ID {
			st.Used = st.Used.Add(u.Quantity)
		}
	}
	st.OnHand = st.Purchased.Sub(st.Used)
	return st
}

// Stock kinds
const (
	LevelRaw       = "raw"
	LevelProcessed = "processed"
	LevelKitchen   = "kitchen"
)

// Level is a product's stock and everything that ever flowed in.
type Level struct {
	Kind      string        `json:"kind"`
	ProductID int64         `json:"product_id"`
	Name      string        `json:"name"`
	Unit      string        `json:"unit"`
	Stock     core.Quantity `json:"stock"`
	Inflow    core.Quantity `json:"inflow"`
	Threshold core.Quantity `json:"threshold"`
}

// Policy holds the low-stock thresholds.
type Policy struct {
	RawLowFloor     decimal.Decimal
	RawLowRatio     decimal.Decimal
	KitchenLowFloor decimal.Decimal
}

func PolicyFrom(conf core.InventoryConfig) Policy {
	return Policy{RawLowFloor: conf.RawLowFloor, RawLowRatio: conf.RawLowRatio, KitchenLowFloor: conf.KitchenLowFloor}
}

// LowStock returns the levels at or below their threshold: max(floor, inflow × ratio) for raw and
// processed products, the kitchen floor for kitchen products.
func LowStock(levels []Level, policy Policy) []Level {
	low := []Level{}
	for _, l := range levels {
		var threshold core.Quantity
		if l.Kind == LevelKitchen {
			threshold = core.Q(policy.KitchenLowFloor)
		} else {
			threshold = core.Q(policy.RawLowFloor).Max(l.Inflow.MulRate(policy.RawLowRatio))
		}
		if l.Stock.LessThanOrEqual(threshold) {
			l.Threshold = threshold.R2()
			low = append(low, l)
		}
	}
	return low
}
