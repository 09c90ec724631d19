package inventory

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/core/budget"
)

type (
	Repository interface {
		CreateSeasonalProduct(ctx context.Context, p SeasonalProduct) (SeasonalProduct, error)
		UpdateSeasonalProduct(ctx context.Context, p SeasonalProduct) (SeasonalProduct, error)
		DeleteSeasonalProduct(ctx context.Context, id int64) error
		GetSeasonalProduct(ctx context.Context, id int64) (SeasonalProduct, error)
		ListSeasonalProducts(ctx context.Context) ([]SeasonalProduct, error)

		CreatePurchase(ctx context.Context, p Purchase) (Purchase, error)
		UpdatePurchase(ctx context.Context, p Purchase) (Purchase, error)
		// DeletePurchase removes the purchase and its processing batches.
		DeletePurchase(ctx context.Context, id int64) error
		GetPurchase(ctx context.Context, id int64) (Purchase, error)
		// LockPurchase fetches the purchase and holds its row lock until the surrounding transaction ends.
		LockPurchase(ctx context.Context, id int64) (Purchase, error)
		ListPurchases(ctx context.Context, filter PurchaseFilter) ([]Purchase, error)

		CreateProcessedProduct(ctx context.Context, p ProcessedProduct) (ProcessedProduct, error)
		UpdateProcessedProduct(ctx context.Context, p ProcessedProduct) (ProcessedProduct, error)
		DeleteProcessedProduct(ctx context.Context, id int64) error
		GetProcessedProduct(ctx context.Context, id int64) (ProcessedProduct, error)
		LockProcessedProduct(ctx context.Context, id int64) (ProcessedProduct, error)
		ListProcessedProducts(ctx context.Context) ([]ProcessedProduct, error)

		CreateBatch(ctx context.Context, b Batch) (Batch, error)
		DeleteBatch(ctx context.Context, id int64) error
		GetBatch(ctx context.Context, id int64) (Batch, error)
		ListBatches(ctx context.Context, filter BatchFilter) ([]Batch, error)

		// CreateConsumption returns ErrUsageExists when the product already has a record on that date.
		CreateConsumption(ctx context.Context, c Consumption) (Consumption, error)
		DeleteConsumption(ctx context.Context, id int64) error
		GetConsumption(ctx context.Context, id int64) (Consumption, error)
		ListConsumptions(ctx context.Context, filter UsageFilter) ([]Consumption, error)

		CreateKitchenProduct(ctx context.Context, p KitchenProduct) (KitchenProduct, error)
		UpdateKitchenProduct(ctx context.Context, p KitchenProduct) (KitchenProduct, error)
		DeleteKitchenProduct(ctx context.Context, id int64) error
		GetKitchenProduct(ctx context.Context, id int64) (KitchenProduct, error)
		LockKitchenProduct(ctx context.Context, id int64) (KitchenProduct, error)
		ListKitchenProducts(ctx context.Context) ([]KitchenProduct, error)

		CreateKitchenPurchase(ctx context.Context, p KitchenPurchase) (KitchenPurchase, error)
		UpdateKitchenPurchase(ctx context.Context, p KitchenPurchase) (KitchenPurchase, error)
		DeleteKitchenPurchase(ctx context.Context, id int64) error
		GetKitchenPurchase(ctx context.Context, id int64) (KitchenPurchase, error)
		ListKitchenPurchases(ctx context.Context, filter PurchaseFilter) ([]KitchenPurchase, error)

		// CreateUsage returns ErrUsageExists when the product already has a record on that date.
		CreateUsage(ctx context.Context, u Usage) (Usage, error)
		DeleteUsage(ctx context.Context, id int64) error
		GetUsage(ctx context.Context, id int64) (Usage, error)
		ListUsage(ctx context.Context, filter UsageFilter) ([]Usage, error)
	}

	Budgets interface {
		GetBudget(ctx context.Context, id int64) (budget.Budget, error)
		Draw(ctx context.Context, budgetID int64, delta core.Money) error
		Redraw(ctx context.Context, oldBudgetID, newBudgetID int64, oldCost, newCost core.Money) error
	}

	Service struct {
		repo     Repository
		tx       core.Transactor
		budgets  Budgets
		validate *validator.Validate
		policy   Policy
		logger   core.Logger
	}
)

func NewService(repo Repository, tx core.Transactor, budgets Budgets, validate *validator.Validate, conf *core.Config, logger core.Logger) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(tx, "tx"),
		vala.IsNotNil(budgets, "budgets"),
		vala.IsNotNil(validate, "validate"),
		vala.IsNotNil(conf, "conf"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Service{
		repo:     repo,
		tx:       tx,
		budgets:  budgets,
		validate: validate,
		policy:   PolicyFrom(conf.Inventory),
		logger:   logger,
	}
}

// Seasonal products

func (svc *Service) CreateSeasonalProduct(ctx context.Context, in SeasonalProductInput) (SeasonalProduct, error) {
	if err := in.Validate(svc.validate); err != nil {
		return SeasonalProduct{}, err
	}
	return svc.repo.CreateSeasonalProduct(ctx, SeasonalProduct{
		Name:        in.Name,
		Unit:        in.Unit,
		Processable: in.Processable,
		Description: in.Description,
		CreatedAt:   core.NowFunc().UTC(),
	})
}

func (svc *Service) UpdateSeasonalProduct(ctx context.Context, id int64, in SeasonalProductInput) (SeasonalProduct, error) {
	if err := in.Validate(svc.validate); err != nil {
		return SeasonalProduct{}, err
	}
	p, err := svc.repo.GetSeasonalProduct(ctx, id)
	if err != nil {
		return SeasonalProduct{}, err
	}
	p.Name, p.Unit, p.Processable, p.Description = in.Name, in.Unit, in.Processable, in.Description
	return svc.repo.UpdateSeasonalProduct(ctx, p)
}

// DeleteSeasonalProduct refuses products that were bought or are the source of a processed product.
func (svc *Service) DeleteSeasonalProduct(ctx context.Context, id int64) error {
	return svc.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := svc.repo.GetSeasonalProduct(ctx, id); err != nil {
			return err
		}
		purchases, err := svc.repo.ListPurchases(ctx, PurchaseFilter{ProductID: id})
		if err != nil {
			return err
		}
		if len(purchases) > 0 {
			return ErrProductInUse
		}
		processed, err := svc.repo.ListProcessedProducts(ctx)
		if err != nil {
			return err
		}
		for _, pp := range processed {
			if pp.SourceProductID == id {
				return ErrProductInUse
			}
		}
		return svc.repo.DeleteSeasonalProduct(ctx, id)
	})
}

func (svc *Service) GetSeasonalProduct(ctx context.Context, id int64) (SeasonalProduct, error) {
	return svc.repo.GetSeasonalProduct(ctx, id)
}

func (svc *Service) ListSeasonalProducts(ctx context.Context) ([]SeasonalProduct, error) {
	return svc.repo.ListSeasonalProducts(ctx)
}

// Seasonal purchases

// RecordPurchase stores a bag purchase, deriving its quantity and cost and drawing the cost from
// the budget.
func (svc *Service) RecordPurchase(ctx context.Context, in PurchaseInput) (Purchase, error) {
	if err := in.Validate(svc.validate); err != nil {
		return Purchase{}, err
	}
	var p Purchase
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := svc.repo.GetSeasonalProduct(ctx, in.ProductID); err != nil {
			return err
		}
		p = Purchase{
			BudgetID:     in.BudgetID,
			ProductID:    in.ProductID,
			BagsCount:    in.BagsCount,
			BagWeight:    in.BagWeight,
			Quantity:     PurchaseQuantity(in.BagsCount, in.BagWeight),
			PricePerUnit: in.PricePerUnit.R2(),
			Date:         in.Date,
			InvoiceFile:  in.InvoiceFile,
			CreatedAt:    core.NowFunc().UTC(),
		}
		p.TotalCost = p.PricePerUnit.Mul(p.Quantity).R2()
		if err := svc.budgets.Draw(ctx, p.BudgetID, p.TotalCost); err != nil {
			return err
		}
		var err error
		p, err = svc.repo.CreatePurchase(ctx, p)
		return err
	})
	if err == nil {
		svc.logger.Info(fmt.Sprintf("purchase %d recorded: %s of product %d for %s", p.ID, p.Quantity, p.ProductID, p.TotalCost))
	}
	return p, err
}

// UpdatePurchase cannot shrink a purchase below what was already processed from it.
// Moving the purchase to another budget moves its batches' processing fees too.
func (svc *Service) UpdatePurchase(ctx context.Context, id int64, in PurchaseInput) (Purchase, error) {
	if err := in.Validate(svc.validate); err != nil {
		return Purchase{}, err
	}
	var p Purchase
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		old, err := svc.repo.LockPurchase(ctx, id)
		if err != nil {
			return err
		}
		if _, err = svc.repo.GetSeasonalProduct(ctx, in.ProductID); err != nil {
			return err
		}
		batches, err := svc.repo.ListBatches(ctx, BatchFilter{PurchaseID: id})
		if err != nil {
			return err
		}
		if len(batches) > 0 && in.ProductID != old.ProductID {
			return errors.Wrap(ErrProductInUse, "the purchase was already processed")
		}

		p = old
		p.BudgetID = in.BudgetID
		p.ProductID = in.ProductID
		p.BagsCount = in.BagsCount
		p.BagWeight = in.BagWeight
		p.Quantity = PurchaseQuantity(in.BagsCount, in.BagWeight)
		p.PricePerUnit = in.PricePerUnit.R2()
		p.TotalCost = p.PricePerUnit.Mul(p.Quantity).R2()
		p.Date = in.Date
		if in.InvoiceFile != "" {
			p.InvoiceFile = in.InvoiceFile
		}

		processed := rawByPurchase(batches)[id]
		if p.Quantity.LessThan(processed) {
			return errors.Wrapf(ErrInsufficientRaw, "%s already processed from this purchase", processed)
		}
		// processing fees are charged to the purchase's budget and move with it
		fees := core.M(0)
		for _, b := range batches {
			fees = fees.Add(b.ProcessingFee)
		}
		if err = svc.budgets.Redraw(ctx, old.BudgetID, p.BudgetID, old.TotalCost.Add(fees), p.TotalCost.Add(fees)); err != nil {
			return err
		}
		p, err = svc.repo.UpdatePurchase(ctx, p)
		return err
	})
	return p, err
}

// DeletePurchase removes the purchase and its batches, as long as the processed stock those
// batches produced was not consumed.
func (svc *Service) DeletePurchase(ctx context.Context, id int64) error {
	return svc.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := svc.repo.LockPurchase(ctx, id); err != nil {
			return err
		}
		batches, err := svc.repo.ListBatches(ctx, BatchFilter{PurchaseID: id})
		if err != nil {
			return err
		}
		removed := make(map[int64]core.Quantity)
		for _, b := range batches {
			removed[b.ProcessedProductID] = removed[b.ProcessedProductID].Add(b.OutputQuantity)
		}
		for ppID, out := range removed {
			st, err := svc.lockedProcessedStock(ctx, ppID)
			if err != nil {
				return err
			}
			if st.OnHand.LessThan(out) {
				return errors.Wrapf(ErrInsufficientStock, "%s of %s was already consumed", out.Sub(st.OnHand), st.Product.Name)
			}
		}
		return svc.repo.DeletePurchase(ctx, id)
	})
}

func (svc *Service) GetPurchase(ctx context.Context, id int64) (PurchaseStatus, error) {
	p, err := svc.repo.GetPurchase(ctx, id)
	if err != nil {
		return PurchaseStatus{}, err
	}
	batches, err := svc.repo.ListBatches(ctx, BatchFilter{PurchaseID: id})
	if err != nil {
		return PurchaseStatus{}, err
	}
	return StatusOf(p, batches), nil
}

func (svc *Service) ListPurchases(ctx context.Context, filter PurchaseFilter) ([]PurchaseStatus, error) {
	purchases, err := svc.repo.ListPurchases(ctx, filter)
	if err != nil {
		return nil, err
	}
	batches, err := svc.repo.ListBatches(ctx, BatchFilter{})
	if err != nil {
		return nil, err
	}
	out := make([]PurchaseStatus, 0, len(purchases))
	for _, p := range purchases {
		out = append(out, StatusOf(p, batches))
	}
	return out, nil
}

// SeasonalStock reports the raw position and valuation of a product.
func (svc *Service) SeasonalStock(ctx context.Context, productID int64) (SeasonalStock, error) {
	product, err := svc.repo.GetSeasonalProduct(ctx, productID)
	if err != nil {
		return SeasonalStock{}, err
	}
	purchases, err := svc.repo.ListPurchases(ctx, PurchaseFilter{ProductID: productID})
	if err != nil {
		return SeasonalStock{}, err
	}
	batches, err := svc.repo.ListBatches(ctx, BatchFilter{})
	if err != nil {
		return SeasonalStock{}, err
	}
	return SeasonalStockOf(product, purchases, batches), nil
}

func (svc *Service) SeasonalStocks(ctx context.Context) ([]SeasonalStock, error) {
	products, err := svc.repo.ListSeasonalProducts(ctx)
	if err != nil {
		return nil, err
	}
	purchases, err := svc.repo.ListPurchases(ctx, PurchaseFilter{})
	if err != nil {
		return nil, err
	}
	batches, err := svc.repo.ListBatches(ctx, BatchFilter{})
	if err != nil {
		return nil, err
	}
	byProduct := make(map[int64][]Purchase)
	for _, p := range purchases {
		byProduct[p.ProductID] = append(byProduct[p.ProductID], p)
	}
	out := make([]SeasonalStock, 0, len(products))
	for _, product := range products {
		out = append(out, SeasonalStockOf(product, byProduct[product.ID], batches))
	}
	return out, nil
}

// LowStock lists the raw, processed and kitchen products at or below their threshold.
func (svc *Service) LowStock(ctx context.Context) ([]Level, error) {
	var levels []Level

	seasonal, err := svc.SeasonalStocks(ctx)
	if err != nil {
		return nil, err
	}
	for _, st := range seasonal {
		levels = append(levels, Level{
			Kind: LevelRaw, ProductID: st.Product.ID, Name: st.Product.Name, Unit: st.Product.Unit,
			Stock: st.Raw, Inflow: st.Purchased,
		})
	}

	processed, err := svc.ProcessedStocks(ctx)
	if err != nil {
		return nil, err
	}
	for _, st := range processed {
		levels = append(levels, Level{
			Kind: LevelProcessed, ProductID: st.Product.ID, Name: st.Product.Name, Unit: st.Product.Unit,
			Stock: st.OnHand, Inflow: st.Produced,
		})
	}

	kitchen, err := svc.KitchenStocks(ctx)
	if err != nil {
		return nil, err
	}
	for _, st := range kitchen {
		levels = append(levels, Level{
			Kind: LevelKitchen, ProductID: st.Product.ID, Name: st.Product.Name, Unit: st.Product.Unit,
			Stock: st.OnHand, Inflow: st.Purchased,
		})
	}

	return LowStock(levels, svc.policy), nil
}
