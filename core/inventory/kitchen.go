package inventory

import (
	"context"

	"github.com/pkg/errors"

	"github.com/kizito-simon15/montessori-sub000/core"
)

func (svc *Service) CreateKitchenProduct(ctx context.Context, in KitchenProductInput) (KitchenProduct, error) {
	if err := in.Validate(svc.validate); err != nil {
		return KitchenProduct{}, err
	}
	return svc.repo.CreateKitchenProduct(ctx, KitchenProduct{Name: in.Name, Unit: in.Unit, CreatedAt: core.NowFunc().UTC()})
}

func (svc *Service) UpdateKitchenProduct(ctx context.Context, id int64, in KitchenProductInput) (KitchenProduct, error) {
	if err := in.Validate(svc.validate); err != nil {
		return KitchenProduct{}, err
	}
	p, err := svc.repo.GetKitchenProduct(ctx, id)
	if err != nil {
		return KitchenProduct{}, err
	}
	p.Name, p.Unit = in.Name, in.Unit
	return svc.repo.UpdateKitchenProduct(ctx, p)
}

func (svc *Service) DeleteKitchenProduct(ctx context.Context, id int64) error {
	return svc.tx.InTx(ctx, func(ctx context.Context) error {
		st, err := svc.lockedKitchenStock(ctx, id)
		if err != nil {
			return err
		}
		if !st.Purchased.IsZero() || !st.Used.IsZero() {
			return ErrProductInUse
		}
		return svc.repo.DeleteKitchenProduct(ctx, id)
	})
}

func (svc *Service) GetKitchenProduct(ctx context.Context, id int64) (KitchenProduct, error) {
	return svc.repo.GetKitchenProduct(ctx, id)
}

func (svc *Service) ListKitchenProducts(ctx context.Context) ([]KitchenProduct, error) {
	return svc.repo.ListKitchenProducts(ctx)
}

// RecordKitchenPurchase stores the purchase and draws its cost from the budget.
func (svc *Service) RecordKitchenPurchase(ctx context.Context, in KitchenPurchaseInput) (KitchenPurchase, error) {
	if err := in.Validate(svc.validate); err != nil {
		return KitchenPurchase{}, err
	}
	var p KitchenPurchase
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := svc.repo.LockKitchenProduct(ctx, in.ProductID); err != nil {
			return err
		}
		p = KitchenPurchase{
			BudgetID:     in.BudgetID,
			ProductID:    in.ProductID,
			Quantity:     in.Quantity,
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
		p, err = svc.repo.CreateKitchenPurchase(ctx, p)
		return err
	})
	return p, err
}

// UpdateKitchenPurchase keeps the stock of the affected products non-negative.
func (svc *Service) UpdateKitchenPurchase(ctx context.Context, id int64, in KitchenPurchaseInput) (KitchenPurchase, error) {
	if err := in.Validate(svc.validate); err != nil {
		return KitchenPurchase{}, err
	}
	var p KitchenPurchase
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		old, err := svc.repo.GetKitchenPurchase(ctx, id)
		if err != nil {
			return err
		}
		st, err := svc.lockedKitchenStock(ctx, old.ProductID)
		if err != nil {
			return err
		}
		if in.ProductID != old.ProductID {
			if _, err = svc.repo.LockKitchenProduct(ctx, in.ProductID); err != nil {
				return err
			}
			if st.OnHand.LessThan(old.Quantity) {
				return errors.Wrapf(ErrInsufficientStock, "only %s of %s on hand", st.OnHand, st.Product.Name)
			}
		} else if st.OnHand.Sub(old.Quantity).Add(in.Quantity).IsNegative() {
			return errors.Wrapf(ErrInsufficientStock, "%s of %s was already used", st.Used, st.Product.Name)
		}

		p = old
		p.BudgetID = in.BudgetID
		p.ProductID = in.ProductID
		p.Quantity = in.Quantity
		p.PricePerUnit = in.PricePerUnit.R2()
		p.TotalCost = p.PricePerUnit.Mul(p.Quantity).R2()
		p.Date = in.Date
		if in.InvoiceFile != "" {
			p.InvoiceFile = in.InvoiceFile
		}
		if err = svc.budgets.Redraw(ctx, old.BudgetID, p.BudgetID, old.TotalCost, p.TotalCost); err != nil {
			return err
		}
		p, err = svc.repo.UpdateKitchenPurchase(ctx, p)
		return err
	})
	return p, err
}

// DeleteKitchenPurchase is refused when the purchased quantity was already used.
func (svc *Service) DeleteKitchenPurchase(ctx context.Context, id int64) error {
	return svc.tx.InTx(ctx, func(ctx context.Context) error {
		p, err := svc.repo.GetKitchenPurchase(ctx, id)
		if err != nil {
			return err
		}
		st, err := svc.lockedKitchenStock(ctx, p.ProductID)
		if err != nil {
			return err
		}
		if st.OnHand.LessThan(p.Quantity) {
			return errors.Wrapf(ErrInsufficientStock, "only %s of %s on hand", st.OnHand, st.Product.Name)
		}
		return svc.repo.DeleteKitchenPurchase(ctx, id)
	})
}

func (svc *Service) GetKitchenPurchase(ctx context.Context, id int64) (KitchenPurchase, error) {
	return svc.repo.GetKitchenPurchase(ctx, id)
}

func (svc *Service) ListKitchenPurchases(ctx context.Context, filter PurchaseFilter) ([]KitchenPurchase, error) {
	return svc.repo.ListKitchenPurchases(ctx, filter)
}

// RecordKitchenUsage books the daily use of a kitchen product; it cannot exceed the stock on hand.
func (svc *Service) RecordKitchenUsage(ctx context.Context, in UsageInput) (Usage, error) {
	if err := in.Validate(svc.validate); err != nil {
		return Usage{}, err
	}
	var u Usage
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		st, err := svc.lockedKitchenStock(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if in.Quantity.GreaterThan(st.OnHand) {
			return errors.Wrapf(ErrInsufficientStock, "only %s of %s on hand", st.OnHand, st.Product.Name)
		}
		u, err = svc.repo.CreateUsage(ctx, Usage{
			ProductID:  in.ProductID,
			Quantity:   in.Quantity,
			Date:       in.Date,
			RecordedBy: in.RecordedBy,
			Remarks:    in.Remarks,
		})
		return err
	})
	return u, err
}

func (svc *Service) DeleteKitchenUsage(ctx context.Context, id int64) error {
	return svc.repo.DeleteUsage(ctx, id)
}

func (svc *Service) ListKitchenUsage(ctx context.Context, filter UsageFilter) ([]Usage, error) {
	return svc.repo.ListUsage(ctx, filter)
}

func (svc *Service) lockedKitchenStock(ctx context.Context, id int64) (KitchenStock, error) {
	p, err := svc.repo.LockKitchenProduct(ctx, id)
	if err != nil {
		return KitchenStock{}, err
	}
	return svc.kitchenStockOf(ctx, p)
}

func (svc *Service) kitchenStockOf(ctx context.Context, p KitchenProduct) (KitchenStock, error) {
	purchases, err := svc.repo.ListKitchenPurchases(ctx, PurchaseFilter{ProductID: p.ID})
	if err != nil {
		return KitchenStock{}, err
	}
	usage, err := svc.repo.ListUsage(ctx, UsageFilter{ProductID: p.ID})
	if err != nil {
		return KitchenStock{}, err
	}
	return KitchenStockOf(p, purchases, usage), nil
}

func (svc *Service) KitchenStock(ctx context.Context, id int64) (KitchenStock, error) {
	p, err := svc.repo.GetKitchenProduct(ctx, id)
	if err != nil {
		return KitchenStock{}, err
	}
	return svc.kitchenStockOf(ctx, p)
}

func (svc *Service) KitchenStocks(ctx context.Context) ([]KitchenStock, error) {
	products, err := svc.repo.ListKitchenProducts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]KitchenStock, 0, len(products))
	for _, p := range products {
		st, err := svc.kitchenStockOf(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}
