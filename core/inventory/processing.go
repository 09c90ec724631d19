package inventory

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/kizito-simon15/montessori-sub000/core"
)

// CreateProcessedProduct requires a processable source product.
func (svc *Service) CreateProcessedProduct(ctx context.Context, in ProcessedProductInput) (ProcessedProduct, error) {
	if err := in.Validate(svc.validate); err != nil {
		return ProcessedProduct{}, err
	}
	src, err := svc.repo.GetSeasonalProduct(ctx, in.SourceProductID)
	if err != nil {
		return ProcessedProduct{}, err
	}
	if !src.Processable {
		return ProcessedProduct{}, errors.Wrapf(ErrNotProcessable, "%s", src.Name)
	}
	return svc.repo.CreateProcessedProduct(ctx, ProcessedProduct{
		Name:            in.Name,
		SourceProductID: in.SourceProductID,
		Unit:            in.Unit,
		CreatedAt:       core.NowFunc().UTC(),
	})
}

func (svc *Service) UpdateProcessedProduct(ctx context.Context, id int64, in ProcessedProductInput) (ProcessedProduct, error) {
	if err := in.Validate(svc.validate); err != nil {
		return ProcessedProduct{}, err
	}
	var p ProcessedProduct
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		if p, err = svc.repo.LockProcessedProduct(ctx, id); err != nil {
			return err
		}
		if in.SourceProductID != p.SourceProductID {
			batches, err := svc.repo.ListBatches(ctx, BatchFilter{ProcessedProductID: id})
			if err != nil {
				return err
			}
			if len(batches) > 0 {
				return errors.Wrap(ErrProductInUse, "the product already has batches")
			}
			src, err := svc.repo.GetSeasonalProduct(ctx, in.SourceProductID)
			if err != nil {
				return err
			}
			if !src.Processable {
				return errors.Wrapf(ErrNotProcessable, "%s", src.Name)
			}
		}
		p.Name, p.SourceProductID, p.Unit = in.Name, in.SourceProductID, in.Unit
		p, err = svc.repo.UpdateProcessedProduct(ctx, p)
		return err
	})
	return p, err
}

func (svc *Service) DeleteProcessedProduct(ctx context.Context, id int64) error {
	return svc.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := svc.repo.LockProcessedProduct(ctx, id); err != nil {
			return err
		}
		batches, err := svc.repo.ListBatches(ctx, BatchFilter{ProcessedProductID: id})
		if err != nil {
			return err
		}
		consumed, err := svc.repo.ListConsumptions(ctx, UsageFilter{ProductID: id})
		if err != nil {
			return err
		}
		if len(batches) > 0 || len(consumed) > 0 {
			return ErrProductInUse
		}
		return svc.repo.DeleteProcessedProduct(ctx, id)
	})
}

func (svc *Service) GetProcessedProduct(ctx context.Context, id int64) (ProcessedProduct, error) {
	return svc.repo.GetProcessedProduct(ctx, id)
}

func (svc *Service) ListProcessedProducts(ctx context.Context) ([]ProcessedProduct, error) {
	return svc.repo.ListProcessedProducts(ctx)
}

// RecordBatch turns raw stock of a purchase into a processed product. The input cannot exceed the
// purchase's remaining raw stock and the output cannot exceed the input. The processing fee is
// drawn from the purchase's budget.
func (svc *Service) RecordBatch(ctx context.Context, in BatchInput) (Batch, error) {
	if err := in.Validate(svc.validate); err != nil {
		return Batch{}, err
	}
	var b Batch
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		purchase, err := svc.repo.LockPurchase(ctx, in.PurchaseID)
		if err != nil {
			return err
		}
		pp, err := svc.repo.LockProcessedProduct(ctx, in.ProcessedProductID)
		if err != nil {
			return err
		}
		if pp.SourceProductID != purchase.ProductID {
			return errors.Wrapf(ErrSourceMismatch, "%s", pp.Name)
		}
		if in.OutputQuantity.GreaterThan(in.InputQuantity) {
			return ErrOutputExceedsInput
		}

		batches, err := svc.repo.ListBatches(ctx, BatchFilter{PurchaseID: purchase.ID})
		if err != nil {
			return err
		}
		remaining := StatusOf(purchase, batches).RawRemaining
		if in.InputQuantity.GreaterThan(remaining) {
			return errors.Wrapf(ErrInsufficientRaw, "remaining %s, requested %s", remaining, in.InputQuantity)
		}

		fee := in.ProcessingFee.R2()
		if err = svc.budgets.Draw(ctx, purchase.BudgetID, fee); err != nil {
			return err
		}
		b, err = svc.repo.CreateBatch(ctx, Batch{
			PurchaseID:         purchase.ID,
			ProcessedProductID: pp.ID,
			InputQuantity:      in.InputQuantity,
			OutputQuantity:     in.OutputQuantity,
			ProcessingFee:      fee,
			YieldPct:           YieldPct(in.InputQuantity, in.OutputQuantity),
			Date:               in.Date,
			Remarks:            in.Remarks,
			CreatedAt:          core.NowFunc().UTC(),
		})
		return err
	})
	if err == nil {
		svc.logger.Info(fmt.Sprintf("batch %d: %s raw -> %s of product %d (yield %s%%)", b.ID, b.InputQuantity, b.OutputQuantity, b.ProcessedProductID, b.YieldPct))
	}
	return b, err
}

// DeleteBatch returns the raw stock to the purchase unless its output was already consumed.
func (svc *Service) DeleteBatch(ctx context.Context, id int64) error {
	return svc.tx.InTx(ctx, func(ctx context.Context) error {
		b, err := svc.repo.GetBatch(ctx, id)
		if err != nil {
			return err
		}
		st, err := svc.lockedProcessedStock(ctx, b.ProcessedProductID)
		if err != nil {
			return err
		}
		if st.OnHand.LessThan(b.OutputQuantity) {
			return errors.Wrapf(ErrInsufficientStock, "only %s of %s on hand", st.OnHand, st.Product.Name)
		}
		return svc.repo.DeleteBatch(ctx, id)
	})
}

func (svc *Service) GetBatch(ctx context.Context, id int64) (Batch, error) {
	return svc.repo.GetBatch(ctx, id)
}

func (svc *Service) ListBatches(ctx context.Context, filter BatchFilter) ([]Batch, error) {
	return svc.repo.ListBatches(ctx, filter)
}

// lockedProcessedStock locks the processed product and reports its position.
func (svc *Service) lockedProcessedStock(ctx context.Context, id int64) (ProcessedStock, error) {
	pp, err := svc.repo.LockProcessedProduct(ctx, id)
	if err != nil {
		return ProcessedStock{}, err
	}
	return svc.processedStockOf(ctx, pp)
}

func (svc *Service) processedStockOf(ctx context.Context, pp ProcessedProduct) (ProcessedStock, error) {
	batches, err := svc.repo.ListBatches(ctx, BatchFilter{})
	if err != nil {
		return ProcessedStock{}, err
	}
	consumed, err := svc.repo.ListConsumptions(ctx, UsageFilter{ProductID: pp.ID})
	if err != nil {
		return ProcessedStock{}, err
	}
	purchases, err := svc.repo.ListPurchases(ctx, PurchaseFilter{ProductID: pp.SourceProductID})
	if err != nil {
		return ProcessedStock{}, err
	}
	raw := core.Q(0)
	for _, p := range purchases {
		raw = raw.Add(StatusOf(p, batches).RawRemaining)
	}
	return ProcessedStockOf(pp, batches, consumed, raw), nil
}

func (svc *Service) ProcessedStock(ctx context.Context, id int64) (ProcessedStock, error) {
	pp, err := svc.repo.GetProcessedProduct(ctx, id)
	if err != nil {
		return ProcessedStock{}, err
	}
	return svc.processedStockOf(ctx, pp)
}

func (svc *Service) ProcessedStocks(ctx context.Context) ([]ProcessedStock, error) {
	products, err := svc.repo.ListProcessedProducts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ProcessedStock, 0, len(products))
	for _, pp := range products {
		st, err := svc.processedStockOf(ctx, pp)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// RecordConsumption books the daily use of a processed product; it cannot exceed the stock on hand.
func (svc *Service) RecordConsumption(ctx context.Context, in UsageInput) (Consumption, error) {
	if err := in.Validate(svc.validate); err != nil {
		return Consumption{}, err
	}
	var c Consumption
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		st, err := svc.lockedProcessedStock(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if in.Quantity.GreaterThan(st.OnHand) {
			return errors.Wrapf(ErrInsufficientStock, "only %s of %s on hand", st.OnHand, st.Product.Name)
		}
		c, err = svc.repo.CreateConsumption(ctx, Consumption{
			ProcessedProductID: in.ProductID,
			Quantity:           in.Quantity,
			Date:               in.Date,
			RecordedBy:         in.RecordedBy,
			Remarks:            in.Remarks,
		})
		return err
	})
	return c, err
}

func (svc *Service) DeleteConsumption(ctx context.Context, id int64) error {
	return svc.repo.DeleteConsumption(ctx, id)
}

func (svc *Service) ListConsumptions(ctx context.Context, filter UsageFilter) ([]Consumption, error) {
	return svc.repo.ListConsumptions(ctx, filter)
}
