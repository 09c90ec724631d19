package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kizito-simon15/montessori-sub000/core/inventory"
)

type inventoryApi struct {
	svc *inventory.Service
}

func registerInventoryAPI(g *echo.Group, svc *inventory.Service) {
	api := inventoryApi{svc: svc}

	ig := g.Group("/inventory", roleMiddleware(RoleStorekeeper, RoleBursar))
	ig.GET("/low-stock", api.lowStock)

	// seasonal (raw) products
	ig.GET("/seasonal/products", api.querySeasonalProducts)
	ig.POST("/seasonal/products", api.createSeasonalProduct)
	ig.GET("/seasonal/products/:id", api.retrieveSeasonalProduct)
	ig.PUT("/seasonal/products/:id", api.updateSeasonalProduct)
	ig.DELETE("/seasonal/products/:id", api.destroySeasonalProduct)
	ig.GET("/seasonal/stock", api.seasonalStocks)
	ig.GET("/seasonal/purchases", api.queryPurchases)
	ig.POST("/seasonal/purchases", api.recordPurchase)
	ig.GET("/seasonal/purchases/:id", api.retrievePurchase)
	ig.PUT("/seasonal/purchases/:id", api.updatePurchase)
	ig.DELETE("/seasonal/purchases/:id", api.destroyPurchase)

	// processing
	ig.GET("/processed/products", api.queryProcessedProducts)
	ig.POST("/processed/products", api.createProcessedProduct)
	ig.GET("/processed/products/:id", api.retrieveProcessedProduct)
	ig.PUT("/processed/products/:id", api.updateProcessedProduct)
	ig.DELETE("/processed/products/:id", api.destroyProcessedProduct)
	ig.GET("/processed/stock", api.processedStocks)
	ig.GET("/processed/batches", api.queryBatches)
	ig.POST("/processed/batches", api.recordBatch)
	ig.GET("/processed/batches/:id", api.retrieveBatch)
	ig.DELETE("/processed/batches/:id", api.destroyBatch)
	ig.GET("/processed/usage", api.queryConsumptions)
	ig.POST("/processed/usage", api.recordConsumption)
	ig.DELETE("/processed/usage/:id", api.destroyConsumption)

	// kitchen
	ig.GET("/kitchen/products", api.queryKitchenProducts)
	ig.POST("/kitchen/products", api.createKitchenProduct)
	ig.GET("/kitchen/products/:id", api.retrieveKitchenProduct)
	ig.PUT("/kitchen/products/:id", api.updateKitchenProduct)
	ig.DELETE("/kitchen/products/:id", api.destroyKitchenProduct)
	ig.GET("/kitchen/stock", api.kitchenStocks)
	ig.GET("/kitchen/purchases", api.queryKitchenPurchases)
	ig.POST("/kitchen/purchases", api.recordKitchenPurchase)
	ig.GET("/kitchen/purchases/:id", api.retrieveKitchenPurchase)
	ig.PUT("/kitchen/purchases/:id", api.updateKitchenPurchase)
	ig.DELETE("/kitchen/purchases/:id", api.destroyKitchenPurchase)
	ig.GET("/kitchen/usage", api.queryKitchenUsage)
	ig.POST("/kitchen/usage", api.recordKitchenUsage)
	ig.DELETE("/kitchen/usage/:id", api.destroyKitchenUsage)
}

func (api *inventoryApi) lowStock(ctx echo.Context) error {
	levels, err := api.svc.LowStock(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing low stock")
	}
	if levels == nil {
		levels = []inventory.Level{}
	}
	return ctx.JSON(http.StatusOK, levels)
}

// bindUsageFilter reads product_id, from and to.
func bindUsageFilter(ctx echo.Context) (inventory.UsageFilter, error) {
	var filter inventory.UsageFilter
	var err error
	if filter.ProductID, err = queryInt64(ctx, "product_id"); err != nil {
		return filter, err
	}
	var dates DateRange
	if err = dates.Bind(ctx); err != nil {
		return filter, err
	}
	filter.From, filter.To = dates.From, dates.To
	return filter, nil
}

func bindPurchaseFilter(ctx echo.Context) (inventory.PurchaseFilter, error) {
	var filter inventory.PurchaseFilter
	if err := ctx.Bind(&filter); err != nil {
		return filter, errors.Wrap(err, "binding to PurchaseFilter")
	}
	var dates DateRange
	if err := dates.Bind(ctx); err != nil {
		return filter, err
	}
	filter.From, filter.To = dates.From, dates.To
	return filter, nil
}

// Seasonal products

func (api *inventoryApi) querySeasonalProducts(ctx echo.Context) error {
	products, err := api.svc.ListSeasonalProducts(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing seasonal products")
	}
	if products == nil {
		products = []inventory.SeasonalProduct{}
	}
	return ctx.JSON(http.StatusOK, products)
}

func (api *inventoryApi) createSeasonalProduct(ctx echo.Context) error {
	var data inventory.SeasonalProductInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SeasonalProductInput")
	}
	p, err := api.svc.CreateSeasonalProduct(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating seasonal product")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *inventoryApi) retrieveSeasonalProduct(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	stock, err := api.svc.SeasonalStock(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting seasonal stock")
	}
	return ctx.JSON(http.StatusOK, stock)
}

func (api *inventoryApi) updateSeasonalProduct(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data inventory.SeasonalProductInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SeasonalProductInput")
	}
	p, err := api.svc.UpdateSeasonalProduct(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating seasonal product")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *inventoryApi) destroySeasonalProduct(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteSeasonalProduct(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting seasonal product")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *inventoryApi) seasonalStocks(ctx echo.Context) error {
	stocks, err := api.svc.SeasonalStocks(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing seasonal stock")
	}
	if stocks == nil {
		stocks = []inventory.SeasonalStock{}
	}
	return ctx.JSON(http.StatusOK, stocks)
}

// Seasonal purchases

func (api *inventoryApi) queryPurchases(ctx echo.Context) error {
	filter, err := bindPurchaseFilter(ctx)
	if err != nil {
		return err
	}
	purchases, err := api.svc.ListPurchases(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "listing purchases")
	}
	if purchases == nil {
		purchases = []inventory.PurchaseStatus{}
	}
	return ctx.JSON(http.StatusOK, purchases)
}

func (api *inventoryApi) recordPurchase(ctx echo.Context) error {
	var data inventory.PurchaseInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PurchaseInput")
	}
	p, err := api.svc.RecordPurchase(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "recording purchase")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *inventoryApi) retrievePurchase(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	p, err := api.svc.GetPurchase(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting purchase")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *inventoryApi) updatePurchase(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data inventory.PurchaseInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PurchaseInput")
	}
	p, err := api.svc.UpdatePurchase(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating purchase")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *inventoryApi) destroyPurchase(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeletePurchase(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting purchase")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Processed products

func (api *inventoryApi) queryProcessedProducts(ctx echo.Context) error {
	products, err := api.svc.ListProcessedProducts(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing processed products")
	}
	if products == nil {
		products = []inventory.ProcessedProduct{}
	}
	return ctx.JSON(http.StatusOK, products)
}

func (api *inventoryApi) createProcessedProduct(ctx echo.Context) error {
	var data inventory.ProcessedProductInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ProcessedProductInput")
	}
	p, err := api.svc.CreateProcessedProduct(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating processed product")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *inventoryApi) retrieveProcessedProduct(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	stock, err := api.svc.ProcessedStock(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting processed stock")
	}
	return ctx.JSON(http.StatusOK, stock)
}

func (api *inventoryApi) updateProcessedProduct(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data inventory.ProcessedProductInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ProcessedProductInput")
	}
	p, err := api.svc.UpdateProcessedProduct(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating processed product")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *inventoryApi) destroyProcessedProduct(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteProcessedProduct(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting processed product")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *inventoryApi) processedStocks(ctx echo.Context) error {
	stocks, err := api.svc.ProcessedStocks(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing processed stock")
	}
	if stocks == nil {
		stocks = []inventory.ProcessedStock{}
	}
	return ctx.JSON(http.StatusOK, stocks)
}

// Batches

func (api *inventoryApi) queryBatches(ctx echo.Context) error {
	filter := new(inventory.BatchFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []inventory.Batch{})
	}
	var dates DateRange
	if err := dates.Bind(ctx); err != nil {
		return err
	}
	filter.From, filter.To = dates.From, dates.To

	batches, err := api.svc.ListBatches(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "listing batches")
	}
	if batches == nil {
		batches = []inventory.Batch{}
	}
	return ctx.JSON(http.StatusOK, batches)
}

func (api *inventoryApi) recordBatch(ctx echo.Context) error {
	var data inventory.BatchInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BatchInput")
	}
	b, err := api.svc.RecordBatch(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "recording batch")
	}
	return ctx.JSON(http.StatusCreated, b)
}

func (api *inventoryApi) retrieveBatch(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	b, err := api.svc.GetBatch(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting batch")
	}
	return ctx.JSON(http.StatusOK, b)
}

func (api *inventoryApi) destroyBatch(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteBatch(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting batch")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Processed consumption

func (api *inventoryApi) queryConsumptions(ctx echo.Context) error {
	filter, err := bindUsageFilter(ctx)
	if err != nil {
		return err
	}
	rows, err := api.svc.ListConsumptions(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "listing consumptions")
	}
	if rows == nil {
		rows = []inventory.Consumption{}
	}
	return ctx.JSON(http.StatusOK, rows)
}

func (api *inventoryApi) recordConsumption(ctx echo.Context) error {
	var data inventory.UsageInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UsageInput")
	}
	data.RecordedBy = receivedBy(ctx)

	c, err := api.svc.RecordConsumption(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "recording consumption")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *inventoryApi) destroyConsumption(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteConsumption(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting consumption")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Kitchen

func (api *inventoryApi) queryKitchenProducts(ctx echo.Context) error {
	products, err := api.svc.ListKitchenProducts(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing kitchen products")
	}
	if products == nil {
		products = []inventory.KitchenProduct{}
	}
	return ctx.JSON(http.StatusOK, products)
}

func (api *inventoryApi) createKitchenProduct(ctx echo.Context) error {
	var data inventory.KitchenProductInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to KitchenProductInput")
	}
	p, err := api.svc.CreateKitchenProduct(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating kitchen product")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *inventoryApi) retrieveKitchenProduct(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	stock, err := api.svc.KitchenStock(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting kitchen stock")
	}
	return ctx.JSON(http.StatusOK, stock)
}

func (api *inventoryApi) updateKitchenProduct(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data inventory.KitchenProductInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to KitchenProductInput")
	}
	p, err := api.svc.UpdateKitchenProduct(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating kitchen product")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *inventoryApi) destroyKitchenProduct(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteKitchenProduct(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting kitchen product")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *inventoryApi) kitchenStocks(ctx echo.Context) error {
	stocks, err := api.svc.KitchenStocks(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing kitchen stock")
	}
	if stocks == nil {
		stocks = []inventory.KitchenStock{}
	}
	return ctx.JSON(http.StatusOK, stocks)
}

func (api *inventoryApi) queryKitchenPurchases(ctx echo.Context) error {
	filter, err := bindPurchaseFilter(ctx)
	if err != nil {
		return err
	}
	purchases, err := api.svc.ListKitchenPurchases(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "listing kitchen purchases")
	}
	if purchases == nil {
		purchases = []inventory.KitchenPurchase{}
	}
	return ctx.JSON(http.StatusOK, purchases)
}

func (api *inventoryApi) recordKitchenPurchase(ctx echo.Context) error {
	var data inventory.KitchenPurchaseInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to KitchenPurchaseInput")
	}
	p, err := api.svc.RecordKitchenPurchase(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "recording kitchen purchase")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *inventoryApi) retrieveKitchenPurchase(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	p, err := api.svc.GetKitchenPurchase(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting kitchen purchase")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *inventoryApi) updateKitchenPurchase(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data inventory.KitchenPurchaseInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to KitchenPurchaseInput")
	}
	p, err := api.svc.UpdateKitchenPurchase(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating kitchen purchase")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *inventoryApi) destroyKitchenPurchase(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteKitchenPurchase(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting kitchen purchase")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *inventoryApi) queryKitchenUsage(ctx echo.Context) error {
	filter, err := bindUsageFilter(ctx)
	if err != nil {
		return err
	}
	rows, err := api.svc.ListKitchenUsage(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "listing kitchen usage")
	}
	if rows == nil {
		rows = []inventory.Usage{}
	}
	return ctx.JSON(http.StatusOK, rows)
}

func (api *inventoryApi) recordKitchenUsage(ctx echo.Context) error {
	var data inventory.UsageInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UsageInput")
	}
	data.RecordedBy = receivedBy(ctx)

	u, err := api.svc.RecordKitchenUsage(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "recording kitchen usage")
	}
	return ctx.JSON(http.StatusCreated, u)
}

func (api *inventoryApi) destroyKitchenUsage(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteKitchenUsage(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting kitchen usage")
	}
	return ctx.NoContent(http.StatusNoContent)
}
