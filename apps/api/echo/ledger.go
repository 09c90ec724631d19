package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/core/ledger"
)

type ledgerApi struct {
	svc *ledger.Service
}

func registerLedgerAPI(g *echo.Group, svc *ledger.Service) {
	api := ledgerApi{svc: svc}
	bursar := roleMiddleware(RoleBursar)

	ig := g.Group("/invoices", bursar)
	ig.GET("", api.queryInvoices)
	ig.POST("", api.createInvoice)
	ig.GET("/summaries", api.summaries)
	ig.GET("/:id", api.retrieveInvoice)
	ig.PUT("/:id", api.updateInvoice)
	ig.DELETE("/:id", api.destroyInvoice)
	ig.POST("/:id/items", api.addItem)
	ig.DELETE("/items/:id", api.destroyItem)

	rg := g.Group("/receipts", bursar)
	rg.GET("", api.queryReceipts)
	rg.POST("", api.postReceipt)
	rg.GET("/:id", api.retrieveReceipt)
	rg.PUT("/:id", api.updateReceipt)
	rg.DELETE("/:id", api.destroyReceipt)

	g.POST("/payments", api.allocatePayment, bursar)
}

// receivedBy is the staff id behind the request.
func receivedBy(ctx echo.Context) null.Int64 {
	if actor, ok := core.ActorFrom(ctx.Request().Context()); ok {
		return null.Int64From(actor.StaffID)
	}
	return null.Int64{}
}

func (api *ledgerApi) queryInvoices(ctx echo.Context) error {
	filter := new(ledger.InvoiceFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []ledger.Invoice{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	invoices, err := api.svc.ListInvoices(ctx.Request().Context(), *filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "listing invoices")
	}
	if invoices == nil {
		invoices = []ledger.Invoice{}
	}
	return ctx.JSON(http.StatusOK, invoices)
}

func (api *ledgerApi) createInvoice(ctx echo.Context) error {
	var data ledger.NewInvoice
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewInvoice")
	}
	inv, err := api.svc.CreateInvoice(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating invoice")
	}
	return ctx.JSON(http.StatusCreated, inv)
}

func (api *ledgerApi) retrieveInvoice(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	inv, err := api.svc.GetInvoice(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting invoice")
	}
	return ctx.JSON(http.StatusOK, inv)
}

func (api *ledgerApi) updateInvoice(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data ledger.InvoiceUpdate
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to InvoiceUpdate")
	}
	inv, err := api.svc.UpdateInvoice(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating invoice")
	}
	return ctx.JSON(http.StatusOK, inv)
}

func (api *ledgerApi) destroyInvoice(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteInvoice(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting invoice")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *ledgerApi) addItem(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data ledger.ItemInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ItemInput")
	}
	item, err := api.svc.AddItem(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "adding invoice item")
	}
	return ctx.JSON(http.StatusCreated, item)
}

func (api *ledgerApi) destroyItem(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteItem(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting invoice item")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *ledgerApi) summaries(ctx echo.Context) error {
	filter := new(ledger.InvoiceFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []ledger.StudentSummary{})
	}
	sums, err := api.svc.StudentSummaries(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "summarising invoices")
	}
	if sums == nil {
		sums = []ledger.StudentSummary{}
	}
	return ctx.JSON(http.StatusOK, sums)
}

// Receipts

func (api *ledgerApi) queryReceipts(ctx echo.Context) error {
	filter := new(ledger.ReceiptFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []ledger.Receipt{})
	}
	var dates DateRange
	if err := dates.Bind(ctx); err != nil {
		return err
	}
	filter.From, filter.To = dates.From, dates.To

	receipts, err := api.svc.ListReceipts(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "listing receipts")
	}
	if receipts == nil {
		receipts = []ledger.Receipt{}
	}
	return ctx.JSON(http.StatusOK, receipts)
}

func (api *ledgerApi) postReceipt(ctx echo.Context) error {
	var data ledger.ReceiptInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReceiptInput")
	}
	data.ReceivedBy = receivedBy(ctx)

	r, err := api.svc.PostReceipt(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "posting receipt")
	}
	return ctx.JSON(http.StatusCreated, r)
}

func (api *ledgerApi) retrieveReceipt(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	r, err := api.svc.GetReceipt(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting receipt")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *ledgerApi) updateReceipt(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data ledger.ReceiptUpdate
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReceiptUpdate")
	}
	r, err := api.svc.UpdateReceipt(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating receipt")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *ledgerApi) destroyReceipt(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteReceipt(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting receipt")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *ledgerApi) allocatePayment(ctx echo.Context) error {
	var data ledger.AllocationInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AllocationInput")
	}
	data.ReceivedBy = receivedBy(ctx)

	receipts, err := api.svc.AllocatePayment(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "allocating payment")
	}
	return ctx.JSON(http.StatusCreated, receipts)
}
