package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/core/payroll"
)

type payrollApi struct {
	svc *payroll.Service
}

func registerPayrollAPI(g *echo.Group, svc *payroll.Service) {
	api := payrollApi{svc: svc}

	pg := g.Group("/payroll", roleMiddleware(RoleBursar))
	pg.GET("/rates", api.rates)
	pg.GET("/slips", api.query)
	pg.POST("/slips", api.create)
	pg.GET("/slips/:id", api.retrieve)
	pg.PUT("/slips/:id", api.update)
	pg.DELETE("/slips/:id", api.destroy)
	pg.POST("/slips/:id/deductions", api.recordDeduction)
	pg.PUT("/slips/:id/deductions", api.upsertDeductions)
	pg.PUT("/deductions/:id", api.updateDeduction)
	pg.DELETE("/deductions/:id", api.destroyDeduction)
}

type DeductionResponse struct {
	Deduction payroll.Deduction `json:"deduction"`
	Slip      payroll.Slip      `json:"salary_invoice"`
}

func (api *payrollApi) rates(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.Rates())
}

func (api *payrollApi) query(ctx echo.Context) error {
	filter := new(payroll.SlipFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []payroll.Slip{})
	}
	if month := ctx.QueryParam("month"); month != "" {
		m, err := time.Parse("2006-01", month)
		if err != nil {
			return core.NewFieldError("month", "must be formatted as YYYY-MM")
		}
		filter.Month = m
	}

	slips, err := api.svc.ListSlips(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "listing salary slips")
	}
	if slips == nil {
		slips = []payroll.Slip{}
	}
	return ctx.JSON(http.StatusOK, slips)
}

func (api *payrollApi) create(ctx echo.Context) error {
	var data payroll.SlipInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SlipInput")
	}
	slip, err := api.svc.SaveSlip(ctx.Request().Context(), 0, data)
	if err != nil {
		return errors.Wrap(err, "creating salary slip")
	}
	return ctx.JSON(http.StatusCreated, slip)
}

func (api *payrollApi) retrieve(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	slip, err := api.svc.GetSlip(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting salary slip")
	}
	return ctx.JSON(http.StatusOK, slip)
}

func (api *payrollApi) update(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data payroll.SlipInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SlipInput")
	}
	slip, err := api.svc.SaveSlip(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating salary slip")
	}
	return ctx.JSON(http.StatusOK, slip)
}

func (api *payrollApi) destroy(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteSlip(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting salary slip")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Deductions

func (api *payrollApi) recordDeduction(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data payroll.DeductionInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DeductionInput")
	}
	ded, slip, err := api.svc.RecordDeduction(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "recording deduction")
	}
	return ctx.JSON(http.StatusCreated, DeductionResponse{Deduction: ded, Slip: slip})
}

// upsertDeductions replaces the slip's deductions with the posted list.
func (api *payrollApi) upsertDeductions(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data []payroll.DeductionInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to []DeductionInput")
	}
	slip, err := api.svc.UpsertDeductions(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "saving deductions")
	}
	return ctx.JSON(http.StatusOK, slip)
}

func (api *payrollApi) updateDeduction(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data payroll.DeductionInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DeductionInput")
	}
	ded, slip, err := api.svc.UpdateDeduction(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating deduction")
	}
	return ctx.JSON(http.StatusOK, DeductionResponse{Deduction: ded, Slip: slip})
}

func (api *payrollApi) destroyDeduction(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	slip, err := api.svc.DeleteDeduction(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "deleting deduction")
	}
	return ctx.JSON(http.StatusOK, slip)
}
