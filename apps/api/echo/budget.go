package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kizito-simon15/montessori-sub000/core/budget"
)

type budgetApi struct {
	svc *budget.Service
}

func registerBudgetAPI(g *echo.Group, svc *budget.Service) {
	api := budgetApi{svc: svc}

	bg := g.Group("/budgets", roleMiddleware(RoleBursar))
	bg.GET("", api.query)
	bg.POST("", api.allocate)
	bg.GET("/summaries", api.summaries)
	bg.GET("/:id", api.retrieve)
	bg.PUT("/:id", api.update)
	bg.DELETE("/:id", api.destroy)

	bg.GET("/lines", api.queryLines)
	bg.POST("/lines", api.createLine)
	bg.PUT("/lines/:id", api.updateLine)
	bg.DELETE("/lines/:id", api.destroyLine)

	eg := g.Group("/expenditures", roleMiddleware(RoleBursar))
	eg.GET("", api.queryExpenditures)
	eg.POST("", api.recordExpenditure)
	eg.GET("/:id", api.retrieveExpenditure)
	eg.PUT("/:id", api.updateExpenditure)
	eg.DELETE("/:id", api.destroyExpenditure)
}

type LineRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (api *budgetApi) query(ctx echo.Context) error {
	sessionID, err := queryInt64(ctx, "session_id")
	if err != nil {
		return err
	}
	budgets, err := api.svc.ListBudgets(ctx.Request().Context(), sessionID)
	if err != nil {
		return errors.Wrap(err, "listing budgets")
	}
	if budgets == nil {
		budgets = []budget.Budget{}
	}
	return ctx.JSON(http.StatusOK, budgets)
}

func (api *budgetApi) allocate(ctx echo.Context) error {
	var data budget.Input
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to budget Input")
	}
	b, err := api.svc.Allocate(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "allocating budget")
	}
	return ctx.JSON(http.StatusCreated, b)
}

// retrieve returns the budget with its derived usage.
func (api *budgetApi) retrieve(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	sum, err := api.svc.Summary(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "summarising budget")
	}
	return ctx.JSON(http.StatusOK, sum)
}

func (api *budgetApi) summaries(ctx echo.Context) error {
	sessionID, err := queryInt64(ctx, "session_id")
	if err != nil {
		return err
	}
	sums, err := api.svc.Summaries(ctx.Request().Context(), sessionID)
	if err != nil {
		return errors.Wrap(err, "summarising budgets")
	}
	if sums == nil {
		sums = []budget.Summary{}
	}
	return ctx.JSON(http.StatusOK, sums)
}

func (api *budgetApi) update(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data budget.Input
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to budget Input")
	}
	b, err := api.svc.UpdateBudget(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating budget")
	}
	return ctx.JSON(http.StatusOK, b)
}

func (api *budgetApi) destroy(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteBudget(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting budget")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Lines

func (api *budgetApi) queryLines(ctx echo.Context) error {
	lines, err := api.svc.ListLines(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing budget lines")
	}
	if lines == nil {
		lines = []budget.Line{}
	}
	return ctx.JSON(http.StatusOK, lines)
}

func (api *budgetApi) createLine(ctx echo.Context) error {
	var data LineRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LineRequest")
	}
	l, err := api.svc.CreateLine(ctx.Request().Context(), data.Name, data.Description)
	if err != nil {
		return errors.Wrap(err, "creating budget line")
	}
	return ctx.JSON(http.StatusCreated, l)
}

func (api *budgetApi) updateLine(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data LineRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LineRequest")
	}
	l, err := api.svc.UpdateLine(ctx.Request().Context(), id, data.Name, data.Description)
	if err != nil {
		return errors.Wrap(err, "updating budget line")
	}
	return ctx.JSON(http.StatusOK, l)
}

func (api *budgetApi) destroyLine(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteLine(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting budget line")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Expenditures

func (api *budgetApi) queryExpenditures(ctx echo.Context) error {
	filter := new(budget.ExpenditureFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []budget.Expenditure{})
	}
	var dates DateRange
	if err := dates.Bind(ctx); err != nil {
		return err
	}
	filter.From, filter.To = dates.From, dates.To

	exps, err := api.svc.ListExpenditures(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "listing expenditures")
	}
	if exps == nil {
		exps = []budget.Expenditure{}
	}
	return ctx.JSON(http.StatusOK, exps)
}

func (api *budgetApi) recordExpenditure(ctx echo.Context) error {
	var data budget.ExpenditureInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ExpenditureInput")
	}
	exp, err := api.svc.RecordExpenditure(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "recording expenditure")
	}
	return ctx.JSON(http.StatusCreated, exp)
}

func (api *budgetApi) retrieveExpenditure(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	exp, err := api.svc.GetExpenditure(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting expenditure")
	}
	return ctx.JSON(http.StatusOK, exp)
}

func (api *budgetApi) updateExpenditure(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data budget.ExpenditureInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ExpenditureInput")
	}
	exp, err := api.svc.UpdateExpenditure(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating expenditure")
	}
	return ctx.JSON(http.StatusOK, exp)
}

func (api *budgetApi) destroyExpenditure(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteExpenditure(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting expenditure")
	}
	return ctx.NoContent(http.StatusNoContent)
}
