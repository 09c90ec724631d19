package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/core/report"
)

func registerReportAPI(g *echo.Group, svc *report.Service) {
	g.GET("/reports/ledger/:year", yearLedger(svc), roleMiddleware(RoleBursar))
}

func yearLedger(svc *report.Service) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		year, err := strconv.Atoi(ctx.Param("year"))
		if err != nil {
			return core.NewFieldError("year", "must be a year, e.g. 2025")
		}
		l, err := svc.YearLedger(ctx.Request().Context(), year)
		if err != nil {
			return errors.Wrap(err, "building year ledger")
		}
		return ctx.JSON(http.StatusOK, l)
	}
}
