package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kizito-simon15/montessori-sub000/core/results"
)

type resultsApi struct {
	svc *results.Service
}

func registerResultsAPI(g *echo.Group, svc *results.Service) {
	api := resultsApi{svc: svc}

	rg := g.Group("/results", roleMiddleware(RoleTeacher))
	rg.GET("", api.query)
	rg.POST("", api.save)
	rg.GET("/class-report", api.classReport)
	rg.GET("/subject-report", api.subjectReport)
	rg.GET("/infos", api.retrieveInfos)
	rg.PUT("/infos", api.saveInfos)
	rg.GET("/:id", api.retrieve)
	rg.DELETE("/:id", api.destroy)
}

func bindFilter(ctx echo.Context) (results.Filter, error) {
	var filter results.Filter
	if err := ctx.Bind(&filter); err != nil {
		return filter, errors.Wrap(err, "binding to results Filter")
	}
	return filter, nil
}

func (api *resultsApi) query(ctx echo.Context) error {
	filter, err := bindFilter(ctx)
	if err != nil {
		return ctx.JSON(http.StatusOK, []results.Result{})
	}
	res, err := api.svc.ListResults(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "listing results")
	}
	if res == nil {
		res = []results.Result{}
	}
	return ctx.JSON(http.StatusOK, res)
}

// save creates the result or replaces the existing one for the same student, exam and subject.
func (api *resultsApi) save(ctx echo.Context) error {
	var data results.ResultInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResultInput")
	}
	res, err := api.svc.SaveResult(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "saving result")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *resultsApi) retrieve(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	res, err := api.svc.GetResult(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting result")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *resultsApi) destroy(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteResult(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting result")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *resultsApi) classReport(ctx echo.Context) error {
	filter, err := bindFilter(ctx)
	if err != nil {
		return err
	}
	report, err := api.svc.ClassReport(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "building class report")
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *resultsApi) subjectReport(ctx echo.Context) error {
	filter, err := bindFilter(ctx)
	if err != nil {
		return err
	}
	subjects, err := api.svc.SubjectReport(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "building subject report")
	}
	if subjects == nil {
		subjects = []results.SubjectSummary{}
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *resultsApi) retrieveInfos(ctx echo.Context) error {
	filter, err := bindFilter(ctx)
	if err != nil {
		return err
	}
	infos, err := api.svc.GetInfos(ctx.Request().Context(), filter.StudentID, filter.SessionID, filter.TermID, filter.ExamID)
	if err != nil {
		return errors.Wrap(err, "getting report infos")
	}
	return ctx.JSON(http.StatusOK, infos)
}

func (api *resultsApi) saveInfos(ctx echo.Context) error {
	var data results.Infos
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Infos")
	}
	infos, err := api.svc.SaveInfos(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "saving report infos")
	}
	return ctx.JSON(http.StatusOK, infos)
}
