package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kizito-simon15/montessori-sub000/core/school"
)

type schoolApi struct {
	svc *school.Service
}

func registerSchoolAPI(g *echo.Group, svc *school.Service) {
	api := schoolApi{svc: svc}
	admin := roleMiddleware()

	pg := g.Group("/periods")
	pg.GET("", api.queryPeriods)
	pg.POST("", api.createPeriod, admin)
	pg.GET("/current", api.currentCycle)
	pg.GET("/:id", api.retrievePeriod)
	pg.PUT("/:id", api.renamePeriod, admin)
	pg.DELETE("/:id", api.destroyPeriod, admin)
	pg.POST("/:id/current", api.setCurrent, admin)

	cg := g.Group("/classes")
	cg.GET("", api.queryClasses)
	cg.POST("", api.createClass, admin)
	cg.GET("/:id", api.retrieveClass)
	cg.PUT("/:id", api.renameClass, admin)
	cg.DELETE("/:id", api.destroyClass, admin)
	cg.POST("/:id/complete", api.completeClass, admin)

	sg := g.Group("/subjects")
	sg.GET("", api.querySubjects)
	sg.POST("", api.createSubject, admin)
	sg.PUT("/:id", api.renameSubject, admin)
	sg.DELETE("/:id", api.destroySubject, admin)

	stg := g.Group("/students")
	stg.GET("", api.queryStudents)
	stg.POST("", api.createStudent, admin)
	stg.POST("/import", api.importStudents, admin)
	stg.POST("/promote", api.promote, admin)
	stg.GET("/:id", api.retrieveStudent)
	stg.PUT("/:id", api.updateStudent, admin)

	ag := g.Group("/assignments")
	ag.GET("", api.queryAssignments)
	ag.POST("", api.assignTerm, admin)
	ag.POST("/current", api.assignCurrentTerm, admin)

	fg := g.Group("/staff", admin)
	fg.GET("", api.queryStaff)
	fg.POST("", api.createStaff)
	fg.GET("/:id", api.retrieveStaff)
	fg.PUT("/:id", api.updateStaff)
}

type (
	NameRequest struct {
		Name string `json:"name"`
	}

	PromoteRequest struct {
		IDs     []int64 `json:"ids"`
		ClassID int64   `json:"class_id"`
	}

	AssignRequest struct {
		StudentID int64 `json:"student_id"`
		SessionID int64 `json:"session_id"`
		TermID    int64 `json:"term_id"`
	}
)

// Periods

func (api *schoolApi) queryPeriods(ctx echo.Context) error {
	periods, err := api.svc.ListPeriods(ctx.Request().Context(), school.PeriodKind(ctx.QueryParam("kind")))
	if err != nil {
		return errors.Wrap(err, "listing periods")
	}
	if periods == nil {
		periods = []school.Period{}
	}
	return ctx.JSON(http.StatusOK, periods)
}

func (api *schoolApi) createPeriod(ctx echo.Context) error {
	var data school.PeriodInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PeriodInput")
	}
	p, err := api.svc.CreatePeriod(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating period")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *schoolApi) retrievePeriod(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	p, err := api.svc.GetPeriod(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting period")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *schoolApi) renamePeriod(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data NameRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NameRequest")
	}
	p, err := api.svc.UpdatePeriod(ctx.Request().Context(), id, data.Name)
	if err != nil {
		return errors.Wrap(err, "renaming period")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *schoolApi) destroyPeriod(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeletePeriod(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting period")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *schoolApi) setCurrent(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	p, err := api.svc.GetPeriod(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting period")
	}
	if _, err = api.svc.SetCurrent(ctx.Request().Context(), p.Kind, p.ID); err != nil {
		return errors.Wrap(err, "setting current period")
	}
	return api.currentCycle(ctx)
}

func (api *schoolApi) currentCycle(ctx echo.Context) error {
	cycle, err := api.svc.CurrentCycle(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting current cycle")
	}
	return ctx.JSON(http.StatusOK, cycle)
}

// Classes & subjects

func (api *schoolApi) queryClasses(ctx echo.Context) error {
	classes, err := api.svc.ListClasses(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing classes")
	}
	if classes == nil {
		classes = []school.Class{}
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *schoolApi) createClass(ctx echo.Context) error {
	var data NameRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NameRequest")
	}
	c, err := api.svc.CreateClass(ctx.Request().Context(), data.Name)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *schoolApi) retrieveClass(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	c, err := api.svc.GetClass(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting class")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *schoolApi) renameClass(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data NameRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NameRequest")
	}
	c, err := api.svc.RenameClass(ctx.Request().Context(), id, data.Name)
	if err != nil {
		return errors.Wrap(err, "renaming class")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *schoolApi) destroyClass(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteClass(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *schoolApi) completeClass(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	students, err := api.svc.CompleteClass(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "completing class")
	}
	if students == nil {
		students = []school.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *schoolApi) querySubjects(ctx echo.Context) error {
	subjects, err := api.svc.ListSubjects(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing subjects")
	}
	if subjects == nil {
		subjects = []school.Subject{}
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *schoolApi) createSubject(ctx echo.Context) error {
	var data NameRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NameRequest")
	}
	sub, err := api.svc.CreateSubject(ctx.Request().Context(), data.Name)
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *schoolApi) renameSubject(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data NameRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NameRequest")
	}
	sub, err := api.svc.RenameSubject(ctx.Request().Context(), id, data.Name)
	if err != nil {
		return errors.Wrap(err, "renaming subject")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *schoolApi) destroySubject(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteSubject(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Students

func (api *schoolApi) queryStudents(ctx echo.Context) error {
	filter := new(school.StudentFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []school.Student{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	students, err := api.svc.ListStudents(ctx.Request().Context(), *filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "listing students")
	}
	if students == nil {
		students = []school.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *schoolApi) createStudent(ctx echo.Context) error {
	var data school.StudentInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StudentInput")
	}
	std, err := api.svc.CreateStudent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, std)
}

func (api *schoolApi) retrieveStudent(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	std, err := api.svc.GetStudent(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *schoolApi) updateStudent(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data school.StudentInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StudentInput")
	}
	std, err := api.svc.UpdateStudent(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *schoolApi) promote(ctx echo.Context) error {
	var data PromoteRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PromoteRequest")
	}
	students, err := api.svc.Promote(ctx.Request().Context(), data.IDs, data.ClassID)
	if err != nil {
		return errors.Wrap(err, "promoting students")
	}
	if students == nil {
		students = []school.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

// importStudents reads a CSV sent as the multipart `file` field.
func (api *schoolApi) importStudents(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return errors.Wrap(errMissingFile, err.Error())
	}
	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer func() { _ = f.Close() }()

	res, err := api.svc.ImportStudents(ctx.Request().Context(), f)
	if err != nil {
		return errors.Wrap(err, "importing students")
	}
	code := http.StatusCreated
	if len(res.Errors) > 0 {
		code = http.StatusBadRequest
	}
	return ctx.JSON(code, res)
}

// Assignments

func (api *schoolApi) queryAssignments(ctx echo.Context) error {
	sessionID, err := queryInt64(ctx, "session_id")
	if err != nil {
		return err
	}
	termID, err := queryInt64(ctx, "term_id")
	if err != nil {
		return err
	}
	assignments, err := api.svc.ListAssignments(ctx.Request().Context(), sessionID, termID)
	if err != nil {
		return errors.Wrap(err, "listing assignments")
	}
	if assignments == nil {
		assignments = []school.Assignment{}
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *schoolApi) assignTerm(ctx echo.Context) error {
	var data AssignRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignRequest")
	}
	a, err := api.svc.AssignTerm(ctx.Request().Context(), data.StudentID, data.SessionID, data.TermID)
	if err != nil {
		return errors.Wrap(err, "assigning term")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *schoolApi) assignCurrentTerm(ctx echo.Context) error {
	var data IDsRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to IDsRequest")
	}
	assignments, err := api.svc.AssignCurrentTerm(ctx.Request().Context(), data.IDs)
	if err != nil {
		return errors.Wrap(err, "assigning current term")
	}
	if assignments == nil {
		assignments = []school.Assignment{}
	}
	return ctx.JSON(http.StatusCreated, assignments)
}

// Staff

func (api *schoolApi) queryStaff(ctx echo.Context) error {
	filter := new(school.StaffFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []school.Staff{})
	}
	staff, err := api.svc.ListStaff(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "listing staff")
	}
	if staff == nil {
		staff = []school.Staff{}
	}
	return ctx.JSON(http.StatusOK, staff)
}

func (api *schoolApi) createStaff(ctx echo.Context) error {
	var data school.StaffInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StaffInput")
	}
	stf, err := api.svc.CreateStaff(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating staff")
	}
	return ctx.JSON(http.StatusCreated, stf)
}

func (api *schoolApi) retrieveStaff(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	stf, err := api.svc.GetStaff(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting staff")
	}
	return ctx.JSON(http.StatusOK, stf)
}

func (api *schoolApi) updateStaff(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data school.StaffInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StaffInput")
	}
	stf, err := api.svc.UpdateStaff(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating staff")
	}
	return ctx.JSON(http.StatusOK, stf)
}
