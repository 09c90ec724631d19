package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/core/budget"
	"github.com/kizito-simon15/montessori-sub000/core/fees"
	"github.com/kizito-simon15/montessori-sub000/core/inventory"
	"github.com/kizito-simon15/montessori-sub000/core/ledger"
	"github.com/kizito-simon15/montessori-sub000/core/payroll"
	"github.com/kizito-simon15/montessori-sub000/core/report"
	"github.com/kizito-simon15/montessori-sub000/core/results"
	"github.com/kizito-simon15/montessori-sub000/core/school"
)

type Options struct {
	Conf           *core.Config
	Logger         core.Logger
	Translator     ut.Translator
	Files          core.FileStore
	DisableReqLogs bool

	School    *school.Service
	Fees      *fees.Service
	Ledger    *ledger.Service
	Budget    *budget.Service
	Payroll   *payroll.Service
	Results   *results.Service
	Inventory *inventory.Service
	Report    *report.Service
}

type Server struct {
	opts     *Options
	app      *echo.Echo
	errors   chan error
	shutdown chan os.Signal
}

func NewServer(opts *Options) *Server {
	s := &Server{
		opts:     opts,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	if !opts.Conf.TestMode {
		signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.opts.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1", middleware.JWTWithConfig(jwtConfig(conf.SecretKey)), actorMiddleware)
	v1.POST("/auth/refresh", s.refreshToken)

	registerSchoolAPI(v1, s.opts.School)
	registerFeesAPI(v1, s.opts.Fees)
	registerLedgerAPI(v1, s.opts.Ledger)
	registerBudgetAPI(v1, s.opts.Budget)
	registerPayrollAPI(v1, s.opts.Payroll)
	registerResultsAPI(v1, s.opts.Results)
	registerInventoryAPI(v1, s.opts.Inventory)
	registerReportAPI(v1, s.opts.Report)
	registerFilesAPI(v1, s.opts.Files)
}

// Start serves until the listener fails; the error is reported on Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.opts.Conf.Server.Host); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.opts.Conf.AppName+" API!")
}

// refreshToken issues a new token for a still active staff member.
func (s *Server) refreshToken(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	stf, err := s.opts.School.GetStaff(ctx.Request().Context(), claims.Actor().StaffID)
	if err != nil {
		if core.KindOf(err) == core.KindNotFound {
			return errUnauthorized
		}
		return errors.Wrap(err, "getting staff")
	}
	if stf.Status != school.StatusActive {
		return errStaffInactive
	}
	token, err := GenerateToken(NewClaims(stf, claims.Role, s.opts.Conf), s.opts.Conf.SecretKey)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

type (
	TokenResponse struct {
		Token string `json:"token"`
	}

	// IDsRequest carries a list of ids in a JSON body.
	IDsRequest struct {
		IDs []int64 `json:"ids"`
	}
)
