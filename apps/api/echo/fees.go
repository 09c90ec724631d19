package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kizito-simon15/montessori-sub000/core/fees"
)

type feesApi struct {
	svc *fees.Service
}

func registerFeesAPI(g *echo.Group, svc *fees.Service) {
	api := feesApi{svc: svc}

	tg := g.Group("/fee-tiers", roleMiddleware(RoleBursar))
	tg.GET("", api.queryTiers)
	tg.POST("", api.createTier)
	tg.GET("/:id", api.retrieveTier)
	tg.PUT("/:id", api.updateTier)
	tg.DELETE("/:id", api.destroyTier)

	ug := g.Group("/uniforms", roleMiddleware(RoleBursar))
	ug.GET("/types", api.queryUniformTypes)
	ug.POST("/types", api.createUniformType)
	ug.PUT("/types/:id", api.updateUniformType)
	ug.DELETE("/types/:id", api.destroyUniformType)
	ug.GET("", api.queryUniforms)
	ug.POST("", api.issueUniform)
	ug.DELETE("/:id", api.destroyUniform)
	ug.POST("/payments", api.recordPayment)
	ug.GET("/balance", api.balance)
}

// TierResponse is a tier with the amount each installment is billed.
type TierResponse struct {
	fees.Tier
	InstallmentAmount int64 `json:"installment_amount"`
}

func (api *feesApi) tierResponse(ctx echo.Context, tier fees.Tier) (TierResponse, error) {
	amount, err := api.svc.InstallmentAmount(ctx.Request().Context(), tier)
	if err != nil {
		return TierResponse{}, errors.Wrap(err, "computing installment amount")
	}
	return TierResponse{Tier: tier, InstallmentAmount: amount}, nil
}

func (api *feesApi) queryTiers(ctx echo.Context) error {
	sessionID, err := queryInt64(ctx, "session_id")
	if err != nil {
		return err
	}
	tiers, err := api.svc.ListTiers(ctx.Request().Context(), sessionID)
	if err != nil {
		return errors.Wrap(err, "listing fee tiers")
	}
	resp := make([]TierResponse, 0, len(tiers))
	for _, tier := range tiers {
		tr, err := api.tierResponse(ctx, tier)
		if err != nil {
			return err
		}
		resp = append(resp, tr)
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *feesApi) createTier(ctx echo.Context) error {
	var data fees.TierInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TierInput")
	}
	tier, err := api.svc.CreateTier(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating fee tier")
	}
	resp, err := api.tierResponse(ctx, tier)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, resp)
}

func (api *feesApi) retrieveTier(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	tier, err := api.svc.GetTier(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting fee tier")
	}
	resp, err := api.tierResponse(ctx, tier)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *feesApi) updateTier(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data fees.TierInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TierInput")
	}
	tier, err := api.svc.UpdateTier(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating fee tier")
	}
	resp, err := api.tierResponse(ctx, tier)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *feesApi) destroyTier(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteTier(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting fee tier")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Uniforms

func (api *feesApi) queryUniformTypes(ctx echo.Context) error {
	types, err := api.svc.ListUniformTypes(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing uniform types")
	}
	if types == nil {
		types = []fees.UniformType{}
	}
	return ctx.JSON(http.StatusOK, types)
}

func (api *feesApi) createUniformType(ctx echo.Context) error {
	var data fees.UniformTypeInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UniformTypeInput")
	}
	ut, err := api.svc.CreateUniformType(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating uniform type")
	}
	return ctx.JSON(http.StatusCreated, ut)
}

func (api *feesApi) updateUniformType(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data fees.UniformTypeInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UniformTypeInput")
	}
	ut, err := api.svc.UpdateUniformType(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating uniform type")
	}
	return ctx.JSON(http.StatusOK, ut)
}

func (api *feesApi) destroyUniformType(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteUniformType(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting uniform type")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *feesApi) queryUniforms(ctx echo.Context) error {
	filter := new(fees.UniformFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []fees.Uniform{})
	}
	uniforms, err := api.svc.ListUniforms(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "listing uniforms")
	}
	if uniforms == nil {
		uniforms = []fees.Uniform{}
	}
	return ctx.JSON(http.StatusOK, uniforms)
}

func (api *feesApi) issueUniform(ctx echo.Context) error {
	var data fees.IssueInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to IssueInput")
	}
	u, err := api.svc.IssueUniform(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "issuing uniform")
	}
	return ctx.JSON(http.StatusCreated, u)
}

func (api *feesApi) destroyUniform(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteUniform(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting uniform")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *feesApi) recordPayment(ctx echo.Context) error {
	var data fees.PaymentInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PaymentInput")
	}
	p, err := api.svc.RecordUniformPayment(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "recording uniform payment")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *feesApi) balance(ctx echo.Context) error {
	filter := new(fees.UniformFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to UniformFilter")
	}
	bal, err := api.svc.UniformBalance(ctx.Request().Context(), filter.StudentID, filter.SessionID, filter.TermID)
	if err != nil {
		return errors.Wrap(err, "computing uniform balance")
	}
	return ctx.JSON(http.StatusOK, bal)
}
