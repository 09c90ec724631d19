package core_test

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/kizito-simon15/montessori-sub000/core"
)

func TestKindOf(t *testing.T) {
	validate, _ := core.NewValidator()
	verrs := validate.Struct(struct {
		Name string `json:"name" validate:"required"`
	}{})
	_, isValidatorErr := verrs.(validator.ValidationErrors)
	assert.True(t, isValidatorErr)

	errOverrun := core.NewError(core.KindInvariant, "BudgetOverrun", "budget overrun")

	tests := []struct {
		name string
		err  error
		want core.Kind
	}{
		{"nil", nil, core.KindUnknown},
		{"plain", errors.New("boom"), core.KindUnknown},
		{"domain", errOverrun, core.KindInvariant},
		{"wrapped domain", errors.Wrap(errOverrun, "recording expenditure"), core.KindInvariant},
		{"field error", core.NewFieldError("year", "bad year"), core.KindValidation},
		{"validator errors", verrs, core.KindValidation},
		{"wrapped validator errors", errors.Wrap(verrs, "saving tier"), core.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, core.KindOf(tt.err))
		})
	}
}
