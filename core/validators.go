package core

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shopspring/decimal"
)

var (
	// custom validation tags & texts
	regNoTag   = "regno"
	regNoText  = "registration number must be in the format SXXXXXXX/XXXX/YYYY"
	RegNoRegex = regexp.MustCompile(`^S[0-9]{7}/[0-9]{4}/[0-9]{4}$`)

	mobileTag   = "tzmobile"
	mobileText  = "mobile number must be in the format +255XXXXXXXXX"
	MobileRegex = regexp.MustCompile(`^\+255[0-9]{9}$`)

	moneyGT0Tag  = "money_gt0"
	moneyGT0Text = "{0} must be greater than 0"

	moneyGTE0Tag  = "money_gte0"
	moneyGTE0Text = "{0} cannot be negative"

	moneyMaxTag  = "money_max"
	moneyMaxText = "{0} cannot exceed 999,999,999.99"

	qtyGT0Tag  = "qty_gt0"
	qtyGT0Text = "{0} must be greater than 0"

	qtyGTE0Tag  = "qty_gte0"
	qtyGTE0Text = "{0} cannot be negative"

	scoreTag  = "score"
	scoreText = "{0} must be between 0 and 100"

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"

	hundred = decimal.NewFromInt(100)
)

// NewValidator returns a validator and its english translator, ready for use.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := NewTranslator()
	InitValidators(validate, translator)
	return validate, translator
}

func NewTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// amounts are validated through their decimal representation
	validate.RegisterCustomTypeFunc(decimalTypeFunc, Money{}, Quantity{}, decimal.Decimal{}, decimal.NullDecimal{})

	// register custom validators
	_ = validate.RegisterValidation(regNoTag, regexValidation(RegNoRegex))
	RegisterCustomTranslation(validate, translator, regNoTag, regNoText)

	_ = validate.RegisterValidation(mobileTag, regexValidation(MobileRegex))
	RegisterCustomTranslation(validate, translator, mobileTag, mobileText)

	_ = validate.RegisterValidation(moneyGT0Tag, decimalValidation(func(d decimal.Decimal) bool { return d.IsPositive() }))
	RegisterCustomTranslation(validate, translator, moneyGT0Tag, moneyGT0Text)

	_ = validate.RegisterValidation(moneyGTE0Tag, decimalValidation(func(d decimal.Decimal) bool { return !d.IsNegative() }))
	RegisterCustomTranslation(validate, translator, moneyGTE0Tag, moneyGTE0Text)

	_ = validate.RegisterValidation(moneyMaxTag, decimalValidation(func(d decimal.Decimal) bool {
		return d.LessThanOrEqual(MaxReceiptAmount.Decimal())
	}))
	RegisterCustomTranslation(validate, translator, moneyMaxTag, moneyMaxText)

	_ = validate.RegisterValidation(qtyGT0Tag, decimalValidation(func(d decimal.Decimal) bool { return d.IsPositive() }))
	RegisterCustomTranslation(validate, translator, qtyGT0Tag, qtyGT0Text)

	_ = validate.RegisterValidation(qtyGTE0Tag, decimalValidation(func(d decimal.Decimal) bool { return !d.IsNegative() }))
	RegisterCustomTranslation(validate, translator, qtyGTE0Tag, qtyGTE0Text)

	_ = validate.RegisterValidation(scoreTag, decimalValidation(func(d decimal.Decimal) bool {
		return !d.IsNegative() && d.LessThanOrEqual(hundred)
	}))
	RegisterCustomTranslation(validate, translator, scoreTag, scoreText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// TranslateErrors flattens validator errors into field => message pairs.
func TranslateErrors(err validator.ValidationErrors, translator ut.Translator) []FieldError {
	flds := make([]FieldError, 0, len(err))
	for _, vErr := range err {
		flds = append(flds, FieldError{Field: vErr.Field(), Error: vErr.Translate(translator)})
	}
	return flds
}

// decimalTypeFunc exposes amounts to the validator as decimal strings ("" when null).
func decimalTypeFunc(field reflect.Value) interface{} {
	switch v := field.Interface().(type) {
	case Money:
		return v.Decimal().String()
	case Quantity:
		return v.Decimal().String()
	case decimal.Decimal:
		return v.String()
	case decimal.NullDecimal:
		if !v.Valid {
			return nil
		}
		return v.Decimal.String()
	}
	return nil
}

// Custom Global Validators

func regexValidation(rgx *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return rgx.MatchString(fl.Field().String())
	}
}

func decimalValidation(check func(decimal.Decimal) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		return check(d)
	}
}
