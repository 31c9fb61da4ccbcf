package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	validator "github.com/go-playground/validator/v10"
)

// Validator wraps go-playground/validator with the tags and messages this
// service's request DTOs use. Gin's binding tags catch shape; this layer
// and the hand-written checks in clob.ValidateCreateOrder catch the domain
// semantics (§4.1) gin's struct tags alone can't express, like "price
// required only for limit orders".
type Validator struct {
	validator *validator.Validate
}

var symbolPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{2,16}$`)

// NewValidator builds a Validator with the custom tags this service's DTOs
// reference.
func NewValidator() *Validator {
	v := validator.New()

	v.RegisterValidation("tradesymbol", validateTradeSymbol)
	v.RegisterValidation("orderside", validateOrderSide)
	v.RegisterValidation("ordertype", validateOrderType)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validator: v}
}

// ValidateStruct implements gin/binding.StructValidator so this validator
// can replace gin's default engine (see api.NewRouter), giving
// "tradesymbol"/"orderside"/"ordertype" struct tags meaning on every bound
// request DTO instead of just the hand-written clob.ValidateCreateOrder path.
func (v *Validator) ValidateStruct(i interface{}) error {
	return v.Validate(i)
}

// Engine exposes the underlying go-playground validator instance, as
// gin/binding.StructValidator requires.
func (v *Validator) Engine() interface{} {
	return v.validator
}

// Validate runs struct-tag validation and collapses any failures into a
// single readable error.
func (v *Validator) Validate(i interface{}) error {
	if err := v.validator.Struct(i); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			msgs := make([]string, 0, len(validationErrors))
			for _, e := range validationErrors {
				msgs = append(msgs, formatValidationError(e))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

func formatValidationError(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", field, e.Param())
	case "tradesymbol":
		return fmt.Sprintf("%s must be 2-16 ASCII letters, digits, '_' or '-'", field)
	case "orderside":
		return fmt.Sprintf("%s must be \"buy\" or \"sell\"", field)
	case "ordertype":
		return fmt.Sprintf("%s must be \"limit\" or \"market\"", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, e.Tag())
	}
}

func validateTradeSymbol(fl validator.FieldLevel) bool {
	return symbolPattern.MatchString(fl.Field().String())
}

func validateOrderSide(fl validator.FieldLevel) bool {
	s := strings.ToLower(fl.Field().String())
	return s == "buy" || s == "sell"
}

func validateOrderType(fl validator.FieldLevel) bool {
	s := strings.ToLower(fl.Field().String())
	return s == "limit" || s == "market"
}
