package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"cozycakey/internal/availability"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var (
	phonePattern        = regexp.MustCompile(`^[\+]?[(]?[\+]?\d{3}[\)]?[\s\-]?\d{3}[\s\-]?\d{4,6}$`)
	discountCodePattern = regexp.MustCompile(`^[A-Z0-9]{3,10}$`)
)

// NewValidator returns a validator that knows the order form rules and
// reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("civildate", func(fl validator.FieldLevel) bool {
		_, err := availability.ParseDate(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	_ = v.RegisterValidation("discountcode", func(fl validator.FieldLevel) bool {
		return discountCodePattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	return v
}

// validationMessage turns the first failed rule into a sentence a customer
// can act on.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid order"
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required", "notblank", "required_if", "required_with":
		if field == "allergyAgreement" {
			return "You must accept the allergy agreement"
		}
		return fmt.Sprintf("%s is required", field)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		return "Please enter a valid email address"
	case "phone":
		return "Please enter a valid phone number"
	case "civildate":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field)
	case "discountcode":
		return "Discount code must be 3-10 uppercase letters or digits"
	}
	return fmt.Sprintf("%s is invalid", field)
}
