// Package validate holds the field rules shared by the record form, the CSV
// importer and the reference backend.
package validate

import (
	"fmt"
	"reflect"
	"strings"

	"qadmin/internal/security"

	"github.com/go-playground/validator/v10"
)

// RejectionCode is the validated shape of a rejection-code form or row.
type RejectionCode struct {
	Code        string `json:"code" label:"Code" validate:"present,secure"`
	Name        string `json:"name" label:"Name" validate:"present,secure"`
	Description string `json:"description" label:"Description" validate:"secure"`
}

// FieldError is one failed rule.
type FieldError struct {
	Field   string // json name, e.g. "code"
	Label   string // display name, e.g. "Code"
	Tag     string
	Message string
}

func (e FieldError) String() string {
	return e.Label + " " + e.Message
}

// Errors is every failed rule, in field order.
type Errors []FieldError

func (ve Errors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	parts := make([]string, 0, len(ve))
	for _, e := range ve {
		parts = append(parts, e.String())
	}
	return strings.Join(parts, "; ")
}

// Messages returns one human-readable string per error.
func (ve Errors) Messages() []string {
	out := make([]string, 0, len(ve))
	for _, e := range ve {
		out = append(out, e.String())
	}
	return out
}

// For returns the errors of a single field.
func (ve Errors) For(field string) Errors {
	var out Errors
	for _, e := range ve {
		if e.Field == field {
			out = append(out, e)
		}
	}
	return out
}

var v *validator.Validate

func init() {
	v = validator.New()

	if err := v.RegisterValidation("present", validatePresent); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("secure", validateSecure); err != nil {
		panic(err)
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validatePresent(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func validateSecure(fl validator.FieldLevel) bool {
	return security.IsSafe(fl.Field().String())
}

var labels = func() map[string]string {
	out := map[string]string{}
	t := reflect.TypeOf(RejectionCode{})
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		out[strings.SplitN(f.Tag.Get("json"), ",", 2)[0]] = f.Tag.Get("label")
	}
	return out
}()

// Label returns the display name of a json field name.
func Label(field string) string {
	if l, ok := labels[field]; ok {
		return l
	}
	return field
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "present":
		return "is required"
	case "secure":
		if err := security.Check(fmt.Sprint(fe.Value())); err != nil {
			return err.Error()
		}
		return "contains unsafe content"
	default:
		return fmt.Sprintf("failed %s", fe.Tag())
	}
}

// Check runs every rule. The result is nil or an Errors value.
func Check(in RejectionCode) error {
	err := v.Struct(in)
	if err == nil {
		return nil
	}
	fes, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	out := make(Errors, 0, len(fes))
	for _, fe := range fes {
		out = append(out, FieldError{
			Field:   fe.Field(),
			Label:   Label(fe.Field()),
			Tag:     fe.Tag(),
			Message: message(fe),
		})
	}
	return out
}

// Valid is Check without the details.
func Valid(in RejectionCode) bool {
	return Check(in) == nil
}
