// internal/app/system/inputval/inputval.go
//
// Package inputval decodes JSON request bodies and validates them against
// their `validate` struct tags.
package inputval

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/aloria/backoffice/internal/app/system/apierr"
	"github.com/aloria/backoffice/internal/domain/models"
	"github.com/go-playground/validator/v10"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

// Validator wraps a configured validator.Validate. It is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator that reports fields by their json name and knows
// the domain tags "currency" and "role".
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return IsValidCurrency(fl.Field().String())
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return models.IsValidRole(fl.Field().String())
	})
	return &Validator{v: v}
}

// Struct validates s and converts failures to an apierr validation error.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apierr.Validation("invalid request")
	}
	fields := make(map[string]string, len(verrs))
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fieldMessage(fe)
		fields[fe.Field()] = msg
		msgs = append(msgs, msg)
	}
	return apierr.ValidationFields(strings.Join(msgs, "; "), fields)
}

// Decode reads a JSON body into dst and validates it.
func (val *Validator) Decode(r *http.Request, dst any) error {
	if err := DecodeJSON(r, dst); err != nil {
		return err
	}
	return val.Struct(dst)
}

// DecodeJSON reads a JSON body into dst without validating. An empty body
// decodes as the zero value.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apierr.Validation("invalid request body")
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	f := fe.Field()
	switch fe.Tag() {
	case "required":
		return f + " is required"
	case "email":
		return f + " must be a valid email address"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", f, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", f, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", f, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", f, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", f, fe.Param())
	case "currency":
		return f + " must be one of: " + strings.Join(models.Currencies, ", ")
	case "role":
		return f + " must be a valid role"
	default:
		return f + " is invalid"
	}
}

// IsValidCurrency reports whether c is an accepted payment currency.
func IsValidCurrency(c string) bool {
	c = strings.ToUpper(strings.TrimSpace(c))
	for _, known := range models.Currencies {
		if c == known {
			return true
		}
	}
	return false
}

var emailCheck = validator.New()

// IsValidEmail reports whether s is a syntactically valid bare email address.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	return emailCheck.Var(s, "email") == nil
}
