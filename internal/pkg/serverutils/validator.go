package serverutils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"career-counselor-be/internal/pkg/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report json field names, not Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "email":
		return "invalid email format"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param())
	default:
		return fmt.Sprintf("%s is invalid", e.Field())
	}
}

// ValidateRequest checks struct tags and reports failures as invalid input,
// with a field to message map as data.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Wrap(apperror.ErrInvalidInput, "invalid request", err)
	}

	fields := make(map[string]string, len(verrs))
	messages := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msg := fieldMessage(e)
		fields[e.Field()] = msg
		messages = append(messages, msg)
	}
	return apperror.New(apperror.ErrInvalidInput, strings.Join(messages, "; ")).WithData(fields)
}

// ParseBody decodes the JSON body into out and validates it.
func ParseBody(ctx *fiber.Ctx, out interface{}) error {
	if err := ctx.BodyParser(out); err != nil {
		return apperror.Wrap(apperror.ErrInvalidInput, "invalid request body", err)
	}
	return ValidateRequest(out)
}
