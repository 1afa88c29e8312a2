package core

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"propertyalerts/internal/types"
)

// Validator wraps go-playground/validator and reports failures as
// validation AppErrors keyed by JSON field name.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

func NewValidator(logger *slog.Logger) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	if err := v.RegisterValidation("alert_type", func(fl validator.FieldLevel) bool {
		return types.AlertType(fl.Field().String()).Valid()
	}); err != nil {
		logger.Error("failed to register alert_type validation", "error", err)
	}

	return &Validator{validate: v, logger: logger}
}

// ValidateStruct returns nil or an AppError with code. Details map each
// failing field to the tag it failed.
func (v *Validator) ValidateStruct(s any, code types.ErrorCode) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		v.logger.Error("validator misuse", "error", err)
		return types.NewAppError(types.ErrCodeInternalUnexpected, "validation failed", err)
	}

	details := make(map[string]any, len(verrs))
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
		fields = append(fields, fe.Field())
	}
	return types.NewAppErrorWithDetails(code, "invalid value for "+strings.Join(fields, ", "), err, details)
}
