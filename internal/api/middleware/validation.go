package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apierrors "voicescribe/internal/api/errors"
)

// Validator interface for domain validation
type Validator interface {
	Validate() error
}

// ValidateRequest binds a JSON body and validates both struct tags and domain
// rules
func ValidateRequest(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return apierrors.NewValidationError("Validation failed", fieldErrors(err, "request", "invalid JSON format"))
	}
	return validateDomain(req)
}

// ValidateQuery binds and validates query parameters
func ValidateQuery(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindQuery(req); err != nil {
		apiErr := apierrors.NewBadRequestError("Invalid query parameters")
		apiErr.Details = fieldErrors(err, "query", "invalid query parameters")
		return apiErr
	}
	return validateDomain(req)
}

func validateDomain(req interface{}) error {
	if v, ok := req.(Validator); ok {
		return v.Validate()
	}
	return nil
}

func fieldErrors(err error, fallbackKey, fallback string) map[string]string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return map[string]string{fallbackKey: fallback}
	}

	fields := make(map[string]string, len(validationErrs))
	for _, fe := range validationErrs {
		field := toSnake(fe.Field())
		switch fe.Tag() {
		case "required":
			fields[field] = "is required"
		case "min", "gte", "gt":
			fields[field] = "is too small"
		case "max", "lte", "lt":
			fields[field] = "is too large"
		case "oneof":
			fields[field] = "must be one of " + fe.Param()
		default:
			fields[field] = "is invalid"
		}
	}
	return fields
}

func toSnake(s string) string {
	out := make([]byte, 0, len(s)+4)
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch >= 'A' && ch <= 'Z' {
			if i > 0 {
				out = append(out, '_')
			}
			ch += 'a' - 'A'
		}
		out = append(out, ch)
	}
	return string(out)
}
