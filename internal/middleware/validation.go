package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var errorMessages = map[string]string{
	"required": "field is required",
	"max":      "value is too long",
	"yyyymmdd": "must be a date formatted YYYY-MM-DD",
}

// RegisterValidators installs the custom binding rules and makes validation
// errors report json field names. Call once before serving.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected binding validator engine")
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v.RegisterValidation("yyyymmdd", validateDate)
}

func validateDate(fl validator.FieldLevel) bool {
	_, err := time.Parse("2006-01-02", fl.Field().String())
	return err == nil
}

// Validation turns bind errors recorded with c.Error into a 400 listing each
// invalid field.
func Validation() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		var fields []ValidationError
		for _, e := range c.Errors {
			var errs validator.ValidationErrors
			if !errors.As(e.Err, &errs) {
				continue
			}
			for _, fe := range errs {
				msg := errorMessages[fe.Tag()]
				if msg == "" {
					msg = fe.Error()
				}
				fields = append(fields, ValidationError{Field: fe.Field(), Message: msg})
			}
		}

		if len(fields) > 0 && !c.Writer.Written() {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"status":  "error",
				"message": "validation failed",
				"errors":  fields,
			})
		}
	}
}
