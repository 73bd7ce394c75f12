package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/jwalitptl/emr-assistant/pkg/errors"
	"github.com/jwalitptl/emr-assistant/pkg/httputil"
)

// BindJSON decodes the body into obj. Field validation failures are left on
// the context for the Validation middleware; malformed bodies get a 400 here.
func BindJSON(c *gin.Context, obj interface{}) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		return false
	}
	httputil.RespondWithError(c, apperrors.NewBadRequest("invalid request body", err))
	return false
}
