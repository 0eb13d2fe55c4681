package handler

import (
	"errors"
	"math"
	"net/http"
	"reflect"

	"assettracker/internal/apierror"
	"assettracker/internal/sanitize"
	"assettracker/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, max=999999.99 work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			// Float64 on a huge exponent is as slow as comparing it; fail max instead.
			if !sanitize.ExponentInRange(v) {
				return math.Inf(1)
			}
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

func validateStruct(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string)
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// writeServiceError maps known service errors to a status code. Anything
// else is attached to the context for middleware.ErrorHandler, which logs
// it and answers 500 without leaking the message.
func writeServiceError(c *gin.Context, err error) {
	var fe *sanitize.FieldError
	switch {
	case errors.Is(err, service.ErrItemNotFound):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.Is(err, service.ErrItemExists):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.Is(err, service.ErrNegativeQuantity):
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	case errors.As(err, &fe):
		c.JSON(http.StatusUnprocessableEntity, apierror.NewField(fe.Field, fe.Error()))
	default:
		_ = c.Error(err)
	}
}
