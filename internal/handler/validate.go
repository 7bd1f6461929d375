package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	appErrors "github.com/classplan/timetable-solver/pkg/errors"
	"github.com/classplan/timetable-solver/pkg/response"
)

// bindAndValidate binds the JSON body into req, then runs the
// go-playground/validator struct tags against it. On either failure it
// writes the error response itself and returns false.
func bindAndValidate(c *gin.Context, req interface{}, validate *validator.Validate) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	if err := validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	return true
}
