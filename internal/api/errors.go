package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"surveydash/domain/core"
	apperrors "surveydash/internal/errors"
)

// statusFor maps domain and application errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case core.IsInputError(err):
		return http.StatusBadRequest
	case core.IsNotFoundError(err):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}

	switch apperrors.GetCode(err) {
	case apperrors.CodeInvalidInput:
		return http.StatusBadRequest
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeExternalService:
		return http.StatusBadGateway
	case apperrors.CodeConfigInvalid:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func abortWithError(c *gin.Context, err error) {
	body := errorBody{Error: err.Error()}
	if code := apperrors.GetCode(err); code != "UNKNOWN" {
		body.Code = code
	}
	c.AbortWithStatusJSON(statusFor(err), body)
}
