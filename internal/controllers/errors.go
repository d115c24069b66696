package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/osvaldoandrade/hyperdemos/internal/middleware"
	"github.com/osvaldoandrade/hyperdemos/pkg/domain"

	"github.com/gin-gonic/gin"
)

// statusFor maps the error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	var (
		ie *domain.InvalidInputError
		sv *domain.SchemaViolationError
		mc *domain.MissingCredentialError
		ir *domain.InvalidRequestError
		to *domain.TimeoutError
		te *domain.TransientServiceError
	)
	switch {
	case errors.As(err, &ie):
		return http.StatusBadRequest
	case errors.As(err, &sv):
		return http.StatusUnprocessableEntity
	case errors.As(err, &mc):
		return http.StatusServiceUnavailable
	case errors.As(err, &ir):
		return http.StatusBadGateway
	case errors.As(err, &to), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &te):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	body := gin.H{"error": err.Error()}
	var sv *domain.SchemaViolationError
	if errors.As(err, &sv) {
		body["field"] = sv.Field
	}
	var ie *domain.InvalidInputError
	if errors.As(err, &ie) {
		body["field"] = ie.Field
	}
	if status >= http.StatusInternalServerError {
		middleware.Logger(c).ErrorContext(c.Request.Context(), "request failed", "status", status, "err", err)
	}
	c.JSON(status, body)
}

func badBody(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
}

func parsePositive(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return n, nil
}
