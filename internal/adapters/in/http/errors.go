package http

import (
	"errors"
	"net/http"
	"strconv"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/generated/servers"
	"fulfillment/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// retryAfterSeconds is sent with 503 responses for retryable failures.
const retryAfterSeconds = 1

// StatusFor maps a use case error to an HTTP status code. Invariant violations win over
// any business error joined with them and always map to 500.
func StatusFor(err error) int {
	switch {
	case services.IsInvariantViolation(err):
		return http.StatusInternalServerError
	case errors.Is(err, errs.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, inventory.ErrInsufficientStock),
		errors.Is(err, commands.ErrStageChanged):
		return http.StatusConflict
	case errs.IsRetryable(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsOutOfRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(ctx echo.Context, err error) error {
	status := StatusFor(err)
	if status == http.StatusServiceUnavailable {
		ctx.Response().Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		ctx.Logger().Error(err)
		message = "Internal server error"
	}
	return writeMessage(ctx, status, message)
}

func writeMessage(ctx echo.Context, status int, message string) error {
	return ctx.JSON(status, servers.Error{
		Code:    int32(status),
		Message: message,
	})
}

// errorHandler renders errors that escape the handlers, such as routing and request
// validation failures, in the API error format.
func errorHandler(err error, ctx echo.Context) {
	if ctx.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		message, ok := he.Message.(string)
		if !ok {
			message = http.StatusText(he.Code)
		}
		_ = writeMessage(ctx, he.Code, message)
		return
	}
	_ = writeError(ctx, err)
}
