package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/AntonStoeckl/library-inventory/core"
	"github.com/AntonStoeckl/library-inventory/shell/httpx"
)

const (
	codeUnauthorized = "UNAUTHORIZED"
	codeInternal     = "INTERNAL"
)

// StatusFor maps an error onto its HTTP status.
func StatusFor(err error) int {
	switch core.KindOf(err) {
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindInvalidState, core.KindReservationConflict, core.KindAlreadyExtended:
		return http.StatusConflict
	case core.KindQuotaExceeded:
		return http.StatusUnprocessableEntity
	case core.KindForbidden:
		return http.StatusForbidden
	case core.KindRemoteUnavailable:
		return http.StatusBadGateway
	case core.KindInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := errorResponse(err)
		if status >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request().Context(), "request failed",
				"path", c.Path(),
				"error", err.Error(),
			)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}

		_ = c.JSON(status, body)
	}
}

func errorResponse(err error) (int, httpx.ErrorBody) {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		code := codeInternal
		switch httpErr.Code {
		case http.StatusUnauthorized:
			code = codeUnauthorized
		case http.StatusBadRequest:
			code = core.KindInvalidArgument.String()
		case http.StatusNotFound:
			code = core.KindNotFound.String()
		case http.StatusForbidden:
			code = core.KindForbidden.String()
		}

		message, ok := httpErr.Message.(string)
		if !ok {
			message = http.StatusText(httpErr.Code)
		}

		return httpErr.Code, httpx.ErrorBody{Code: code, Message: message}
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return http.StatusBadRequest, httpx.ErrorBody{Code: core.KindInvalidArgument.String(), Message: validationErrs.Error()}
	}

	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		return status, httpx.ErrorBody{Code: codeInternal, Message: "internal error"}
	}

	return status, httpx.ErrorBody{Code: core.KindOf(err).String(), Message: err.Error()}
}
