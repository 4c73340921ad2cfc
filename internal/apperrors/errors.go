package apperrors

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
)

type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// EchoErrorHandler maps AppError codes to HTTP responses and falls back to
// Echo's default handling for everything else.
func EchoErrorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var appErr *AppError
		if errors.As(err, &appErr) {
			if appErr.Code >= http.StatusInternalServerError {
				log.Println("internal error:", appErr)
			}
			if !c.Response().Committed {
				c.JSON(appErr.Code, echo.Map{"error": appErr.Message})
			}
			return
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
}
