package api

import (
	"errors"
	"fmt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/markusressel/hddfanctrl/internal/ui"
	"net/http"
)

// CreateWebserver returns an echo instance with the middleware shared by the
// status api and the metrics server. Errors are answered with a Result.
func CreateWebserver() *echo.Echo {
	webserver := echo.New()
	webserver.HideBanner = true
	webserver.HidePort = true
	webserver.HTTPErrorHandler = handleError

	webserver.Pre(middleware.AddTrailingSlash())
	webserver.Use(middleware.Secure())
	webserver.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			ui.Error("Panic while serving %s: %v", c.Request().URL.Path, err)
			return err
		},
	}))

	return webserver
}

func handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := err.Error()
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		code = httpErr.Code
		message = fmt.Sprint(httpErr.Message)
	}

	result := &Result{Name: http.StatusText(code), Message: message}
	if err := c.JSONPretty(code, result, indentationChar); err != nil {
		ui.Warning("Cannot send error response: %v", err)
	}
}
