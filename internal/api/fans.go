package api

import (
	"github.com/labstack/echo/v4"
	"github.com/markusressel/hddfanctrl/internal/supervisor"
	"net/http"
)

func registerFanEndpoints(rest *echo.Echo, registry *supervisor.Registry) {
	group := rest.Group("/fan")

	group.GET("/", getFans(registry))
	group.GET("/:"+urlParamId+"/", getFan(registry))
}

// returns the calibration status of all configured fans
func getFans(registry *supervisor.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		data := registry.List()
		return c.JSONPretty(http.StatusOK, data, indentationChar)
	}
}

func getFan(registry *supervisor.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param(urlParamId)
		data, exists := registry.Get(id)
		if !exists {
			return returnNotFound(c, id)
		}
		return c.JSONPretty(http.StatusOK, data, indentationChar)
	}
}
