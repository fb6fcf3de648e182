package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/markusressel/hddfanctrl/internal/supervisor"
	"github.com/prometheus/client_golang/prometheus"
	"net/http"
)

const (
	urlParamId      = "id"
	indentationChar = "  "

	metricsSubsystem = "api"
)

type (
	Result struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	}
)

// CreateRestService creates the read only status api.
// Request metrics are registered with registerer, /metrics/ serves gatherer.
func CreateRestService(registry *supervisor.Registry, registerer prometheus.Registerer, gatherer prometheus.Gatherer) *echo.Echo {
	echoRest := CreateWebserver()

	echoRest.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "hddfanctrl",
		Subsystem:  metricsSubsystem,
		Registerer: registerer,
	}))

	echoRest.GET("/alive/", isAlive)
	echoRest.GET("/metrics/", createMetricsHandler(gatherer))

	registerFanEndpoints(echoRest, registry)

	return echoRest
}

// CreateMetricsServer creates a server that only exposes the prometheus metrics
func CreateMetricsServer(gatherer prometheus.Gatherer) *echo.Echo {
	webserver := CreateWebserver()
	webserver.GET("/metrics/", createMetricsHandler(gatherer))
	return webserver
}

func createMetricsHandler(gatherer prometheus.Gatherer) echo.HandlerFunc {
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: gatherer,
	})
}

// returns an empty "ok" answer
func isAlive(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// return a "not found" message
func returnNotFound(c echo.Context, id string) (err error) {
	return c.JSONPretty(http.StatusNotFound, &Result{
		Name:    "Not found",
		Message: "No item with id '" + id + "' found",
	}, indentationChar)
}
