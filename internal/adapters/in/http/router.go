package http

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"fulfillment/internal/generated/servers"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/metrics"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"github.com/swaggo/swag"
)

const apiPrefix = "/api/v1/"

var registerSwaggerOnce sync.Once

// swaggerDoc serves the embedded OpenAPI document to the swagger UI.
type swaggerDoc struct{}

func (swaggerDoc) ReadDoc() string { return string(servers.RawSpec()) }

// NewRouter builds the echo instance serving the REST API, health check, metrics and
// swagger UI. Requests matching an API operation are validated against the OpenAPI document before
// they reach the server.
func NewRouter(server *Server, m *metrics.Metrics, logger zerolog.Logger) (*echo.Echo, error) {
	if server == nil {
		return nil, errs.NewValueIsRequiredError("server")
	}

	validator, err := newRequestValidator()
	if err != nil {
		return nil, err
	}

	logger = logger.With().Str("component", "http").Logger()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(log.WARN)
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.Recover())
	e.Use(requestLogger(logger))
	e.Use(observeRequests(m))
	e.Use(validator.middleware)

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	registerSwaggerOnce.Do(func() {
		swag.Register(swag.Name, swaggerDoc{})
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	servers.RegisterHandlers(e, server)

	return e, nil
}

func requestLogger(logger zerolog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			event := logger.Info()
			if v.Status >= http.StatusInternalServerError {
				event = logger.Error().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}

// observeRequests records request metrics labelled by the route template, never the raw path.
func observeRequests(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = StatusFor(err)
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				}
			}
			route := c.Path()
			if route == "" || (!strings.HasPrefix(route, apiPrefix) && route != "/health") {
				route = "other"
			}
			m.ObserveRequest(c.Request().Method, route, status, time.Since(start))
			return err
		}
	}
}
