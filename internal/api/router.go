package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/thegoodfork/accounts/docs"
	"github.com/thegoodfork/accounts/internal/api/handler"
	"github.com/thegoodfork/accounts/internal/api/middleware"
	"github.com/thegoodfork/accounts/internal/core/ports"
)

const welcomeText = "WELCOME TO THE GOOD FORK!"

// Deps are the collaborators the HTTP surface needs.
type Deps struct {
	Accounts    ports.AccountService
	Tokens      ports.TokenService
	Log         zerolog.Logger
	CORSOrigins []string
	// Registry receives the HTTP metrics. A fresh registry is used when nil.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(deps.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     deps.CORSOrigins,
		AllowCredentials: true,
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodOptions, http.MethodPut, http.MethodDelete,
		},
	}))
	e.Use(echomiddleware.BodyLimit("64K"))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "accounts",
		Registerer: reg,
	}))

	// --- Ops routes ---
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, welcomeText)
	})
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{prometheus.DefaultGatherer, reg},
	}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Auth routes ---
	accountHandler := handler.NewAccountHandler(deps.Accounts)
	auth := e.Group("/api/v1/auth")
	auth.POST("/register", accountHandler.Register)
	auth.POST("/login", accountHandler.Login)
	auth.POST("/forgot", accountHandler.ForgotPassword)
	auth.PUT("/reset/:resetToken", accountHandler.ResetPassword)
	auth.GET("/userinfo", accountHandler.UserInfo, middleware.Auth(deps.Tokens))
	auth.DELETE("/delete", accountHandler.Delete)

	return e
}

// requestLogger feeds echo's request log into zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			// The route pattern keeps reset codes out of the log.
			path := c.Path()
			if path == "" {
				path = v.URIPath
			}
			ev.Str("method", v.Method).
				Str("path", path).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
