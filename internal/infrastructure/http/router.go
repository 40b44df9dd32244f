package http

import (
	"github.com/labstack/echo/v4"

	"github.com/thegoodfork/accounts/internal/api"
	"github.com/thegoodfork/accounts/internal/infrastructure/http/handlers"
)

// NewRouter builds the API router and mounts the health probes on it.
func NewRouter(deps api.Deps, checks ...handlers.Check) *echo.Echo {
	e := api.NewRouter(deps)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(checks...)

	e.GET("/health", healthHandler.Liveness)            // liveness: is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness: are dependencies up?

	return e
}
