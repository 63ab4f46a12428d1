package api

import (
	"routeline/internal/api/handlers"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies are the services the HTTP layer is built on
type Dependencies struct {
	Routes            handlers.RoutePlanner
	PolylinePrecision int
	Info              map[string]string
	Log               *zap.Logger
}

// SetupRouter initializes all application routes
func SetupRouter(r *gin.Engine, deps Dependencies) {
	r.Use(Recovery(deps.Log), AccessLog(deps.Log))

	// Setup main handlers
	handlers.SetupMainHandlers(r.Group(""), deps.Info)

	// API group
	api := r.Group("/api")

	handlers.SetupPolylineHandlers(api, handlers.NewPolylineHandler(deps.PolylinePrecision))
	handlers.SetupRouteHandlers(api, handlers.NewRouteHandler(deps.Routes))
}
