package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"routeline/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// RoutePlanner is the part of the route service the API needs
type RoutePlanner interface {
	Plan(ctx context.Context, originAddress, destinationAddress string) (*model.Route, error)
	Get(id string) (*model.Route, error)
	WithinBounds(b orb.Bound) []*model.Route
}

type PlanRouteRequest struct {
	Origin      string `json:"origin" binding:"required"`
	Destination string `json:"destination" binding:"required"`
}

// RouteHandler handles route management endpoints
type RouteHandler struct {
	service RoutePlanner
}

func NewRouteHandler(service RoutePlanner) *RouteHandler {
	return &RouteHandler{service: service}
}

// SetupRouteHandlers registers the route management endpoints
func SetupRouteHandlers(router *gin.RouterGroup, h *RouteHandler) {
	routeGroup := router.Group("/routes")

	routeGroup.POST("", h.PlanRoute)
	routeGroup.GET("", h.ListRoutes)
	routeGroup.GET("/:id", h.GetRoute)
	routeGroup.GET("/:id/geojson", h.GetRouteGeoJSON)
}

// PlanRoute handles POST /api/routes
func (h *RouteHandler) PlanRoute(c *gin.Context) {
	var req PlanRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	route, err := h.service.Plan(c.Request.Context(), req.Origin, req.Destination)
	if err != nil {
		writeRouteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, route)
}

// GetRoute handles GET /api/routes/:id
func (h *RouteHandler) GetRoute(c *gin.Context) {
	route, err := h.service.Get(c.Param("id"))
	if err != nil {
		writeRouteError(c, err)
		return
	}

	c.JSON(http.StatusOK, route)
}

// GetRouteGeoJSON handles GET /api/routes/:id/geojson
func (h *RouteHandler) GetRouteGeoJSON(c *gin.Context) {
	route, err := h.service.Get(c.Param("id"))
	if err != nil {
		writeRouteError(c, err)
		return
	}

	c.JSON(http.StatusOK, route.Feature())
}

// ListRoutes handles GET /api/routes?bbox=minLng,minLat,maxLng,maxLat[&format=geojson]
func (h *RouteHandler) ListRoutes(c *gin.Context) {
	bound, err := parseBBox(c.Query("bbox"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	routes := h.service.WithinBounds(bound)

	if c.Query("format") == "geojson" {
		fc := geojson.NewFeatureCollection()
		for _, r := range routes {
			fc.Append(r.Feature())
		}
		c.JSON(http.StatusOK, fc)
		return
	}

	light := make([]*model.Route, len(routes))
	for i, r := range routes {
		light[i] = r.WithoutPoints()
	}
	c.JSON(http.StatusOK, gin.H{"routes": light, "count": len(light)})
}

func parseBBox(raw string) (orb.Bound, error) {
	if raw == "" {
		return orb.Bound{}, errors.New("bbox is required")
	}

	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return orb.Bound{}, errors.New("bbox must be minLng,minLat,maxLng,maxLat")
	}

	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return orb.Bound{}, errors.New("bbox values must be numbers")
		}
		v[i] = f
	}

	if v[0] > v[2] || v[1] > v[3] {
		return orb.Bound{}, errors.New("bbox min must not exceed max")
	}
	return orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}, nil
}
