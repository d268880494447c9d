package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"route-optimization-api/clients"
	"route-optimization-api/models"

	"github.com/gin-gonic/gin"
)

type RouteStore interface {
	Create(ctx context.Context, route *models.Route) error
	ByID(ctx context.Context, id uint) (*models.Route, error)
	List(ctx context.Context, limit, offset int) ([]models.Route, int64, error)
	Delete(ctx context.Context, id uint) error
}

type DirectionsAPI interface {
	Directions(ctx context.Context, start, end clients.Coordinate, waypoints []clients.Coordinate) (*clients.DirectionsResult, error)
	Geocode(ctx context.Context, query string, focus clients.Coordinate) ([]clients.GeocodeResult, error)
}

type RoutesHandler struct {
	routes  RouteStore
	routing DirectionsAPI
}

func NewRoutesHandler(routes RouteStore, routing DirectionsAPI) *RoutesHandler {
	return &RoutesHandler{routes: routes, routing: routing}
}

type PointInput struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lng *float64 `json:"lng" binding:"required"`
}

func (p PointInput) coordinate() clients.Coordinate {
	return clients.Coordinate{Lat: *p.Lat, Lng: *p.Lng}
}

type OptimizeRouteRequest struct {
	Name       string       `json:"name" binding:"required"`
	StartPoint *PointInput  `json:"start_point" binding:"required"`
	EndPoint   *PointInput  `json:"end_point" binding:"required"`
	Waypoints  []PointInput `json:"waypoints" binding:"omitempty,dive"`
}

type ListRoutesResponse struct {
	Routes []models.Route `json:"routes"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// Optimize validates the request, asks the routing provider for
// directions (retrying at most once on a transient failure), then
// persists the route with its waypoints in a single write.
func (h *RoutesHandler) Optimize(c *gin.Context) {
	var req OptimizeRouteRequest
	if !bindJSON(c, &req) {
		return
	}

	start := req.StartPoint.coordinate()
	end := req.EndPoint.coordinate()
	waypoints := make([]clients.Coordinate, 0, len(req.Waypoints))
	for _, wp := range req.Waypoints {
		waypoints = append(waypoints, wp.coordinate())
	}

	result, err := retryOnce(
		func() (*clients.DirectionsResult, error) {
			return h.routing.Directions(c.Request.Context(), start, end, waypoints)
		},
		func(err error) bool { return errors.Is(err, clients.ErrRoutingUnavailable) },
	)
	if err != nil {
		translateError(c, err)
		return
	}

	route := models.Route{
		Name:            req.Name,
		StartLat:        start.Lat,
		StartLng:        start.Lng,
		EndLat:          end.Lat,
		EndLng:          end.Lng,
		Geometry:        result.Geometry,
		DistanceMeters:  result.DistanceMeters,
		DurationSeconds: result.DurationSeconds,
	}
	for _, wp := range waypoints {
		route.Waypoints = append(route.Waypoints, models.Waypoint{Lat: wp.Lat, Lng: wp.Lng})
	}

	if err := h.routes.Create(c.Request.Context(), &route); err != nil {
		translateError(c, err)
		return
	}

	c.JSON(http.StatusCreated, route)
}

func (h *RoutesHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	route, err := h.routes.ByID(c.Request.Context(), id)
	if err != nil {
		translateError(c, err)
		return
	}
	c.JSON(http.StatusOK, route)
}

func (h *RoutesHandler) List(c *gin.Context) {
	p, err := ParsePagination(c)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	routes, total, err := h.routes.List(c.Request.Context(), p.Limit, p.Offset)
	if err != nil {
		translateError(c, err)
		return
	}
	if routes == nil {
		routes = []models.Route{}
	}

	c.JSON(http.StatusOK, ListRoutesResponse{
		Routes: routes,
		Total:  total,
		Limit:  p.Limit,
		Offset: p.Offset,
	})
}

func (h *RoutesHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.routes.Delete(c.Request.Context(), id); err != nil {
		translateError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// default geocode focus point: midtown Manhattan
var defaultGeocodeFocus = clients.Coordinate{Lat: 40.7484, Lng: -73.9857}

func (h *RoutesHandler) Geocode(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "query parameter is required"})
		return
	}

	results, err := retryOnce(
		func() ([]clients.GeocodeResult, error) {
			return h.routing.Geocode(c.Request.Context(), query, defaultGeocodeFocus)
		},
		func(err error) bool { return errors.Is(err, clients.ErrRoutingUnavailable) },
	)
	if err != nil {
		translateError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "id must be a positive integer"})
		return 0, false
	}
	return uint(id), true
}
