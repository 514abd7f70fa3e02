package api

import (
	"log"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/passbi/transit_catalogue/internal/cache"
	"github.com/passbi/transit_catalogue/internal/models"
	"github.com/passbi/transit_catalogue/internal/transit"
	"github.com/redis/go-redis/v9"
)

// BusResponse is the API response for a bus
type BusResponse struct {
	Name            string  `json:"name"`
	Curvature       float64 `json:"curvature"`
	RouteLength     float64 `json:"route_length"`
	StopCount       int     `json:"stop_count"`
	UniqueStopCount int     `json:"unique_stop_count"`
}

// StopResponse is the API response for a stop
type StopResponse struct {
	Name  string   `json:"name"`
	Buses []string `json:"buses"`
}

// RouteResponse is the API response for a journey between two stops
type RouteResponse struct {
	From      string        `json:"from"`
	To        string        `json:"to"`
	TotalTime float64       `json:"total_time"`
	Items     []models.Item `json:"items"`
}

// MapStopsResponse lists the projected stops
type MapStopsResponse struct {
	Stops []transit.MapStop `json:"stops"`
	Total int               `json:"total"`
}

// Handler serves queries against an opened base
type Handler struct {
	state *transit.State
	redis *redis.Client
}

// NewHandler creates a handler. rdb may be nil when Redis is not in use.
func NewHandler(state *transit.State, rdb *redis.Client) *Handler {
	return &Handler{state: state, redis: rdb}
}

// Register mounts every endpoint on the app
func Register(app *fiber.App, h *Handler) {
	app.Get("/health", h.Health)

	v1 := app.Group("/v1")
	v1.Get("/buses/:name", h.Bus)
	v1.Get("/stops/:name", h.Stop)
	v1.Get("/route", h.Route)
	v1.Get("/map/stops", h.MapStops)
}

// Health handles the /health endpoint
func (h *Handler) Health(c *fiber.Ctx) error {
	checks := fiber.Map{"base": "ok"}
	status := "healthy"
	httpStatus := fiber.StatusOK

	if h.redis != nil {
		redisStatus := "ok"
		if err := cache.HealthCheck(c.Context(), h.redis); err != nil {
			redisStatus = err.Error()
			status = "unhealthy"
			httpStatus = fiber.StatusServiceUnavailable
		}
		checks["redis"] = redisStatus
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checks": checks,
		"stats":  h.state.Stats(),
	})
}

// Bus handles the /v1/buses/:name endpoint
func (h *Handler) Bus(c *fiber.Ctx) error {
	name, err := pathName(c)
	if err != nil {
		return err
	}

	info, ok := h.state.BusInfo(name)
	if !ok {
		return notFound(c, "bus not found")
	}

	return c.JSON(BusResponse{
		Name:            info.Name,
		Curvature:       info.Curvature,
		RouteLength:     info.RoadLength,
		StopCount:       info.StopCount,
		UniqueStopCount: info.UniqueStopCount,
	})
}

// Stop handles the /v1/stops/:name endpoint
func (h *Handler) Stop(c *fiber.Ctx) error {
	name, err := pathName(c)
	if err != nil {
		return err
	}

	info, ok := h.state.StopInfo(name)
	if !ok {
		return notFound(c, "stop not found")
	}

	return c.JSON(StopResponse{
		Name:  info.Name,
		Buses: info.Buses,
	})
}

// Route handles the /v1/route endpoint
func (h *Handler) Route(c *fiber.Ctx) error {
	from := c.Query("from")
	to := c.Query("to")

	if from == "" || to == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing required parameters: from and to",
		})
	}

	itinerary, err := h.state.Itinerary(from, to)
	if err != nil {
		return err
	}
	if itinerary == nil {
		return notFound(c, "no route found between the specified stops")
	}

	return c.JSON(RouteResponse{
		From:      from,
		To:        to,
		TotalTime: itinerary.TotalTime,
		Items:     itinerary.Items,
	})
}

// MapStops handles the /v1/map/stops endpoint
func (h *Handler) MapStops(c *fiber.Ctx) error {
	stops, ok := h.state.MapStops()
	if !ok {
		return notFound(c, "base has no render settings")
	}

	return c.JSON(MapStopsResponse{
		Stops: stops,
		Total: len(stops),
	})
}

func pathName(c *fiber.Ctx) (string, error) {
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "invalid name")
	}
	return name, nil
}

func notFound(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": message,
	})
}

// ErrorHandler renders errors returned from handlers as JSON
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	if code >= fiber.StatusInternalServerError {
		log.Printf("Error: %v", err)
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
