package request

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/passbi/transit_catalogue/internal/models"
)

const notFoundMessage = "not found"

// Queries is the read-only query surface of an opened base
type Queries interface {
	BusInfo(name string) (models.BusInfo, bool)
	StopInfo(name string) (models.StopInfo, bool)
	Itinerary(from, to string) (*models.Itinerary, error)
}

// BusResponse answers a Bus request
type BusResponse struct {
	Curvature       float64 `json:"curvature"`
	RequestID       int     `json:"request_id"`
	RouteLength     float64 `json:"route_length"`
	StopCount       int     `json:"stop_count"`
	UniqueStopCount int     `json:"unique_stop_count"`
}

// StopResponse answers a Stop request
type StopResponse struct {
	Buses     []string `json:"buses"`
	RequestID int      `json:"request_id"`
}

// RouteResponse answers a Route request
type RouteResponse struct {
	Items     []models.Item `json:"items"`
	RequestID int           `json:"request_id"`
	TotalTime float64       `json:"total_time"`
}

// NotFoundResponse answers any request whose subject does not exist
type NotFoundResponse struct {
	ErrorMessage string `json:"error_message"`
	RequestID    int    `json:"request_id"`
}

// Answer resolves every request in order. Unknown subjects produce a
// NotFoundResponse; only failures of the base itself are returned as errors.
func Answer(q Queries, requests []StatRequest) ([]any, error) {
	responses := make([]any, 0, len(requests))

	for _, req := range requests {
		resp, err := answerOne(q, req)
		if err != nil {
			return nil, fmt.Errorf("request %d: %w", req.ID, err)
		}
		responses = append(responses, resp)
	}

	return responses, nil
}

func answerOne(q Queries, req StatRequest) (any, error) {
	notFound := NotFoundResponse{ErrorMessage: notFoundMessage, RequestID: req.ID}

	switch req.Type {
	case TypeBus:
		info, ok := q.BusInfo(req.Name)
		if !ok {
			return notFound, nil
		}
		return BusResponse{
			Curvature:       info.Curvature,
			RequestID:       req.ID,
			RouteLength:     info.RoadLength,
			StopCount:       info.StopCount,
			UniqueStopCount: info.UniqueStopCount,
		}, nil

	case TypeStop:
		info, ok := q.StopInfo(req.Name)
		if !ok {
			return notFound, nil
		}
		return StopResponse{Buses: info.Buses, RequestID: req.ID}, nil

	case TypeRoute:
		itinerary, err := q.Itinerary(req.From, req.To)
		if err != nil {
			return nil, err
		}
		if itinerary == nil {
			return notFound, nil
		}
		return RouteResponse{
			Items:     itinerary.Items,
			RequestID: req.ID,
			TotalTime: itinerary.TotalTime,
		}, nil
	}

	return nil, fmt.Errorf("%w: unknown request type %q", ErrMalformed, req.Type)
}

// WriteResponses prints the responses as an indented JSON array
func WriteResponses(w io.Writer, responses []any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(responses); err != nil {
		return fmt.Errorf("failed to encode responses: %w", err)
	}
	return nil
}
