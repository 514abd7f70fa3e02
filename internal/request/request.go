package request

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/passbi/transit_catalogue/internal/models"
)

// ErrMalformed means a request document has unknown, missing or invalid keys
var ErrMalformed = errors.New("malformed request document")

// Request kinds
const (
	TypeStop  = "Stop"
	TypeBus   = "Bus"
	TypeRoute = "Route"
)

var validate = validator.New()

// SerializationSettings locates the base file
type SerializationSettings struct {
	File string `json:"file" validate:"required"`
}

// routingSettings requires both keys to be present
type routingSettings struct {
	BusWaitTime *float64 `json:"bus_wait_time" validate:"required,gte=0"`
	BusVelocity *float64 `json:"bus_velocity" validate:"required,gt=0"`
}

type baseDocument struct {
	BaseRequests          []json.RawMessage      `json:"base_requests" validate:"required"`
	RoutingSettings       *routingSettings       `json:"routing_settings" validate:"required"`
	RenderSettings        *models.RenderSettings `json:"render_settings"`
	SerializationSettings SerializationSettings  `json:"serialization_settings"`
}

type baseRequestType struct {
	Type string `json:"type" validate:"required,oneof=Stop Bus"`
}

type stopRequest struct {
	Type string `json:"type"`
	models.StopRecord
}

type busRequest struct {
	Type string `json:"type"`
	models.BusRecord
}

// BaseDocument is a parsed make_base document
type BaseDocument struct {
	Base          models.BaseData
	Serialization SerializationSettings
}

// StatRequest is one query of a process_requests document
type StatRequest struct {
	ID   int    `json:"id"`
	Type string `json:"type" validate:"required,oneof=Bus Stop Route"`
	Name string `json:"name" validate:"required_unless=Type Route"`
	From string `json:"from" validate:"required_if=Type Route"`
	To   string `json:"to" validate:"required_if=Type Route"`
}

// StatDocument is a parsed process_requests document
type StatDocument struct {
	SerializationSettings SerializationSettings `json:"serialization_settings"`
	StatRequests          []StatRequest         `json:"stat_requests" validate:"dive"`
}

// ParseBase reads a make_base document. Stops and buses keep their document order.
func ParseBase(r io.Reader) (*BaseDocument, error) {
	var doc baseDocument
	if err := decodeStrict(r, &doc); err != nil {
		return nil, err
	}
	if err := validateStruct(&doc); err != nil {
		return nil, err
	}

	base := models.BaseData{
		Routing: models.RoutingSettings{
			BusWaitTime: *doc.RoutingSettings.BusWaitTime,
			BusVelocity: *doc.RoutingSettings.BusVelocity,
		},
		Render: doc.RenderSettings,
	}

	for i, raw := range doc.BaseRequests {
		var kind baseRequestType
		if err := json.Unmarshal(raw, &kind); err != nil {
			return nil, fmt.Errorf("%w: base request %d: %v", ErrMalformed, i, err)
		}
		if err := validateStruct(&kind); err != nil {
			return nil, fmt.Errorf("base request %d: %w", i, err)
		}

		switch kind.Type {
		case TypeStop:
			var req stopRequest
			if err := decodeStrict(bytes.NewReader(raw), &req); err != nil {
				return nil, fmt.Errorf("base request %d: %w", i, err)
			}
			if err := validateStruct(&req); err != nil {
				return nil, fmt.Errorf("base request %d: %w", i, err)
			}
			base.Stops = append(base.Stops, req.StopRecord)
		case TypeBus:
			var req busRequest
			if err := decodeStrict(bytes.NewReader(raw), &req); err != nil {
				return nil, fmt.Errorf("base request %d: %w", i, err)
			}
			if err := validateStruct(&req); err != nil {
				return nil, fmt.Errorf("base request %d: %w", i, err)
			}
			base.Buses = append(base.Buses, req.BusRecord)
		}
	}

	return &BaseDocument{Base: base, Serialization: doc.SerializationSettings}, nil
}

// ParseStat reads a process_requests document
func ParseStat(r io.Reader) (*StatDocument, error) {
	var doc StatDocument
	if err := decodeStrict(r, &doc); err != nil {
		return nil, err
	}
	if err := validateStruct(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func decodeStrict(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

func validateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
