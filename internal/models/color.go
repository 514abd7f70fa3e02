package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Color is an SVG color. In request documents it is either a name/string
// or an [r, g, b] / [r, g, b, opacity] array, normalised to rgb()/rgba().
type Color string

// UnmarshalJSON implements json.Unmarshaler
func (c *Color) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*c = Color(name)
		return nil
	}

	var parts []float64
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("color must be a string or an array: %w", err)
	}

	switch len(parts) {
	case 3:
		*c = Color(fmt.Sprintf("rgb(%d,%d,%d)", int(parts[0]), int(parts[1]), int(parts[2])))
	case 4:
		opacity := strconv.FormatFloat(parts[3], 'f', -1, 64)
		*c = Color(fmt.Sprintf("rgba(%d,%d,%d,%s)", int(parts[0]), int(parts[1]), int(parts[2]), opacity))
	default:
		return fmt.Errorf("color array must have 3 or 4 elements, got %d", len(parts))
	}

	return nil
}
