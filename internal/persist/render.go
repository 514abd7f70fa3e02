package persist

import (
	"github.com/passbi/transit_catalogue/internal/models"
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	renderFieldWidth protowire.Number = iota + 1
	renderFieldHeight
	renderFieldPadding
	renderFieldLineWidth
	renderFieldStopRadius
	renderFieldBusLabelFontSize
	renderFieldBusLabelOffsetX
	renderFieldBusLabelOffsetY
	renderFieldStopLabelFontSize
	renderFieldStopLabelOffsetX
	renderFieldStopLabelOffsetY
	renderFieldUnderlayerColor
	renderFieldUnderlayerWidth
	renderFieldColorPalette
)

const (
	projectorFieldPadding protowire.Number = iota + 1
	projectorFieldMinLng
	projectorFieldMaxLat
	projectorFieldZoomCoeff
)

func marshalRender(rs *models.RenderSettings) []byte {
	var b []byte
	b = appendDouble(b, renderFieldWidth, rs.Width)
	b = appendDouble(b, renderFieldHeight, rs.Height)
	b = appendDouble(b, renderFieldPadding, rs.Padding)
	b = appendDouble(b, renderFieldLineWidth, rs.LineWidth)
	b = appendDouble(b, renderFieldStopRadius, rs.StopRadius)
	b = appendInt(b, renderFieldBusLabelFontSize, rs.BusLabelFontSize)
	b = appendDouble(b, renderFieldBusLabelOffsetX, rs.BusLabelOffset[0])
	b = appendDouble(b, renderFieldBusLabelOffsetY, rs.BusLabelOffset[1])
	b = appendInt(b, renderFieldStopLabelFontSize, rs.StopLabelFontSize)
	b = appendDouble(b, renderFieldStopLabelOffsetX, rs.StopLabelOffset[0])
	b = appendDouble(b, renderFieldStopLabelOffsetY, rs.StopLabelOffset[1])
	b = appendString(b, renderFieldUnderlayerColor, string(rs.UnderlayerColor))
	b = appendDouble(b, renderFieldUnderlayerWidth, rs.UnderlayerWidth)
	for _, color := range rs.ColorPalette {
		b = appendString(b, renderFieldColorPalette, string(color))
	}
	return b
}

func unmarshalRender(r *reader, b []byte) (models.RenderSettings, error) {
	var rs models.RenderSettings
	err := parseFields(b, func(f field) error {
		switch f.num {
		case renderFieldWidth:
			rs.Width = r.double(f)
		case renderFieldHeight:
			rs.Height = r.double(f)
		case renderFieldPadding:
			rs.Padding = r.double(f)
		case renderFieldLineWidth:
			rs.LineWidth = r.double(f)
		case renderFieldStopRadius:
			rs.StopRadius = r.double(f)
		case renderFieldBusLabelFontSize:
			rs.BusLabelFontSize = r.int(f)
		case renderFieldBusLabelOffsetX:
			rs.BusLabelOffset[0] = r.double(f)
		case renderFieldBusLabelOffsetY:
			rs.BusLabelOffset[1] = r.double(f)
		case renderFieldStopLabelFontSize:
			rs.StopLabelFontSize = r.int(f)
		case renderFieldStopLabelOffsetX:
			rs.StopLabelOffset[0] = r.double(f)
		case renderFieldStopLabelOffsetY:
			rs.StopLabelOffset[1] = r.double(f)
		case renderFieldUnderlayerColor:
			rs.UnderlayerColor = models.Color(r.string(f))
		case renderFieldUnderlayerWidth:
			rs.UnderlayerWidth = r.double(f)
		case renderFieldColorPalette:
			rs.ColorPalette = append(rs.ColorPalette, models.Color(r.string(f)))
		}
		return r.err
	})
	return rs, err
}

func marshalProjector(p *models.ProjectorSettings) []byte {
	var b []byte
	b = appendDouble(b, projectorFieldPadding, p.Padding)
	b = appendDouble(b, projectorFieldMinLng, p.MinLng)
	b = appendDouble(b, projectorFieldMaxLat, p.MaxLat)
	b = appendDouble(b, projectorFieldZoomCoeff, p.ZoomCoeff)
	return b
}

func unmarshalProjector(r *reader, b []byte) (models.ProjectorSettings, error) {
	var p models.ProjectorSettings
	err := parseFields(b, func(f field) error {
		switch f.num {
		case projectorFieldPadding:
			p.Padding = r.double(f)
		case projectorFieldMinLng:
			p.MinLng = r.double(f)
		case projectorFieldMaxLat:
			p.MaxLat = r.double(f)
		case projectorFieldZoomCoeff:
			p.ZoomCoeff = r.double(f)
		}
		return r.err
	})
	return p, err
}
