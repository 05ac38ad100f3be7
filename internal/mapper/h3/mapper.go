package h3mapper

import (
	"fmt"
	"math"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/geohash-codec/internal/core/model"
)

type Mapper struct{}

func New() *Mapper { return &Mapper{} }

func (m *Mapper) CellForPoint(lat, lon float64, res int) (string, error) {
	if err := validateRes(res); err != nil {
		return "", err
	}
	c, err := h3.LatLngToCell(h3.LatLng{Lat: lat, Lng: lon}, res)
	if err != nil {
		return "", fmt.Errorf("h3 cell: %w", err)
	}
	return c.String(), nil
}

// BBoxForCell returns the envelope of the cell boundary. Cells that cross
// the antimeridian come back with X1 > X2.
func (m *Mapper) BBoxForCell(cell string) (model.BBox, error) {
	var c h3.Cell
	if err := c.UnmarshalText([]byte(cell)); err != nil {
		return model.BBox{}, fmt.Errorf("parse cell: %w", err)
	}
	if !c.IsValid() {
		return model.BBox{}, fmt.Errorf("invalid h3 cell %q", cell)
	}
	b, err := c.Boundary()
	if err != nil {
		return model.BBox{}, fmt.Errorf("boundary: %w", err)
	}
	if len(b) < 3 {
		return model.BBox{}, fmt.Errorf("degenerate boundary for %s", cell)
	}
	return envelope(b), nil
}

// --- helpers ---

func validateRes(res int) error {
	if res < 0 || res > 15 {
		return fmt.Errorf("invalid H3 resolution %d (must be 0..15)", res)
	}
	return nil
}

func envelope(b h3.CellBoundary) model.BBox {
	bb := model.BBox{X1: math.Inf(1), Y1: math.Inf(1), X2: math.Inf(-1), Y2: math.Inf(-1), SRID: "EPSG:4326"}
	for _, ll := range b {
		bb.X1 = math.Min(bb.X1, ll.Lng)
		bb.X2 = math.Max(bb.X2, ll.Lng)
		bb.Y1 = math.Min(bb.Y1, ll.Lat)
		bb.Y2 = math.Max(bb.Y2, ll.Lat)
	}
	if bb.X2-bb.X1 <= 180 {
		return bb
	}
	// wraps the antimeridian: west edge is the smallest positive lng,
	// east edge the largest negative one
	west, east := math.Inf(1), math.Inf(-1)
	for _, ll := range b {
		if ll.Lng >= 0 {
			west = math.Min(west, ll.Lng)
		} else {
			east = math.Max(east, ll.Lng)
		}
	}
	bb.X1, bb.X2 = west, east
	return bb
}
