// Package mapper converts points to cells of a grid scheme and cells back
// to bounding boxes.
package mapper

import (
	"github.com/mohammed-shakir/geohash-codec/internal/core/model"
)

type Interface interface {
	CellForPoint(lat, lon float64, res int) (string, error)
	BBoxForCell(cell string) (model.BBox, error)
}
