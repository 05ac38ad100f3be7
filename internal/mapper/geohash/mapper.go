package ghmapper

import (
	"fmt"

	"github.com/mohammed-shakir/geohash-codec/internal/core/model"
	"github.com/mohammed-shakir/geohash-codec/pkg/geohash"
)

// Mapper exposes pkg/geohash through mapper.Interface; res is the hash length.
type Mapper struct{}

func New() *Mapper { return &Mapper{} }

func (m *Mapper) CellForPoint(lat, lon float64, res int) (string, error) {
	if err := validateRes(res); err != nil {
		return "", err
	}
	h, err := geohash.Encode(float32(lat), float32(lon), uint32(res))
	if err != nil {
		return "", fmt.Errorf("geohash encode: %w", err)
	}
	return h, nil
}

func (m *Mapper) BBoxForCell(cell string) (model.BBox, error) {
	if err := validateRes(len(cell)); err != nil {
		return model.BBox{}, err
	}
	b, err := geohash.Decode(cell)
	if err != nil {
		return model.BBox{}, fmt.Errorf("geohash decode: %w", err)
	}
	return model.BBox{
		X1:   float64(b.Longitude.Low),
		Y1:   float64(b.Latitude.Low),
		X2:   float64(b.Longitude.High),
		Y2:   float64(b.Latitude.High),
		SRID: "EPSG:4326",
	}, nil
}

func validateRes(res int) error {
	if res < 1 || res > geohash.MaxLength {
		return fmt.Errorf("invalid geohash length %d (must be 1..%d)", res, geohash.MaxLength)
	}
	return nil
}
