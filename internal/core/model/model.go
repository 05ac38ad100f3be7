// Package model defines core domain types shared across the service.
package model

import "github.com/mohammed-shakir/geohash-codec/pkg/geohash"

type BBox struct {
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
	X2   float64 `json:"x2"`
	Y2   float64 `json:"y2"`
	SRID string  `json:"srid"`
}

type Point struct {
	Lat float32 `json:"lat"`
	Lon float32 `json:"lon"`
}

type EncodeRequest struct {
	Lat    float32
	Lon    float32
	Length uint32
}

type EncodeResult struct {
	Geohash string  `json:"geohash"`
	Lat     float32 `json:"lat"`
	Lon     float32 `json:"lon"`
	Length  uint32  `json:"length"`
}

type DecodeResult struct {
	Geohash   string        `json:"geohash"`
	Latitude  geohash.Range `json:"latitude"`
	Longitude geohash.Range `json:"longitude"`
	Center    Point         `json:"center"`
}

type CellRequest struct {
	Scheme string
	Lat    float64
	Lon    float64
	Res    int
}

type CellResult struct {
	Scheme string `json:"scheme"`
	Cell   string `json:"cell"`
	Res    int    `json:"res"`
	BBox   BBox   `json:"bbox"`
}

const (
	SchemeGeohash = "geohash"
	SchemeH3      = "h3"
)
