package main

import (
	"math"
	"math/rand"
	"net/url"

	"github.com/mohammed-shakir/geohash-codec/pkg/geohash"
)

type point struct {
	Lat, Lon float32
	Hash     string
}

// makePoints mixes hot points around a few cities with cold points spread
// over the whole globe; each carries its geohash for decode requests.
func makePoints(count int, length uint32, r *rand.Rand) []point {
	centers := [][2]float32{
		{59.3293, 18.0686},   // Stockholm
		{37.5666, 126.9784},  // Seoul
		{40.7128, -74.0060},  // New York
		{-33.8688, 151.2093}, // Sydney
	}
	pts := make([]point, 0, count)

	hot := int(math.Max(8, float64(count/4)))
	for i := 0; i < hot && len(pts) < count; i++ {
		c := centers[i%len(centers)]
		lat := c[0] + float32((r.Float64()-0.5)*0.2)
		lon := c[1] + float32((r.Float64()-0.5)*0.2)
		pts = append(pts, newPoint(lat, lon, length))
	}
	for len(pts) < count {
		lat := float32(r.Float64()*180 - 90)
		lon := float32(r.Float64()*360 - 180)
		pts = append(pts, newPoint(lat, lon, length))
	}
	return pts
}

func newPoint(lat, lon float32, length uint32) point {
	// inputs are generated in range
	h, _ := geohash.Encode(lat, lon, length)
	return point{Lat: lat, Lon: lon, Hash: h}
}

// requestFor picks the operation for the n-th request of a worker:
// encode and decode alternate, every cellEvery-th request is a cell lookup.
func requestFor(base *url.URL, n int, p point, cellEvery int) (op string, u url.URL) {
	u = *base
	q := url.Values{}
	switch {
	case cellEvery > 0 && n%cellEvery == cellEvery-1:
		op = "cell"
		u.Path = "/v1/cell"
		q.Set("lat", formatFloat(p.Lat))
		q.Set("lon", formatFloat(p.Lon))
		q.Set("scheme", "h3")
	case n%2 == 0:
		op = "encode"
		u.Path = "/v1/encode"
		q.Set("lat", formatFloat(p.Lat))
		q.Set("lon", formatFloat(p.Lon))
	default:
		op = "decode"
		u.Path = "/v1/decode"
		q.Set("geohash", p.Hash)
	}
	u.RawQuery = q.Encode()
	return op, u
}

func percentile(sortedValues []float64, p float64) float64 {
	if len(sortedValues) == 0 {
		return math.NaN()
	}
	if p <= 0 {
		return sortedValues[0]
	}
	if p >= 100 {
		return sortedValues[len(sortedValues)-1]
	}
	k := (p / 100.0) * float64(len(sortedValues)-1)
	f := math.Floor(k)
	i := int(f)
	if i >= len(sortedValues)-1 {
		return sortedValues[len(sortedValues)-1]
	}
	d := k - f
	return sortedValues[i]*(1-d) + sortedValues[i+1]*d
}
