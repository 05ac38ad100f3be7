package geohash

// Range is a closed float32 interval. Bisection keeps Low <= High and only
// ever shrinks it.
type Range struct {
	Low  float32 `json:"low"`
	High float32 `json:"high"`
}

var (
	latitudeRange  = Range{Low: -90, High: 90}
	longitudeRange = Range{Low: -180, High: 180}
)

// Mid returns the midpoint, rounded to float32.
func (r Range) Mid() float32 {
	return (r.Low + r.High) / 2
}

// Width returns High - Low.
func (r Range) Width() float32 {
	return r.High - r.Low
}

// Contains reports whether v lies in [Low, High].
func (r Range) Contains(v float32) bool {
	return r.Low <= v && v <= r.High
}

// bisect keeps the upper half when upper is set and the lower half otherwise.
func (r *Range) bisect(upper bool) {
	mid := r.Mid()
	if upper {
		r.Low = mid
	} else {
		r.High = mid
	}
}

// Bounds is the bounding box a geohash resolves to.
type Bounds struct {
	Latitude  Range `json:"latitude"`
	Longitude Range `json:"longitude"`
}

// Center returns the midpoint of both ranges.
func (b Bounds) Center() (lat, lon float32) {
	return b.Latitude.Mid(), b.Longitude.Mid()
}

// Contains reports whether the point falls inside the box.
func (b Bounds) Contains(lat, lon float32) bool {
	return b.Latitude.Contains(lat) && b.Longitude.Contains(lon)
}

const (
	lonAxis = iota
	latAxis
)

// axis names the range narrowed at a bit step: longitude on even steps,
// latitude on odd ones.
func axis(step int) int {
	if step%2 == 0 {
		return lonAxis
	}
	return latAxis
}

func world() [2]Range {
	return [2]Range{lonAxis: longitudeRange, latAxis: latitudeRange}
}

func boundsOf(r [2]Range) Bounds {
	return Bounds{Latitude: r[latAxis], Longitude: r[lonAxis]}
}
