package geohash

// MaxLength is the longest geohash the service layers accept. Past roughly
// ten characters float32 bounds stop narrowing, so longer hashes add nothing.
const MaxLength = 32

// Encode returns the geohash of length characters for the given point.
// Boundary values are valid; NaN and anything outside the world box fail
// with ErrOutOfRange before any work is done.
func Encode(lat, lon float32, length uint32) (string, error) {
	if err := ValidatePoint(lat, lon); err != nil {
		return "", err
	}

	ranges := world()
	coords := [2]float32{lonAxis: lon, latAxis: lat}
	out := make([]byte, 0, length)
	step := 0
	for range length {
		var sym uint8
		for bit := bitsPerSymbol - 1; bit >= 0; bit-- {
			a := axis(step)
			// a point sitting exactly on mid belongs to the upper half
			upper := ranges[a].Mid() <= coords[a]
			if upper {
				sym |= 1 << bit
			}
			ranges[a].bisect(upper)
			step++
		}
		out = append(out, EncodeSymbol(sym))
	}
	return string(out), nil
}

// ValidatePoint reports ErrOutOfRange unless lat is in [-90, 90] and lon in
// [-180, 180]. NaN fails both comparisons and is rejected.
func ValidatePoint(lat, lon float32) error {
	if !(lat >= -90 && lat <= 90) || !(lon >= -180 && lon <= 180) {
		return &CoordinateError{Lat: lat, Lon: lon}
	}
	return nil
}
