// Package keys builds the Redis/LRU keys for cached codec results.
package keys

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

const defaultPrefix = "geohash"

// Encode keys an encode request by the exact float32 bit patterns of the
// point, hex-encoded, so -0 and 0 or two values that print alike never
// share an entry.
func Encode(prefix string, lat, lon float32, length uint32) string {
	var b [12]byte
	binary.BigEndian.PutUint32(b[0:4], math.Float32bits(lat))
	binary.BigEndian.PutUint32(b[4:8], math.Float32bits(lon))
	binary.BigEndian.PutUint32(b[8:12], length)
	return fmt.Sprintf("%s:enc:%d:%x", sanitizePrefix(prefix), length, b[:])
}

// Decode keys a decode request. Callers validate hash first; the alphabet is
// already key-safe.
func Decode(prefix, hash string) string {
	return fmt.Sprintf("%s:dec:%d:%s", sanitizePrefix(prefix), len(hash), hash)
}

// Cell keys a point-to-cell lookup for a given scheme and resolution.
func Cell(prefix, scheme string, lat, lon float64, res int) string {
	var b [16]byte
	binary.BigEndian.PutUint64(b[0:8], math.Float64bits(lat))
	binary.BigEndian.PutUint64(b[8:16], math.Float64bits(lon))
	return fmt.Sprintf("%s:cell:%s:%d:%x", sanitizePrefix(prefix), sanitizePrefix(scheme), res, b[:])
}

func sanitizePrefix(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultPrefix
	}
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	for _, r := range s {
		out := rune(0)
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f':
			out = '_'
		case isAlphaNum(r) || r == ':' || r == '_' || r == '-':
			out = r
		default:
			// Any other rune (including non-ASCII) becomes '-'
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
