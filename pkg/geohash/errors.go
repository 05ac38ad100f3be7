package geohash

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange is returned by Encode for coordinates outside
	// [-90, 90] x [-180, 180].
	ErrOutOfRange = errors.New("geohash: coordinate out of range")

	// ErrInvalidCharacter is returned by Decode and DecodeSymbol for a
	// character outside Alphabet.
	ErrInvalidCharacter = errors.New("geohash: invalid character")
)

// CoordinateError carries the rejected input of Encode.
type CoordinateError struct {
	Lat, Lon float32
}

func (e *CoordinateError) Error() string {
	return fmt.Sprintf("geohash: coordinate out of range: lat=%v lon=%v (want lat in [-90,90], lon in [-180,180])", e.Lat, e.Lon)
}

func (e *CoordinateError) Is(target error) bool { return target == ErrOutOfRange }

// CharacterError reports the first character that is not part of Alphabet.
// Offset is the byte offset in the input, or -1 for a lone symbol.
type CharacterError struct {
	Char   rune
	Offset int
}

func (e *CharacterError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("geohash: invalid character %q", e.Char)
	}
	return fmt.Sprintf("geohash: invalid character %q at offset %d", e.Char, e.Offset)
}

func (e *CharacterError) Is(target error) bool { return target == ErrInvalidCharacter }
