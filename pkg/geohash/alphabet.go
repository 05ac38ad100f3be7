// Package geohash encodes latitude/longitude pairs into base-32 geohash
// strings and decodes geohash strings back into bounding boxes.
//
// All arithmetic is done in float32 so bounds match the reference values
// bit for bit.
package geohash

import "fmt"

// Alphabet is the geohash base-32 character set. It skips a, i, l and o.
const Alphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

const (
	bitsPerSymbol = 5
	invalidSymbol = 0xff
)

// decodeTable maps an ASCII byte to its 5-bit value or invalidSymbol.
var decodeTable = func() [128]uint8 {
	var t [128]uint8
	for i := range t {
		t[i] = invalidSymbol
	}
	for i := 0; i < len(Alphabet); i++ {
		t[Alphabet[i]] = uint8(i)
	}
	return t
}()

// EncodeSymbol returns the alphabet character for a 5-bit value.
// Values above 31 never come out of the encoder and panic.
func EncodeSymbol(v uint8) byte {
	if int(v) >= len(Alphabet) {
		panic(fmt.Sprintf("geohash: symbol value %d out of 5-bit range", v))
	}
	return Alphabet[v]
}

// DecodeSymbol returns the 5-bit value of c. Membership is exact: no case
// folding and no whitespace trimming.
func DecodeSymbol(c rune) (uint8, error) {
	if c < 0 || int(c) >= len(decodeTable) {
		return 0, &CharacterError{Char: c, Offset: -1}
	}
	v := decodeTable[c]
	if v == invalidSymbol {
		return 0, &CharacterError{Char: c, Offset: -1}
	}
	return v, nil
}
