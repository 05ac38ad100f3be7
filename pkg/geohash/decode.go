package geohash

// Decode returns the bounding box of hash. It stops at the first character
// outside Alphabet. The empty string decodes to the whole world.
func Decode(hash string) (Bounds, error) {
	ranges := world()
	step := 0
	for off, c := range hash {
		sym, err := DecodeSymbol(c)
		if err != nil {
			return Bounds{}, &CharacterError{Char: c, Offset: off}
		}
		for bit := bitsPerSymbol - 1; bit >= 0; bit-- {
			ranges[axis(step)].bisect(sym&(1<<bit) != 0)
			step++
		}
	}
	return boundsOf(ranges), nil
}

// Validate checks that every character of hash is in Alphabet.
func Validate(hash string) error {
	for off, c := range hash {
		if _, err := DecodeSymbol(c); err != nil {
			return &CharacterError{Char: c, Offset: off}
		}
	}
	return nil
}
