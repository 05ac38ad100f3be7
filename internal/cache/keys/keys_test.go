package keys

import (
	"regexp"
	"strings"
	"testing"
	"unicode"
)

var keySafe = regexp.MustCompile(`^[A-Za-z0-9:_\-]+$`)

func TestEncode_DeterministicAndDistinct(t *testing.T) {
	k1 := Encode("geohash", 37.5666805, 126.9784147, 8)
	k2 := Encode("geohash", 37.5666805, 126.9784147, 8)
	if k1 != k2 {
		t.Fatalf("determinism failed:\n k1=%s\n k2=%s", k1, k2)
	}
	if k1 == Encode("geohash", 37.5666805, 126.9784147, 9) {
		t.Fatalf("different lengths must produce different keys")
	}
	if k1 == Encode("geohash", 126.9784147, 37.5666805, 8) {
		t.Fatalf("swapped coordinates must produce different keys")
	}
	if !regexp.MustCompile(`^geohash:enc:8:[0-9a-f]{24}$`).MatchString(k1) {
		t.Fatalf("unexpected key shape: %s", k1)
	}
}

func TestEncode_SignedZeroIsDistinct(t *testing.T) {
	var negZero float32 = 0
	negZero = -negZero
	if Encode("p", 0, 0, 4) == Encode("p", negZero, 0, 4) {
		t.Fatalf("-0 and 0 must not share a key")
	}
}

func TestDecode_Shape(t *testing.T) {
	if got := Decode("geohash", "wydm9qyc"); got != "geohash:dec:8:wydm9qyc" {
		t.Fatalf("got %q", got)
	}
	if got := Decode("", ""); got != "geohash:dec:0:" {
		t.Fatalf("empty prefix must fall back to default, got %q", got)
	}
}

func TestPrefix_Sanitized(t *testing.T) {
	k := Cell("  my cache/ä ", "h3", 59.3293, 18.0686, 8)
	for _, r := range k {
		if r > unicode.MaxASCII {
			t.Fatalf("non-ASCII rune leaked into key: %q in %s", r, k)
		}
	}
	if !keySafe.MatchString(k) {
		t.Fatalf("key contains disallowed characters: %s", k)
	}
	if !strings.HasPrefix(k, "my_cache-:cell:h3:8:") {
		t.Fatalf("unexpected prefix: %s", k)
	}
}

func TestEncode_CarriesRawBits(t *testing.T) {
	// 1.0 = 0x3f800000, -2.0 = 0xc0000000, length 5
	if got := Encode("geohash", 1, -2, 5); got != "geohash:enc:5:3f800000c000000000000005" {
		t.Fatalf("got %q", got)
	}
	// neighbouring float32 values one ulp apart
	if Encode("p", 1, 0, 8) == Encode("p", 1.0000001, 0, 8) {
		t.Fatalf("adjacent floats must not share a key")
	}
}

func TestCell_CarriesRawBits(t *testing.T) {
	// 1.0 = 0x3ff0000000000000, 0.0 = 0
	if got := Cell("geohash", "h3", 1, 0, 8); got != "geohash:cell:h3:8:3ff00000000000000000000000000000" {
		t.Fatalf("got %q", got)
	}
}
