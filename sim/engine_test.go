package sim

import "testing"

func TestOptInt(t *testing.T) {
	opts := Options{
		"asInt":    7,
		"asInt64":  int64(8),
		"asFloat":  9.0, // YAML and JSON both decode numbers loosely
		"asString": "10",
		"tooSmall": -3,
		"tooLarge": 500,
	}

	tests := []struct {
		key  string
		want int
	}{
		{"asInt", 7},
		{"asInt64", 8},
		{"asFloat", 9},
		{"asString", 5}, // non-numeric falls back to the default
		{"missing", 5},
		{"tooSmall", 1},
		{"tooLarge", 100},
	}
	for _, tt := range tests {
		if got := optInt(opts, tt.key, 5, 1, 100); got != tt.want {
			t.Errorf("optInt(%q) = %d, want %d", tt.key, got, tt.want)
		}
	}
}

func TestOptBool(t *testing.T) {
	opts := Options{"on": true, "off": false, "junk": "yes"}
	if !optBool(opts, "on", false) {
		t.Error("optBool(on) = false")
	}
	if optBool(opts, "off", true) {
		t.Error("optBool(off) = true")
	}
	if !optBool(opts, "junk", true) {
		t.Error("optBool(junk) must fall back to the default")
	}
	if optBool(opts, "missing", false) {
		t.Error("optBool(missing) = true")
	}
}
