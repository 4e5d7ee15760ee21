package flatlay

import "testing"

func TestKindTagRoundTrip(t *testing.T) {
	kinds := []Kind{Int32, Int64, Float32, Float64, String, Object, Array}
	for _, k := range kinds {
		back, ok := kindFromTag(k.TagCode())
		if !ok || back != k {
			t.Errorf("** kindFromTag(%v.TagCode()) = %v, %v", k, back, ok)
		}
	}
	if _, ok := kindFromTag(200); ok {
		t.Errorf("** kindFromTag(200) unexpectedly succeeded")
	}
}

func TestKindTagCodesStable(t *testing.T) {
	// Persisted in descriptor files; these values must never change.
	tests := []struct {
		kind Kind
		tag  uint8
	}{
		{Int32, 0}, {Int64, 1}, {Float32, 2}, {Float64, 3},
		{String, 4}, {Object, 5}, {Array, 6},
	}
	for _, test := range tests {
		if got := test.kind.TagCode(); got != test.tag {
			t.Errorf("** %v.TagCode() = %d, wanted %d", test.kind, got, test.tag)
		}
	}
}

func TestKindScalarWidth(t *testing.T) {
	tests := []struct {
		kind  Kind
		width int
	}{
		{Int32, 4}, {Int64, 8}, {Float32, 4}, {Float64, 8},
		{String, 0}, {Object, 0}, {Array, 0},
	}
	for _, test := range tests {
		if got := test.kind.ScalarWidth(); got != test.width {
			t.Errorf("** %v.ScalarWidth() = %d, wanted %d", test.kind, got, test.width)
		}
	}
}

func TestKindFromTypeName(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		ok   bool
	}{
		{"int32", Int32, true},
		{"int64", Int64, true},
		{"float32", Float32, true},
		{"float64", Float64, true},
		{"string", String, true},
		{"object", Object, true},
		{"object[]", Array, true},
		{"uint32", 0, false},
		{"", 0, false},
	}
	for _, test := range tests {
		kind, ok := kindFromTypeName(test.name)
		if ok != test.ok || (ok && kind != test.kind) {
			t.Errorf("** kindFromTypeName(%q) = %v, %v", test.name, kind, ok)
		}
	}
}
