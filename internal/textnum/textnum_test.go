package textnum

import "testing"

func TestInt(t *testing.T) {
	cases := map[string]int{
		"42":   42,
		"08":   8,
		" 7":   7,
		"-3":   -3,
		"12ab": 12,
		"xx":   0,
		"":     0,
		"-":    0,
	}
	for in, want := range cases {
		if got := Int(in); got != want {
			t.Errorf("Int(%q)=%d want %d", in, got, want)
		}
	}
}

func TestFloat(t *testing.T) {
	cases := map[string]float64{
		"25":      25,
		"55.4487": 55.4487,
		"5.":      5,
		".5":      0.5,
		"1.2.3":   1.2,
		"abc":     0,
		"":        0,
		"-.":      0,
	}
	for in, want := range cases {
		if got := Float(in); got != want {
			t.Errorf("Float(%q)=%v want %v", in, got, want)
		}
	}
}
