package noise

import (
	"math"
	"testing"
)

func TestGradientTableOrder(t *testing.T) {
	want := [8]Vector2{
		{1, 1}, {-1, 1}, {1, -1}, {-1, -1},
		{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	}
	for i, w := range want {
		if got := Gradient(uint32(i)); got != w {
			t.Errorf("Gradient(%d) = %v, want %v", i, got, w)
		}
	}
}

func TestGradientUsesLowBits(t *testing.T) {
	for h := uint32(0); h < 64; h++ {
		if Gradient(h) != Gradient(h&7) {
			t.Fatalf("Gradient(%d) != Gradient(%d)", h, h&7)
		}
	}
	if Gradient(0xfffffff9) != Gradient(1) {
		t.Error("Gradient should only look at the low three bits")
	}
}

func TestAngularGradientIsUnit(t *testing.T) {
	for h := 0; h < 256; h++ {
		g := AngularGradient(uint8(h))
		if l := math.Hypot(g.X, g.Y); math.Abs(l-1) > 1e-12 {
			t.Fatalf("AngularGradient(%d) length = %f", h, l)
		}
	}
	if g := AngularGradient(0); g.X != 1 || g.Y != 0 {
		t.Errorf("AngularGradient(0) = %v, want (1, 0)", g)
	}
}

func TestParseGradientMode(t *testing.T) {
	tests := []struct {
		name string
		want GradientMode
		ok   bool
	}{
		{"", GradientTable, true},
		{"table", GradientTable, true},
		{"angular", GradientAngular, true},
		{"spherical", GradientTable, false},
	}
	for _, tt := range tests {
		got, ok := ParseGradientMode(tt.name)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseGradientMode(%q) = %v, %v; want %v, %v", tt.name, got, ok, tt.want, tt.ok)
		}
		if ok && tt.name != "" && got.String() != tt.name {
			t.Errorf("%v.String() = %q", got, got.String())
		}
	}
}
