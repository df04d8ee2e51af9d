package field

import "testing"

func TestGrayscale(t *testing.T) {
	tests := []struct {
		in   float64
		want uint8
	}{
		{0, 128},
		{0.25, 192},
		{-0.25, 64},
		{-0.5, 0},
		{0.5, 255},
		{0.49, 253},
		{-1, 0},
		{1, 255},
	}
	for _, tt := range tests {
		if got := Grayscale(tt.in); got != tt.want {
			t.Errorf("Grayscale(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestGrayPlane(t *testing.T) {
	g := NewGrid(2, 1)
	g.Set(0, 0, 0)
	g.Set(1, 0, 1)
	plane := g.GrayPlane()
	if len(plane) != 2 || plane[0] != 128 || plane[1] != 255 {
		t.Errorf("GrayPlane = %v, want [128 255]", plane)
	}
}
