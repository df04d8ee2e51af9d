package field

// Grayscale maps a sample in roughly [-1, 1] to an 8-bit level centred on
// 128, clamping anything outside [0, 255].
func Grayscale(v float64) uint8 {
	d := 128 + int(256*v)
	if d > 255 {
		return 255
	}
	if d < 0 {
		return 0
	}
	return uint8(d)
}

// GrayPlane converts the grid to one grayscale byte per sample, row-major.
func (g *Grid) GrayPlane() []byte {
	out := make([]byte, len(g.Samples))
	for i, v := range g.Samples {
		out[i] = Grayscale(v)
	}
	return out
}
