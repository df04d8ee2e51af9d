package noise

import "math"

// OctaveConfig controls how FractalEvaluate layers octaves.
type OctaveConfig struct {
	// Octaves is the number of layers. Zero or less yields 0.
	Octaves int
	// Persistence multiplies the amplitude of each successive octave.
	Persistence float64
	// Lacunarity multiplies the frequency of each successive octave.
	Lacunarity float64
	// Scale is the frequency of the first octave.
	Scale float64
	// Normalization multiplies the accumulated sum. NewOctaveConfig derives
	// it from Octaves and Persistence.
	Normalization float64
}

// DefaultOctaveConfig returns 4 octaves, persistence 0.5, lacunarity 2 and
// base frequency 1.
func DefaultOctaveConfig() OctaveConfig {
	return NewOctaveConfig(4, 0.5, 2, 1)
}

// NewOctaveConfig returns an OctaveConfig whose Normalization keeps the
// fractal sum in the single-octave range for any octave count.
func NewOctaveConfig(octaves int, persistence, lacunarity, scale float64) OctaveConfig {
	return OctaveConfig{
		Octaves:       octaves,
		Persistence:   persistence,
		Lacunarity:    lacunarity,
		Scale:         scale,
		Normalization: Normalization(octaves, persistence),
	}
}

// Normalization returns (1-p)/(1-p^n), the reciprocal of the amplitude sum.
//
// When the denominator vanishes (p == 1) the geometric series degenerates
// and the result falls back to 1/n, the unweighted average, which is also the
// limit of the formula as p approaches 1. For n <= 0 it returns 1; the sum
// is empty in that case.
func Normalization(octaves int, persistence float64) float64 {
	if octaves <= 0 {
		return 1
	}
	den := 1 - math.Pow(persistence, float64(octaves))
	if persistence == 1 || den == 0 {
		return 1 / float64(octaves)
	}
	return (1 - persistence) / den
}

// FractalEvaluate sums cfg.Octaves octaves of Evaluate, each at Lacunarity
// times the frequency and Persistence times the amplitude of the previous
// one, and scales the total by cfg.Normalization.
func FractalEvaluate(x, y float64, cfg OctaveConfig, seed, tag string) float64 {
	return fractal(x, y, cfg, seed+tag, HashCoord, GradientTable)
}

// Fractal is the method form of FractalEvaluate.
func (f Field) Fractal(x, y float64, cfg OctaveConfig) float64 {
	h := f.Hash
	if h == nil {
		h = HashCoord
	}
	return fractal(x, y, cfg, f.Seed+f.Tag, h, f.Gradients)
}

func fractal(x, y float64, cfg OctaveConfig, salt string, hash LatticeHash, mode GradientMode) float64 {
	return Accumulate(func(x, y float64) float64 {
		return simplex2(x, y, salt, hash, mode)
	}, x, y, cfg)
}

// Accumulate layers cfg.Octaves octaves of kernel at (x, y) with the
// frequency, amplitude and normalization rules of FractalEvaluate.
func Accumulate(kernel func(x, y float64) float64, x, y float64, cfg OctaveConfig) float64 {
	var total float64
	frequency := cfg.Scale
	amplitude := 1.0

	for range cfg.Octaves {
		total += kernel(x*frequency, y*frequency) * amplitude
		frequency *= cfg.Lacunarity
		amplitude *= cfg.Persistence
	}
	return total * cfg.Normalization
}
