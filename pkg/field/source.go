package field

import (
	"fmt"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"

	"github.com/OCharnyshevich/noisefield/pkg/noise"
)

// Source is anything that yields a scalar per 2D coordinate.
type Source interface {
	Sample(x, y float64) float64
}

// SourceFunc adapts a plain function to Source.
type SourceFunc func(x, y float64) float64

func (f SourceFunc) Sample(x, y float64) float64 { return f(x, y) }

// NoiseSource samples the fractal simplex field.
type NoiseSource struct {
	Field   noise.Field
	Octaves noise.OctaveConfig
}

func (s NoiseSource) Sample(x, y float64) float64 {
	return s.Field.Fractal(x, y, s.Octaves)
}

// Layer sums cfg.Octaves octaves of an arbitrary kernel with the same
// frequency, amplitude and normalization rules as noise.FractalEvaluate.
func Layer(kernel func(x, y float64) float64, cfg noise.OctaveConfig) Source {
	return SourceFunc(func(x, y float64) float64 {
		return noise.Accumulate(kernel, x, y, cfg)
	})
}

// NewPerlinSource returns classic Perlin noise from github.com/aquilax/go-perlin.
// The library layers octaves itself: its alpha divides the amplitude per
// octave, so it is set to 1/Persistence.
func NewPerlinSource(f noise.Field, cfg noise.OctaveConfig) (Source, error) {
	if cfg.Persistence == 0 {
		return nil, fmt.Errorf("perlin kernel needs non-zero persistence")
	}
	p := perlin.NewPerlin(1/cfg.Persistence, cfg.Lacunarity, int32(cfg.Octaves), channelSeed(f))
	scale := cfg.Scale
	return SourceFunc(func(x, y float64) float64 {
		return p.Noise2D(x*scale, y*scale)
	}), nil
}

// NewOpenSimplexSource layers github.com/ojrac/opensimplex-go octaves.
func NewOpenSimplexSource(f noise.Field, cfg noise.OctaveConfig) Source {
	n := opensimplex.New(channelSeed(f))
	return Layer(n.Eval2, cfg)
}

// NewSource returns the Source for a kernel name: "simplex" (or ""),
// "perlin" or "opensimplex".
func NewSource(kernel string, f noise.Field, cfg noise.OctaveConfig) (Source, error) {
	switch kernel {
	case "", "simplex":
		return NoiseSource{Field: f, Octaves: cfg}, nil
	case "perlin":
		return NewPerlinSource(f, cfg)
	case "opensimplex":
		return NewOpenSimplexSource(f, cfg), nil
	default:
		return nil, fmt.Errorf("unknown kernel %q", kernel)
	}
}

// channelSeed folds the string seed and tag into the integer seed the
// third-party kernels take.
func channelSeed(f noise.Field) int64 {
	return int64(noise.HashString(f.Seed+f.Tag, ""))
}
