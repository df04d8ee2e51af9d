package field

import (
	"math"
	"testing"

	"github.com/OCharnyshevich/noisefield/pkg/noise"
)

func TestNewSourceKernels(t *testing.T) {
	f := noise.NewField("seed", "")
	cfg := noise.NewOctaveConfig(3, 0.5, 2, 1)

	for _, kernel := range []string{"", "simplex", "perlin", "opensimplex"} {
		t.Run(kernel, func(t *testing.T) {
			src, err := NewSource(kernel, f, cfg)
			if err != nil {
				t.Fatalf("NewSource(%q): %v", kernel, err)
			}
			for i := 0; i < 200; i++ {
				x := float64(i)*0.37 + 0.1
				y := float64(i)*0.53 + 0.2
				v := src.Sample(x, y)
				if math.IsNaN(v) || math.Abs(v) > 2 {
					t.Fatalf("sample (%f, %f) = %f", x, y, v)
				}
				if v != src.Sample(x, y) {
					t.Fatalf("kernel %q not deterministic", kernel)
				}
			}
		})
	}
}

func TestNewSourceUnknownKernel(t *testing.T) {
	if _, err := NewSource("value", noise.NewField("seed", ""), noise.DefaultOctaveConfig()); err == nil {
		t.Error("expected error for unknown kernel")
	}
}

func TestSimplexSourceIsFractal(t *testing.T) {
	cfg := noise.DefaultOctaveConfig()
	src, err := NewSource("simplex", noise.NewField("seed", "t"), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if src.Sample(1.25, -3.5) != noise.FractalEvaluate(1.25, -3.5, cfg, "seed", "t") {
		t.Error("simplex source should match noise.FractalEvaluate")
	}
}

func TestLayerMatchesFractalEvaluate(t *testing.T) {
	cfg := noise.NewOctaveConfig(5, 0.6, 2.1, 0.5)
	src := Layer(func(x, y float64) float64 { return noise.Evaluate(x, y, "seed", "") }, cfg)
	for i := 0; i < 100; i++ {
		x := float64(i) * 0.9
		y := float64(i) * -0.4
		if src.Sample(x, y) != noise.FractalEvaluate(x, y, cfg, "seed", "") {
			t.Fatalf("Layer differs from FractalEvaluate at (%f, %f)", x, y)
		}
	}
}

func TestTagsChangeThirdPartyKernels(t *testing.T) {
	cfg := noise.DefaultOctaveConfig()
	a := NewOpenSimplexSource(noise.NewField("seed", "a"), cfg)
	b := NewOpenSimplexSource(noise.NewField("seed", "b"), cfg)
	if a.Sample(0.3, 0.7) == b.Sample(0.3, 0.7) {
		t.Error("tag should select a different opensimplex channel")
	}
}
