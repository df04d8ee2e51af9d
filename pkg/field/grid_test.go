package field

import (
	"context"
	"errors"
	"testing"

	"github.com/OCharnyshevich/noisefield/pkg/noise"
)

func TestSampleMatchesDirectEvaluation(t *testing.T) {
	cfg := noise.NewOctaveConfig(4, 0.6, 2, 1)
	src := NoiseSource{Field: noise.NewField("seed", ""), Octaves: cfg}
	r := Region{X: -16, Y: 8, Width: 32, Height: 24, Scale: 128}

	g, err := Sample(context.Background(), src, r, 4)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if g.Width != 32 || g.Height != 24 || len(g.Samples) != 32*24 {
		t.Fatalf("unexpected grid shape %dx%d (%d samples)", g.Width, g.Height, len(g.Samples))
	}
	for row := 0; row < r.Height; row++ {
		for col := 0; col < r.Width; col++ {
			x := float64(r.X+col) / 128
			y := float64(r.Y+row) / 128
			want := noise.FractalEvaluate(x, y, cfg, "seed", "")
			if got := g.At(col, row); got != want {
				t.Fatalf("sample (%d, %d) = %v, want %v", col, row, got, want)
			}
		}
	}
}

func TestSampleIndependentOfWorkerCount(t *testing.T) {
	src := NoiseSource{Field: noise.NewField("seed", "elevation"), Octaves: noise.DefaultOctaveConfig()}
	r := Region{Width: 64, Height: 64, Scale: 32}

	serial, err := Sample(context.Background(), src, r, 1)
	if err != nil {
		t.Fatalf("Sample(1): %v", err)
	}
	for _, workers := range []int{0, 2, 7, 64} {
		par, err := Sample(context.Background(), src, r, workers)
		if err != nil {
			t.Fatalf("Sample(%d): %v", workers, err)
		}
		for i := range serial.Samples {
			if serial.Samples[i] != par.Samples[i] {
				t.Fatalf("workers=%d: sample %d differs", workers, i)
			}
		}
	}
}

func TestSampleCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := SourceFunc(func(x, y float64) float64 { return x + y })
	_, err := Sample(ctx, src, Region{Width: 8, Height: 8, Scale: 1}, 2)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Sample on cancelled context = %v, want context.Canceled", err)
	}
}

func TestSampleSucceedsOnLiveContext(t *testing.T) {
	src := SourceFunc(func(x, y float64) float64 { return x + y })
	for _, workers := range []int{0, 1, 4} {
		g, err := Sample(context.Background(), src, Region{Width: 2, Height: 2, Scale: 1}, workers)
		if err != nil {
			t.Fatalf("workers=%d: Sample = %v", workers, err)
		}
		if got := g.At(1, 1); got != 2 {
			t.Errorf("workers=%d: At(1, 1) = %v, want 2", workers, got)
		}
	}
}

func TestSampleCancelledMidway(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := SourceFunc(func(x, y float64) float64 {
		cancel()
		return 0
	})
	_, err := Sample(ctx, src, Region{Width: 4, Height: 64, Scale: 1}, 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Sample cancelled midway = %v, want context.Canceled", err)
	}
}

func TestSampleInvalidRegion(t *testing.T) {
	src := SourceFunc(func(x, y float64) float64 { return 0 })
	tests := []struct {
		name string
		r    Region
	}{
		{"zero_width", Region{Width: 0, Height: 4, Scale: 1}},
		{"negative_height", Region{Width: 4, Height: -1, Scale: 1}},
		{"zero_scale", Region{Width: 4, Height: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Sample(context.Background(), src, tt.r, 1); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestGridRowAliasesSamples(t *testing.T) {
	g := NewGrid(3, 2)
	g.Row(1)[2] = 7
	if g.At(2, 1) != 7 {
		t.Errorf("At(2, 1) = %v, want 7", g.At(2, 1))
	}
	g.Set(0, 0, -1)
	if g.Samples[0] != -1 {
		t.Errorf("Samples[0] = %v, want -1", g.Samples[0])
	}
}
