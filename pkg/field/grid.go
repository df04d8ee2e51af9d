package field

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Region selects a rectangle of sample indices. Sample (ix, iy) is taken at
// coordinate (ix/Scale, iy/Scale).
type Region struct {
	X, Y          int
	Width, Height int
	Scale         float64
}

// Coord returns the field coordinate of the local sample (col, row).
func (r Region) Coord(col, row int) (float64, float64) {
	return float64(r.X+col) / r.Scale, float64(r.Y+row) / r.Scale
}

func (r Region) validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("invalid region size %dx%d", r.Width, r.Height)
	}
	if r.Scale == 0 {
		return fmt.Errorf("region scale must be non-zero")
	}
	return nil
}

// Grid holds row-major field samples.
type Grid struct {
	Width, Height int
	Samples       []float64
}

// NewGrid allocates a zeroed width×height grid.
func NewGrid(width, height int) *Grid {
	return &Grid{
		Width:   width,
		Height:  height,
		Samples: make([]float64, width*height),
	}
}

// At returns the sample at column x, row y.
func (g *Grid) At(x, y int) float64 {
	return g.Samples[y*g.Width+x]
}

// Set stores the sample at column x, row y.
func (g *Grid) Set(x, y int, v float64) {
	g.Samples[y*g.Width+x] = v
}

// Row returns the backing slice of row y.
func (g *Grid) Row(y int) []float64 {
	return g.Samples[y*g.Width : (y+1)*g.Width]
}

// Sample evaluates src over r. Rows are sampled concurrently by at most
// workers goroutines (unbounded when workers <= 0); every row owns a
// disjoint slice of the grid. Cancelling ctx stops scheduling new rows.
func Sample(ctx context.Context, src Source, r Region, workers int) (*Grid, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}

	g := NewGrid(r.Width, r.Height)
	eg, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		eg.SetLimit(workers)
	}

	for row := range r.Height {
		if gctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			dst := g.Row(row)
			for col := range dst {
				x, y := r.Coord(col, row)
				dst[col] = src.Sample(x, y)
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	// A cancellation that lands between the last Go and Wait leaves rows unset.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return g, nil
}
