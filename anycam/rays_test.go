package anycam

import (
	"math"
	"math/rand"
	"testing"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anydiff/anydifftest"
	"github.com/unixpickle/anyvec/anyvec64"
)

func TestIntrinsicsInit(t *testing.T) {
	in := NewIntrinsics(anyvec64.DefaultCreator{}, 40, 30)
	fx, fy := in.Focal()
	if fx != 40 || fy != 30 {
		t.Errorf("expected (40, 30) but got (%f, %f)", fx, fy)
	}
}

func TestIntrinsicsProp(t *testing.T) {
	in := NewIntrinsics(anyvec64.DefaultCreator{}, 40, 30)
	in.FX.Vector.Set(anyvec64.MakeVectorData([]float64{0.7}))
	in.FY.Vector.Set(anyvec64.MakeVectorData([]float64{-1.3}))
	checker := &anydifftest.ResChecker{
		F: func() anydiff.Res {
			return in.Forward()
		},
		V: in.Parameters(),
	}
	checker.FullCheck(t)
}

func TestCameraRays(t *testing.T) {
	fxfy := anydiff.NewConst(anyvec64.MakeVectorData([]float64{2, 4}))
	grid := &PixelGrid{Rows: []int{0, 3}, Cols: []int{1, 2, 5}}
	rays := CameraRays(grid, 6, 4, fxfy)
	if rays.Len() != 6 {
		t.Fatalf("expected 6 rays but got %d", rays.Len())
	}
	xs := rays.X.Output().Data().([]float64)
	ys := rays.Y.Output().Data().([]float64)
	zs := rays.Z.Output().Data().([]float64)
	for i, row := range grid.Rows {
		for j, col := range grid.Cols {
			idx := i*len(grid.Cols) + j
			expX := (float64(col) - 3) / 2
			expY := -(float64(row) - 2) / 4
			if math.Abs(xs[idx]-expX) > 1e-12 || math.Abs(ys[idx]-expY) > 1e-12 ||
				zs[idx] != -1 {
				t.Errorf("pixel (%d, %d): expected (%f, %f, -1) but got (%f, %f, %f)",
					row, col, expX, expY, xs[idx], ys[idx], zs[idx])
			}
		}
	}
}

func TestCameraRaysProp(t *testing.T) {
	in := NewIntrinsics(anyvec64.DefaultCreator{}, 6, 4)
	in.FX.Vector.Set(anyvec64.MakeVectorData([]float64{0.8}))
	grid := FullGrid(6, 4)
	for _, comp := range []string{"X", "Y"} {
		comp := comp
		t.Run(comp, func(t *testing.T) {
			checker := &anydifftest.ResChecker{
				F: func() anydiff.Res {
					rays := CameraRays(grid, 6, 4, in.Forward())
					if comp == "X" {
						return rays.X
					}
					return rays.Y
				},
				V: in.Parameters(),
			}
			checker.FullCheck(t)
		})
	}
}

func TestCameraRaysOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	fxfy := anydiff.NewConst(anyvec64.MakeVectorData([]float64{2, 4}))
	CameraRays(&PixelGrid{Rows: []int{4}, Cols: []int{0}}, 6, 4, fxfy)
}

func TestRandomGrid(t *testing.T) {
	gen := rand.New(rand.NewSource(1337))
	grid := RandomGrid(gen, 10, 7, 5, 32)
	if len(grid.Rows) != 5 || len(grid.Cols) != 10 {
		t.Fatalf("unexpected grid size %dx%d", len(grid.Rows), len(grid.Cols))
	}
	seen := map[int]bool{}
	for _, r := range grid.Rows {
		if r < 0 || r >= 7 || seen[r] {
			t.Errorf("bad or repeated row: %d", r)
		}
		seen[r] = true
	}
	if grid.Len() != 50 {
		t.Errorf("expected 50 pixels but got %d", grid.Len())
	}
}

func TestFullGrid(t *testing.T) {
	grid := FullGrid(3, 2)
	if len(grid.Rows) != 2 || len(grid.Cols) != 3 || grid.Rows[1] != 1 || grid.Cols[2] != 2 {
		t.Errorf("unexpected grid: %v", grid)
	}
}
