package anycam

import (
	"fmt"
	"math/rand"

	"github.com/unixpickle/anydiff"
)

// A PixelGrid selects the pixels at the intersections of a
// set of rows and a set of columns.
//
// Pixels in a grid are ordered row-major: pixel
// i*len(Cols)+j is at (Rows[i], Cols[j]).
type PixelGrid struct {
	Rows []int
	Cols []int
}

// FullGrid selects every pixel of a width x height image.
func FullGrid(width, height int) *PixelGrid {
	return RowGrid(width, 0, height)
}

// RowGrid selects every pixel in the rows [start, end).
func RowGrid(width, start, end int) *PixelGrid {
	res := &PixelGrid{Rows: make([]int, end-start), Cols: make([]int, width)}
	for i := range res.Rows {
		res.Rows[i] = start + i
	}
	for i := range res.Cols {
		res.Cols[i] = i
	}
	return res
}

// RandomGrid selects up to numRows distinct rows and up to
// numCols distinct columns, both in random order.
// If gen is nil, the global generator is used.
func RandomGrid(gen *rand.Rand, width, height, numRows, numCols int) *PixelGrid {
	perm := rand.Perm
	if gen != nil {
		perm = gen.Perm
	}
	rows := perm(height)
	cols := perm(width)
	if numRows < len(rows) {
		rows = rows[:numRows]
	}
	if numCols < len(cols) {
		cols = cols[:numCols]
	}
	return &PixelGrid{Rows: rows, Cols: cols}
}

// Len returns the number of pixels in the grid.
func (p *PixelGrid) Len() int {
	return len(p.Rows) * len(p.Cols)
}

// Rays stores one camera-space direction per pixel, as
// three planes of coordinates.
type Rays struct {
	X anydiff.Res
	Y anydiff.Res
	Z anydiff.Res
}

// Len returns the number of rays.
func (r *Rays) Len() int {
	return r.X.Output().Len()
}

// CameraRays computes the unnormalized camera-space
// direction through each pixel in a grid:
//
//     ((col - width/2)/fx, -(row - height/2)/fy, -1)
//
// The focal lengths are packed like the output of
// Intrinsics.Forward, and gradients flow back into them.
func CameraRays(grid *PixelGrid, width, height int, fxfy anydiff.Res) *Rays {
	if fxfy.Output().Len() != 2 {
		panic(fmt.Sprintf("expected 2 focal lengths but got %d", fxfy.Output().Len()))
	}
	for _, row := range grid.Rows {
		if row < 0 || row >= height {
			panic(fmt.Sprintf("row %d out of range [0, %d)", row, height))
		}
	}
	for _, col := range grid.Cols {
		if col < 0 || col >= width {
			panic(fmt.Sprintf("column %d out of range [0, %d)", col, width))
		}
	}

	c := fxfy.Output().Creator()
	xs := make([]float64, 0, grid.Len())
	ys := make([]float64, 0, grid.Len())
	for _, row := range grid.Rows {
		for _, col := range grid.Cols {
			xs = append(xs, float64(col)-0.5*float64(width))
			ys = append(ys, -(float64(row) - 0.5*float64(height)))
		}
	}
	zs := c.MakeVector(grid.Len())
	zs.AddScalar(c.MakeNumeric(-1))

	inv := anydiff.Pow(fxfy, c.MakeNumeric(-1))
	return &Rays{
		X: scaleBy(scalarConst(c, xs...), anydiff.Slice(inv, 0, 1)),
		Y: scaleBy(scalarConst(c, ys...), anydiff.Slice(inv, 1, 2)),
		Z: anydiff.NewConst(zs),
	}
}
