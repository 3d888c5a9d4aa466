package anytraj

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/unixpickle/anynerf/anycam"
)

func TestSpiralRadii(t *testing.T) {
	positions := []r3.Vector{
		{X: -4, Y: 0.5, Z: 0},
		{X: 1, Y: -0.5, Z: 0},
		{X: -2, Y: 0.5, Z: 0},
		{X: 3, Y: 0.5, Z: 0},
	}
	actual := SpiralRadii(positions)
	expected := r3.Vector{X: 3, Y: 0.5, Z: 0}
	if actual != expected {
		t.Errorf("expected %v but got %v", expected, actual)
	}
	if (SpiralRadii(nil) != r3.Vector{}) {
		t.Error("expected zero radii for no cameras")
	}
}

func TestSpiralDegenerate(t *testing.T) {
	poses := Spiral(r3.Vector{}, 3.5, 5, 1)
	if len(poses) != 5 {
		t.Fatalf("expected 5 poses but got %d", len(poses))
	}
	for i, p := range poses {
		if p != anycam.IdentityPose() {
			t.Errorf("pose %d: expected identity but got %v", i, p)
		}
	}
}

func TestSpiralLookAt(t *testing.T) {
	radii := r3.Vector{X: 0.3, Y: 0.2, Z: 0.1}
	focus := 3.5
	poses := Spiral(radii, focus, 12, 2)
	if len(poses) != 12 {
		t.Fatalf("expected 12 poses but got %d", len(poses))
	}

	first := poses[0].Translation()
	if first.Sub(r3.Vector{X: 0.3}).Norm() > 1e-8 {
		t.Errorf("unexpected first center: %v", first)
	}
	// Two circles in 12 frames return to the start halfway.
	if poses[6].Translation().Sub(r3.Vector{X: 0.3}).Norm() > 1e-8 {
		t.Errorf("unexpected center after one circle: %v", poses[6].Translation())
	}

	target := r3.Vector{Z: -focus}
	for i, p := range poses {
		center := p.Translation()
		if math.Abs(center.Y) > radii.Y+1e-8 || math.Abs(center.Z) > radii.Z+1e-8 {
			t.Errorf("pose %d: center %v outside radii", i, center)
		}

		// Cameras look down their negative z axis.
		forward := p.Apply(r3.Vector{Z: -1}).Sub(center)
		toTarget := target.Sub(center).Normalize()
		if forward.Sub(toTarget).Norm() > 1e-8 {
			t.Errorf("pose %d: forward %v does not face target (%v)", i, forward, toTarget)
		}

		axes := []r3.Vector{
			p.Apply(r3.Vector{X: 1}).Sub(center),
			p.Apply(r3.Vector{Y: 1}).Sub(center),
			p.Apply(r3.Vector{Z: 1}).Sub(center),
		}
		for j, a := range axes {
			if math.Abs(a.Norm()-1) > 1e-8 {
				t.Errorf("pose %d: axis %d is not unit length", i, j)
			}
			for k := j + 1; k < 3; k++ {
				if math.Abs(a.Dot(axes[k])) > 1e-8 {
					t.Errorf("pose %d: axes %d and %d are not orthogonal", i, j, k)
				}
			}
		}
		if axes[0].Cross(axes[1]).Sub(axes[2]).Norm() > 1e-8 {
			t.Errorf("pose %d: axes are not right-handed", i)
		}
		if axes[1].Y <= 0 {
			t.Errorf("pose %d: camera is upside down", i)
		}
	}
}

func TestPlotHistory(t *testing.T) {
	history := [][]r3.Vector{
		{{X: 0, Z: 0}, {X: 1, Z: 1}},
		{{X: 0.1, Z: -0.1}, {X: 1.2, Z: 0.9}},
		{{X: 0.2, Z: -0.1}, {X: 1.3, Z: 0.9}},
	}
	path := filepath.Join(t.TempDir(), "poses.png")
	if err := PlotHistory(history, path); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("empty plot")
	}
}

func TestHistoryPlotErrors(t *testing.T) {
	if _, err := HistoryPlot(nil); err == nil {
		t.Error("expected error for empty history")
	}
	ragged := [][]r3.Vector{{{}, {}}, {{}}}
	if _, err := HistoryPlot(ragged); err == nil {
		t.Error("expected error for ragged history")
	}
}
