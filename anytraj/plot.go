package anytraj

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/unixpickle/essentials"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// PlotHistory draws a top-down (x-z) view of how each
// camera moved during training and saves it to path.
//
// The history stores one snapshot of every camera position
// per epoch.
// The output format is determined by the file extension,
// e.g. ".png" or ".svg".
func PlotHistory(history [][]r3.Vector, path string) error {
	p, err := HistoryPlot(history)
	if err != nil {
		return essentials.AddCtx("plot history", err)
	}
	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return essentials.AddCtx("plot history", err)
	}
	return nil
}

// HistoryPlot creates the plot drawn by PlotHistory.
func HistoryPlot(history [][]r3.Vector) (*plot.Plot, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("empty history")
	}
	numCams := len(history[0])
	for i, snapshot := range history {
		if len(snapshot) != numCams {
			return nil, fmt.Errorf("snapshot %d has %d cameras but expected %d", i,
				len(snapshot), numCams)
		}
	}

	p := plot.New()
	p.Title.Text = "Camera positions"
	p.X.Label.Text = "x"
	p.Y.Label.Text = "z"

	final := make(plotter.XYs, numCams)
	for cam := 0; cam < numCams; cam++ {
		path := make(plotter.XYs, len(history))
		for i, snapshot := range history {
			path[i].X = snapshot[cam].X
			path[i].Y = snapshot[cam].Z
		}
		final[cam] = path[len(path)-1]

		line, err := plotter.NewLine(path)
		if err != nil {
			return nil, err
		}
		line.LineStyle.Color = plotutil.Color(cam)
		p.Add(line)
	}

	points, err := plotter.NewScatter(final)
	if err != nil {
		return nil, err
	}
	p.Add(points)
	p.Legend.Add("final", points)
	return p, nil
}
