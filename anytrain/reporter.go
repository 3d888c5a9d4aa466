package anytrain

import (
	"fmt"
	"path/filepath"

	"github.com/unixpickle/anynerf/anydata"
	"go.uber.org/zap"
)

// EpochStats summarizes a training epoch.
type EpochStats struct {
	Epoch int
	MSE   float64
	PSNR  float64
	FX    float64
	FY    float64
}

// An Evaluation is a full frame rendered from the identity
// pose during training.
type Evaluation struct {
	Epoch  int
	Width  int
	Height int
	Colors []float64
	Depths []float64
}

// A Reporter receives training progress.
type Reporter interface {
	ReportEpoch(stats *EpochStats) error
	ReportEval(eval *Evaluation) error
}

// LogReporter writes progress to a zap logger.
type LogReporter struct {
	Logger *zap.Logger
}

// ReportEpoch logs the epoch's PSNR and focal lengths.
func (l *LogReporter) ReportEpoch(stats *EpochStats) error {
	l.Logger.Info("epoch",
		zap.Int("epoch", stats.Epoch),
		zap.Float64("mse", stats.MSE),
		zap.Float64("psnr", stats.PSNR),
		zap.Float64("fx", stats.FX),
		zap.Float64("fy", stats.FY),
	)
	return nil
}

// ReportEval logs summary statistics of the evaluation.
func (l *LogReporter) ReportEval(eval *Evaluation) error {
	var meanDepth float64
	for _, d := range eval.Depths {
		meanDepth += d
	}
	meanDepth /= float64(len(eval.Depths))
	l.Logger.Info("eval",
		zap.Int("epoch", eval.Epoch),
		zap.Int("width", eval.Width),
		zap.Int("height", eval.Height),
		zap.Float64("mean_depth", meanDepth),
	)
	return nil
}

// ImageReporter saves each evaluation's color and depth
// images to a directory.
type ImageReporter struct {
	Dir        string
	Scene      string
	DepthScale float64
}

// ReportEpoch does nothing.
func (i *ImageReporter) ReportEpoch(stats *EpochStats) error {
	return nil
}

// ReportEval writes <scene>_eval_<epoch>.png and
// <scene>_depth_<epoch>.png.
func (i *ImageReporter) ReportEval(eval *Evaluation) error {
	img := anydata.ColorImage(eval.Colors, eval.Width, eval.Height)
	name := fmt.Sprintf("%s_eval_%05d.png", i.Scene, eval.Epoch)
	if err := anydata.SaveImage(filepath.Join(i.Dir, name), img); err != nil {
		return err
	}
	depth := anydata.DepthImage(eval.Depths, eval.Width, eval.Height, i.DepthScale)
	name = fmt.Sprintf("%s_depth_%05d.png", i.Scene, eval.Epoch)
	return anydata.SaveImage(filepath.Join(i.Dir, name), depth)
}

// MultiReporter sends progress to several Reporters,
// stopping at the first error.
type MultiReporter []Reporter

// ReportEpoch reports to every Reporter.
func (m MultiReporter) ReportEpoch(stats *EpochStats) error {
	for _, r := range m {
		if err := r.ReportEpoch(stats); err != nil {
			return err
		}
	}
	return nil
}

// ReportEval reports to every Reporter.
func (m MultiReporter) ReportEval(eval *Evaluation) error {
	for _, r := range m {
		if err := r.ReportEval(eval); err != nil {
			return err
		}
	}
	return nil
}
