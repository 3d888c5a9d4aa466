package anytrain

import (
	"image"
	"os"
	"path/filepath"

	"github.com/unixpickle/anynerf/anydata"
	"github.com/unixpickle/anynerf/anyrender"
	"github.com/unixpickle/anynerf/anytraj"
	"github.com/unixpickle/essentials"
	"go.uber.org/zap"
)

// NovelViews renders the scene from a spiral of cameras
// around the learned camera positions.
//
// It returns one color frame and one depth frame per
// camera.
func (s *Scene) NovelViews(r *anyrender.Renderer, cfg NovelViewConfig,
	logger *zap.Logger) (colors, depths []image.Image) {
	if logger == nil {
		logger = zap.NewNop()
	}
	radii := anytraj.SpiralRadii(s.Poses.Translations())
	poses := anytraj.Spiral(radii, cfg.FocusDepth, cfg.Frames, cfg.Circles)
	for i, pose := range poses {
		rgb, depth, w, h := s.RenderView(r, pose, cfg.Ratio)
		colors = append(colors, anydata.ColorImage(rgb, w, h))
		depths = append(depths, anydata.DepthImage(depth, w, h, cfg.DepthScale))
		logger.Debug("rendered novel view", zap.Int("frame", i),
			zap.Int("frames", len(poses)))
	}
	return
}

// SaveNovelViews renders novel views and writes them to
// <scene>_color.gif and <scene>_depth.gif in dir.
func (s *Scene) SaveNovelViews(dir string, r *anyrender.Renderer, cfg NovelViewConfig,
	logger *zap.Logger) error {
	colors, depths := s.NovelViews(r, cfg, logger)
	for suffix, frames := range map[string][]image.Image{
		"_color.gif": colors,
		"_depth.gif": depths,
	} {
		if err := writeGIF(filepath.Join(dir, s.Name+suffix), frames, cfg.FPS); err != nil {
			return essentials.AddCtx("save novel views", err)
		}
	}
	return nil
}

func writeGIF(path string, frames []image.Image, fps float64) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	return anydata.EncodeGIF(f, frames, fps)
}
