// Command nerfmm trains a radiance field together with the
// cameras of an unposed image collection, and renders
// novel views of the result.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/unixpickle/anynerf/anydata"
	"github.com/unixpickle/anynerf/anytrain"
	"github.com/unixpickle/anynerf/anytraj"
	"github.com/unixpickle/anyvec/anyvec64"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

const (
	flagConfig     = "config"
	flagScene      = "scene"
	flagImages     = "images"
	flagOut        = "out"
	flagEpochs     = "epochs"
	flagResume     = "resume"
	flagStartEpoch = "start-epoch"
	flagCheckpoint = "checkpoint"
	flagFrames     = "frames"
	flagRatio      = "ratio"
	flagDebug      = "debug"
)

func main() {
	var logger *zap.Logger

	app := &cli.App{
		Name:  "nerfmm",
		Usage: "fit radiance fields to images with unknown cameras",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			var cfg zap.Config
			if c.Bool(flagDebug) {
				cfg = zap.NewDevelopmentConfig()
			} else {
				cfg = zap.NewProductionConfig()
				cfg.Encoding = "console"
			}
			var err error
			logger, err = cfg.Build()
			return err
		},
		After: func(c *cli.Context) error {
			if logger != nil {
				logger.Sync()
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "train",
				Usage: "optimize a scene and its cameras",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    flagConfig,
						Aliases: []string{"c"},
						Usage:   "load settings from YAML `FILE`",
					},
					&cli.StringFlag{Name: flagScene, Usage: "scene `NAME`"},
					&cli.StringFlag{Name: flagImages, Usage: "image `DIR`"},
					&cli.StringFlag{Name: flagOut, Usage: "output `DIR`"},
					&cli.IntFlag{Name: flagEpochs, Usage: "total number of epochs"},
					&cli.BoolFlag{
						Name:  flagResume,
						Usage: "continue from the checkpoint in the output directory",
					},
					&cli.IntFlag{
						Name:  flagStartEpoch,
						Usage: "epoch to resume from (for learning rate schedules)",
					},
				},
				Action: func(c *cli.Context) error {
					return train(c, logger)
				},
			},
			{
				Name:  "render",
				Usage: "render novel views from a checkpoint",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    flagConfig,
						Aliases: []string{"c"},
						Usage:   "load settings from YAML `FILE`",
					},
					&cli.StringFlag{Name: flagScene, Usage: "scene `NAME`"},
					&cli.StringFlag{
						Name:  flagCheckpoint,
						Usage: "checkpoint `DIR` (defaults to the output directory)",
					},
					&cli.StringFlag{Name: flagOut, Usage: "output `DIR`"},
					&cli.IntFlag{Name: flagFrames, Usage: "number of frames"},
					&cli.IntFlag{Name: flagRatio, Usage: "resolution reduction ratio"},
				},
				Action: func(c *cli.Context) error {
					return render(c, logger)
				},
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(c *cli.Context) (*anytrain.Config, error) {
	cfg := anytrain.DefaultConfig()
	if path := c.String(flagConfig); path != "" {
		var err error
		cfg, err = anytrain.LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}
	if c.IsSet(flagScene) {
		cfg.Scene = c.String(flagScene)
	}
	if c.IsSet(flagImages) {
		cfg.ImageDir = c.String(flagImages)
	}
	if c.IsSet(flagOut) {
		cfg.OutDir = c.String(flagOut)
	}
	if c.IsSet(flagEpochs) {
		cfg.Epochs = c.Int(flagEpochs)
	}
	if c.IsSet(flagFrames) {
		cfg.NovelViews.Frames = c.Int(flagFrames)
	}
	if c.IsSet(flagRatio) {
		cfg.NovelViews.Ratio = c.Int(flagRatio)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func train(c *cli.Context, logger *zap.Logger) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.OutDir, 0755); err != nil {
		return err
	}

	images, err := anydata.LoadImageSet(cfg.ImageDir, cfg.Width, cfg.Height)
	if err != nil {
		return err
	}
	logger.Info("loaded images", zap.Int("count", images.Len()),
		zap.Int("width", images.Width), zap.Int("height", images.Height))

	reporter := anytrain.MultiReporter{
		&anytrain.LogReporter{Logger: logger},
		&anytrain.ImageReporter{
			Dir:        cfg.OutDir,
			Scene:      cfg.Scene,
			DepthScale: cfg.NovelViews.DepthScale,
		},
	}
	var trainer *anytrain.Trainer
	if c.Bool(flagResume) {
		scene, err := anytrain.LoadScene(cfg.OutDir, cfg.Scene)
		if err != nil {
			return err
		}
		trainer = anytrain.NewSceneTrainer(cfg, images, scene, reporter, logger)
		if err := trainer.LoadOptimizers(cfg.OutDir); err != nil {
			return err
		}
		trainer.SGD.Epoch = c.Int(flagStartEpoch)
	} else {
		trainer = anytrain.NewTrainer(anyvec64.DefaultCreator{}, cfg, images, reporter, logger)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()
	logger.Info("training (press ctrl+c to stop early)", zap.Int("epochs", cfg.Epochs))
	if err := trainer.Run(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			return err
		}
		logger.Info("training interrupted", zap.Int("epoch", trainer.Epoch()))
	}
	stop()

	if err := saveResults(cfg, trainer, logger); err != nil {
		return err
	}
	logger.Info("saved results", zap.String("dir", cfg.OutDir))
	return nil
}

func saveResults(cfg *anytrain.Config, trainer *anytrain.Trainer, logger *zap.Logger) error {
	if err := trainer.Scene.Save(cfg.OutDir); err != nil {
		return err
	}
	if err := trainer.SaveOptimizers(cfg.OutDir); err != nil {
		return err
	}
	if err := cfg.Save(filepath.Join(cfg.OutDir, cfg.Scene+"_config.yaml")); err != nil {
		return err
	}
	if len(trainer.PoseHistory) > 0 {
		path := filepath.Join(cfg.OutDir, cfg.Scene+"_poses.png")
		if err := anytraj.PlotHistory(trainer.PoseHistory, path); err != nil {
			return err
		}
	}
	if cfg.NovelViews.Frames > 0 {
		logger.Info("rendering novel views", zap.Int("frames", cfg.NovelViews.Frames))
		err := trainer.Scene.SaveNovelViews(cfg.OutDir, trainer.Renderer, cfg.NovelViews,
			logger)
		if err != nil {
			return err
		}
	}
	return nil
}

func render(c *cli.Context, logger *zap.Logger) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.NovelViews.Frames == 0 {
		return fmt.Errorf("no frames to render")
	}
	checkpoint := cfg.OutDir
	if c.IsSet(flagCheckpoint) {
		checkpoint = c.String(flagCheckpoint)
	}
	scene, err := anytrain.LoadScene(checkpoint, cfg.Scene)
	if err != nil {
		return err
	}
	fx, fy := scene.Intrinsics.Focal()
	logger.Info("loaded scene", zap.String("name", scene.Name),
		zap.Int("cameras", scene.Poses.Count), zap.Float64("fx", fx), zap.Float64("fy", fy))

	if err := os.MkdirAll(cfg.OutDir, 0755); err != nil {
		return err
	}
	return scene.SaveNovelViews(cfg.OutDir, scene.Renderer(cfg, nil), cfg.NovelViews, logger)
}
