// Package anytrain jointly optimizes a radiance field and
// the cameras that captured its training images.
package anytrain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/golang/geo/r3"
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynerf"
	"github.com/unixpickle/anynerf/anycam"
	"github.com/unixpickle/anynerf/anydata"
	"github.com/unixpickle/anynerf/anyrender"
	"github.com/unixpickle/anynerf/anysgd"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
	"go.uber.org/zap"
)

// ErrNonFinite is returned when a training loss is NaN or
// infinite.
var ErrNonFinite = errors.New("non-finite loss")

// Names of the parameter groups.
const (
	FieldGroup = "field"
	FocalGroup = "focal"
	PoseGroup  = "pose"
)

// A Trainer optimizes a Scene to reproduce a set of
// images.
//
// Every step renders a random grid of pixels from one
// image, and updates the field, the intrinsics, and the
// poses with independently scheduled optimizers.
type Trainer struct {
	Config   *Config
	Images   *anydata.ImageSet
	Scene    *Scene
	Renderer *anyrender.Renderer
	Cost     anynerf.Cost
	SGD      *anysgd.SGD

	Reporter Reporter
	Logger   *zap.Logger
	Rand     *rand.Rand

	// PoseHistory stores the camera positions after every
	// epoch.
	PoseHistory [][]r3.Vector

	// LastCost is the mean cost of the most recent step.
	LastCost float64

	epochCost  float64
	epochSteps int
}

// NewTrainer creates a trainer for a fresh scene.
//
// The field initialization and all sampling during
// training are driven by cfg.Seed, so two trainers with
// the same settings and images train identically.
//
// If logger is nil, nothing is logged.
// The reporter may also be nil.
func NewTrainer(c anyvec.Creator, cfg *Config, images *anydata.ImageSet,
	reporter Reporter, logger *zap.Logger) *Trainer {
	gen := rand.New(rand.NewSource(cfg.Seed))
	scene := NewScene(c, gen, cfg, images.Len(), images.Width, images.Height)
	return newTrainer(cfg, images, scene, gen, reporter, logger)
}

// NewSceneTrainer creates a trainer for an existing scene,
// e.g. one loaded from a checkpoint.
func NewSceneTrainer(cfg *Config, images *anydata.ImageSet, scene *Scene,
	reporter Reporter, logger *zap.Logger) *Trainer {
	gen := rand.New(rand.NewSource(cfg.Seed))
	return newTrainer(cfg, images, scene, gen, reporter, logger)
}

func newTrainer(cfg *Config, images *anydata.ImageSet, scene *Scene, gen *rand.Rand,
	reporter Reporter, logger *zap.Logger) *Trainer {
	if scene.Poses.Count != images.Len() {
		panic(fmt.Sprintf("scene has %d poses but there are %d images",
			scene.Poses.Count, images.Len()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Trainer{
		Config:   cfg,
		Images:   images,
		Scene:    scene,
		Renderer: scene.Renderer(cfg, gen),
		Cost:     anynerf.MSE{},
		Reporter: reporter,
		Logger:   logger,
		Rand:     gen,
	}

	var poseParams []*anydiff.Var
	if cfg.LearnRotation {
		poseParams = append(poseParams, scene.Poses.Rot)
	}
	if cfg.LearnTranslation {
		poseParams = append(poseParams, scene.Poses.Trans)
	}
	var focalParams []*anydiff.Var
	if cfg.LearnFocal {
		focalParams = scene.Intrinsics.Parameters()
	}
	t.SGD = &anysgd.SGD{
		Gradienter: t,
		Groups: []*anysgd.Group{
			newGroup(cfg, FieldGroup, scene.Field.Parameters(), cfg.FieldSchedule),
			newGroup(cfg, FocalGroup, focalParams, cfg.FocalSchedule),
			newGroup(cfg, PoseGroup, poseParams, cfg.PoseSchedule),
		},
		Samples:   anysgd.NewIndexList(images.Len()),
		BatchSize: 1,
		Rand:      gen,
	}
	return t
}

// Epoch is the number of completed epochs.
func (t *Trainer) Epoch() int {
	return t.SGD.Epoch
}

// Run trains until cfg.Epochs epochs have completed, the
// context is done, or an error occurs.
func (t *Trainer) Run(ctx context.Context) error {
	for t.Epoch() < t.Config.Epochs {
		if err := t.RunEpoch(ctx); err != nil {
			return err
		}
	}
	return nil
}

// RunEpoch trains on every image once, in random order,
// and then reports the epoch's results.
func (t *Trainer) RunEpoch(ctx context.Context) error {
	t.epochCost = 0
	t.epochSteps = 0
	if err := t.SGD.RunEpoch(ctx); err != nil {
		return fmt.Errorf("epoch %d: %w", t.Epoch(), err)
	}
	epoch := t.Epoch() - 1

	mse := t.epochCost / float64(t.epochSteps)
	fx, fy := t.Scene.Intrinsics.Focal()
	stats := &EpochStats{
		Epoch: epoch,
		MSE:   mse,
		PSNR:  anynerf.PSNR(mse),
		FX:    fx,
		FY:    fy,
	}
	t.PoseHistory = append(t.PoseHistory, t.Scene.Poses.Translations())
	if err := t.report(stats); err != nil {
		return err
	}

	if t.Config.EvalInterval > 0 && (epoch+1)%t.Config.EvalInterval == 0 {
		eval := t.Evaluate()
		eval.Epoch = epoch
		if t.Reporter != nil {
			if err := t.Reporter.ReportEval(eval); err != nil {
				return essentials.AddCtx("report evaluation", err)
			}
		}
	}
	return nil
}

// Gradient computes the gradient of the mean cost of a
// batch of images.
//
// The batch must be an anysgd.IndexList.
// If the cost is not finite, ErrNonFinite is returned.
func (t *Trainer) Gradient(batch anysgd.SampleList) (anydiff.Grad, error) {
	indices := batch.(anysgd.IndexList)
	var total anydiff.Res
	for _, idx := range indices {
		cost := t.ImageCost(idx)
		if total == nil {
			total = cost
		} else {
			total = anydiff.Add(total, cost)
		}
	}
	c := total.Output().Creator()
	total = anydiff.Scale(total, c.MakeNumeric(1/float64(len(indices))))

	t.LastCost = total.Output().Data().([]float64)[0]
	if math.IsNaN(t.LastCost) || math.IsInf(t.LastCost, 0) {
		return nil, fmt.Errorf("images %v: %w", []int(indices), ErrNonFinite)
	}
	t.epochCost += t.LastCost
	t.epochSteps++

	grad := anydiff.NewGrad(t.params()...)
	one := c.MakeVectorData(c.MakeNumericList([]float64{1}))
	total.Propagate(one, grad)
	return grad, nil
}

// ImageCost renders a random grid of pixels from an image
// and computes the mean squared error against the image.
func (t *Trainer) ImageCost(idx int) anydiff.Res {
	images := t.Images
	fxfy := t.Scene.Intrinsics.Forward()
	grid := anycam.RandomGrid(t.Rand, images.Width, images.Height, t.Config.Rays.Rows,
		t.Config.Rays.Cols)
	rays := anycam.CameraRays(grid, images.Width, images.Height, fxfy)
	res := t.Renderer.Render(t.Scene.Poses.Forward(idx), rays, images.Width,
		images.Height, fxfy)

	c := fxfy.Output().Creator()
	target := anydiff.NewConst(c.MakeVectorData(c.MakeNumericList(images.Select(idx, grid))))
	return anynerf.MeanCost(t.Cost, target, res.Colors, grid.Len())
}

// Evaluate renders a full frame from the identity pose.
func (t *Trainer) Evaluate() *Evaluation {
	colors, depths, w, h := t.Scene.RenderView(t.Renderer, anycam.IdentityPose(), 1)
	return &Evaluation{
		Epoch:  t.Epoch(),
		Width:  w,
		Height: h,
		Colors: colors,
		Depths: depths,
	}
}

// SaveOptimizers writes the state of every group's
// optimizer to dir, as <scene>_optim_<group>.
//
// Adam, RMSProp and Momentum all support marshalling.
// Groups whose transformer is not an
// anysgd.TransformMarshaler are skipped.
func (t *Trainer) SaveOptimizers(dir string) error {
	for _, g := range t.SGD.Groups {
		m, ok := g.Transformer.(anysgd.TransformMarshaler)
		if !ok {
			continue
		}
		data, err := m.MarshalBinary()
		if err != nil {
			return essentials.AddCtx("save optimizers", err)
		}
		path := filepath.Join(dir, t.Scene.Name+"_optim_"+g.Name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return essentials.AddCtx("save optimizers", err)
		}
	}
	return nil
}

// LoadOptimizers restores optimizer states written by
// SaveOptimizers.
// Missing files are ignored.
func (t *Trainer) LoadOptimizers(dir string) error {
	for _, g := range t.SGD.Groups {
		m, ok := g.Transformer.(anysgd.TransformMarshaler)
		if !ok {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, t.Scene.Name+"_optim_"+g.Name))
		if os.IsNotExist(err) {
			continue
		} else if err != nil {
			return essentials.AddCtx("load optimizers", err)
		}
		if err := m.UnmarshalBinary(data); err != nil {
			return essentials.AddCtx("load optimizers", err)
		}
	}
	return nil
}

func (t *Trainer) report(stats *EpochStats) error {
	t.Logger.Debug("epoch done", zap.Int("epoch", stats.Epoch),
		zap.Int("steps", t.epochSteps))
	if t.Reporter == nil {
		return nil
	}
	if err := t.Reporter.ReportEpoch(stats); err != nil {
		return essentials.AddCtx("report epoch", err)
	}
	return nil
}

func (t *Trainer) params() []*anydiff.Var {
	var res []*anydiff.Var
	for _, g := range t.SGD.Groups {
		res = append(res, g.Params...)
	}
	return res
}

func newGroup(cfg *Config, name string, params []*anydiff.Var, s Schedule) *anysgd.Group {
	var tr anysgd.Transformer
	switch cfg.Optimizer {
	case "rmsprop":
		tr = &anysgd.RMSProp{Params: params}
	case "momentum":
		tr = &anysgd.Momentum{Momentum: 0.9, Params: params}
	default:
		tr = &anysgd.Adam{Params: params}
	}
	return &anysgd.Group{
		Name:        name,
		Params:      params,
		Transformer: tr,
		Rater: &anysgd.StepRater{
			Base:     s.LR,
			Gamma:    s.Gamma,
			Interval: s.Interval,
			Until:    s.Until,
		},
	}
}
