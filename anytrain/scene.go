package anytrain

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/unixpickle/anynerf"
	"github.com/unixpickle/anynerf/anycam"
	"github.com/unixpickle/anynerf/anyrender"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

// Checkpoint file suffixes.
const (
	focalSuffix = "_focal"
	poseSuffix  = "_pose"
	fieldSuffix = "_field"
)

// A Scene is the learned state of a scene: the shared
// intrinsics, one pose per image, and a radiance field.
type Scene struct {
	Name       string
	Intrinsics *anycam.Intrinsics
	Poses      *anycam.Poses
	Field      anynerf.Field
}

// NewScene creates a freshly initialized scene for a set
// of numImages width x height images.
//
// The field is initialized from gen, or from the global
// generator if gen is nil.
func NewScene(c anyvec.Creator, gen *rand.Rand, cfg *Config, numImages, width,
	height int) *Scene {
	posDims := anyrender.EncodedSize(3, cfg.PosLevels, true)
	dirDims := anyrender.EncodedSize(3, cfg.DirLevels, true)
	return &Scene{
		Name:       cfg.Scene,
		Intrinsics: anycam.NewIntrinsics(c, width, height),
		Poses:      anycam.NewPoses(c, numImages, cfg.PoseInit),
		Field:      anynerf.NewTinyNeRF(c, gen, posDims, dirDims, cfg.Hidden),
	}
}

// LoadScene reads a scene saved with Save.
func LoadScene(dir, name string) (*Scene, error) {
	res := &Scene{Name: name}
	if err := loadObject(dir, name+focalSuffix, &res.Intrinsics); err != nil {
		return nil, essentials.AddCtx("load scene", err)
	}
	if err := loadObject(dir, name+poseSuffix, &res.Poses); err != nil {
		return nil, essentials.AddCtx("load scene", err)
	}
	if err := loadObject(dir, name+fieldSuffix, &res.Field); err != nil {
		return nil, essentials.AddCtx("load scene", err)
	}
	return res, nil
}

// Save writes the intrinsics, poses, and field to three
// files in dir, named after the scene.
func (s *Scene) Save(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return essentials.AddCtx("save scene", err)
	}
	field, ok := s.Field.(serializer.Serializer)
	if !ok {
		return fmt.Errorf("save scene: field is not a Serializer: %T", s.Field)
	}
	objs := map[string]serializer.Serializer{
		focalSuffix: s.Intrinsics,
		poseSuffix:  s.Poses,
		fieldSuffix: field,
	}
	for suffix, obj := range objs {
		data, err := serializer.SerializeAny(obj)
		if err != nil {
			return essentials.AddCtx("save scene", err)
		}
		path := filepath.Join(dir, s.Name+suffix)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return essentials.AddCtx("save scene", err)
		}
	}
	return nil
}

// Renderer creates a renderer for the scene's field.
func (s *Scene) Renderer(cfg *Config, gen *rand.Rand) *anyrender.Renderer {
	return &anyrender.Renderer{
		Field: s.Field,
		Sampler: &anyrender.Sampler{
			Near:       cfg.Near,
			Far:        cfg.Far,
			NumSamples: cfg.Samples,
			Perturb:    true,
			Rand:       gen,
		},
		PosLevels:    cfg.PosLevels,
		DirLevels:    cfg.DirLevels,
		DensityNoise: cfg.DensityNoise,
		ChunkRows:    cfg.ChunkRows,
		Rand:         gen,
	}
}

// RenderView renders a full frame from a camera, reducing
// the resolution and focal lengths by an integer ratio.
//
// The colors are row-major RGB triples and the depths are
// row-major NDC depths.
func (s *Scene) RenderView(r *anyrender.Renderer, c2w anycam.Pose,
	ratio int) (colors, depths []float64, width, height int) {
	fx, fy := s.Intrinsics.Focal()
	width = s.Intrinsics.Width / ratio
	height = s.Intrinsics.Height / ratio
	c := s.Intrinsics.FX.Vector.Creator()
	colors, depths = r.RenderFull(c, c2w, width, height, fx/float64(ratio),
		fy/float64(ratio))
	return
}

func loadObject(dir, name string, obj interface{}) error {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	return serializer.DeserializeAny(data, obj)
}
