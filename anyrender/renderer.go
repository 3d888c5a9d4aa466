package anyrender

import (
	"fmt"
	"math/rand"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynerf"
	"github.com/unixpickle/anynerf/anycam"
	"github.com/unixpickle/anyvec"
)

// DefaultChunkRows is the number of image rows rendered at
// once by RenderFull when ChunkRows is unset.
const DefaultChunkRows = 10

// A Renderer renders rays through a radiance field.
type Renderer struct {
	Field   anynerf.Field
	Sampler *Sampler

	// Encoding levels for positions and directions.
	// Both encodings include the raw input.
	PosLevels int
	DirLevels int

	// DensityNoise is the standard deviation of Gaussian
	// noise added to raw densities during Render.
	DensityNoise float64

	// ChunkRows is the number of rows RenderFull renders at
	// a time.
	ChunkRows int

	// Rand is used for density noise.
	// If nil, the global generator is used.
	Rand *rand.Rand
}

// A Result stores the rendered pixels of a batch of rays.
type Result struct {
	NumRays int

	// Colors packs one RGB triple per ray.
	Colors anydiff.Res

	// Depths stores the expected NDC depth of each ray.
	Depths anydiff.Res
}

// Render renders camera-space rays from the camera with
// the given camera-to-world transform.
//
// The result is differentiable with respect to the field,
// the transform, and the focal lengths.
func (r *Renderer) Render(c2w anydiff.Res, rays *anycam.Rays, width, height int,
	fxfy anydiff.Res) *Result {
	samples := r.Sampler.Sample(c2w, rays, width, height, fxfy)
	numRays := samples.NumRays
	n := numRays * samples.NumSamples

	pos := EncodePlanes(samples.Positions[:], r.PosLevels, true)
	dir := EncodePlanes(samples.Directions[:], r.DirLevels, true)
	if posDims := EncodedSize(3, r.PosLevels, true); pos.Output().Len() != n*posDims {
		panic(fmt.Sprintf("bad position encoding size: %d", pos.Output().Len()))
	}
	raw := r.Field.Evaluate(pos, dir, numRays)
	if raw.Output().Len() != 4*n {
		panic(fmt.Sprintf("field produced %d outputs for %d samples", raw.Output().Len(), n))
	}

	out := anydiff.Pool(raw, func(raw anydiff.Res) anydiff.Res {
		colors := anydiff.Sigmoid(anydiff.Slice(raw, 0, 3*n))
		densities := anydiff.Slice(raw, 3*n, 4*n)
		if r.DensityNoise > 0 {
			densities = anydiff.Add(densities, r.densityNoise(raw.Output().Creator(), n))
		}
		return Composite(colors, anydiff.ClipPos(densities), samples.Depths, numRays)
	})
	return &Result{
		NumRays: numRays,
		Colors:  anydiff.Slice(out, 0, 3*numRays),
		Depths:  anydiff.Slice(out, 3*numRays, 4*numRays),
	}
}

// RenderFull renders an entire width x height image from a
// fixed camera, without depth jitter or density noise.
//
// Rows are rendered in chunks of r.ChunkRows to bound
// memory usage.
// The colors are row-major with three components per
// pixel, and the depths are row-major.
//
// This only works for creators that use []float64 numeric
// list types.
func (r *Renderer) RenderFull(c anyvec.Creator, c2w anycam.Pose, width, height int,
	fx, fy float64) (colors, depths []float64) {
	chunkRows := r.ChunkRows
	if chunkRows <= 0 {
		chunkRows = DefaultChunkRows
	}
	sampler := *r.Sampler
	sampler.Perturb = false
	eval := *r
	eval.Sampler = &sampler
	eval.DensityNoise = 0

	c2wRes := c2w.Res(c)
	fxfy := anydiff.NewConst(c.MakeVectorData(c.MakeNumericList([]float64{fx, fy})))
	for start := 0; start < height; start += chunkRows {
		end := start + chunkRows
		if end > height {
			end = height
		}
		rays := anycam.CameraRays(anycam.RowGrid(width, start, end), width, height, fxfy)
		res := eval.Render(c2wRes, rays, width, height, fxfy)
		colors = append(colors, res.Colors.Output().Data().([]float64)...)
		depths = append(depths, res.Depths.Output().Data().([]float64)...)
	}
	return
}

func (r *Renderer) densityNoise(c anyvec.Creator, n int) anydiff.Res {
	normal := rand.NormFloat64
	if r.Rand != nil {
		normal = r.Rand.NormFloat64
	}
	noise := make([]float64, n)
	for i := range noise {
		noise[i] = normal() * r.DensityNoise
	}
	return anydiff.NewConst(c.MakeVectorData(c.MakeNumericList(noise)))
}
