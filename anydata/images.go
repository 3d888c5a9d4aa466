// Package anydata loads training images and exports
// rendered frames.
package anydata

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/unixpickle/anynerf/anycam"
	"github.com/unixpickle/essentials"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// An ImageSet is an ordered list of equally sized RGB
// images.
// The index of an image identifies its camera.
type ImageSet struct {
	Width  int
	Height int
	Names  []string

	// Pixels stores each image as row-major RGB triples in
	// the range [0, 1].
	Pixels [][]float64
}

// LoadImageSet reads every image in a directory, ordered
// by file name.
//
// If width and height are non-zero, every image is resized
// to width x height.
// Otherwise, all images must have the same dimensions.
func LoadImageSet(dir string, width, height int) (*ImageSet, error) {
	listing, err := os.ReadDir(dir)
	if err != nil {
		return nil, essentials.AddCtx("load image set", err)
	}
	var names []string
	for _, entry := range listing {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !entry.IsDir() && imageExtensions[ext] {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil, fmt.Errorf("load image set: no images in %s", dir)
	}

	var images []image.Image
	for _, name := range names {
		img, err := imaging.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, essentials.AddCtx("load image set", err)
		}
		if width != 0 && height != 0 {
			img = imaging.Resize(img, width, height, imaging.Lanczos)
		}
		images = append(images, img)
	}
	res, err := NewImageSet(images)
	if err != nil {
		return nil, essentials.AddCtx("load image set", err)
	}
	res.Names = names
	return res, nil
}

// NewImageSet creates an ImageSet from in-memory images.
// Alpha channels are dropped.
func NewImageSet(images []image.Image) (*ImageSet, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("empty image set")
	}
	bounds := images[0].Bounds()
	res := &ImageSet{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}
	for i, img := range images {
		if img.Bounds().Dx() != res.Width || img.Bounds().Dy() != res.Height {
			return nil, fmt.Errorf("image %d is %dx%d but expected %dx%d", i,
				img.Bounds().Dx(), img.Bounds().Dy(), res.Width, res.Height)
		}
		res.Names = append(res.Names, fmt.Sprintf("%d", i))
		res.Pixels = append(res.Pixels, imagePixels(img))
	}
	return res, nil
}

// Len returns the number of images.
func (i *ImageSet) Len() int {
	return len(i.Pixels)
}

// Select gathers the colors of the pixels in a grid, in
// the grid's row-major pixel order.
func (i *ImageSet) Select(idx int, grid *anycam.PixelGrid) []float64 {
	if idx < 0 || idx >= i.Len() {
		panic(fmt.Sprintf("image index %d out of range [0, %d)", idx, i.Len()))
	}
	pixels := i.Pixels[idx]
	res := make([]float64, 0, grid.Len()*3)
	for _, row := range grid.Rows {
		for _, col := range grid.Cols {
			offset := 3 * (row*i.Width + col)
			res = append(res, pixels[offset:offset+3]...)
		}
	}
	return res
}

// Image converts an image of the set back into an
// image.Image.
func (i *ImageSet) Image(idx int) *image.NRGBA {
	return ColorImage(i.Pixels[idx], i.Width, i.Height)
}

func imagePixels(img image.Image) []float64 {
	nrgba := imaging.Clone(img)
	res := make([]float64, 0, nrgba.Rect.Dx()*nrgba.Rect.Dy()*3)
	for y := 0; y < nrgba.Rect.Dy(); y++ {
		row := nrgba.Pix[y*nrgba.Stride:]
		for x := 0; x < nrgba.Rect.Dx(); x++ {
			for c := 0; c < 3; c++ {
				res = append(res, float64(row[4*x+c])/255)
			}
		}
	}
	return res
}
