package anydata

import (
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"io"
	"math"

	"github.com/disintegration/imaging"
	"github.com/unixpickle/essentials"
)

// ColorImage converts row-major RGB triples in [0, 1] into
// an image.
// Values outside of [0, 1] are clipped.
func ColorImage(colors []float64, width, height int) *image.NRGBA {
	res := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height; i++ {
		for c := 0; c < 3; c++ {
			res.Pix[4*i+c] = toByte(colors[3*i+c])
		}
		res.Pix[4*i+3] = 0xff
	}
	return res
}

// DepthImage converts row-major depths into a grayscale
// image, mapping each depth d to d*scale.
//
// Since NDC depths lie in [0, 1], a scale of 1 maps the
// far plane to white.
func DepthImage(depths []float64, width, height int, scale float64) *image.Gray {
	res := image.NewGray(image.Rect(0, 0, width, height))
	for i, d := range depths[:width*height] {
		res.Pix[i] = toByte(d * scale)
	}
	return res
}

// SaveImage saves an image, inferring the format from the
// path's extension.
func SaveImage(path string, img image.Image) error {
	if err := imaging.Save(img, path); err != nil {
		return essentials.AddCtx("save image", err)
	}
	return nil
}

// EncodeGIF writes an animated GIF with the given frame
// rate.
//
// Color frames are dithered to a fixed palette; grayscale
// frames use a gray palette.
func EncodeGIF(w io.Writer, frames []image.Image, fps float64) error {
	delay := int(math.Round(100 / fps))
	anim := &gif.GIF{}
	for _, frame := range frames {
		bounds := frame.Bounds()
		var paletted *image.Paletted
		if _, ok := frame.(*image.Gray); ok {
			paletted = image.NewPaletted(bounds, grayPalette())
			draw.Draw(paletted, bounds, frame, bounds.Min, draw.Src)
		} else {
			paletted = image.NewPaletted(bounds, palette.Plan9)
			draw.FloydSteinberg.Draw(paletted, bounds, frame, bounds.Min)
		}
		anim.Image = append(anim.Image, paletted)
		anim.Delay = append(anim.Delay, delay)
	}
	if err := gif.EncodeAll(w, anim); err != nil {
		return essentials.AddCtx("encode GIF", err)
	}
	return nil
}

func grayPalette() color.Palette {
	res := make(color.Palette, 256)
	for i := range res {
		res[i] = color.Gray{Y: uint8(i)}
	}
	return res
}

func toByte(x float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, x)) * 255))
}
