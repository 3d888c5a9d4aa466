package anydata

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"math"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/unixpickle/anynerf/anycam"
)

func testImage(width, height int, seed uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{
				R: uint8(x*10) + seed,
				G: uint8(y * 20),
				B: seed,
				A: 0xff,
			})
		}
	}
	return img
}

func TestImageSetSelect(t *testing.T) {
	set, err := NewImageSet([]image.Image{testImage(4, 3, 0), testImage(4, 3, 5)})
	if err != nil {
		t.Fatal(err)
	}
	if set.Len() != 2 || set.Width != 4 || set.Height != 3 {
		t.Fatalf("unexpected set: %d images of %dx%d", set.Len(), set.Width, set.Height)
	}
	grid := &anycam.PixelGrid{Rows: []int{2, 0}, Cols: []int{3, 1}}
	actual := set.Select(1, grid)
	expected := []float64{
		35.0 / 255, 40.0 / 255, 5.0 / 255,
		15.0 / 255, 40.0 / 255, 5.0 / 255,
		35.0 / 255, 0, 5.0 / 255,
		15.0 / 255, 0, 5.0 / 255,
	}
	for i, x := range expected {
		if math.Abs(actual[i]-x) > 1e-12 {
			t.Errorf("component %d: expected %f but got %f", i, x, actual[i])
		}
	}
}

func TestImageSetMismatch(t *testing.T) {
	_, err := NewImageSet([]image.Image{testImage(4, 3, 0), testImage(3, 3, 0)})
	if err == nil {
		t.Error("expected error for mismatched sizes")
	}
}

func TestLoadImageSet(t *testing.T) {
	dir := t.TempDir()
	for i, name := range []string{"b.png", "a.png", "c.png"} {
		if err := SaveImage(filepath.Join(dir, name), testImage(8, 6, uint8(i))); err != nil {
			t.Fatal(err)
		}
	}
	set, err := LoadImageSet(dir, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if set.Len() != 3 || set.Names[0] != "a.png" || set.Names[2] != "c.png" {
		t.Fatalf("unexpected names: %v", set.Names)
	}
	// a.png was written second.
	if set.Pixels[0][2] != 1.0/255 {
		t.Errorf("unexpected first pixel: %v", set.Pixels[0][:3])
	}

	resized, err := LoadImageSet(dir, 4, 3)
	if err != nil {
		t.Fatal(err)
	}
	if resized.Width != 4 || resized.Height != 3 || len(resized.Pixels[1]) != 4*3*3 {
		t.Errorf("unexpected resized set: %dx%d", resized.Width, resized.Height)
	}

	if _, err := LoadImageSet(t.TempDir(), 0, 0); err == nil {
		t.Error("expected error for empty directory")
	}
}

func TestColorImage(t *testing.T) {
	set, err := NewImageSet([]image.Image{testImage(5, 2, 3)})
	if err != nil {
		t.Fatal(err)
	}
	img := set.Image(0)
	orig := testImage(5, 2, 3)
	for i, x := range orig.Pix {
		if img.Pix[i] != x {
			t.Fatalf("byte %d: expected %d but got %d", i, x, img.Pix[i])
		}
	}

	clipped := ColorImage([]float64{-1, 0.5, 2}, 1, 1)
	if clipped.Pix[0] != 0 || clipped.Pix[1] != 128 || clipped.Pix[2] != 255 {
		t.Errorf("unexpected clipped pixel: %v", clipped.Pix)
	}
}

func TestEncodeGIF(t *testing.T) {
	frames := []image.Image{
		ColorImage(make([]float64, 4*3*3), 4, 3),
		DepthImage([]float64{0, 0.25, 0.5, 1, 0, 0, 0, 0, 0, 0, 0, 0}, 4, 3, 200),
		imaging.New(4, 3, color.White),
	}
	var buf bytes.Buffer
	if err := EncodeGIF(&buf, frames, 30); err != nil {
		t.Fatal(err)
	}
	anim, err := gif.DecodeAll(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(anim.Image) != 3 {
		t.Fatalf("expected 3 frames but got %d", len(anim.Image))
	}
	if anim.Delay[0] != 3 {
		t.Errorf("expected delay 3 but got %d", anim.Delay[0])
	}
}
