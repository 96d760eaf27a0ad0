package retawny_test

import (
	"image/color"
	"testing"

	"github.com/mercurioimaging/Retawny"
)

func TestConvertRGB(t *testing.T) {
	got := retawny.ConvertRGB(color.RGBA{R: 10, G: 20, B: 30, A: 255})
	want := retawny.RGB{R: 10, G: 20, B: 30}
	if got != want {
		t.Errorf("ConvertRGB() = %+v, want %+v", got, want)
	}
}

func TestNfntResizerResize(t *testing.T) {
	img := solidRGBA(8, 8, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	out := retawny.PreviewResizer.Resize(4, 4, img)
	bounds := out.Bounds()
	if bounds.Dx() != 4 || bounds.Dy() != 4 {
		t.Errorf("Resize() produced %dx%d, want 4x4", bounds.Dx(), bounds.Dy())
	}
}
