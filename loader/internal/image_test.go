package internal

import (
	"image"
	"image/color"
	"testing"
)

func testPage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			// dark "glyph" block on a light background
			if x > 4 && x < 11 && y > 4 && y < 11 {
				img.Set(x, y, color.RGBA{A: 255})
			} else {
				img.Set(x, y, color.RGBA{R: 230, G: 230, B: 230, A: 255})
			}
		}
	}
	return img
}

func TestPreprocessBinarizes(t *testing.T) {
	out := Preprocess(testPage())

	for i, p := range out.Pix {
		if p != 0 && p != 255 {
			t.Fatalf("pixel %d is %d, expected pure black or white after binarization", i, p)
		}
	}

	// background stays white, the glyph stays black
	if out.GrayAt(0, 0).Y != 255 {
		t.Fatalf("background pixel binarized to black")
	}
	if out.GrayAt(7, 7).Y != 0 {
		t.Fatalf("glyph pixel binarized to white")
	}
}

func TestPreprocessDeterministic(t *testing.T) {
	a := Preprocess(testPage())
	b := Preprocess(testPage())
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatal("preprocessing is not deterministic")
		}
	}
}
