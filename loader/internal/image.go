package internal

import (
	"image"
	"image/color"
	"math"
)

// Preprocessing constants tuned against scanned Thai paperwork: contrast
// boost, blur-based denoise, then fixed-threshold binarization.
const (
	contrastFactor = 1.5
	blurRadius     = 2
	binThreshold   = 128
)

// Preprocess converts a page scan into the high-contrast black-and-white
// image tesseract reads best: grayscale, contrast boost, gaussian blur,
// fixed-threshold binarization.
func Preprocess(img image.Image) *image.Gray {
	gray := toGray(img)
	gray = adjustContrast(gray, contrastFactor)
	gray = gaussianBlur(gray, blurRadius)
	return binarize(gray, binThreshold)
}

func toGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

// adjustContrast stretches pixel values around the midpoint.
func adjustContrast(img *image.Gray, factor float64) *image.Gray {
	out := image.NewGray(img.Bounds())
	for i, p := range img.Pix {
		v := (float64(p)-128)*factor + 128
		if v < 0 {
			v = 0
		} else if v > 255 {
			v = 255
		}
		out.Pix[i] = uint8(v)
	}
	return out
}

// gaussianBlur applies a separable gaussian kernel of the given radius.
func gaussianBlur(img *image.Gray, radius int) *image.Gray {
	if radius <= 0 {
		return img
	}
	kernel := gaussianKernel(radius)
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	// horizontal pass
	tmp := image.NewGray(bounds)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum, weight float64
			for k := -radius; k <= radius; k++ {
				xx := x + k
				if xx < 0 || xx >= w {
					continue
				}
				kw := kernel[k+radius]
				sum += kw * float64(img.GrayAt(bounds.Min.X+xx, bounds.Min.Y+y).Y)
				weight += kw
			}
			tmp.SetGray(bounds.Min.X+x, bounds.Min.Y+y, color.Gray{Y: uint8(sum/weight + 0.5)})
		}
	}

	// vertical pass
	out := image.NewGray(bounds)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum, weight float64
			for k := -radius; k <= radius; k++ {
				yy := y + k
				if yy < 0 || yy >= h {
					continue
				}
				kw := kernel[k+radius]
				sum += kw * float64(tmp.GrayAt(bounds.Min.X+x, bounds.Min.Y+yy).Y)
				weight += kw
			}
			out.SetGray(bounds.Min.X+x, bounds.Min.Y+y, color.Gray{Y: uint8(sum/weight + 0.5)})
		}
	}
	return out
}

func gaussianKernel(radius int) []float64 {
	sigma := float64(radius) / 2
	if sigma <= 0 {
		sigma = 1
	}
	kernel := make([]float64, 2*radius+1)
	for i := range kernel {
		d := float64(i - radius)
		kernel[i] = math.Exp(-d * d / (2 * sigma * sigma))
	}
	return kernel
}

func binarize(img *image.Gray, threshold uint8) *image.Gray {
	out := image.NewGray(img.Bounds())
	for i, p := range img.Pix {
		if p > threshold {
			out.Pix[i] = 255
		} else {
			out.Pix[i] = 0
		}
	}
	return out
}
