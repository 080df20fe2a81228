package pixels

import (
	"math"

	"github.com/nfnt/resize"
)

// Fit returns img upscaled, aspect ratio preserved, until it holds at least
// minSamples samples. img is returned as is when it is already large enough
// or empty.
func Fit(img *Image, minSamples int) *Image {
	have := len(img.Pix)
	if have >= minSamples || img.Width == 0 || img.Height == 0 {
		return img
	}

	scale := math.Sqrt(float64(minSamples) / float64(have))
	w := uint(math.Ceil(float64(img.Width) * scale))
	h := uint(math.Ceil(float64(img.Height) * scale))
	for SamplesPerPixel*int(w)*int(h) < minSamples {
		w++
		h++
	}

	scaled := resize.Resize(w, h, img.ToImage(), resize.Lanczos3)
	return FromImage(scaled, img.Format)
}
