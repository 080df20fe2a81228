// Package pixels converts image files to and from the flat RGB sample
// buffers the lsb package works on.
package pixels

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/bmp"
)

const (
	// SamplesPerPixel is the number of 8-bit samples stored for every pixel.
	SamplesPerPixel = 3

	// DefaultMaxPixels is the initial value of MaxPixels.
	DefaultMaxPixels = 16 << 20
)

// MaxPixels bounds Width*Height of images accepted by Decode. The size is
// read from the container header before any pixel data is decoded. Zero or
// less disables the check.
var MaxPixels int64 = DefaultMaxPixels

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrMalformed         = errors.New("malformed image")
	ErrTooLarge          = errors.New("image too large")
)

// Image is a decoded picture as a row-major RGB buffer, one byte per
// channel sample.
type Image struct {
	Width  int
	Height int
	// Format is the name of the container the image was decoded from.
	Format string
	Pix    []byte
}

// Decode reads a PNG, BMP, GIF or JPEG image. Alpha is discarded. Images
// larger than MaxPixels are rejected with ErrTooLarge.
func Decode(r io.Reader) (*Image, error) {
	var head bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &head))
	if err != nil {
		return nil, decodeError(err)
	}
	if err := checkSize(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}

	src, format, err := image.Decode(io.MultiReader(&head, r))
	if err != nil {
		return nil, decodeError(err)
	}
	return FromImage(src, format), nil
}

func decodeError(err error) error {
	if errors.Is(err, image.ErrFormat) {
		return ErrUnsupportedFormat
	}
	return fmt.Errorf("%w: %w", ErrMalformed, err)
}

func checkSize(width, height int) error {
	if MaxPixels <= 0 {
		return nil
	}
	if n := int64(width) * int64(height); n > MaxPixels {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, width, height, MaxPixels)
	}
	return nil
}

// FromImage copies the RGB samples of src into a new Image.
func FromImage(src image.Image, format string) *Image {
	b := src.Bounds()
	img := &Image{
		Width:  b.Dx(),
		Height: b.Dy(),
		Format: format,
		Pix:    make([]byte, SamplesPerPixel*b.Dx()*b.Dy()),
	}

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		switch s := src.(type) {
		case *image.NRGBA:
			row := s.Pix[s.PixOffset(b.Min.X, y):s.PixOffset(b.Max.X, y)]
			for p := 0; p < len(row); p, i = p+4, i+SamplesPerPixel {
				copy(img.Pix[i:i+SamplesPerPixel], row[p:p+SamplesPerPixel])
			}
		case *image.RGBA:
			row := s.Pix[s.PixOffset(b.Min.X, y):s.PixOffset(b.Max.X, y)]
			for p := 0; p < len(row); p, i = p+4, i+SamplesPerPixel {
				if row[p+3] == 0xff {
					copy(img.Pix[i:i+SamplesPerPixel], row[p:p+SamplesPerPixel])
					continue
				}
				c := color.NRGBAModel.Convert(color.RGBA{row[p], row[p+1], row[p+2], row[p+3]}).(color.NRGBA)
				img.Pix[i], img.Pix[i+1], img.Pix[i+2] = c.R, c.G, c.B
			}
		case *image.Gray:
			row := s.Pix[s.PixOffset(b.Min.X, y):s.PixOffset(b.Max.X, y)]
			for _, v := range row {
				img.Pix[i], img.Pix[i+1], img.Pix[i+2] = v, v, v
				i += SamplesPerPixel
			}
		default:
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
				img.Pix[i] = c.R
				img.Pix[i+1] = c.G
				img.Pix[i+2] = c.B
				i += SamplesPerPixel
			}
		}
	}
	return img
}

// ToImage returns an opaque image.NRGBA holding the samples of img.
func (img *Image) ToImage() *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	for p, i := 0, 0; i < len(img.Pix); p, i = p+4, i+SamplesPerPixel {
		dst.Pix[p] = img.Pix[i]
		dst.Pix[p+1] = img.Pix[i+1]
		dst.Pix[p+2] = img.Pix[i+2]
		dst.Pix[p+3] = 0xff
	}
	return dst
}

// OutputFormat is the lossless container Encode writes for img: BMP for
// BMP sources, PNG for everything else.
func (img *Image) OutputFormat() string {
	if img.Format == "bmp" {
		return "bmp"
	}
	return "png"
}

// Encode writes img as an 8-bit RGB image in OutputFormat.
func Encode(w io.Writer, img *Image) error {
	if len(img.Pix) != SamplesPerPixel*img.Width*img.Height {
		return fmt.Errorf("pixel buffer holds %d samples, %dx%d image needs %d",
			len(img.Pix), img.Width, img.Height, SamplesPerPixel*img.Width*img.Height)
	}
	if img.OutputFormat() == "bmp" {
		return bmp.Encode(w, img.ToImage())
	}
	return png.Encode(w, img.ToImage())
}
