package models

import (
	"image"
	"image/color"
	"math"
)

// Raster is a row-major grayscale image in floating point.
type Raster struct {
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Pix    []float64 `json:"-"`
}

// NewRaster allocates a zeroed raster.
func NewRaster(width, height int) *Raster {
	return &Raster{
		Width:  width,
		Height: height,
		Pix:    make([]float64, width*height),
	}
}

// RasterFromImage converts img to a raster with values in [0, 1]. 16-bit
// gray is divided by 65535, 8-bit gray by 255 and everything else goes
// through luminance at 16-bit precision.
func RasterFromImage(img image.Image) *Raster {
	b := img.Bounds()
	r := NewRaster(b.Dx(), b.Dy())

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < r.Height; y++ {
			row := src.Pix[(y)*src.Stride : (y)*src.Stride+r.Width]
			for x, v := range row {
				r.Pix[y*r.Width+x] = float64(v) / 255
			}
		}
	case *image.Gray16:
		for y := 0; y < r.Height; y++ {
			off := y * src.Stride
			for x := 0; x < r.Width; x++ {
				v := uint16(src.Pix[off+2*x])<<8 | uint16(src.Pix[off+2*x+1])
				r.Pix[y*r.Width+x] = float64(v) / 65535
			}
		}
	default:
		for y := 0; y < r.Height; y++ {
			for x := 0; x < r.Width; x++ {
				g := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
				r.Pix[y*r.Width+x] = float64(g.Y) / 65535
			}
		}
	}
	return r
}

// At returns the value at column x, row y.
func (r *Raster) At(x, y int) float64 {
	return r.Pix[y*r.Width+x]
}

// Set stores v at column x, row y.
func (r *Raster) Set(x, y int, v float64) {
	r.Pix[y*r.Width+x] = v
}

// Clone returns a deep copy.
func (r *Raster) Clone() *Raster {
	c := &Raster{Width: r.Width, Height: r.Height, Pix: make([]float64, len(r.Pix))}
	copy(c.Pix, r.Pix)
	return c
}

// SameShape reports whether o has the same dimensions as r.
func (r *Raster) SameShape(o *Raster) bool {
	return r.Width == o.Width && r.Height == o.Height
}

// MinMax returns the smallest and largest values. An empty raster yields 0, 0.
func (r *Raster) MinMax() (float64, float64) {
	if len(r.Pix) == 0 {
		return 0, 0
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range r.Pix {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// ToGray16 scales values from [0, 1] to the 16-bit range, clamping
// anything outside.
func (r *Raster) ToGray16() *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, r.Width, r.Height))
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			v := r.Pix[y*r.Width+x]
			if math.IsNaN(v) || v < 0 {
				v = 0
			} else if v > 1 {
				v = 1
			}
			img.SetGray16(x, y, color.Gray16{Y: uint16(math.Round(v * 65535))})
		}
	}
	return img
}

// ToGray quantises values in [0, 1] to 8 bits.
func (r *Raster) ToGray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, r.Width, r.Height))
	for i, v := range r.Pix {
		if math.IsNaN(v) || v < 0 {
			v = 0
		} else if v > 1 {
			v = 1
		}
		img.Pix[i] = uint8(math.Round(v * 255))
	}
	return img
}
