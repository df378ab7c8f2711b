// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermal

import (
	"image"
	"image/color"
	"time"

	"periph.io/x/periph/conn/physic"
)

// Metadata is sideband data updated at each frame.
type Metadata struct {
	FrameCount  uint32             // Number of frames since StreamOn.
	CaptureTime time.Time          //
	AvgRaw      uint16             // Average raw value of the frame.
	FPATemp     physic.Temperature // Focal plane array temperature.
	HousingTemp physic.Temperature //
}

// Frame is a single raw thermal frame.
//
// Pix holds one unsigned 16 bit sensor count per pixel in row-major order.
// Counts are not temperatures; use Calibration.RawToCelsius or
// Calibration.Convert to get Celsius values.
//
// A Frame is owned by the caller of the acquisition call that produced it.
// The camera session keeps no reference to it afterwards, so it is safe to
// read concurrently as long as nobody writes to it.
//
// It implements image.Image with a Gray16 color model.
type Frame struct {
	Pix      []uint16 // len == Width*Height.
	Width    int
	Height   int
	Metadata Metadata
}

// NewFrame returns a zeroed frame of the given dimensions.
func NewFrame(w, h int) *Frame {
	return &Frame{Pix: make([]uint16, w*h), Width: w, Height: h}
}

// Empty reports whether this is the zero-size sentinel handed out when no
// frame is available.
func (f *Frame) Empty() bool {
	return f == nil || f.Width <= 0 || f.Height <= 0
}

func (f *Frame) ColorModel() color.Model {
	return color.Gray16Model
}

func (f *Frame) Bounds() image.Rectangle {
	if f.Empty() {
		return image.Rectangle{}
	}
	return image.Rect(0, 0, f.Width, f.Height)
}

func (f *Frame) At(x, y int) color.Color {
	return color.Gray16{Y: f.RawAt(x, y)}
}

// RawAt returns the raw sensor count at (x, y). (0, 0) is top-left.
func (f *Frame) RawAt(x, y int) uint16 {
	return f.Pix[y*f.Width+x]
}

// SetRaw sets the raw sensor count at (x, y).
func (f *Frame) SetRaw(x, y int, v uint16) {
	f.Pix[y*f.Width+x] = v
}

// RawMin returns the smallest raw count in the frame.
func (f *Frame) RawMin() uint16 {
	out := uint16(0xffff)
	for _, v := range f.Pix {
		if v < out {
			out = v
		}
	}
	return out
}

// RawMax returns the largest raw count in the frame.
func (f *Frame) RawMax() uint16 {
	out := uint16(0)
	for _, v := range f.Pix {
		if v > out {
			out = v
		}
	}
	return out
}

// AGC reduces the dynamic range of the 16 bit counts down to 8 bits very
// naively without gamma. dst must have the same dimensions as f.
func (f *Frame) AGC(dst *image.Gray) {
	floor := f.RawMin()
	delta := int(f.RawMax() - floor)
	if delta == 0 {
		// Static scene.
		delta = 1
	}
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			v := int(f.RawAt(x, y)-floor) * 255 / delta
			dst.Pix[dst.Stride*y+x] = uint8(v)
		}
	}
}

// Equal reports whether both frames hold the same pixels.
func (f *Frame) Equal(r *Frame) bool {
	if f.Width != r.Width || f.Height != r.Height {
		return false
	}
	for i, v := range f.Pix {
		if v != r.Pix[i] {
			return false
		}
	}
	return true
}

// VisibleFrame is the optional visible-light companion image, in packed
// BGR888 as sent by the device. Devices without a visible sensor hand out
// the zero-size sentinel.
type VisibleFrame struct {
	Pix    []uint8 // len == Width*Height*3; B, G, R per pixel.
	Width  int
	Height int
}

// Empty reports whether this is the zero-size sentinel.
func (v *VisibleFrame) Empty() bool {
	return v == nil || v.Width <= 0 || v.Height <= 0
}

// RGBA converts the packed BGR data into a standard image.
func (v *VisibleFrame) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, v.Width, v.Height))
	for i := 0; i < v.Width*v.Height; i++ {
		img.Pix[4*i+0] = v.Pix[3*i+2]
		img.Pix[4*i+1] = v.Pix[3*i+1]
		img.Pix[4*i+2] = v.Pix[3*i+0]
		img.Pix[4*i+3] = 0xff
	}
	return img
}

// TempMap is a frame converted to Celsius, row-major like the Frame it came
// from. It is produced on demand by Calibration.Convert and never cached.
type TempMap struct {
	Celsius []float64
	Width   int
	Height  int
}

func (m *TempMap) Bounds() image.Rectangle {
	if m == nil || m.Width <= 0 || m.Height <= 0 {
		return image.Rectangle{}
	}
	return image.Rect(0, 0, m.Width, m.Height)
}

// CelsiusAt returns the temperature in °C at (x, y).
func (m *TempMap) CelsiusAt(x, y int) float64 {
	return m.Celsius[y*m.Width+x]
}

// RawGrid adapts a raw Frame so spatial queries can run directly against it,
// converting each sampled pixel on the fly. No Celsius buffer is allocated.
type RawGrid struct {
	Frame *Frame
	Cal   Calibration
}

func (g RawGrid) Bounds() image.Rectangle {
	return g.Frame.Bounds()
}

// CelsiusAt returns the calibrated temperature in °C at (x, y).
func (g RawGrid) CelsiusAt(x, y int) float64 {
	return g.Cal.RawToCelsius(g.Frame.RawAt(x, y))
}
