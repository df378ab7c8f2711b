// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package tempstat answers spatial temperature queries over a single frame.
//
// Every function here is pure and read-only: it walks the supplied grid,
// keeps no reference to it past the call, and holds no lock. Queries are
// safe to run concurrently, including against the same frame, as long as no
// writer mutates that frame underneath them.
//
// The grid is either a converted Celsius plane (thermal.TempMap) or a raw
// frame viewed through a calibration (thermal.RawGrid); the math is the
// same either way.
package tempstat

import (
	"errors"
	"image"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Grid is the read-only view queries operate on.
type Grid interface {
	// Bounds is the frame rectangle; the zero rectangle means the empty
	// sentinel frame.
	Bounds() image.Rectangle
	// CelsiusAt returns the temperature in °C at (x, y), which must be
	// inside Bounds.
	CelsiusAt(x, y int) float64
}

var (
	// ErrOutOfBounds is returned when a point, rectangle or line is not
	// fully contained in the frame.
	ErrOutOfBounds = errors.New("tempstat: query out of frame bounds")

	// ErrEmptyFrame is returned when the grid is the zero-size sentinel.
	ErrEmptyFrame = errors.New("tempstat: empty frame")
)

// Range is the (max, min, avg) triple over a set of sampled pixels. Avg is
// an unweighted arithmetic mean.
type Range struct {
	Max float64
	Min float64
	Avg float64
}

// Spot is a single pixel and its temperature.
type Spot struct {
	X    int
	Y    int
	Temp float64
}

// Stats summarizes a whole frame. StdDev is the population standard
// deviation (dividing by N, not N-1) and Range is Max-Min.
type Stats struct {
	Min    float64
	Max    float64
	Mean   float64
	Median float64
	StdDev float64
	Range  float64
}

// Point returns the temperature at (x, y).
func Point(g Grid, x, y int) (float64, error) {
	b := g.Bounds()
	if b.Empty() {
		return 0, ErrEmptyFrame
	}
	if !(image.Point{X: x, Y: y}).In(b) {
		return 0, ErrOutOfBounds
	}
	return g.CelsiusAt(x, y), nil
}

// Rect returns the (max, min, avg) triple over the w×h rectangle whose
// top-left corner is (x, y). The rectangle must be fully contained in the
// frame and w and h must be positive.
func Rect(g Grid, x, y, w, h int) (Range, error) {
	b := g.Bounds()
	if b.Empty() {
		return Range{}, ErrEmptyFrame
	}
	if w <= 0 || h <= 0 {
		return Range{}, ErrOutOfBounds
	}
	r := image.Rect(x, y, x+w, y+h)
	if !r.In(b) {
		return Range{}, ErrOutOfBounds
	}
	out := Range{}
	sum := 0.0
	first := true
	for py := y; py < y+h; py++ {
		for px := x; px < x+w; px++ {
			v := g.CelsiusAt(px, py)
			if first {
				out.Max = v
				out.Min = v
				first = false
			} else {
				if v > out.Max {
					out.Max = v
				}
				if v < out.Min {
					out.Min = v
				}
			}
			sum += v
		}
	}
	out.Avg = sum / float64(w*h)
	return out, nil
}

// Line returns the (max, min, avg) triple over the pixels on the discrete
// line from (x1, y1) to (x2, y2), both endpoints inclusive.
//
// The line is rasterized with Bresenham's integer midpoint algorithm, so
// for a given pair of endpoints the sampled pixel set, and therefore the
// result, is bit-reproducible across runs and platforms. Both endpoints
// must be inside the frame; every intermediate pixel then is too.
func Line(g Grid, x1, y1, x2, y2 int) (Range, error) {
	b := g.Bounds()
	if b.Empty() {
		return Range{}, ErrEmptyFrame
	}
	if !(image.Point{X: x1, Y: y1}).In(b) || !(image.Point{X: x2, Y: y2}).In(b) {
		return Range{}, ErrOutOfBounds
	}
	out := Range{}
	sum := 0.0
	n := 0
	sample := func(x, y int) {
		v := g.CelsiusAt(x, y)
		if n == 0 {
			out.Max = v
			out.Min = v
		} else {
			if v > out.Max {
				out.Max = v
			}
			if v < out.Min {
				out.Min = v
			}
		}
		sum += v
		n++
	}
	dx := abs(x2 - x1)
	dy := -abs(y2 - y1)
	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}
	e := dx + dy
	for {
		sample(x1, y1)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x1 += sx
		}
		if e2 <= dx {
			e += dx
			y1 += sy
		}
	}
	out.Avg = sum / float64(n)
	return out, nil
}

// Hotspot returns the hottest pixel of the frame. Ties go to the first
// occurrence in row-major order: lowest y, then lowest x.
func Hotspot(g Grid) (Spot, error) {
	return scan(g, func(v, best float64) bool { return v > best })
}

// Coldspot returns the coldest pixel of the frame, with the same row-major
// tie-break as Hotspot.
func Coldspot(g Grid) (Spot, error) {
	return scan(g, func(v, best float64) bool { return v < best })
}

func scan(g Grid, better func(v, best float64) bool) (Spot, error) {
	b := g.Bounds()
	if b.Empty() {
		return Spot{}, ErrEmptyFrame
	}
	out := Spot{X: b.Min.X, Y: b.Min.Y, Temp: g.CelsiusAt(b.Min.X, b.Min.Y)}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if v := g.CelsiusAt(x, y); better(v, out.Temp) {
				out = Spot{X: x, Y: y, Temp: v}
			}
		}
	}
	return out, nil
}

// FrameStats returns min, max, mean, median, population standard deviation
// and range over the whole frame.
func FrameStats(g Grid) (Stats, error) {
	b := g.Bounds()
	if b.Empty() {
		return Stats{}, ErrEmptyFrame
	}
	vals := make([]float64, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			vals = append(vals, g.CelsiusAt(x, y))
		}
	}
	out := Stats{
		Mean:   stat.Mean(vals, nil),
		StdDev: stat.PopStdDev(vals, nil),
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	out.Min = sorted[0]
	out.Max = sorted[len(sorted)-1]
	out.Range = out.Max - out.Min
	// Midpoint median: mean of the two middle samples on even counts.
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		out.Median = sorted[mid]
	} else {
		out.Median = (sorted[mid-1] + sorted[mid]) / 2
	}
	return out, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
