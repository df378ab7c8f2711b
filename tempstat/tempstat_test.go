// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tempstat_test

import (
	"testing"

	"github.com/maruel/go-tinyir/tempstat"
	"github.com/maruel/go-tinyir/thermal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// grid builds a TempMap from rows of Celsius values.
func grid(rows [][]float64) *thermal.TempMap {
	h := len(rows)
	w := len(rows[0])
	m := &thermal.TempMap{Celsius: make([]float64, 0, w*h), Width: w, Height: h}
	for _, r := range rows {
		m.Celsius = append(m.Celsius, r...)
	}
	return m
}

// scene is a 4×3 frame: a uniform 20°C background with one 90°C pixel at
// (1, 1).
func scene() *thermal.TempMap {
	return grid([][]float64{
		{20, 20, 20, 20},
		{20, 90, 20, 20},
		{20, 20, 20, 20},
	})
}

func TestPoint(t *testing.T) {
	g := scene()
	v, err := tempstat.Point(g, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 90.0, v)
	v, err = tempstat.Point(g, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 20.0, v)
	v, err = tempstat.Point(g, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, 20.0, v)
}

func TestPointOutOfBounds(t *testing.T) {
	g := scene()
	data := []struct{ x, y int }{
		{-1, 0},
		{0, -1},
		{4, 0},
		{0, 3},
		{4, 3},
	}
	for _, line := range data {
		_, err := tempstat.Point(g, line.x, line.y)
		assert.ErrorIs(t, err, tempstat.ErrOutOfBounds, "(%d, %d)", line.x, line.y)
	}
}

func TestRect(t *testing.T) {
	g := scene()
	// Whole frame: eleven 20s and one 90.
	r, err := tempstat.Rect(g, 0, 0, 4, 3)
	require.NoError(t, err)
	assert.Equal(t, 90.0, r.Max)
	assert.Equal(t, 20.0, r.Min)
	assert.InDelta(t, 310.0/12.0, r.Avg, 1e-12)

	// A rectangle missing the hot pixel.
	r, err = tempstat.Rect(g, 2, 0, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 20.0, r.Max)
	assert.Equal(t, 20.0, r.Min)
	assert.Equal(t, 20.0, r.Avg)
}

func TestRectSinglePixel(t *testing.T) {
	// A 1×1 rectangle agrees with Point.
	g := scene()
	r, err := tempstat.Rect(g, 1, 1, 1, 1)
	require.NoError(t, err)
	p, err := tempstat.Point(g, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, p, r.Max)
	assert.Equal(t, p, r.Min)
	assert.Equal(t, p, r.Avg)
}

func TestRectOutOfBounds(t *testing.T) {
	g := scene()
	data := []struct{ x, y, w, h int }{
		{0, 0, 0, 1},  // Zero width.
		{0, 0, 1, 0},  // Zero height.
		{0, 0, -1, 1}, // Negative width.
		{-1, 0, 2, 2}, // Starts left of the frame.
		{3, 0, 2, 1},  // Spills over the right edge.
		{0, 2, 1, 2},  // Spills over the bottom edge.
		{4, 3, 1, 1},  // Entirely outside.
	}
	for _, line := range data {
		_, err := tempstat.Rect(g, line.x, line.y, line.w, line.h)
		assert.ErrorIs(t, err, tempstat.ErrOutOfBounds, "(%d, %d, %d, %d)", line.x, line.y, line.w, line.h)
	}
}

func TestLine(t *testing.T) {
	g := scene()
	// Horizontal through the hot pixel.
	r, err := tempstat.Line(g, 0, 1, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, 90.0, r.Max)
	assert.Equal(t, 20.0, r.Min)
	assert.InDelta(t, (3*20.0+90.0)/4.0, r.Avg, 1e-12)

	// Vertical missing it.
	r, err = tempstat.Line(g, 0, 0, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 20.0, r.Max)
	assert.Equal(t, 20.0, r.Avg)

	// Diagonal (0,0)-(2,2) passes through (1,1).
	r, err = tempstat.Line(g, 0, 0, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 90.0, r.Max)
	assert.InDelta(t, (2*20.0+90.0)/3.0, r.Avg, 1e-12)

	// Degenerate line: a single pixel, both endpoints inclusive.
	r, err = tempstat.Line(g, 1, 1, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 90.0, r.Max)
	assert.Equal(t, 90.0, r.Min)
	assert.Equal(t, 90.0, r.Avg)
}

func TestLineDirectionInvariant(t *testing.T) {
	// The sampled pixel set is the same in both directions for lines
	// Bresenham rasterizes symmetrically.
	g := grid([][]float64{
		{1, 2, 3, 4},
		{5, 6, 7, 8},
		{9, 10, 11, 12},
	})
	a, err := tempstat.Line(g, 0, 0, 2, 2)
	require.NoError(t, err)
	b, err := tempstat.Line(g, 2, 2, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestLineOutOfBounds(t *testing.T) {
	g := scene()
	_, err := tempstat.Line(g, 0, 0, 4, 2)
	assert.ErrorIs(t, err, tempstat.ErrOutOfBounds)
	_, err = tempstat.Line(g, -1, 0, 2, 2)
	assert.ErrorIs(t, err, tempstat.ErrOutOfBounds)
}

func TestHotspot(t *testing.T) {
	s, err := tempstat.Hotspot(scene())
	require.NoError(t, err)
	assert.Equal(t, tempstat.Spot{X: 1, Y: 1, Temp: 90}, s)
}

func TestHotspotTie(t *testing.T) {
	// Ties go to the first occurrence in row-major order.
	g := grid([][]float64{
		{20, 20, 90},
		{90, 20, 20},
	})
	s, err := tempstat.Hotspot(g)
	require.NoError(t, err)
	assert.Equal(t, tempstat.Spot{X: 2, Y: 0, Temp: 90}, s)
}

func TestColdspot(t *testing.T) {
	g := grid([][]float64{
		{20, 20, 20},
		{20, -5, 20},
	})
	s, err := tempstat.Coldspot(g)
	require.NoError(t, err)
	assert.Equal(t, tempstat.Spot{X: 1, Y: 1, Temp: -5}, s)
}

func TestSpotsMatchStats(t *testing.T) {
	g := scene()
	st, err := tempstat.FrameStats(g)
	require.NoError(t, err)
	hot, err := tempstat.Hotspot(g)
	require.NoError(t, err)
	cold, err := tempstat.Coldspot(g)
	require.NoError(t, err)
	assert.Equal(t, st.Max, hot.Temp)
	assert.Equal(t, st.Min, cold.Temp)
}

func TestFrameStats(t *testing.T) {
	st, err := tempstat.FrameStats(scene())
	require.NoError(t, err)
	assert.Equal(t, 20.0, st.Min)
	assert.Equal(t, 90.0, st.Max)
	assert.InDelta(t, 310.0/12.0, st.Mean, 1e-12)
	assert.Equal(t, 20.0, st.Median)
	assert.InDelta(t, 19.34698, st.StdDev, 1e-4)
	assert.Equal(t, 70.0, st.Range)
}

func TestFrameStatsMedian(t *testing.T) {
	// Odd count: the middle sample.
	g := grid([][]float64{{3, 1, 2}})
	st, err := tempstat.FrameStats(g)
	require.NoError(t, err)
	assert.Equal(t, 2.0, st.Median)

	// Even count: the mean of the two middle samples.
	g = grid([][]float64{{4, 1, 3, 2}})
	st, err = tempstat.FrameStats(g)
	require.NoError(t, err)
	assert.Equal(t, 2.5, st.Median)
}

func TestFrameStatsUniform(t *testing.T) {
	g := grid([][]float64{
		{20, 20},
		{20, 20},
	})
	st, err := tempstat.FrameStats(g)
	require.NoError(t, err)
	assert.Equal(t, 0.0, st.StdDev)
	assert.Equal(t, 0.0, st.Range)
	assert.Equal(t, 20.0, st.Median)
}

func TestEmptyFrame(t *testing.T) {
	g := &thermal.TempMap{}
	_, err := tempstat.Point(g, 0, 0)
	assert.ErrorIs(t, err, tempstat.ErrEmptyFrame)
	_, err = tempstat.Rect(g, 0, 0, 1, 1)
	assert.ErrorIs(t, err, tempstat.ErrEmptyFrame)
	_, err = tempstat.Line(g, 0, 0, 1, 1)
	assert.ErrorIs(t, err, tempstat.ErrEmptyFrame)
	_, err = tempstat.Hotspot(g)
	assert.ErrorIs(t, err, tempstat.ErrEmptyFrame)
	_, err = tempstat.Coldspot(g)
	assert.ErrorIs(t, err, tempstat.ErrEmptyFrame)
	_, err = tempstat.FrameStats(g)
	assert.ErrorIs(t, err, tempstat.ErrEmptyFrame)
}

func TestRawGridQueries(t *testing.T) {
	// Queries run directly against a raw frame through a calibration.
	f := thermal.NewFrame(4, 3)
	for i := range f.Pix {
		f.Pix[i] = 19081 // ~25°C.
	}
	f.SetRaw(1, 1, 23241) // ~90°C.
	g := thermal.RawGrid{Frame: f, Cal: thermal.DefaultCalibration()}
	hot, err := tempstat.Hotspot(g)
	require.NoError(t, err)
	assert.Equal(t, 1, hot.X)
	assert.Equal(t, 1, hot.Y)
	assert.InDelta(t, 90.0, hot.Temp, 0.02)
}
