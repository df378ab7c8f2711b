// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermal

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Segment is one linear piece of a calibration curve. Within [RawLo, RawHi]
// the temperature is Slope*raw + Offset in °C.
type Segment struct {
	RawLo  uint16  `yaml:"rawlo"`
	RawHi  uint16  `yaml:"rawhi"`
	Slope  float64 `yaml:"slope"`  // °C per count, must be >= 0.
	Offset float64 `yaml:"offset"` // °C at a hypothetical count of 0.
}

func (s Segment) at(raw uint16) float64 {
	return s.Slope*float64(raw) + s.Offset
}

// Calibration maps raw sensor counts to Celsius. It is fixed for the
// lifetime of a session.
//
// The curve is piecewise linear over ordered, non-overlapping raw
// sub-ranges and monotonic non-decreasing within each sub-range. Raw values
// outside the calibrated span are clamped to the value at the nearest
// boundary; clamping is documented behavior, not an error.
type Calibration struct {
	Segments []Segment `yaml:"segments"`
}

// DefaultCalibration returns the factory curve for the TinyIR sensor
// family: counts are 1/64 K, so °C = raw/64 - 273.15, calibrated between
// -20°C and 550°C of scene temperature.
func DefaultCalibration() Calibration {
	return Calibration{
		Segments: []Segment{
			{RawLo: 16202, RawHi: 52682, Slope: 1.0 / 64.0, Offset: -273.15},
		},
	}
}

// Validate checks ordering and monotonicity of the curve.
func (c Calibration) Validate() error {
	if len(c.Segments) == 0 {
		return errors.New("thermal: calibration has no segments")
	}
	prevHi := uint16(0)
	prevVal := 0.0
	for i, s := range c.Segments {
		if s.RawLo > s.RawHi {
			return fmt.Errorf("thermal: segment %d: rawlo %d > rawhi %d", i, s.RawLo, s.RawHi)
		}
		if s.Slope < 0 {
			return fmt.Errorf("thermal: segment %d: negative slope %g", i, s.Slope)
		}
		if i > 0 {
			if s.RawLo <= prevHi {
				return fmt.Errorf("thermal: segment %d overlaps previous (rawlo %d <= %d)", i, s.RawLo, prevHi)
			}
			if s.at(s.RawLo) < prevVal {
				return fmt.Errorf("thermal: segment %d: curve decreases at raw %d", i, s.RawLo)
			}
		}
		prevHi = s.RawHi
		prevVal = s.at(s.RawHi)
	}
	return nil
}

// RawToCelsius converts one raw count to °C.
//
// It is a pure function of the receiver: no hidden state, no I/O, safe to
// apply element-wise from any number of goroutines.
func (c Calibration) RawToCelsius(raw uint16) float64 {
	segs := c.Segments
	if len(segs) == 0 {
		segs = DefaultCalibration().Segments
	}
	if raw < segs[0].RawLo {
		return segs[0].at(segs[0].RawLo)
	}
	for i, s := range segs {
		if raw <= s.RawHi {
			if raw >= s.RawLo {
				return s.at(raw)
			}
			// In a gap between segments; clamp to the nearest boundary.
			prev := segs[i-1]
			if int(raw)-int(prev.RawHi) <= int(s.RawLo)-int(raw) {
				return prev.at(prev.RawHi)
			}
			return s.at(s.RawLo)
		}
	}
	last := segs[len(segs)-1]
	return last.at(last.RawHi)
}

// Convert maps a whole raw frame to Celsius. The result is a freshly owned
// buffer; nothing is cached. Converting the zero-size sentinel yields the
// zero-size TempMap.
func (c Calibration) Convert(f *Frame) *TempMap {
	if f.Empty() {
		return &TempMap{}
	}
	m := &TempMap{
		Celsius: make([]float64, len(f.Pix)),
		Width:   f.Width,
		Height:  f.Height,
	}
	for i, v := range f.Pix {
		m.Celsius[i] = c.RawToCelsius(v)
	}
	return m
}

// LoadCalibration reads a YAML calibration curve, e.g.:
//
//	segments:
//	  - {rawlo: 16202, rawhi: 52682, slope: 0.015625, offset: -273.15}
func LoadCalibration(path string) (Calibration, error) {
	c := Calibration{}
	data, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("thermal: %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("thermal: %s: %w", path, err)
	}
	return c, nil
}
