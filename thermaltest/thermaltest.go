// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package thermaltest implements fake TinyIR transports.
//
// Fake synthesizes frames from drifting warm blobs so the pipeline can be
// exercised without a device; Replay feeds back a .tir recording. Both
// implement thermal.Transport.
package thermaltest

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/maruel/go-tinyir/thermal"
	"periph.io/x/periph/conn/physic"
)

// FakeOptions tunes the simulated device. The zero value simulates the
// stock TinyIR: 256×192 @ 25fps with a visible companion stream and a short
// warm-up.
type FakeOptions struct {
	Width  int
	Height int
	FPS    int
	// WarmupPulls is how many acquisition calls after StreamOn yield the
	// empty sentinel before frames start flowing, simulating the sensor
	// stabilization delay of P2-class hardware.
	WarmupPulls int
	// NoVisible disables the visible-light companion stream.
	NoVisible bool
	// OpenErr, when set, makes Open fail with it. Lets tests exercise the
	// no-device path.
	OpenErr error
	// Seed seeds the scene noise; a given seed replays the same scene.
	Seed int64
}

// Fake is a simulated TinyIR device.
type Fake struct {
	opts FakeOptions

	mu         sync.Mutex
	opened     bool
	streaming  bool
	warmupLeft int
	frameCount uint32
	noise      *noise
}

var errClosed = errors.New("thermaltest: transport not open")

// NewFake returns a simulated device.
func NewFake(o *FakeOptions) *Fake {
	opts := FakeOptions{}
	if o != nil {
		opts = *o
	}
	if opts.Width == 0 {
		opts.Width = 256
	}
	if opts.Height == 0 {
		opts.Height = 192
	}
	if opts.FPS == 0 {
		opts.FPS = 25
	}
	return &Fake{opts: opts}
}

func (f *Fake) Open() (thermal.Info, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.opts.OpenErr != nil {
		return thermal.Info{}, f.opts.OpenErr
	}
	f.opened = true
	f.noise = makeNoise(f.opts.Seed, f.opts.Width, f.opts.Height)
	return thermal.Info{
		Width:  f.opts.Width,
		Height: f.opts.Height,
		FPS:    f.opts.FPS,
		Serial: 0x1234,
	}, nil
}

func (f *Fake) Close() error {
	f.mu.Lock()
	f.opened = false
	f.streaming = false
	f.mu.Unlock()
	return nil
}

func (f *Fake) StreamOn() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.opened {
		return errClosed
	}
	f.streaming = true
	f.warmupLeft = f.opts.WarmupPulls
	f.frameCount = 0
	return nil
}

func (f *Fake) StreamOff() error {
	f.mu.Lock()
	f.streaming = false
	f.mu.Unlock()
	return nil
}

func (f *Fake) LatestTemperatureFrame() *thermal.Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.streaming {
		return &thermal.Frame{}
	}
	if f.warmupLeft > 0 {
		f.warmupLeft--
		return &thermal.Frame{}
	}
	f.frameCount++
	frame := thermal.NewFrame(f.opts.Width, f.opts.Height)
	f.noise.update()
	avg := f.noise.render(frame)
	frame.Metadata = thermal.Metadata{
		FrameCount:  f.frameCount,
		CaptureTime: time.Now().UTC(),
		AvgRaw:      avg,
		FPATemp:     30*physic.Celsius + physic.ZeroCelsius,
		HousingTemp: 28*physic.Celsius + physic.ZeroCelsius,
	}
	return frame
}

func (f *Fake) LatestVisibleFrame() *thermal.VisibleFrame {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.streaming || f.opts.NoVisible || f.warmupLeft > 0 {
		return &thermal.VisibleFrame{}
	}
	// A flat gradient is enough to prove the plumbing.
	v := &thermal.VisibleFrame{
		Pix:    make([]uint8, f.opts.Width*f.opts.Height*3),
		Width:  f.opts.Width,
		Height: f.opts.Height,
	}
	for y := 0; y < f.opts.Height; y++ {
		for x := 0; x < f.opts.Width; x++ {
			i := 3 * (y*f.opts.Width + x)
			v.Pix[i+0] = uint8(x)
			v.Pix[i+1] = uint8(y)
			v.Pix[i+2] = uint8(x + y)
		}
	}
	return v
}

//

type vector struct {
	intensity float64
	x         float64
	y         float64
}

// noise is cheezy but gets us going for testing without a device. Counts
// hover around room temperature (~19081 at 1/64K per count) with warm blobs
// drifting over the scene.
type noise struct {
	rand    *rand.Rand
	w, h    int
	vectors []vector
}

const baseCount = 19081 // ~25°C.

func makeNoise(seed int64, w, h int) *noise {
	n := &noise{rand: rand.New(rand.NewSource(seed)), w: w, h: h}
	n.vectors = make([]vector, 10)
	for i := range n.vectors {
		n.vectors[i].intensity = n.rand.NormFloat64() * 500
		n.vectors[i].x = n.rand.NormFloat64()*float64(w)/6 + float64(w)/2
		n.vectors[i].y = n.rand.NormFloat64()*float64(h)/6 + float64(h)/2
	}
	return n
}

func (n *noise) update() {
	for i := range n.vectors {
		n.vectors[i].intensity += n.rand.NormFloat64() * 5
		n.vectors[i].x += n.rand.NormFloat64() * 0.5
		n.vectors[i].y += n.rand.NormFloat64() * 0.5
	}
}

func (n *noise) render(f *thermal.Frame) uint16 {
	dynamicRange := float64(2048)
	sum := int64(0)
	for y := 0; y < n.h; y++ {
		fy := float64(y)
		for x := 0; x < n.w; x++ {
			fx := float64(x)
			value := float64(baseCount)
			for _, vect := range n.vectors {
				distance := (vect.x-fx)*(vect.x-fx) + (vect.y-fy)*(vect.y-fy) + 1
				value += vect.intensity / distance * 100
			}
			if value > baseCount+dynamicRange {
				value = baseCount + dynamicRange
			}
			if value < baseCount-dynamicRange {
				value = baseCount - dynamicRange
			}
			f.SetRaw(x, y, uint16(value))
			sum += int64(value)
		}
	}
	return uint16(sum / int64(n.w*n.h))
}
