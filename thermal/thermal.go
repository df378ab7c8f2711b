// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package thermal drives a TinyIR USB radiometric thermal camera.
//
// The package is split along three seams:
//
//   - Camera owns the session lifecycle (Closed, Opened, Streaming) and the
//     non-blocking acquisition of the latest raw frame. The underlying
//     device transport is not reentrant, so at most one session may be live
//     per process.
//   - Calibration converts raw 16 bit sensor counts to Celsius, either one
//     value at a time or frame-wide.
//   - The tempstat sibling package answers spatial queries (point,
//     rectangle, line, hotspot, full-frame statistics) over converted or
//     raw frames.
//
// The vendor USB protocol itself is behind the Transport interface and is
// not implemented here; see thermaltest for a simulated device.
package thermal

import (
	"fmt"
	"sync"
)

// State is the session lifecycle state. Transitions are strictly
// sequential: Closed ↔ Opened ↔ Streaming.
type State int

const (
	Closed State = iota
	Opened
	Streaming
)

func (s State) String() string {
	switch s {
	case Closed:
		return "Closed"
	case Opened:
		return "Opened"
	case Streaming:
		return "Streaming"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// The transport is an exclusive hardware resource. Only one Camera may be
// Opened or Streaming at a time in the process.
var (
	claimMu sync.Mutex
	claimed *Camera
)

func claim(c *Camera) error {
	claimMu.Lock()
	defer claimMu.Unlock()
	if claimed != nil {
		return fmt.Errorf("%w: device held by another session", ErrNoDevice)
	}
	claimed = c
	return nil
}

func release(c *Camera) {
	claimMu.Lock()
	if claimed == c {
		claimed = nil
	}
	claimMu.Unlock()
}

// Camera is a session on the thermal camera.
//
// All methods are safe for concurrent use. A Camera starts Closed; Open,
// StartStream, StopStream and Close walk the lifecycle. Acquisition calls
// never block and never fail: when no frame is available they hand out the
// zero-size sentinel.
type Camera struct {
	t Transport

	mu    sync.Mutex
	state State
	info  Info
	cal   Calibration
}

// New wraps a transport in a session. No I/O happens until Open.
func New(t Transport, o *Options) *Camera {
	c := &Camera{t: t, cal: DefaultCalibration()}
	if o != nil && len(o.Calibration.Segments) != 0 {
		c.cal = o.Calibration
	}
	return c
}

// Open claims the device and moves the session from Closed to Opened.
//
// It returns ErrAlreadyOpen if this session is already Opened or Streaming;
// it never silently reinitializes a live session. It returns ErrNoDevice
// when the hardware is absent or another session holds it.
func (c *Camera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Closed {
		return ErrAlreadyOpen
	}
	if err := claim(c); err != nil {
		return err
	}
	info, err := c.t.Open()
	if err != nil {
		release(c)
		return fmt.Errorf("%w: %s", ErrNoDevice, err)
	}
	c.info = info
	c.state = Opened
	return nil
}

// Close stops streaming if needed, releases the device and moves the
// session to Closed. It is idempotent; closing a Closed session is a no-op.
//
// Frames already handed out stay valid: the session never retains them.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Closed {
		return nil
	}
	var err error
	if c.state == Streaming {
		err = c.t.StreamOff()
	}
	if cerr := c.t.Close(); err == nil {
		err = cerr
	}
	c.state = Closed
	release(c)
	return err
}

// StartStream moves the session from Opened to Streaming.
//
// Some sensor variants need a warm-up interval after StartStream before
// temperature readings are numerically stable (about 5s on P2 hardware).
// Waiting it out is the caller's decision; this call returns immediately
// and acquisition simply yields the empty sentinel until frames arrive.
func (c *Camera) StartStream() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Opened {
		return fmt.Errorf("%w: StartStream in %s", ErrInvalidState, c.state)
	}
	if err := c.t.StreamOn(); err != nil {
		return err
	}
	c.state = Streaming
	return nil
}

// StopStream moves the session from Streaming back to Opened. Calling it
// when already Opened is a no-op; calling it when Closed is an error.
//
// It is a cooperative cancellation point: it may be called while another
// goroutine is polling frames, and frames already returned stay intact.
func (c *Camera) StopStream() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Closed {
		return fmt.Errorf("%w: StopStream in %s", ErrInvalidState, c.state)
	}
	if c.state != Streaming {
		return nil
	}
	err := c.t.StreamOff()
	c.state = Opened
	return err
}

// Info returns the camera characteristics. Valid once Opened.
func (c *Camera) Info() (Info, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Closed {
		return Info{}, fmt.Errorf("%w: Info in %s", ErrInvalidState, c.state)
	}
	return c.info, nil
}

// State returns the current lifecycle state.
func (c *Camera) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Calibration returns the raw to Celsius curve fixed at construction.
func (c *Camera) Calibration() Calibration {
	return c.cal
}

// TemperatureFrame returns the most recently available raw frame.
//
// Best effort and non-blocking: when the session is not Streaming, or no
// frame has arrived yet (USB transfer latency, warm-up), it returns the
// zero-size sentinel. A caller wanting a guaranteed fresh frame polls at
// its own pace; this package provides no internal timers.
func (c *Camera) TemperatureFrame() *Frame {
	c.mu.Lock()
	streaming := c.state == Streaming
	c.mu.Unlock()
	if !streaming {
		return &Frame{}
	}
	if f := c.t.LatestTemperatureFrame(); f != nil {
		return f
	}
	return &Frame{}
}

// VisibleFrame returns the most recent visible-light companion frame, with
// the same best-effort contract as TemperatureFrame. Devices without a
// visible sensor always yield the sentinel.
func (c *Camera) VisibleFrame() *VisibleFrame {
	c.mu.Lock()
	streaming := c.state == Streaming
	c.mu.Unlock()
	if !streaming {
		return &VisibleFrame{}
	}
	if v := c.t.LatestVisibleFrame(); v != nil {
		return v
	}
	return &VisibleFrame{}
}
