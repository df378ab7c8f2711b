// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermal_test

import (
	"errors"
	"testing"

	"github.com/maruel/go-tinyir/thermal"
	"github.com/maruel/go-tinyir/thermaltest"
)

func TestLifecycle(t *testing.T) {
	c := thermal.New(thermaltest.NewFake(nil), nil)
	if s := c.State(); s != thermal.Closed {
		t.Fatalf("state = %s, want Closed", s)
	}
	if err := c.Open(); err != nil {
		t.Fatal(err)
	}
	if s := c.State(); s != thermal.Opened {
		t.Fatalf("state = %s, want Opened", s)
	}
	info, err := c.Info()
	if err != nil {
		t.Fatal(err)
	}
	if info.Width != 256 || info.Height != 192 || info.FPS != 25 {
		t.Fatalf("info = %#v", info)
	}
	if err := c.StartStream(); err != nil {
		t.Fatal(err)
	}
	if s := c.State(); s != thermal.Streaming {
		t.Fatalf("state = %s, want Streaming", s)
	}
	if err := c.StopStream(); err != nil {
		t.Fatal(err)
	}
	if s := c.State(); s != thermal.Opened {
		t.Fatalf("state = %s, want Opened", s)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if s := c.State(); s != thermal.Closed {
		t.Fatalf("state = %s, want Closed", s)
	}
}

func TestOpenTwice(t *testing.T) {
	c := thermal.New(thermaltest.NewFake(nil), nil)
	if err := c.Open(); err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if err := c.Open(); !errors.Is(err, thermal.ErrAlreadyOpen) {
		t.Fatalf("second Open = %v, want ErrAlreadyOpen", err)
	}
	// The failed Open must not have disturbed the session.
	if s := c.State(); s != thermal.Opened {
		t.Fatalf("state = %s, want Opened", s)
	}
}

func TestOpenWhileStreaming(t *testing.T) {
	c := thermal.New(thermaltest.NewFake(nil), nil)
	if err := c.Open(); err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if err := c.StartStream(); err != nil {
		t.Fatal(err)
	}
	if err := c.Open(); !errors.Is(err, thermal.ErrAlreadyOpen) {
		t.Fatalf("Open while streaming = %v, want ErrAlreadyOpen", err)
	}
}

func TestCloseIdempotent(t *testing.T) {
	c := thermal.New(thermaltest.NewFake(nil), nil)
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if err := c.Open(); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestCloseWhileStreaming(t *testing.T) {
	c := thermal.New(thermaltest.NewFake(nil), nil)
	if err := c.Open(); err != nil {
		t.Fatal(err)
	}
	if err := c.StartStream(); err != nil {
		t.Fatal(err)
	}
	// Close stops the stream itself.
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if s := c.State(); s != thermal.Closed {
		t.Fatalf("state = %s, want Closed", s)
	}
}

func TestInvalidTransitions(t *testing.T) {
	c := thermal.New(thermaltest.NewFake(nil), nil)
	if err := c.StartStream(); !errors.Is(err, thermal.ErrInvalidState) {
		t.Fatalf("StartStream while Closed = %v, want ErrInvalidState", err)
	}
	if err := c.StopStream(); !errors.Is(err, thermal.ErrInvalidState) {
		t.Fatalf("StopStream while Closed = %v, want ErrInvalidState", err)
	}
	if _, err := c.Info(); !errors.Is(err, thermal.ErrInvalidState) {
		t.Fatalf("Info while Closed = %v, want ErrInvalidState", err)
	}
	if err := c.Open(); err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if err := c.StopStream(); err != nil {
		t.Fatalf("StopStream while Opened = %v, want nil", err)
	}
	if err := c.StartStream(); err != nil {
		t.Fatal(err)
	}
	if err := c.StartStream(); !errors.Is(err, thermal.ErrInvalidState) {
		t.Fatalf("StartStream while Streaming = %v, want ErrInvalidState", err)
	}
}

func TestOpenNoDevice(t *testing.T) {
	c := thermal.New(thermaltest.NewFake(&thermaltest.FakeOptions{OpenErr: errors.New("usb: device unplugged")}), nil)
	if err := c.Open(); !errors.Is(err, thermal.ErrNoDevice) {
		t.Fatalf("Open = %v, want ErrNoDevice", err)
	}
	if s := c.State(); s != thermal.Closed {
		t.Fatalf("state = %s, want Closed", s)
	}
}

func TestExclusiveSession(t *testing.T) {
	a := thermal.New(thermaltest.NewFake(nil), nil)
	if err := a.Open(); err != nil {
		t.Fatal(err)
	}
	b := thermal.New(thermaltest.NewFake(nil), nil)
	if err := b.Open(); !errors.Is(err, thermal.ErrNoDevice) {
		t.Fatalf("second session Open = %v, want ErrNoDevice", err)
	}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}
	// Closing the first session releases the device.
	if err := b.Open(); err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestFrameSentinel(t *testing.T) {
	c := thermal.New(thermaltest.NewFake(nil), nil)
	if f := c.TemperatureFrame(); !f.Empty() {
		t.Fatal("frame while Closed should be the empty sentinel")
	}
	if err := c.Open(); err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if f := c.TemperatureFrame(); !f.Empty() {
		t.Fatal("frame while Opened should be the empty sentinel")
	}
	if v := c.VisibleFrame(); !v.Empty() {
		t.Fatal("visible frame while Opened should be the empty sentinel")
	}
	if err := c.StartStream(); err != nil {
		t.Fatal(err)
	}
	f := c.TemperatureFrame()
	if f.Empty() {
		t.Fatal("expected a frame while Streaming")
	}
	if len(f.Pix) != 256*192 {
		t.Fatalf("len(Pix) = %d", len(f.Pix))
	}
	if f.Metadata.FrameCount == 0 {
		t.Fatal("FrameCount not set")
	}
}

func TestFrameSurvivesStop(t *testing.T) {
	c := thermal.New(thermaltest.NewFake(nil), nil)
	if err := c.Open(); err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if err := c.StartStream(); err != nil {
		t.Fatal(err)
	}
	f := c.TemperatureFrame()
	if f.Empty() {
		t.Fatal("expected a frame")
	}
	want := f.RawAt(10, 10)
	if err := c.StopStream(); err != nil {
		t.Fatal(err)
	}
	// The frame handed out earlier is owned by the caller and stays intact.
	if got := f.RawAt(10, 10); got != want {
		t.Fatalf("frame mutated after StopStream: %d != %d", got, want)
	}
	if f2 := c.TemperatureFrame(); !f2.Empty() {
		t.Fatal("frame after StopStream should be the empty sentinel")
	}
}

func TestWarmup(t *testing.T) {
	c := thermal.New(thermaltest.NewFake(&thermaltest.FakeOptions{WarmupPulls: 3}), nil)
	if err := c.Open(); err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if err := c.StartStream(); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if f := c.TemperatureFrame(); !f.Empty() {
			t.Fatalf("pull %d: expected the empty sentinel during warm-up", i)
		}
	}
	if f := c.TemperatureFrame(); f.Empty() {
		t.Fatal("expected a frame once warmed up")
	}
}

func TestStateString(t *testing.T) {
	data := []struct {
		s    thermal.State
		want string
	}{
		{thermal.Closed, "Closed"},
		{thermal.Opened, "Opened"},
		{thermal.Streaming, "Streaming"},
		{thermal.State(42), "State(42)"},
	}
	for _, line := range data {
		if got := line.s.String(); got != line.want {
			t.Fatalf("String() = %q, want %q", got, line.want)
		}
	}
}
