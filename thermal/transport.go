// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermal

// Info describes an opened camera.
type Info struct {
	Width  int
	Height int
	FPS    int
	Serial uint64
}

// Transport is the enumerated binding to the native device streaming layer.
//
// Every operation the wrapper consumes from the vendor stack is named here;
// nothing is discovered by reflection. Implementations live out of this
// package: thermaltest provides a simulated device and a file replay, the
// USB vendor transport ships as a separate cgo module.
//
// LatestTemperatureFrame and LatestVisibleFrame read a driver-maintained
// latest-frame slot. They must never block: when no frame is ready they
// return the zero-size sentinel immediately.
type Transport interface {
	// Open claims the device and returns its characteristics. It fails when
	// no hardware or driver is present.
	Open() (Info, error)
	// Close releases the device. It must be safe to call in any state.
	Close() error
	// StreamOn starts the video stream. Only legal once Open succeeded.
	StreamOn() error
	// StreamOff stops the video stream. Must be safe to call at any time
	// after Open.
	StreamOff() error
	// LatestTemperatureFrame returns the most recent raw frame, or the
	// zero-size sentinel when none is ready. Best effort, non-blocking.
	LatestTemperatureFrame() *Frame
	// LatestVisibleFrame is the same contract for the visible-light
	// companion stream, when the device has one.
	LatestVisibleFrame() *VisibleFrame
}

// Options configures a Camera once, at construction. It replaces any
// ambient process-wide configuration: nothing in this package reads or
// mutates global state to locate or parameterize the device layer.
type Options struct {
	// Calibration is the raw to Celsius curve to associate with the
	// session. The zero value means DefaultCalibration.
	Calibration Calibration
}
