// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// tinyir-grab captures a single frame as a PNG, or records a stream to a
// .tir file.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"os"
	"time"

	"github.com/maruel/go-tinyir/tempstat"
	"github.com/maruel/go-tinyir/thermal"
	"github.com/maruel/go-tinyir/internal"
	"github.com/maruel/go-tinyir/thermaltest"
)

func grabFrame(cam *thermal.Camera, fps int, timeout time.Duration) (*thermal.Frame, error) {
	interval := time.Second / time.Duration(fps)
	for deadline := time.Now().Add(timeout); time.Now().Before(deadline); {
		if f := cam.TemperatureFrame(); !f.Empty() {
			return f, nil
		}
		time.Sleep(interval)
	}
	return nil, errors.New("timed out waiting for a frame; the sensor may still be warming up")
}

func record(cam *thermal.Camera, info thermal.Info, path string, n int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	// Temperature plane only; the visible stream is not recorded.
	h := internal.Header{
		Width:  uint16(info.Width),
		Height: uint16(info.Height),
		FPS:    uint16(info.FPS),
	}
	if err := internal.WriteHeader(f, h); err != nil {
		return err
	}
	last := uint32(0)
	interval := time.Second / time.Duration(info.FPS)
	for written := 0; written < n; {
		frame, err := grabFrame(cam, info.FPS, 10*time.Second)
		if err != nil {
			return err
		}
		if frame.Metadata.FrameCount == last {
			time.Sleep(interval)
			continue
		}
		last = frame.Metadata.FrameCount
		if err := internal.WriteRecord(f, h, nil, frame.Pix); err != nil {
			return err
		}
		written++
	}
	return nil
}

func mainImpl() error {
	fake := flag.Bool("fake", false, "use a simulated camera")
	replay := flag.String("replay", "", "replay a .tir recording instead of hardware")
	calPath := flag.String("cal", "", "YAML calibration curve; default is the factory curve")
	agc := flag.Bool("agc", false, "save a 8 bit PNG instead of the default 16 bits")
	meta := flag.Bool("meta", false, "print metadata and frame statistics")
	recordN := flag.Int("record", 0, "record N frames to a .tir file instead of a PNG")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()
	if !*verbose {
		log.SetOutput(io.Discard)
	}
	log.SetFlags(log.Lmicroseconds)

	if flag.NArg() != 1 {
		return errors.New("supply path to the file to save")
	}

	var t thermal.Transport
	switch {
	case *replay != "":
		r, err := thermaltest.NewReplay(*replay)
		if err != nil {
			return err
		}
		t = r
	case *fake:
		t = thermaltest.NewFake(nil)
	default:
		return errors.New("no transport selected\nIf testing without hardware, use -fake to simulate a camera")
	}

	cal := thermal.DefaultCalibration()
	if *calPath != "" {
		c, err := thermal.LoadCalibration(*calPath)
		if err != nil {
			return err
		}
		cal = c
	}

	cam := thermal.New(t, &thermal.Options{Calibration: cal})
	if err := cam.Open(); err != nil {
		return err
	}
	defer cam.Close()
	info, err := cam.Info()
	if err != nil {
		return err
	}
	if err := cam.StartStream(); err != nil {
		return err
	}
	defer cam.StopStream()

	if *recordN > 0 {
		return record(cam, info, flag.Args()[0], *recordN)
	}

	frame, err := grabFrame(cam, info.FPS, 10*time.Second)
	if err != nil {
		return err
	}
	if *meta {
		fmt.Printf("FrameCount:  %d\n", frame.Metadata.FrameCount)
		fmt.Printf("CaptureTime: %s\n", frame.Metadata.CaptureTime)
		fmt.Printf("AvgRaw:      %d\n", frame.Metadata.AvgRaw)
		fmt.Printf("FPATemp:     %s\n", frame.Metadata.FPATemp)
		fmt.Printf("HousingTemp: %s\n", frame.Metadata.HousingTemp)
		g := thermal.RawGrid{Frame: frame, Cal: cal}
		if st, err := tempstat.FrameStats(g); err == nil {
			fmt.Printf("Min:         %.2f°C\n", st.Min)
			fmt.Printf("Max:         %.2f°C\n", st.Max)
			fmt.Printf("Mean:        %.2f°C\n", st.Mean)
			fmt.Printf("Median:      %.2f°C\n", st.Median)
			fmt.Printf("StdDev:      %.2f°C\n", st.StdDev)
		}
		if hot, err := tempstat.Hotspot(g); err == nil {
			fmt.Printf("Hotspot:     %.2f°C @ (%d, %d)\n", hot.Temp, hot.X, hot.Y)
		}
		if cold, err := tempstat.Coldspot(g); err == nil {
			fmt.Printf("Coldspot:    %.2f°C @ (%d, %d)\n", cold.Temp, cold.X, cold.Y)
		}
	}
	f, err := os.Create(flag.Args()[0])
	if err != nil {
		return err
	}
	defer f.Close()
	var img image.Image = frame
	if *agc {
		g := image.NewGray(frame.Bounds())
		frame.AGC(g)
		img = g
	}
	return png.Encode(f, img)
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\ntinyir-grab: %s.\n", err)
		os.Exit(1)
	}
}
