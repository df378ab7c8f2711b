// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// tinyir-query grabs one frame and answers temperature queries about it.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/maruel/go-tinyir/tempstat"
	"github.com/maruel/go-tinyir/thermal"
	"github.com/maruel/go-tinyir/thermaltest"
)

// parseInts parses exactly n comma separated integers.
func parseInts(s string, n int) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma separated integers, got %q", n, s)
	}
	out := make([]int, n)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func mainImpl() error {
	fake := flag.Bool("fake", false, "use a simulated camera")
	replay := flag.String("replay", "", "replay a .tir recording instead of hardware")
	calPath := flag.String("cal", "", "YAML calibration curve; default is the factory curve")
	point := flag.String("point", "", "temperature at x,y")
	rect := flag.String("rect", "", "max/min/avg over the rectangle x,y,w,h")
	line := flag.String("line", "", "max/min/avg along the line x1,y1,x2,y2")
	stats := flag.Bool("stats", false, "full frame statistics")
	hotspot := flag.Bool("hotspot", false, "hottest pixel")
	coldspot := flag.Bool("coldspot", false, "coldest pixel")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()
	if !*verbose {
		log.SetOutput(io.Discard)
	}
	log.SetFlags(log.Lmicroseconds)

	if len(flag.Args()) != 0 {
		return fmt.Errorf("unexpected argument: %s", flag.Args())
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
	fmt.Printf("Resolution:   %dx%d\n", info.Width, info.Height)
	fmt.Printf("FrameRate:    %d\n", info.FPS)
	fmt.Printf("Serial:       0x%x\n", info.Serial)
	if err := cam.StartStream(); err != nil {
		return err
	}
	defer cam.StopStream()

	var frame *thermal.Frame
	interval := time.Second / time.Duration(info.FPS)
	for deadline := time.Now().Add(10 * time.Second); time.Now().Before(deadline); {
		if f := cam.TemperatureFrame(); !f.Empty() {
			frame = f
			break
		}
		time.Sleep(interval)
	}
	if frame == nil {
		return errors.New("timed out waiting for a frame; the sensor may still be warming up")
	}
	fmt.Printf("FrameCount:   %d\n", frame.Metadata.FrameCount)
	g := thermal.RawGrid{Frame: frame, Cal: cal}

	if *point != "" {
		c, err := parseInts(*point, 2)
		if err != nil {
			return err
		}
		v, err := tempstat.Point(g, c[0], c[1])
		if err != nil {
			return err
		}
		fmt.Printf("Point:        %.2f°C @ (%d, %d)\n", v, c[0], c[1])
	}
	if *rect != "" {
		c, err := parseInts(*rect, 4)
		if err != nil {
			return err
		}
		r, err := tempstat.Rect(g, c[0], c[1], c[2], c[3])
		if err != nil {
			return err
		}
		fmt.Printf("Rect.Max:     %.2f°C\n", r.Max)
		fmt.Printf("Rect.Min:     %.2f°C\n", r.Min)
		fmt.Printf("Rect.Avg:     %.2f°C\n", r.Avg)
	}
	if *line != "" {
		c, err := parseInts(*line, 4)
		if err != nil {
			return err
		}
		r, err := tempstat.Line(g, c[0], c[1], c[2], c[3])
		if err != nil {
			return err
		}
		fmt.Printf("Line.Max:     %.2f°C\n", r.Max)
		fmt.Printf("Line.Min:     %.2f°C\n", r.Min)
		fmt.Printf("Line.Avg:     %.2f°C\n", r.Avg)
	}
	if *stats {
		st, err := tempstat.FrameStats(g)
		if err != nil {
			return err
		}
		fmt.Printf("Stats.Min:    %.2f°C\n", st.Min)
		fmt.Printf("Stats.Max:    %.2f°C\n", st.Max)
		fmt.Printf("Stats.Mean:   %.2f°C\n", st.Mean)
		fmt.Printf("Stats.Median: %.2f°C\n", st.Median)
		fmt.Printf("Stats.StdDev: %.2f°C\n", st.StdDev)
		fmt.Printf("Stats.Range:  %.2f°C\n", st.Range)
	}
	if *hotspot {
		s, err := tempstat.Hotspot(g)
		if err != nil {
			return err
		}
		fmt.Printf("Hotspot:      %.2f°C @ (%d, %d)\n", s.Temp, s.X, s.Y)
	}
	if *coldspot {
		s, err := tempstat.Coldspot(g)
		if err != nil {
			return err
		}
		fmt.Printf("Coldspot:     %.2f°C @ (%d, %d)\n", s.Temp, s.X, s.Y)
	}
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\ntinyir-query: %s.\n", err)
		os.Exit(1)
	}
}
