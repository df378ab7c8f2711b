// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// tinyir streams a TinyIR thermal camera to a small web UI.
//
// It polls the camera at the advertised frame rate, keeps the last few
// seconds of frames in memory and serves them as PNG stills, a websocket
// stream and JSON temperature statistics. Optionally it pushes frames to a
// remote collector.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/maruel/go-tinyir/tempstat"
	"github.com/maruel/go-tinyir/thermal"
	"github.com/maruel/go-tinyir/thermaltest"
	"github.com/maruel/interrupt"
)

func mainImpl() error {
	cpuprofile := flag.String("cpuprofile", "", "dump CPU profile in file")
	port := flag.Int("port", 8010, "http port to listen on")
	fake := flag.Bool("fake", false, "use a simulated camera")
	replay := flag.String("replay", "", "replay a .tir recording instead of hardware")
	calPath := flag.String("cal", "", "YAML calibration curve; default is the factory curve")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()

	if len(flag.Args()) != 0 {
		return fmt.Errorf("unexpected argument: %s", flag.Args())
	}
	if !*verbose {
		log.SetOutput(io.Discard)
	}
	log.SetFlags(log.Lmicroseconds)

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			return err
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	interrupt.HandleCtrlC()
	defer interrupt.Set()

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
		// The vendor USB transport ships as a separate cgo module.
		return errors.New("no transport selected; use -fake to simulate a camera or -replay to play a recording")
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
	fmt.Printf("Camera: %dx%d @ %dfps serial 0x%x\n", info.Width, info.Height, info.FPS, info.Serial)

	if err := cam.StartStream(); err != nil {
		return err
	}
	defer cam.StopStream()
	// Some sensor variants need a few seconds after stream start before
	// readings stabilize; until then the frame slot stays empty and the UI
	// just shows nothing.
	log.Printf("streaming; readings may take a few seconds to stabilize")

	srv := StartWebServer(*port, cal)

	var push chan *thermal.Frame
	if p := LoadPusher(); p != nil {
		push = make(chan *thermal.Frame, 16)
		go p.sendFrames(push)
	}

	go func() {
		tick := time.NewTicker(time.Second / time.Duration(info.FPS))
		defer tick.Stop()
		last := uint32(0)
		for !interrupt.IsSet() {
			<-tick.C
			f := cam.TemperatureFrame()
			if f.Empty() || f.Metadata.FrameCount == last {
				continue
			}
			last = f.Metadata.FrameCount
			srv.AddFrame(f)
			if push != nil {
				select {
				case push <- f:
				default:
				}
			}
		}
	}()

	go func() {
		if err := watchFile(); err != nil {
			log.Printf("watch: %s", err)
		}
		interrupt.Set()
	}()

	for !interrupt.IsSet() {
		if f := srv.LastFrame(); !f.Empty() {
			g := thermal.RawGrid{Frame: f, Cal: cal}
			if hot, err := tempstat.Hotspot(g); err == nil {
				fmt.Printf("\rframe %d  hotspot %.1f°C @ (%d, %d)   ", f.Metadata.FrameCount, hot.Temp, hot.X, hot.Y)
			}
		}
		time.Sleep(time.Second)
	}
	fmt.Print("\n")
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\ntinyir: %s.\n", err)
		os.Exit(1)
	}
}
