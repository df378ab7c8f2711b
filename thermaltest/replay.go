// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermaltest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/maruel/go-tinyir/thermal"
	"github.com/maruel/go-tinyir/internal"
)

// Replay feeds a .tir recording back as a transport, looping over the
// recorded frames. It lets the full pipeline run against captured data
// without hardware.
type Replay struct {
	info    thermal.Info
	temps   [][]uint16
	imgs    [][]byte
	imgW    int
	imgH    int

	mu        sync.Mutex
	streaming bool
	index     int
	count     uint32
}

// NewReplay loads a whole .tir recording in memory.
func NewReplay(path string) (*Replay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewReplayReader(bytes.NewReader(data))
}

// NewReplayReader loads a .tir recording from r.
func NewReplayReader(r io.Reader) (*Replay, error) {
	h, err := internal.ReadHeader(r)
	if err != nil {
		return nil, err
	}
	out := &Replay{
		info: thermal.Info{
			Width:  int(h.Width),
			Height: int(h.Height),
			FPS:    int(h.FPS),
			Serial: 0x5EED,
		},
		imgW: int(h.ImgWidth),
		imgH: int(h.ImgHeight),
	}
	for {
		img, temp, err := internal.ReadRecord(r, h)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		out.imgs = append(out.imgs, img)
		out.temps = append(out.temps, temp)
	}
	if len(out.temps) == 0 {
		return nil, fmt.Errorf("thermaltest: recording has no frames")
	}
	return out, nil
}

func (r *Replay) Open() (thermal.Info, error) {
	return r.info, nil
}

func (r *Replay) Close() error {
	r.mu.Lock()
	r.streaming = false
	r.mu.Unlock()
	return nil
}

func (r *Replay) StreamOn() error {
	r.mu.Lock()
	r.streaming = true
	r.index = 0
	r.count = 0
	r.mu.Unlock()
	return nil
}

func (r *Replay) StreamOff() error {
	r.mu.Lock()
	r.streaming = false
	r.mu.Unlock()
	return nil
}

func (r *Replay) LatestTemperatureFrame() *thermal.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.streaming {
		return &thermal.Frame{}
	}
	temp := r.temps[r.index]
	r.index = (r.index + 1) % len(r.temps)
	r.count++
	f := &thermal.Frame{
		Pix:    make([]uint16, len(temp)),
		Width:  r.info.Width,
		Height: r.info.Height,
	}
	copy(f.Pix, temp)
	sum := int64(0)
	for _, v := range temp {
		sum += int64(v)
	}
	f.Metadata = thermal.Metadata{
		FrameCount:  r.count,
		CaptureTime: time.Now().UTC(),
		AvgRaw:      uint16(sum / int64(len(temp))),
	}
	return f
}

func (r *Replay) LatestVisibleFrame() *thermal.VisibleFrame {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.streaming || r.imgW == 0 || r.imgH == 0 {
		return &thermal.VisibleFrame{}
	}
	// The visible plane of the record most recently handed out.
	i := (r.index + len(r.imgs) - 1) % len(r.imgs)
	img := r.imgs[i]
	v := &thermal.VisibleFrame{
		Pix:    make([]uint8, len(img)),
		Width:  r.imgW,
		Height: r.imgH,
	}
	copy(v.Pix, img)
	return v
}
