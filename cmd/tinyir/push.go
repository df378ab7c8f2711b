// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/png"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/maruel/go-tinyir/thermal"
	"github.com/maruel/interrupt"
)

// PushRequest is a batch of frames sent to a remote collector.
type PushRequest struct {
	ID     int64
	Secret []byte
	Items  []PushRequestItem
}

// PushRequestItem is one frame: the 16-bit PNG plus its capture time.
type PushRequestItem struct {
	Timestamp time.Time
	PNG       []byte
}

// Pusher forwards frames to a remote collector over HTTPS.
type Pusher struct {
	config pusherConfig
	stats  PusherStats
}

type pusherConfig struct {
	ID     int64
	Secret []byte
	Server string
}

type PusherStats struct {
	FramesSent int
	HTTPReqs   int
}

func (p *pusherConfig) isValid() bool {
	return p.ID != 0 && len(p.Secret) != 0 && len(p.Server) != 0
}

func (p *Pusher) Stats() PusherStats {
	return p.stats
}

func (p *Pusher) sendFrames(c <-chan *thermal.Frame) {
	client := &http.Client{}

	frames := make([]*thermal.Frame, 0, 30)
	for {
		// Do not send more than 30 frames at a time.
		frames = frames[:0]
		loop := true
		for loop && len(frames) < 30 {
			select {
			case f := <-c:
				frames = append(frames, f)
			case <-interrupt.Channel:
				return
			default:
				loop = false
			}
		}
		if len(frames) == 0 {
			continue
		}
		p.send(client, frames)
		p.stats.FramesSent += len(frames)
		p.stats.HTTPReqs++
	}
}

func (p *Pusher) send(client *http.Client, frames []*thermal.Frame) {
	req := &PushRequest{
		ID:     p.config.ID,
		Secret: p.config.Secret,
		Items:  make([]PushRequestItem, len(frames)),
	}
	var w bytes.Buffer
	for i, f := range frames {
		if err := png.Encode(&w, f); err != nil {
			panic(err)
		}
		req.Items[i].Timestamp = f.Metadata.CaptureTime
		req.Items[i].PNG = append([]byte(nil), w.Bytes()...)
		w.Reset()
	}
	if err := json.NewEncoder(&w).Encode(req); err != nil {
		panic(err)
	}
	url := "https://" + p.config.Server + "/api/tinyir/v1/push"
	resp, err := client.Post(url, "application/json", &w)
	if err != nil {
		log.Printf("failed to post frames: %s", err)
	} else {
		resp.Body.Close()
	}
}

// LoadPusher loads ~/.config/tinyir/tinyir.json or creates one if none
// exists. Returns nil when the config is incomplete, which disables pushing.
func LoadPusher() *Pusher {
	home, _ := os.UserHomeDir()
	configDir := filepath.Join(home, ".config", "tinyir")
	configPath := filepath.Join(configDir, "tinyir.json")
	p := &Pusher{}
	srcData, err := os.ReadFile(configPath)
	if err == nil {
		if err := json.Unmarshal(srcData, &p.config); err != nil {
			log.Printf("%s is invalid json: %s", configPath, err)
		}
	}

	// Normalizes the config file.
	data, err := json.MarshalIndent(&p.config, "", "  ")
	if err != nil {
		panic(err)
	}
	data = append(data, '\n')
	if !bytes.Equal(srcData, data) {
		if err := os.MkdirAll(configDir, 0700); err != nil {
			log.Printf("failed to create %s: %s", configDir, err)
		}
		if err := os.WriteFile(configPath, data, 0600); err != nil {
			log.Printf("failed to write %s: %s", configPath, err)
		}
	}
	if !p.config.isValid() {
		return nil
	}
	fmt.Printf("Sending to %s as ID %d\n", p.config.Server, p.config.ID)
	return p
}
