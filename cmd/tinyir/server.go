// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"
	"image"
	"image/png"
	"log"
	"net/http"
	"sync"

	"github.com/maruel/go-tinyir/tempstat"
	"github.com/maruel/go-tinyir/thermal"
	"github.com/maruel/interrupt"
	"github.com/maruel/serve-dir/loghttp"
	"golang.org/x/net/websocket"
)

// WebServer keeps a few seconds worth of frames and serves them over HTTP.
type WebServer struct {
	cal       thermal.Calibration
	cond      sync.Cond
	frames    [25 * 4]*thermal.Frame // 4 seconds at full rate.
	lastIndex int                    // Index of the most recent frame.
}

// AddFrame publishes a freshly acquired frame to web clients.
func (s *WebServer) AddFrame(f *thermal.Frame) {
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	s.lastIndex = (s.lastIndex + 1) % len(s.frames)
	s.frames[s.lastIndex] = f
	s.cond.Broadcast()
}

// LastFrame returns the most recent published frame, or the empty sentinel.
func (s *WebServer) LastFrame() *thermal.Frame {
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	if s.lastIndex == -1 {
		return &thermal.Frame{}
	}
	return s.frames[s.lastIndex]
}

func StartWebServer(port int, cal thermal.Calibration) *WebServer {
	s := &WebServer{
		cal:       cal,
		cond:      *sync.NewCond(&sync.Mutex{}),
		lastIndex: -1,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.root)
	mux.HandleFunc("/still.png", s.still)
	mux.HandleFunc("/still16.png", s.still16)
	mux.HandleFunc("/stats.json", s.stats)
	mux.HandleFunc("/hotspot.json", s.hotspot)
	mux.Handle("/stream", websocket.Handler(s.stream))
	fmt.Printf("Listening on %d\n", port)
	go http.ListenAndServe(fmt.Sprintf(":%d", port), &loghttp.Handler{Handler: mux})
	go func() {
		<-interrupt.Channel
		s.cond.Broadcast()
	}()
	return s
}

var rootTmpl = template.Must(template.New("root").Parse(`
	<html>
	<head>
		<title>tinyir</title>
		<style>
			img.large {
				width: 512; /* Multiple of 256 */
				height: auto;
			}
		</style>
		<script>
		function reload() {
			var still = document.getElementById("still");
			still.src = "/still.png#" + new Date().getTime();
		}
		</script>
	</head>
	<body>
	Still:<br>
	<a href="/still.png"><img class="large" id="still" src="/still.png" onload="reload()"></img></a>
	<br>
	Frame #{{.Frame.Metadata.FrameCount}}
	<br>
	{{printf "%.1f" .Stats.Min}}°C - {{printf "%.1f" .Stats.Max}}°C
	</body>
	</html>`))

func (s *WebServer) root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	f := s.LastFrame()
	if f.Empty() {
		http.Error(w, "no frame yet", http.StatusServiceUnavailable)
		return
	}
	st, _ := tempstat.FrameStats(thermal.RawGrid{Frame: f, Cal: s.cal})
	w.Header().Set("Content-Type", "text/html")
	data := struct {
		Frame *thermal.Frame
		Stats tempstat.Stats
	}{f, st}
	if err := rootTmpl.Execute(w, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *WebServer) still(w http.ResponseWriter, r *http.Request) {
	f := s.LastFrame()
	if f.Empty() {
		http.Error(w, "no frame yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	img := image.NewGray(f.Bounds())
	f.AGC(img)
	if err := png.Encode(w, img); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *WebServer) still16(w http.ResponseWriter, r *http.Request) {
	f := s.LastFrame()
	if f.Empty() {
		http.Error(w, "no frame yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	if err := png.Encode(w, f); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// stats serves the full-frame statistics of the latest frame.
func (s *WebServer) stats(w http.ResponseWriter, r *http.Request) {
	f := s.LastFrame()
	if f.Empty() {
		http.Error(w, "no frame yet", http.StatusServiceUnavailable)
		return
	}
	st, err := tempstat.FrameStats(thermal.RawGrid{Frame: f, Cal: s.cal})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	out := struct {
		Frame uint32         `json:"frame"`
		Stats tempstat.Stats `json:"stats"`
	}{f.Metadata.FrameCount, st}
	if err := json.NewEncoder(w).Encode(&out); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// hotspot serves the hottest and coldest pixels of the latest frame.
func (s *WebServer) hotspot(w http.ResponseWriter, r *http.Request) {
	f := s.LastFrame()
	if f.Empty() {
		http.Error(w, "no frame yet", http.StatusServiceUnavailable)
		return
	}
	g := thermal.RawGrid{Frame: f, Cal: s.cal}
	hot, err := tempstat.Hotspot(g)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	cold, _ := tempstat.Coldspot(g)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	out := struct {
		Frame    uint32        `json:"frame"`
		Hotspot  tempstat.Spot `json:"hotspot"`
		Coldspot tempstat.Spot `json:"coldspot"`
	}{f.Metadata.FrameCount, hot, cold}
	if err := json.NewEncoder(w).Encode(&out); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// stream sends every new frame as a base64 PNG websocket frame, followed by
// its metadata.
func (s *WebServer) stream(w *websocket.Conn) {
	log.Printf("websocket from %s", w.Request().RemoteAddr)
	defer w.Close()
	buf := &bytes.Buffer{}
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	// Start from the current frame; only frames arriving from now on are
	// sent.
	lastIndex := s.lastIndex
	for !interrupt.IsSet() {
		s.cond.Wait()
		for !interrupt.IsSet() && lastIndex != s.lastIndex {
			lastIndex = (lastIndex + 1) % len(s.frames)
			// Frame I is for Image.
			buf.Write([]byte("I"))
			f := s.frames[lastIndex]
			s.cond.L.Unlock()
			// Do the actual I/O without the lock.
			img := image.NewGray(f.Bounds())
			f.AGC(img)
			encoder := base64.NewEncoder(base64.StdEncoding, buf)
			var err error
			if err = png.Encode(encoder, img); err == nil {
				encoder.Close()
				_, err = w.Write(buf.Bytes())
			}
			buf.Reset()
			// Frame M is for Metadata.
			if err == nil {
				buf.Write([]byte("M"))
				err = json.NewEncoder(buf).Encode(&f.Metadata)
				if err == nil {
					_, err = w.Write(buf.Bytes())
				}
				buf.Reset()
			}

			s.cond.L.Lock()
			// To break out of the loop, the lock must be held.
			if err != nil {
				log.Printf("websocket err: %s", err)
				break
			}
		}
	}
}
