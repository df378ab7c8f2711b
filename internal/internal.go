// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package internal implements the wire layout shared by the recording file
// format and the device payloads.
//
// The device sends one combined block per transfer: the visible image bytes
// first, then the temperature plane as little endian 16 bit words. The
// .tir recording format reuses that layout verbatim behind a small header,
// so a recording is byte-for-byte what the transport saw.
package internal

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Magic identifies a .tir recording stream.
var Magic = [4]byte{'T', 'I', 'R', '1'}

// Header describes every record that follows it.
type Header struct {
	Width     uint16
	Height    uint16
	FPS       uint16
	ImgWidth  uint16 // Visible plane width; 0 when the device has no visible sensor.
	ImgHeight uint16
}

// TempLen returns the byte length of the temperature block of one record.
func (h Header) TempLen() int {
	return int(h.Width) * int(h.Height) * 2
}

// ImgLen returns the byte length of the visible block of one record.
func (h Header) ImgLen() int {
	return int(h.ImgWidth) * int(h.ImgHeight) * 3 // BGR888.
}

// WriteHeader writes the stream header.
func WriteHeader(w io.Writer, h Header) error {
	if _, err := w.Write(Magic[:]); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, &h)
}

// ReadHeader reads and checks the stream header.
func ReadHeader(r io.Reader) (Header, error) {
	h := Header{}
	var m [4]byte
	if _, err := io.ReadFull(r, m[:]); err != nil {
		return h, err
	}
	if m != Magic {
		return h, fmt.Errorf("internal: bad magic %q", m[:])
	}
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return h, err
	}
	if h.Width == 0 || h.Height == 0 {
		return h, fmt.Errorf("internal: bad dimensions %dx%d", h.Width, h.Height)
	}
	return h, nil
}

// WriteRecord writes one combined record: visible block then temperature
// block, matching the device transfer layout. img may be nil when the
// header declares no visible plane.
func WriteRecord(w io.Writer, h Header, img []byte, temp []uint16) error {
	if len(img) != h.ImgLen() {
		return fmt.Errorf("internal: visible block is %d bytes, want %d", len(img), h.ImgLen())
	}
	if len(temp)*2 != h.TempLen() {
		return fmt.Errorf("internal: temperature block is %d bytes, want %d", len(temp)*2, h.TempLen())
	}
	if len(img) != 0 {
		if _, err := w.Write(img); err != nil {
			return err
		}
	}
	return binary.Write(w, binary.LittleEndian, temp)
}

// ReadRecord reads one combined record and cuts it into its visible and
// temperature planes. io.EOF is returned as-is at a clean record boundary
// so callers can loop.
func ReadRecord(r io.Reader, h Header) (img []byte, temp []uint16, err error) {
	raw := make([]byte, h.ImgLen()+h.TempLen())
	if _, err = io.ReadFull(r, raw); err != nil {
		if err == io.ErrUnexpectedEOF {
			err = fmt.Errorf("internal: truncated record: %w", err)
		}
		return nil, nil, err
	}
	img, tempRaw := SplitRaw(raw, h.ImgLen())
	temp = make([]uint16, h.TempLen()/2)
	for i := range temp {
		temp[i] = binary.LittleEndian.Uint16(tempRaw[2*i:])
	}
	return img, temp, nil
}

// SplitRaw cuts a combined device transfer into its visible image block and
// its raw temperature block. The blocks alias raw; no copy is made.
func SplitRaw(raw []byte, imgLen int) (img, temp []byte) {
	return raw[:imgLen], raw[imgLen:]
}
