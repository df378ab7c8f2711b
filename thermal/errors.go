// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermal

import "errors"

var (
	// ErrNoDevice is returned by Open when no camera is reachable, either
	// because the hardware is absent or because another live session holds
	// the device. The transport is not reentrant so only one session may be
	// open per process.
	ErrNoDevice = errors.New("thermal: no device available")

	// ErrAlreadyOpen is returned by Open on a session that is already Opened
	// or Streaming. Open never silently reinitializes a live session.
	ErrAlreadyOpen = errors.New("thermal: session already open")

	// ErrInvalidState is returned when an operation is not legal in the
	// session's current lifecycle state, e.g. StartStream before Open.
	ErrInvalidState = errors.New("thermal: invalid session state")
)
