//
// Copyright 2025 The parabolas.xyz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package dload

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrBadURL is returned when the payload URL cannot be used for an HTTP transfer.
	ErrBadURL = errors.New("invalid url")
	// ErrMaxSizeExceeded is returned when the remote file is larger than Payload.MaxSize.
	ErrMaxSizeExceeded = errors.New("maximum file size exceeded")
	// ErrStalled is returned when no data has been received for Config.InactivityTimeout.
	ErrStalled = fmt.Errorf("transfer stalled: %w", os.ErrDeadlineExceeded)
	// ErrWrongArgs is returned when the payload fields are contradictory.
	ErrWrongArgs = errors.New("wrong or missing payload arguments")
)

// StatusError is returned when the server answers with a non-2xx status code.
type StatusError struct {
	URL    string
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %s for %s", e.Status, e.URL)
}
