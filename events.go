//
// Copyright 2025 The parabolas.xyz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package dload

// EventKind identifies the phase of a transfer an Event belongs to.
type EventKind int

const (
	// EventInit is sent once the transfer is ready to start.
	EventInit EventKind = iota
	// EventProgress is sent when the number of received bytes changes.
	EventProgress
	// EventCompleted is sent when the transfer ends, successfully or not.
	EventCompleted
)

func (k EventKind) String() string {
	switch k {
	case EventInit:
		return "init"
	case EventProgress:
		return "progress"
	case EventCompleted:
		return "completed"
	}
	return "unknown"
}

// Result is the outcome of a completed transfer.
type Result int

const (
	ResultSuccess Result = iota
	ResultUpToDate
	ResultFailed
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultUpToDate:
		return "up-to-date"
	case ResultFailed:
		return "failed"
	}
	return "unknown"
}

// Event is passed to Config.EventFunction during a transfer.
type Event struct {
	Kind EventKind
	// Optional is set on EventInit when failures of the transfer are tolerated.
	Optional bool
	// Current and Total are the received and expected bytes (Total is -1 if unknown).
	Current int64
	Total   int64
	// Result and Err are set on EventCompleted.
	Result Result
	Err    error
}
