//
// Copyright 2025 The parabolas.xyz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

const minBarWidth = 10

// Bar is a single line progress bar in the style of package managers:
//
//	name          12.0 MiB   1.5 MiB/s 00:03 [#########-----]  64%
//
// The line is redrawn in place and always fits the terminal width.
// When the output is not a terminal (zero columns) only the final
// line is printed, by Finish.
type Bar struct {
	w    io.Writer
	name string
	cols int
	now  func() time.Time

	mu       sync.Mutex
	started  bool
	finished bool
	start    time.Time
	initial  int64
	current  int64
	size     int64
}

// NewBar returns a Bar for the named transfer that writes on w, cols
// characters wide. Use Columns to get the width of the terminal.
func NewBar(w io.Writer, name string, cols int) *Bar {
	return &Bar{w: w, name: name, cols: cols, now: time.Now, size: -1}
}

// Update sets the received bytes and the total size (-1 if unknown).
func (b *Bar) Update(current, size int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finished {
		return
	}
	now := b.now()
	if !b.started {
		// bytes already present before this run do not count for the rate
		b.started = true
		b.start = now
		b.initial = current
	}
	b.current, b.size = current, size
	if b.cols > 0 {
		fmt.Fprint(b.w, "\r"+b.line(now, b.cols))
	}
}

// Finish prints the final state of the bar and ends the line.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finished || !b.started {
		b.finished = true
		return
	}
	b.finished = true
	if b.cols > 0 {
		fmt.Fprint(b.w, "\r"+b.line(b.now(), b.cols)+"\n")
	} else {
		fmt.Fprint(b.w, b.line(b.now(), DefaultColumns)+"\n")
	}
}

func (b *Bar) line(now time.Time, cols int) string {
	var rate float64
	if elapsed := now.Sub(b.start).Seconds(); elapsed > 0 {
		rate = float64(b.current-b.initial) / elapsed
	}
	return render(b.name, b.current, b.size, rate, cols)
}

// render formats a progress line exactly cols-1 characters wide.
func render(name string, current, size int64, rate float64, cols int) string {
	cols--
	stats := fmt.Sprintf(" %10s %12s %5s", FormatSize(current), FormatSize(int64(rate))+"/s", eta(current, size, rate))

	tail := ""
	if size > 0 {
		pct := percent(current, size)
		// " [" + bar + "] " + "100%"
		if width := cols*4/10 - 8; width >= minBarWidth {
			tail = fmt.Sprintf(" [%s] %3d%%", bar(pct, width), pct)
		} else {
			tail = fmt.Sprintf(" %3d%%", pct)
		}
	}

	nameWidth := cols - len(stats) - len(tail)
	if nameWidth < 1 {
		stats = ""
		nameWidth = cols - len(tail)
	}
	if nameWidth < 1 {
		return fit(name, cols)
	}
	return fit(name, nameWidth) + stats + tail
}

// fit truncates or pads s to exactly width runes.
func fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) > width {
		if width > 3 {
			return string(r[:width-3]) + "..."
		}
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-len(r))
}

func percent(current, size int64) int {
	if size <= 0 {
		return 0
	}
	pct := int(current * 100 / size)
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}

func bar(pct, width int) string {
	filled := pct * width / 100
	return strings.Repeat("#", filled) + strings.Repeat("-", width-filled)
}

func eta(current, size int64, rate float64) string {
	if size <= 0 || rate <= 0 {
		return "--:--"
	}
	if current >= size {
		return "00:00"
	}
	secs := int(float64(size-current) / rate)
	if secs >= 100*60 {
		return "--:--"
	}
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// FormatSize returns a human readable size in binary units, e.g. "1.5 MiB".
func FormatSize(n int64) string {
	if n < 0 {
		return "?"
	}
	return humanize.IBytes(uint64(n))
}
