//
// Copyright 2025 The parabolas.xyz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Reporter displays the progress of a single transfer.
type Reporter interface {
	// Update sets the received bytes and the total size (-1 if unknown).
	Update(current, size int64)
	// Finish ends the display.
	Finish()
}

// Styles accepted by New.
const (
	StyleBar   = "bar"
	StyleFancy = "fancy"
	StyleNone  = "none"
)

// New returns a Reporter of the given style for the named transfer.
func New(style string, w io.Writer, name string) (Reporter, error) {
	switch style {
	case StyleBar, "":
		return NewBar(w, name, Columns()), nil
	case StyleFancy:
		return NewFancy(w, name, Columns()), nil
	case StyleNone:
		return Nop{}, nil
	}
	return nil, fmt.Errorf("unknown progress style: %s", style)
}

// Nop is a Reporter that displays nothing.
type Nop struct{}

func (Nop) Update(current, size int64) {}

func (Nop) Finish() {}

// Fancy is a Reporter backed by github.com/schollz/progressbar.
type Fancy struct {
	w    io.Writer
	name string
	cols int
	bar  *progressbar.ProgressBar
}

// NewFancy returns a Fancy reporter. The bar is created on the first
// update, once the size of the transfer is known.
func NewFancy(w io.Writer, name string, cols int) *Fancy {
	return &Fancy{w: w, name: name, cols: cols}
}

func (f *Fancy) Update(current, size int64) {
	if f.bar == nil {
		opts := []progressbar.Option{
			progressbar.OptionSetWriter(f.w),
			progressbar.OptionSetDescription(f.name),
			progressbar.OptionShowBytes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionUseIECUnits(true),
			progressbar.OptionThrottle(65 * time.Millisecond),
		}
		if f.cols > 0 {
			opts = append(opts, progressbar.OptionFullWidth())
		}
		f.bar = progressbar.NewOptions64(size, opts...)
	}
	if size != f.bar.GetMax64() {
		f.bar.ChangeMax64(size)
	}
	_ = f.bar.Set64(current)
}

func (f *Fancy) Finish() {
	if f.bar == nil {
		return
	}
	_ = f.bar.Finish()
	fmt.Fprintln(f.w)
}
