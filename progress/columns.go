//
// Copyright 2025 The parabolas.xyz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package progress

import (
	"os"
	"strconv"
	"sync"

	"golang.org/x/term"
)

// DefaultColumns is used when the terminal width cannot be detected.
const DefaultColumns = 80

var (
	columnsOnce   sync.Once
	cachedColumns int
)

// Columns returns the width of the terminal attached to the standard output.
// The COLUMNS environment variable takes precedence. It returns 0 if the
// standard output is not a terminal. The value is computed once.
func Columns() int {
	columnsOnce.Do(func() {
		cachedColumns = detectColumns(os.Getenv("COLUMNS"), int(os.Stdout.Fd()))
	})
	return cachedColumns
}

func detectColumns(env string, fd int) int {
	if env != "" {
		if c, err := strconv.Atoi(env); err == nil && c >= 0 {
			return c
		}
	}
	if !term.IsTerminal(fd) {
		return 0
	}
	if w, _, err := term.GetSize(fd); err == nil && w > 0 {
		return w
	}
	return DefaultColumns
}
