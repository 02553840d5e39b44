//
// Copyright 2025 The parabolas.xyz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package progress

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectColumns(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "")
	require.NoError(t, err)
	defer f.Close()
	fd := int(f.Fd())

	require.Equal(t, 132, detectColumns("132", fd))
	require.Equal(t, 0, detectColumns("0", fd))
	// invalid values are ignored, and a regular file is not a terminal
	require.Equal(t, 0, detectColumns("wide", fd))
	require.Equal(t, 0, detectColumns("-5", fd))
	require.Equal(t, 0, detectColumns("", fd))
}
