//
// Copyright 2025 The parabolas.xyz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package progress

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	r, err := New(StyleBar, io.Discard, "core.db")
	require.NoError(t, err)
	require.IsType(t, &Bar{}, r)

	r, err = New(StyleFancy, io.Discard, "core.db")
	require.NoError(t, err)
	require.IsType(t, &Fancy{}, r)

	r, err = New(StyleNone, io.Discard, "core.db")
	require.NoError(t, err)
	require.IsType(t, Nop{}, r)

	_, err = New("rainbow", io.Discard, "core.db")
	require.Error(t, err)
}

func TestFancy(t *testing.T) {
	out := &bytes.Buffer{}
	f := NewFancy(out, "core.db", 0)
	f.Finish()
	require.Empty(t, out.String())

	f.Update(0, 2048)
	f.Update(1024, 2048)
	f.Update(2048, 4096)
	f.Update(4096, 4096)
	f.Finish()
	require.Contains(t, out.String(), "core.db")
	require.Contains(t, out.String(), "100%")
}
