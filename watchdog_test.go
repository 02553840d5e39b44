//
// Copyright 2025 The parabolas.xyz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package dload

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatchdogExpires(t *testing.T) {
	ctx, wd := newWatchdog(context.Background(), 50*time.Millisecond)
	defer wd.Cancel()

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		require.FailNow(t, "watchdog did not expire")
	}
	require.ErrorIs(t, wd.Err(), ErrStalled)
}

func TestWatchdogKick(t *testing.T) {
	ctx, wd := newWatchdog(context.Background(), 200*time.Millisecond)
	defer wd.Cancel()

	for i := 0; i < 5; i++ {
		time.Sleep(50 * time.Millisecond)
		wd.Kick()
	}
	require.NoError(t, ctx.Err())
	require.NoError(t, wd.Err())
}

func TestWatchdogDisabled(t *testing.T) {
	ctx, wd := newWatchdog(context.Background(), 0)
	wd.Kick()
	require.NoError(t, ctx.Err())
	wd.Cancel()
	require.ErrorIs(t, wd.Err(), context.Canceled)
}
