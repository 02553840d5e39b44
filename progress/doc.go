//
// Copyright 2025 The parabolas.xyz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

// Package progress renders the progress of a transfer on a terminal.
// The Update method of every Reporter has the signature expected by
// dload.Config.PollFunction.
package progress
