//
// Copyright 2025 The parabolas.xyz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

// Package dload downloads single files over HTTP on behalf of the man page
// crawler. A Payload describes one transfer (where to fetch from, where to
// write, whether to resume or to skip an up-to-date file) and collects its
// result. Progress is reported through a poll function that is usually wired
// to a terminal bar from the progress package.
package dload
