//
// Copyright 2025 The parabolas.xyz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package dload

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRemoteName(t *testing.T) {
	tests := [][2]string{
		{"https://mirror.example.org/core/os/x86_64/core.files.tar.gz", "core.files.tar.gz"},
		{"https://mirror.example.org/pool/man-db-2.12.1-1-x86_64.pkg.tar.zst?x=1", "man-db-2.12.1-1-x86_64.pkg.tar.zst"},
		{"https://mirror.example.org/a%20b.txt", "a b.txt"},
		{"https://mirror.example.org/core/", ""},
		{"https://mirror.example.org", ""},
	}
	for _, tt := range tests {
		u, err := url.Parse(tt[0])
		require.NoError(t, err)
		require.Equal(t, tt[1], remoteName(u), tt[0])
	}
}

func TestContentDispositionName(t *testing.T) {
	require.Equal(t, "pkg.tar.zst", contentDispositionName(`attachment; filename="pkg.tar.zst"`))
	require.Equal(t, "passwd", contentDispositionName(`attachment; filename="/etc/passwd"`))
	require.Equal(t, "", contentDispositionName(`attachment; filename=".."`))
	require.Equal(t, "", contentDispositionName(`attachment`))
	require.Equal(t, "", contentDispositionName(`;;;`))
	require.Equal(t, "", contentDispositionName(""))
}

func TestPrepareFiles(t *testing.T) {
	dir := t.TempDir()

	p := &Payload{LocalDir: dir, RemoteName: "core.db"}
	f, err := p.prepareFiles()
	require.NoError(t, err)
	require.Nil(t, f)
	require.Equal(t, filepath.Join(dir, "core.db"), p.DestFile)
	require.Equal(t, filepath.Join(dir, "core.db.part"), p.TempFile)
	require.False(t, p.unlinkOnFail)

	// the part file stays in LocalDir under the remote name
	other := filepath.Join(t.TempDir(), "renamed.db")
	p = &Payload{LocalDir: dir, RemoteName: "core.db", DestFile: other}
	_, err = p.prepareFiles()
	require.NoError(t, err)
	require.Equal(t, other, p.DestFile)
	require.Equal(t, filepath.Join(dir, "core.db.part"), p.TempFile)

	p = &Payload{LocalDir: dir}
	f, err = p.prepareFiles()
	require.NoError(t, err)
	require.NotNil(t, f)
	require.NoError(t, f.Close())
	require.True(t, p.unlinkOnFail)
	require.Empty(t, p.DestFile)
	require.FileExists(t, p.TempFile)
	require.NoError(t, os.Remove(p.TempFile))

	p = &Payload{LocalDir: dir, RemoteName: "core.db", ToMemory: true}
	f, err = p.prepareFiles()
	require.NoError(t, err)
	require.Nil(t, f)
	require.Empty(t, p.TempFile)
}
