//
// Copyright 2025 The parabolas.xyz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package dload

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testNetrc = `# mirrors
machine mirror.example.org
  login arch
  password linux

macdef init
cd /pub
bin

machine private.example.org login bob password s3cret account ignored
default login anonymous password guest@
`

func TestParseNetrc(t *testing.T) {
	n, err := ParseNetrc(strings.NewReader(testNetrc))
	require.NoError(t, err)

	login, password, ok := n.Credentials("mirror.example.org")
	require.True(t, ok)
	require.Equal(t, "arch", login)
	require.Equal(t, "linux", password)

	login, password, ok = n.Credentials("private.example.org")
	require.True(t, ok)
	require.Equal(t, "bob", login)
	require.Equal(t, "s3cret", password)

	login, password, ok = n.Credentials("unknown.example.org")
	require.True(t, ok)
	require.Equal(t, "anonymous", login)
	require.Equal(t, "guest@", password)

	n, err = ParseNetrc(strings.NewReader("machine only.example.org login a password b\n"))
	require.NoError(t, err)
	_, _, ok = n.Credentials("other.example.org")
	require.False(t, ok)

	_, err = ParseNetrc(strings.NewReader("machine"))
	require.Error(t, err)
	_, err = ParseNetrc(strings.NewReader("machine a login"))
	require.Error(t, err)
}

func TestLoadNetrc(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".netrc")
	_, err := LoadNetrc(path)
	require.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, os.WriteFile(path, []byte(testNetrc), 0600))
	n, err := LoadNetrc(path)
	require.NoError(t, err)
	_, _, ok := n.Credentials("mirror.example.org")
	require.True(t, ok)
}

func TestNetrcAuthorize(t *testing.T) {
	n, err := ParseNetrc(strings.NewReader(testNetrc))
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, "https://mirror.example.org/core.db", nil)
	require.NoError(t, err)
	n.authorize(req)
	user, pass, ok := req.BasicAuth()
	require.True(t, ok)
	require.Equal(t, "arch", user)
	require.Equal(t, "linux", pass)

	// explicit credentials win
	req, err = http.NewRequest(http.MethodGet, "https://mirror.example.org/core.db", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer token")
	n.authorize(req)
	require.Equal(t, "Bearer token", req.Header.Get("Authorization"))

	var none *Netrc
	req, err = http.NewRequest(http.MethodGet, "https://mirror.example.org/core.db", nil)
	require.NoError(t, err)
	none.authorize(req)
	require.Empty(t, req.Header.Get("Authorization"))
}
