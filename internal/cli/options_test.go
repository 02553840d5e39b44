//
// Copyright 2025 The parabolas.xyz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		in       string
		expected int64
	}{
		{"", 0},
		{"1024", 1024},
		{"2K", 2048},
		{"200M", 200 * 1024 * 1024},
		{"1G", 1 << 30},
	}
	for _, tt := range tests {
		n, err := parseSize(tt.in)
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.expected, n, tt.in)
	}

	for _, in := range []string{"-1", "lots", "12X"} {
		_, err := parseSize(in)
		require.Error(t, err, in)
	}
}

func TestParseHeaders(t *testing.T) {
	h, err := parseHeaders([]string{"Accept: application/zstd, */*", "X-Token:abc"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"Accept": "application/zstd, */*", "X-Token": "abc"}, h)

	h, err = parseHeaders(nil)
	require.NoError(t, err)
	require.Nil(t, h)

	_, err = parseHeaders([]string{"no-colon"})
	require.Error(t, err)
	_, err = parseHeaders([]string{": value"})
	require.Error(t, err)
}

func TestLoadOptions(t *testing.T) {
	v := viper.New()
	v.Set(keyOutputDir, "/srv/man")
	v.Set(keyMaxSize, "10M")
	v.Set(keyConnectTimeout, "3s")
	v.Set(keyProgress, "none")
	v.Set(keyHeaders, []string{"X-From-Config: 1"})

	o, err := loadOptions(v, nil)
	require.NoError(t, err)
	require.Equal(t, "/srv/man", o.OutputDir)
	require.Equal(t, int64(10*1024*1024), o.MaxSize)
	require.Equal(t, 3*time.Second, o.ConnectTimeout)
	require.Equal(t, map[string]string{"X-From-Config": "1"}, o.Headers)

	o, err = loadOptions(v, []string{"X-From-Flag: 2"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"X-From-Flag": "2"}, o.Headers)

	v.Set(keyProgress, "rainbow")
	_, err = loadOptions(v, nil)
	require.Error(t, err)

	v.Set(keyProgress, "bar")
	v.Set(keyMaxSize, "huge")
	_, err = loadOptions(v, nil)
	require.Error(t, err)
}

func TestPayloads(t *testing.T) {
	o := &options{OutputDir: "out", MaxSize: 10, NoResume: true, Optional: true}
	ps := o.payloads([]string{"https://example.org/a.tar.zst"})
	require.Len(t, ps, 1)
	require.Equal(t, "https://example.org/a.tar.zst", ps[0].URL)
	require.Equal(t, "out", ps[0].LocalDir)
	require.Equal(t, int64(10), ps[0].MaxSize)
	require.False(t, ps[0].AllowResume)
	require.True(t, ps[0].ErrorsOK)

	o = &options{Mirror: "https://mirror.example.org/core/os/x86_64"}
	ps = o.payloads([]string{"core.db", "core.files"})
	require.Len(t, ps, 2)
	require.Empty(t, ps[1].URL)
	require.Equal(t, "https://mirror.example.org/core/os/x86_64", ps[1].Server)
	require.Equal(t, "core.files", ps[1].FilePath)
	require.True(t, ps[1].AllowResume)
}

func TestDownloadConfigNetrc(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	// a missing default netrc is fine
	o := &options{}
	config, err := o.downloadConfig(zap.NewNop())
	require.NoError(t, err)
	require.Nil(t, config.Netrc)
	require.NotNil(t, config.HTTPClient)

	require.NoError(t, os.WriteFile(filepath.Join(home, ".netrc"), []byte("machine example.org login a password b\n"), 0600))
	config, err = o.downloadConfig(zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, config.Netrc)

	// an explicit netrc must exist
	o = &options{NetrcFile: filepath.Join(home, "missing")}
	_, err = o.downloadConfig(zap.NewNop())
	require.Error(t, err)

}
