//
// Copyright 2025 The parabolas.xyz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"go.parabolas.xyz/dload"
	"go.parabolas.xyz/dload/progress"
)

// Configuration keys, shared by flags, environment and config file.
const (
	keyOutputDir       = "output-dir"
	keyForce           = "force"
	keyNoResume        = "no-resume"
	keyMaxSize         = "max-size"
	keyNoTimeout       = "no-timeout"
	keyConnectTimeout  = "connect-timeout"
	keyMaxRedirects    = "max-redirects"
	keyUserAgent       = "user-agent"
	keyHeaders         = "headers"
	keyMirror          = "mirror"
	keyTrustRemoteName = "trust-remote-name"
	keyRandomPartfile  = "random-partfile"
	keyOptional        = "optional"
	keyProgress        = "progress"
	keyNetrcFile       = "netrc-file"
	keyVerbose         = "verbose"
)

type options struct {
	OutputDir       string
	Force           bool
	NoResume        bool
	MaxSize         int64
	NoTimeout       bool
	ConnectTimeout  time.Duration
	MaxRedirects    int
	UserAgent       string
	Headers         map[string]string
	Mirror          string
	TrustRemoteName bool
	RandomPartfile  bool
	Optional        bool
	Progress        string
	NetrcFile       string
	Verbose         bool
}

// loadOptions reads the options from viper. Headers given on the command
// line replace the ones in the config file.
func loadOptions(v *viper.Viper, cliHeaders []string) (*options, error) {
	o := &options{
		OutputDir:       v.GetString(keyOutputDir),
		Force:           v.GetBool(keyForce),
		NoResume:        v.GetBool(keyNoResume),
		NoTimeout:       v.GetBool(keyNoTimeout),
		ConnectTimeout:  v.GetDuration(keyConnectTimeout),
		MaxRedirects:    v.GetInt(keyMaxRedirects),
		UserAgent:       v.GetString(keyUserAgent),
		Mirror:          v.GetString(keyMirror),
		TrustRemoteName: v.GetBool(keyTrustRemoteName),
		RandomPartfile:  v.GetBool(keyRandomPartfile),
		Optional:        v.GetBool(keyOptional),
		Progress:        v.GetString(keyProgress),
		NetrcFile:       v.GetString(keyNetrcFile),
		Verbose:         v.GetBool(keyVerbose),
	}

	maxSize, err := parseSize(v.GetString(keyMaxSize))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", keyMaxSize, err)
	}
	o.MaxSize = maxSize

	headers := cliHeaders
	if len(headers) == 0 {
		headers = v.GetStringSlice(keyHeaders)
	}
	if o.Headers, err = parseHeaders(headers); err != nil {
		return nil, err
	}

	switch o.Progress {
	case progress.StyleBar, progress.StyleFancy, progress.StyleNone:
	default:
		return nil, fmt.Errorf("invalid %s style: %q", keyProgress, o.Progress)
	}
	return o, nil
}

// parseSize accepts plain byte counts or sizes with a unit, like "200M".
func parseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative size %d", n)
		}
		return n, nil
	}
	n, err := bytefmt.ToBytes(s)
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}

func parseHeaders(headers []string) (map[string]string, error) {
	if len(headers) == 0 {
		return nil, nil
	}
	res := map[string]string{}
	for _, h := range headers {
		k, v, ok := strings.Cut(h, ":")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid header %q, expected 'Name: value'", h)
		}
		res[k] = strings.TrimSpace(v)
	}
	return res, nil
}

// downloadConfig builds the configuration shared by all the transfers.
func (o *options) downloadConfig(log *zap.Logger) (dload.Config, error) {
	config := dload.Config{
		UserAgent:                o.UserAgent,
		ConnectTimeout:           o.ConnectTimeout,
		MaxRedirects:             o.MaxRedirects,
		ExtraHeaders:             o.Headers,
		DisableInactivityTimeout: o.NoTimeout,
		DoNotResumeDownload:      o.NoResume,
		Logger:                   log,
	}

	netrcFile := o.NetrcFile
	optional := netrcFile == ""
	if optional {
		if home, err := os.UserHomeDir(); err == nil {
			netrcFile = filepath.Join(home, ".netrc")
		}
	}
	if netrcFile != "" {
		n, err := dload.LoadNetrc(netrcFile)
		switch {
		case err == nil:
			config.Netrc = n
		case optional && errors.Is(err, fs.ErrNotExist):
		default:
			return config, err
		}
	}

	config.HTTPClient = dload.NewClient(config)
	return config, nil
}

// payloads returns one payload per command line argument.
func (o *options) payloads(args []string) []*dload.Payload {
	res := make([]*dload.Payload, 0, len(args))
	for _, arg := range args {
		p := &dload.Payload{
			LocalDir:        o.OutputDir,
			MaxSize:         o.MaxSize,
			Force:           o.Force,
			AllowResume:     !o.NoResume,
			RandomPartfile:  o.RandomPartfile,
			TrustRemoteName: o.TrustRemoteName,
			ErrorsOK:        o.Optional,
		}
		if o.Mirror != "" {
			p.Server = o.Mirror
			p.FilePath = arg
		} else {
			p.URL = arg
		}
		res = append(res, p)
	}
	return res
}
