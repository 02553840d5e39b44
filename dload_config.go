//
// Copyright 2025 The parabolas.xyz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package dload

import (
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultUserAgent identifies the crawler to mirror operators.
const DefaultUserAgent = "Man page crawler (info@parabolas.xyz; https://man.parabolas.xyz/)"

const (
	defaultConnectTimeout    = 10 * time.Second
	defaultMaxRedirects      = 10
	defaultKeepAlive         = 60 * time.Second
	defaultInactivityTimeout = 10 * time.Second
	defaultPollInterval      = 100 * time.Millisecond
)

// Config contains the configuration for the downloader
type Config struct {
	// HTTPClient to use to perform HTTP requests. If nil, a client is
	// built with NewClient from the fields below.
	HTTPClient *http.Client
	// UserAgent sent with every request. Defaults to DefaultUserAgent.
	UserAgent string
	// ConnectTimeout limits the time spent establishing a connection.
	ConnectTimeout time.Duration
	// MaxRedirects is the maximum number of redirects to follow.
	MaxRedirects int
	// KeepAlive is the TCP keep-alive period of the connections.
	KeepAlive time.Duration
	// Netrc provides credentials for hosts that require authentication.
	Netrc *Netrc

	// DoNotResumeDownload set to true to disallow resuming downloads.
	DoNotResumeDownload bool
	// ExtraHeaders to add to the HTTP requests.
	ExtraHeaders map[string]string
	// AcceptFunc is an optional function that will be called
	// when the response headers are received, before starting the download.
	// If the function returns an error, the download is aborted.
	AcceptFunc func(resp *http.Response) error
	// DoNotErrorOnNon2xxStatusCode set to true to not return an error
	// if the server returns a non-2xx status code.
	DoNotErrorOnNon2xxStatusCode bool
	// InactivityTimeout is the duration after which, if no data is received,
	// the download is aborted. Defaults to 10 seconds.
	InactivityTimeout time.Duration
	// DisableInactivityTimeout set to true to wait for data forever.
	DisableInactivityTimeout bool

	// PollFunction is called every PollInterval while the transfer is running,
	// if the progress changed, and once when it ends.
	PollFunction func(current, size int64)
	// PollInterval defaults to 100 milliseconds.
	PollInterval time.Duration
	// EventFunction receives the lifecycle events of each transfer.
	EventFunction func(name string, ev Event)

	// Logger receives debug information about the transfers.
	Logger *zap.Logger
}

var defaultConfig Config = Config{}
var defaultConfigLock sync.Mutex

// SetDefaultConfig sets the configuration that will be used by the Download
// function.
func SetDefaultConfig(newConfig Config) {
	defaultConfigLock.Lock()
	defer defaultConfigLock.Unlock()
	defaultConfig = newConfig
}

// GetDefaultConfig returns a copy of the default configuration. The default
// configuration can be changed using the SetDefaultConfig function.
func GetDefaultConfig() Config {
	defaultConfigLock.Lock()
	defer defaultConfigLock.Unlock()

	// deep copy struct
	return defaultConfig
}

// withDefaults returns a copy of the config with unset fields filled in.
func (c Config) withDefaults() Config {
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = defaultMaxRedirects
	}
	if c.KeepAlive <= 0 {
		c.KeepAlive = defaultKeepAlive
	}
	if c.DisableInactivityTimeout {
		c.InactivityTimeout = 0
	} else if c.InactivityTimeout <= 0 {
		c.InactivityTimeout = defaultInactivityTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.HTTPClient == nil {
		c.HTTPClient = sharedClient(c)
	}
	return c
}
