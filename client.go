//
// Copyright 2025 The parabolas.xyz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package dload

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

// NewClient returns an HTTP client with pooled connections, TCP keep-alive,
// a connect timeout and a bounded number of redirects, as set in the config.
// Unset fields take their default values.
func NewClient(config Config) *http.Client {
	config.HTTPClient = &http.Client{} // avoid recursion in withDefaults
	config = config.withDefaults()

	transport := cleanhttp.DefaultPooledTransport()
	transport.DialContext = (&net.Dialer{
		Timeout:   config.ConnectTimeout,
		KeepAlive: config.KeepAlive,
	}).DialContext
	transport.TLSHandshakeTimeout = config.ConnectTimeout

	maxRedirects := config.MaxRedirects
	return &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}

type clientKey struct {
	connectTimeout time.Duration
	keepAlive      time.Duration
	maxRedirects   int
}

var sharedClients = map[clientKey]*http.Client{}
var sharedClientsLock sync.Mutex

// sharedClient returns the client used when the config does not provide one.
// Transfers with the same connection settings share a client, and so its
// idle connections.
func sharedClient(config Config) *http.Client {
	key := clientKey{config.ConnectTimeout, config.KeepAlive, config.MaxRedirects}

	sharedClientsLock.Lock()
	defer sharedClientsLock.Unlock()
	if client, ok := sharedClients[key]; ok {
		return client
	}
	client := NewClient(config)
	sharedClients[key] = client
	return client
}
