//
// Copyright 2025 The parabolas.xyz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package dload

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

type netrcEntry struct {
	login    string
	password string
}

// Netrc holds the credentials read from a .netrc file.
type Netrc struct {
	machines map[string]netrcEntry
	fallback *netrcEntry
}

// LoadNetrc reads and parses the .netrc file at the given path.
func LoadNetrc(path string) (*Netrc, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	n, err := ParseNetrc(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return n, nil
}

// ParseNetrc parses the content of a .netrc file. Macro definitions are skipped.
func ParseNetrc(r io.Reader) (*Netrc, error) {
	n := &Netrc{machines: map[string]netrcEntry{}}

	var current *netrcEntry
	var host string
	flush := func() {
		if current == nil {
			return
		}
		if host == "" {
			if n.fallback == nil {
				n.fallback = current
			}
		} else if _, ok := n.machines[host]; !ok {
			n.machines[host] = *current
		}
		current = nil
	}

	scanner := bufio.NewScanner(r)
	inMacro := false
	for scanner.Scan() {
		line := scanner.Text()
		if inMacro {
			if strings.TrimSpace(line) == "" {
				inMacro = false
			}
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		fields := strings.Fields(line)
		for i := 0; i < len(fields); i++ {
			switch fields[i] {
			case "machine":
				flush()
				if i+1 >= len(fields) {
					return nil, fmt.Errorf("missing host name after 'machine'")
				}
				i++
				host = fields[i]
				current = &netrcEntry{}
			case "default":
				flush()
				host = ""
				current = &netrcEntry{}
			case "login", "password", "account":
				if i+1 >= len(fields) {
					return nil, fmt.Errorf("missing value after '%s'", fields[i])
				}
				i++
				if current == nil {
					continue
				}
				switch fields[i-1] {
				case "login":
					current.login = fields[i]
				case "password":
					current.password = fields[i]
				}
			case "macdef":
				flush()
				inMacro = true
				i = len(fields)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return n, nil
}

// Credentials returns the login and password to use for the given host.
func (n *Netrc) Credentials(host string) (login, password string, ok bool) {
	if n == nil {
		return "", "", false
	}
	if e, found := n.machines[host]; found {
		return e.login, e.password, true
	}
	if n.fallback != nil {
		return n.fallback.login, n.fallback.password, true
	}
	return "", "", false
}

// authorize adds basic authentication to the request, unless it already
// carries an Authorization header or the URL has user information.
func (n *Netrc) authorize(req *http.Request) {
	if n == nil || req.Header.Get("Authorization") != "" || req.URL.User != nil {
		return
	}
	if login, password, ok := n.Credentials(req.URL.Hostname()); ok {
		req.SetBasicAuth(login, password)
	}
}
