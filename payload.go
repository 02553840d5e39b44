//
// Copyright 2025 The parabolas.xyz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package dload

import (
	"fmt"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Payload carries the configuration of a single transfer and, once the
// transfer is done, its result. A Payload must not be reused for more than
// one transfer.
type Payload struct {
	// URL is the full address of the file. Either URL or the pair
	// (Server, FilePath) must be provided.
	URL string
	// Server is a mirror base address, e.g. "https://mirror.example.org/archlinux/core/os/x86_64".
	Server string
	// FilePath is the path of the file relative to Server.
	FilePath string

	// RemoteName is the file name used to build DestFile and TempFile.
	// It defaults to the last segment of the URL path.
	RemoteName string
	// LocalDir is the directory where files are written.
	LocalDir string
	// DestFile is the final destination. It defaults to LocalDir/RemoteName.
	DestFile string
	// TempFile is the file the data is written to before being renamed
	// to DestFile. It defaults to LocalDir/RemoteName with a ".part" suffix.
	TempFile string

	// MaxSize aborts the transfer if the file is larger (0 means no limit).
	MaxSize int64
	// Force downloads the file even if DestFile exists and is up to date.
	Force bool
	// AllowResume continues a previous partial transfer found in TempFile.
	AllowResume bool
	// RandomPartfile writes to a uniquely named temporary file. Such
	// transfers cannot be resumed and the temporary file is removed on failure.
	RandomPartfile bool
	// TrustRemoteName uses the file name sent in the Content-Disposition
	// header as destination name.
	TrustRemoteName bool
	// ErrorsOK marks the transfer as optional: failures are logged at
	// debug level only.
	ErrorsOK bool
	// ToMemory keeps the content in Data instead of writing files.
	ToMemory bool

	// RespCode is the HTTP status code of the last response.
	RespCode int
	// InitialSize is the number of bytes already present when resuming.
	InitialSize int64
	// ContentDispName is the file name sent by the server, if any.
	ContentDispName string
	// LastModified is the remote modification time, if sent by the server.
	LastModified time.Time
	// UpToDate is set when DestFile was already current and nothing was transferred.
	UpToDate bool
	// ErrorMessage holds a description of the failure, if any.
	ErrorMessage string
	// Data holds the downloaded content when ToMemory is set.
	Data []byte

	unlinkOnFail bool
}

func (p *Payload) resolveURL() (*url.URL, error) {
	if p.URL != "" && (p.Server != "" || p.FilePath != "") {
		return nil, fmt.Errorf("%w: both URL and Server/FilePath are set", ErrWrongArgs)
	}
	if p.URL == "" {
		if p.Server == "" || p.FilePath == "" {
			return nil, fmt.Errorf("%w: URL or Server/FilePath are required", ErrWrongArgs)
		}
		p.URL = strings.TrimSuffix(p.Server, "/") + "/" + strings.TrimPrefix(p.FilePath, "/")
	}

	u, err := url.Parse(p.URL)
	if err != nil {
		return nil, fmt.Errorf("%w '%s': %s", ErrBadURL, p.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w '%s': unsupported scheme", ErrBadURL, p.URL)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w '%s': missing host", ErrBadURL, p.URL)
	}
	return u, nil
}

// remoteName returns the last segment of the URL path, or an empty string
// if the URL points to a directory.
func remoteName(u *url.URL) string {
	if u.Path == "" || strings.HasSuffix(u.Path, "/") {
		return ""
	}
	return path.Base(u.Path)
}

// prepareFiles fills in DestFile and TempFile. When no usable remote name is
// available, or a random part file is requested, a fresh temporary file is
// created in LocalDir and returned already open.
func (p *Payload) prepareFiles() (*os.File, error) {
	if p.ToMemory {
		return nil, nil
	}
	if !p.RandomPartfile && p.RemoteName != "" {
		if p.DestFile == "" {
			p.DestFile = filepath.Join(p.LocalDir, p.RemoteName)
		}
		if p.TempFile == "" {
			p.TempFile = filepath.Join(p.LocalDir, p.RemoteName+".part")
		}
		return nil, nil
	}

	if p.RandomPartfile && p.DestFile == "" && p.RemoteName != "" {
		p.DestFile = filepath.Join(p.LocalDir, p.RemoteName)
	}
	p.unlinkOnFail = true
	p.TempFile = filepath.Join(p.LocalDir, "mandl-"+uuid.NewString()+".part")
	f, err := os.OpenFile(p.TempFile, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("creating temporary file: %w", err)
	}
	return f, nil
}

// contentDispositionName extracts a safe file name from a Content-Disposition header.
func contentDispositionName(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	name := filepath.Base(filepath.FromSlash(params["filename"]))
	switch name {
	case "", ".", "..", string(filepath.Separator):
		return ""
	}
	return name
}
