//
// Copyright 2025 The parabolas.xyz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package dload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Downloader is a prepared transfer of a Payload
type Downloader struct {
	URL           string
	Done          chan struct{}
	Resp          *http.Response
	Payload       *Payload
	config        Config
	log           *zap.Logger
	wd            *watchdog
	out           *os.File
	mem           *bytes.Buffer
	skip          bool
	result        Result
	completed     int64
	completedLock sync.Mutex
	size          int64
	err           error
}

// Download performs the transfer described by the payload using the default
// configuration, and blocks until it completes.
func Download(ctx context.Context, payload *Payload) error {
	return DownloadWithConfig(ctx, payload, GetDefaultConfig())
}

// DownloadWithConfig performs the transfer described by the payload using
// the given configuration, and blocks until it completes.
func DownloadWithConfig(ctx context.Context, payload *Payload, config Config) error {
	d, err := Prepare(ctx, payload, config)
	if err != nil {
		return err
	}
	return d.Run()
}

// Prepare sends the request for the payload and returns a Downloader ready
// to receive the data.
// If the destination file exists and Force is not set, the file is only
// transferred if the remote copy is newer.
// A previous partial transfer is resumed if AllowResume is set and the
// temporary file exists.
// The server response fills in the result fields of the payload.
func Prepare(ctx context.Context, payload *Payload, config Config) (*Downloader, error) {
	config = config.withDefaults()

	u, err := payload.resolveURL()
	if err != nil {
		payload.ErrorMessage = err.Error()
		return nil, err
	}
	if payload.RemoteName == "" {
		payload.RemoteName = remoteName(u)
	}
	d := &Downloader{
		URL:     payload.URL,
		Done:    make(chan struct{}),
		Payload: payload,
		config:  config,
		log:     config.Logger.With(zap.String("name", payloadName(payload))),
		size:    -1,
	}
	d.log.Debug("url is " + payload.URL)
	if payload.MaxSize > 0 {
		d.log.Debug("maxsize", zap.Int64("bytes", payload.MaxSize))
	}

	d.out, err = payload.prepareFiles()
	if err != nil {
		return nil, d.abort(err)
	}

	// Decide between a time condition and a continuation
	var modifiedSince time.Time
	resume := false
	if !payload.ToMemory {
		if st, err := os.Stat(payload.DestFile); err == nil && !payload.Force && payload.DestFile != "" {
			// start from scratch, but only download if our local is out of date
			modifiedSince = st.ModTime()
			d.log.Debug("using time condition", zap.Time("mtime", modifiedSince))
		} else if st, err := os.Stat(payload.TempFile); err == nil && payload.AllowResume && !config.DoNotResumeDownload && !payload.unlinkOnFail {
			payload.InitialSize = st.Size()
			resume = payload.InitialSize > 0
			d.log.Debug("tempfile found, attempting continuation", zap.Int64("from", payload.InitialSize))
		}
	}

	if payload.MaxSize > 0 && payload.InitialSize > payload.MaxSize {
		d.log.Debug("tempfile larger than maxsize, starting over")
		payload.InitialSize = 0
		resume = false
	}
	if payload.MaxSize > 0 && payload.MaxSize == payload.InitialSize {
		// .part file is complete
		d.skip = true
		d.completed = payload.InitialSize
		d.size = payload.InitialSize
		d.emit(Event{Kind: EventInit, Optional: payload.ErrorsOK, Current: d.completed, Total: d.size})
		return d, nil
	}

	reqCtx, wd := newWatchdog(ctx, config.InactivityTimeout)
	d.wd = wd
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, payload.URL, nil)
	if err != nil {
		return nil, d.abort(fmt.Errorf("setting up HTTP request: %w", err))
	}
	req.Header.Set("User-Agent", config.UserAgent)
	for k, v := range config.ExtraHeaders {
		req.Header.Set(k, v)
	}
	config.Netrc.authorize(req)
	if !modifiedSince.IsZero() {
		req.Header.Set("If-Modified-Since", modifiedSince.UTC().Format(http.TimeFormat))
	}
	if resume {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", payload.InitialSize))
	}

	resp, err := config.HTTPClient.Do(req)
	if err != nil {
		return nil, d.abort(d.cause(fmt.Errorf("performing GET request: %w", err)))
	}
	d.Resp = resp
	payload.RespCode = resp.StatusCode
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			payload.LastModified = t
		}
	}

	switch {
	case resp.StatusCode == http.StatusNotModified:
		payload.UpToDate = true
		d.skip = true
		d.result = ResultUpToDate
		d.emit(Event{Kind: EventInit, Optional: payload.ErrorsOK, Total: d.size})
		return d, nil

	case resp.StatusCode == http.StatusRequestedRangeNotSatisfiable && resume:
		_, _, total := parseContentRange(resp.Header.Get("Content-Range"))
		if total != payload.InitialSize {
			return nil, d.abort(&StatusError{URL: payload.URL, Code: resp.StatusCode, Status: resp.Status})
		}
		// the server has nothing past the end of our .part file
		d.skip = true
		d.completed = total
		d.size = total
		d.emit(Event{Kind: EventInit, Optional: payload.ErrorsOK, Current: d.completed, Total: d.size})
		return d, nil

	case resp.StatusCode == http.StatusPartialContent && resume:
		if start, _, _ := parseContentRange(resp.Header.Get("Content-Range")); start != payload.InitialSize {
			return nil, d.abort(fmt.Errorf("server sent unexpected range %q", resp.Header.Get("Content-Range")))
		}

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if resume {
			d.log.Debug("server does not support ranges, starting over")
			resume = false
			payload.InitialSize = 0
		}

	default:
		if !config.DoNotErrorOnNon2xxStatusCode {
			return nil, d.abort(&StatusError{URL: payload.URL, Code: resp.StatusCode, Status: resp.Status})
		}
		resume = false
		payload.InitialSize = 0
	}

	if name := contentDispositionName(resp.Header.Get("Content-Disposition")); name != "" {
		payload.ContentDispName = name
		if !payload.ToMemory && (payload.TrustRemoteName || payload.DestFile == "") {
			payload.DestFile = filepath.Join(payload.LocalDir, name)
		}
	}

	if resp.ContentLength >= 0 {
		d.size = payload.InitialSize + resp.ContentLength
	}
	if payload.MaxSize > 0 && d.size > payload.MaxSize {
		return nil, d.abort(fmt.Errorf("%w: %d bytes, limit is %d", ErrMaxSizeExceeded, d.size, payload.MaxSize))
	}
	if config.AcceptFunc != nil {
		if err := config.AcceptFunc(resp); err != nil {
			return nil, d.abort(err)
		}
	}

	// Open output
	switch {
	case payload.ToMemory:
		d.mem = &bytes.Buffer{}
	case d.out == nil:
		flags := os.O_WRONLY
		if resume {
			flags |= os.O_APPEND
		} else {
			flags |= os.O_CREATE | os.O_TRUNC
		}
		f, err := os.OpenFile(payload.TempFile, flags, 0644)
		if err != nil {
			return nil, d.abort(fmt.Errorf("opening %s for writing: %w", payload.TempFile, err))
		}
		d.out = f
		d.log.Debug("opened tempfile for download", zap.String("file", payload.TempFile), zap.Bool("append", resume))
	}

	d.completed = payload.InitialSize
	d.emit(Event{Kind: EventInit, Optional: payload.ErrorsOK, Current: d.completed, Total: d.size})
	return d, nil
}

// Close releases the response body and the output file. It is called by Run,
// and must be called if a prepared Downloader is never run.
func (d *Downloader) Close() error {
	if d.wd != nil {
		d.wd.Cancel()
	}
	var err1, err2 error
	if d.out != nil {
		err1 = d.out.Close()
		d.out = nil
	}
	if d.Resp != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(d.Resp.Body, 64*1024))
		err2 = d.Resp.Body.Close()
	}
	if err1 != nil {
		return fmt.Errorf("closing output file: %w", err1)
	}
	if err2 != nil {
		return fmt.Errorf("closing input stream: %w", err2)
	}
	return nil
}

// Size return the size of the download (or -1 if the server doesn't provide it)
func (d *Downloader) Size() int64 {
	return d.size
}

// Error returns the error during download or nil if no errors happened
func (d *Downloader) Error() error {
	return d.err
}

// Completed returns the bytes received so far, including the resumed part.
func (d *Downloader) Completed() int64 {
	d.completedLock.Lock()
	res := d.completed
	d.completedLock.Unlock()
	return res
}

// Run receives the data and waits until the transfer completes. The poll
// function of the configuration, if any, is called every poll interval.
func (d *Downloader) Run() error {
	return d.RunAndPoll(d.config.PollFunction, d.config.PollInterval)
}

// RunAndPoll starts the copy-loop and calls the poll function every
// interval time, if the progress changed, to update the progress.
// The poll function is always called once when the transfer ends.
func (d *Downloader) RunAndPoll(poll func(current, size int64), interval time.Duration) error {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	report := func(current int64) {
		if poll != nil {
			poll(current, d.size)
		}
		d.emit(Event{Kind: EventProgress, Current: current, Total: d.size})
	}

	go d.run()
	prev := int64(-1)
	for {
		select {
		case <-t.C:
			if current := d.Completed(); current != prev {
				prev = current
				report(current)
			}
		case <-d.Done:
			if !d.Payload.UpToDate {
				report(d.Completed())
			}
			d.emit(Event{Kind: EventCompleted, Current: d.Completed(), Total: d.size, Result: d.result, Err: d.err})
			return d.Error()
		}
	}
}

func (d *Downloader) run() {
	defer close(d.Done)

	if !d.skip {
		d.copy()
	}
	if err := d.Close(); err != nil && d.err == nil {
		d.err = err
	}
	d.finish()
}

func (d *Downloader) copy() {
	var w io.Writer = d.out
	if d.mem != nil {
		w = d.mem
	}
	maxSize := d.Payload.MaxSize

	in := d.Resp.Body
	buff := make([]byte, 32*1024)
	for {
		n, err := in.Read(buff)
		if n > 0 {
			d.wd.Kick()
			d.completedLock.Lock()
			exceeded := maxSize > 0 && d.completed+int64(n) > maxSize
			d.completedLock.Unlock()
			if exceeded {
				d.err = fmt.Errorf("%w: limit is %d bytes", ErrMaxSizeExceeded, maxSize)
				break
			}
			if _, werr := w.Write(buff[:n]); werr != nil {
				d.err = fmt.Errorf("writing %s: %w", d.Payload.TempFile, werr)
				break
			}
			d.completedLock.Lock()
			d.completed += int64(n)
			d.completedLock.Unlock()
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			d.err = d.cause(err)
			break
		}
	}
}

// finish moves the completed file in place, or cleans up after a failure.
func (d *Downloader) finish() {
	p := d.Payload
	if d.err != nil {
		d.fail(d.err)
		return
	}
	if p.UpToDate {
		if p.unlinkOnFail {
			_ = os.Remove(p.TempFile)
		}
		d.log.Debug("file is up to date")
		return
	}
	d.result = ResultSuccess
	if p.ToMemory {
		p.Data = d.mem.Bytes()
		return
	}

	if !p.LastModified.IsZero() {
		if err := os.Chtimes(p.TempFile, p.LastModified, p.LastModified); err != nil {
			d.log.Debug("could not set file time", zap.Error(err))
		}
	}
	if p.DestFile == "" {
		p.DestFile = p.TempFile
	}
	if p.DestFile != p.TempFile {
		if err := os.Rename(p.TempFile, p.DestFile); err != nil {
			d.err = fmt.Errorf("could not rename %s to %s: %w", p.TempFile, p.DestFile, err)
			d.fail(d.err)
			return
		}
	}
	d.log.Debug("download complete", zap.String("file", p.DestFile), zap.Int64("bytes", d.Completed()))
}

// abort cleans up a transfer that failed before the data could be received.
func (d *Downloader) abort(err error) error {
	_ = d.Close()
	d.err = err
	d.fail(err)
	return err
}

func (d *Downloader) fail(err error) {
	p := d.Payload
	d.result = ResultFailed
	p.ErrorMessage = err.Error()
	// a part file cut at the size limit must not look complete next time
	if p.TempFile != "" && (p.unlinkOnFail || errors.Is(err, ErrMaxSizeExceeded)) {
		_ = os.Remove(p.TempFile)
	}
	if p.ErrorsOK {
		d.log.Debug("failed retrieving file", zap.Error(err))
	} else {
		d.log.Error("failed retrieving file", zap.String("url", p.URL), zap.Error(err))
	}
}

// cause replaces the error of a cancelled transfer with the reason of
// the cancellation.
func (d *Downloader) cause(err error) error {
	if d.wd != nil {
		if cause := d.wd.Err(); cause != nil {
			return cause
		}
	}
	return err
}

func (d *Downloader) emit(ev Event) {
	if d.config.EventFunction != nil {
		d.config.EventFunction(payloadName(d.Payload), ev)
	}
}

func payloadName(p *Payload) string {
	if p.RemoteName != "" {
		return p.RemoteName
	}
	return p.URL
}

// parseContentRange parses a "bytes start-end/total" header value.
// Unknown parts are returned as -1.
func parseContentRange(v string) (start, end, total int64) {
	start, end, total = -1, -1, -1
	v, ok := strings.CutPrefix(strings.TrimSpace(v), "bytes ")
	if !ok {
		return
	}
	rng, size, ok := strings.Cut(v, "/")
	if !ok {
		return
	}
	if n, err := strconv.ParseInt(size, 10, 64); err == nil {
		total = n
	}
	if first, last, ok := strings.Cut(rng, "-"); ok {
		if n, err := strconv.ParseInt(first, 10, 64); err == nil {
			start = n
		}
		if n, err := strconv.ParseInt(last, 10, 64); err == nil {
			end = n
		}
	}
	return
}
