//
// Copyright 2025 The parabolas.xyz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

// Package cli implements the mandl command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/term"

	"go.parabolas.xyz/dload"
	"go.parabolas.xyz/dload/progress"
)

// NewCommand returns the root command. Progress bars are written on stdout,
// log messages on stderr.
func NewCommand(stdout, stderr io.Writer) *cobra.Command {
	v := viper.New()
	var configFile string
	var headers []string

	cmd := &cobra.Command{
		Use:   "mandl [flags] URL...",
		Short: "Downloads man page archives from package mirrors",
		Long: `Downloads man page archives from package mirrors.

Each URL is saved in the output directory under its remote name. Partial
transfers are kept as NAME.part and resumed on the next run; files already
present are only downloaded again if the remote copy is newer.

With --mirror, the arguments are paths relative to the mirror base address.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := readConfig(v, configFile); err != nil {
				return err
			}
			o, err := loadOptions(v, headers)
			if err != nil {
				return err
			}
			color := false
			if f, ok := stderr.(*os.File); ok {
				color = term.IsTerminal(int(f.Fd()))
			}
			log := newLogger(stderr, o.Verbose, color)
			defer func() { _ = log.Sync() }()

			return run(cmd.Context(), o, args, log, stdout)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.Flags()
	flags.StringVar(&configFile, "config", "", "config file (default is $XDG_CONFIG_HOME/mandl/mandl.yaml)")
	flags.StringP(keyOutputDir, "o", ".", "directory where files are saved")
	flags.BoolP(keyForce, "f", false, "download even if the local file is up to date")
	flags.Bool(keyNoResume, false, "do not resume partial downloads")
	flags.String(keyMaxSize, "", "abort downloads larger than this size (e.g. 200M)")
	flags.Bool(keyNoTimeout, false, "do not abort stalled downloads")
	flags.Duration(keyConnectTimeout, 0, "connection timeout (default 10s)")
	flags.Int(keyMaxRedirects, 0, "maximum number of redirects to follow (default 10)")
	flags.String(keyUserAgent, "", "User-Agent header (default is the crawler identification)")
	flags.StringArrayVarP(&headers, "header", "H", nil, "extra request header 'Name: value', may be repeated")
	flags.String(keyMirror, "", "mirror base address; arguments are paths relative to it")
	flags.Bool(keyTrustRemoteName, false, "save under the file name suggested by the server")
	flags.Bool(keyRandomPartfile, false, "write to a randomly named temporary file")
	flags.Bool(keyOptional, false, "do not fail when a download fails")
	flags.String(keyProgress, progress.StyleBar, "progress display: bar, fancy or none")
	flags.String(keyNetrcFile, "", "netrc file with credentials (default ~/.netrc if present)")
	flags.BoolP(keyVerbose, "v", false, "print debug messages")

	flags.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" || f.Name == "header" {
			return
		}
		_ = v.BindPFlag(f.Name, f)
	})
	v.SetEnvPrefix("MANDL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv(keyUserAgent, "MANDL_USER_AGENT", "HTTP_USER_AGENT")
	return cmd
}

// readConfig loads the config file, if any. A missing default config file
// is not an error.
func readConfig(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("mandl")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "mandl"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// run downloads the arguments one after the other.
func run(ctx context.Context, o *options, args []string, log *zap.Logger, out io.Writer) error {
	config, err := o.downloadConfig(log)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(o.OutputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	failed := 0
	for _, p := range o.payloads(args) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := download(ctx, p, config, o.Progress, log, out); err != nil && !p.ErrorsOK {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("failed to download %d of %d files", failed, len(args))
	}
	return nil
}

func download(ctx context.Context, p *dload.Payload, config dload.Config, style string, log *zap.Logger, out io.Writer) error {
	var bar progress.Reporter = progress.Nop{}
	config.PollFunction = func(current, size int64) {
		bar.Update(current, size)
	}
	config.EventFunction = func(name string, ev dload.Event) {
		switch ev.Kind {
		case dload.EventInit:
			if r, err := progress.New(style, out, name); err == nil {
				bar = r
			}
		case dload.EventCompleted:
			bar.Finish()
			switch ev.Result {
			case dload.ResultUpToDate:
				log.Info(name + " is up to date")
			case dload.ResultSuccess:
				log.Info("downloaded "+name, zap.String("file", p.DestFile), zap.String("size", progress.FormatSize(ev.Current)))
			}
		}
	}
	return dload.DownloadWithConfig(ctx, p, config)
}
