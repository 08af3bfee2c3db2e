// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ericwq/tn3270/frontend"
	"github.com/ericwq/tn3270/protocol"
	"github.com/ericwq/tn3270/screen"
	"github.com/ericwq/tn3270/session"
	"github.com/ericwq/tn3270/snapshot"
	"github.com/ericwq/tn3270/util"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

var usage = `Usage:
  ` + frontend.CommandReplayName + ` [-v] [-h] [--models] [--aids]
  ` + frontend.CommandReplayName + ` [-c config.toml] [-m model] [-s file [-z]] [--json] [--draw] [--level LEVEL] [trace]
Options:
  -h, --help      print this message
  -v, --version   print version information
      --models    print the terminal models
      --aids      print the attention key names
  -c, --config    TOML configuration file
  -m, --model     terminal model (default 3278-2)
  -s, --snapshot  write a screen snapshot to file
  -z, --compress  compress the snapshot
      --json      print the fields of the final screen as JSON
      --draw      draw the screen on the terminal while replaying
      --level     log level: trace, debug, info, warn, error
  trace           trace file, "-" or nothing for stdin
`

type Config struct {
	version bool
	models  bool
	aids    bool
	json    bool
	draw    bool
	file    string // configuration file
	model   string
	snap    string
	level   string
	zip     bool
	target  []string
	set     map[string]bool // flags given on the command line

	util.Config
}

func parseFlags(progname string, args []string) (config *Config, output string, err error) {
	flagSet := flag.NewFlagSet(progname, flag.ContinueOnError)
	var buf bytes.Buffer
	flagSet.SetOutput(&buf)

	var conf Config

	flagSet.BoolVar(&conf.version, "version", false, "print version information")
	flagSet.BoolVar(&conf.version, "v", false, "print version information")

	flagSet.BoolVar(&conf.models, "models", false, "print the terminal models")
	flagSet.BoolVar(&conf.aids, "aids", false, "print the attention key names")
	flagSet.BoolVar(&conf.json, "json", false, "print the fields as JSON")
	flagSet.BoolVar(&conf.draw, "draw", false, "draw the screen")

	flagSet.StringVar(&conf.file, "config", "", "configuration file")
	flagSet.StringVar(&conf.file, "c", "", "configuration file")

	flagSet.StringVar(&conf.model, "model", "", "terminal model")
	flagSet.StringVar(&conf.model, "m", "", "terminal model")

	flagSet.StringVar(&conf.snap, "snapshot", "", "snapshot file")
	flagSet.StringVar(&conf.snap, "s", "", "snapshot file")

	flagSet.BoolVar(&conf.zip, "compress", false, "compress the snapshot")
	flagSet.BoolVar(&conf.zip, "z", false, "compress the snapshot")

	flagSet.StringVar(&conf.level, "level", "", "log level")

	err = flagSet.Parse(args)
	if err != nil {
		return nil, buf.String(), err
	}

	conf.set = make(map[string]bool)
	flagSet.Visit(func(f *flag.Flag) { conf.set[f.Name] = true })

	// get the non-flag command-line arguments.
	conf.target = flagSet.Args()
	return &conf, buf.String(), nil
}

func (c *Config) given(names ...string) bool {
	for _, n := range names {
		if c.set[n] {
			return true
		}
	}
	return false
}

// buildConfig merges the configuration file and the command line, the
// command line wins.
func (c *Config) buildConfig() (string, bool) {
	if c.version || c.models || c.aids {
		return "", true
	}

	c.Config = util.DefaultConfig()
	if c.file != "" {
		cfg, err := util.LoadConfig(c.file)
		if err != nil {
			return err.Error(), false
		}
		c.Config = cfg
	}

	if c.given("model", "m") {
		c.Model = c.model
	}
	if c.given("snapshot", "s") {
		c.Snapshot = c.snap
	}
	if c.given("compress", "z") {
		c.Compress = c.zip
	}
	if c.given("level") {
		level, err := util.ParseLevel(c.level)
		if err != nil {
			return err.Error(), false
		}
		c.LogLevel = level
	}

	switch len(c.target) {
	case 0:
	case 1:
		c.Trace = c.target[0]
	default:
		return "only one trace file is allowed.", false
	}
	return "", true
}

func printList(w io.Writer, names []string) {
	for _, n := range names {
		fmt.Fprintln(w, n)
	}
}

func main() {
	conf, _, err := parseFlags(os.Args[0], os.Args[1:])
	if err == flag.ErrHelp {
		frontend.PrintUsage("", usage)
		return
	} else if err != nil {
		frontend.PrintUsage(err.Error(), usage)
		os.Exit(2)
	} else if hint, ok := conf.buildConfig(); !ok {
		frontend.PrintUsage(hint, usage)
		os.Exit(2)
	}

	switch {
	case conf.version:
		frontend.PrintVersion()
		return
	case conf.models:
		printList(os.Stdout, screen.ModelNames())
		return
	case conf.aids:
		printList(os.Stdout, protocol.AIDNames())
		return
	}

	util.Logger.SetLevel(conf.LogLevel)

	in := os.Stdin
	if conf.Trace != "" && conf.Trace != "-" {
		f, err := os.Open(conf.Trace)
		if err != nil {
			util.Logger.Fatal("open trace", "file", conf.Trace, "error", err)
		}
		defer f.Close()
		in = f
	}

	if err := run(context.Background(), conf, in, os.Stdout); err != nil {
		util.Logger.Fatal("replay", "error", err)
	}
}

// newPresenter draws on out when asked to and out is a terminal.
func newPresenter(conf *Config, out io.Writer) (session.Presenter, *frontend.Display) {
	f, ok := out.(*os.File)
	if !conf.draw || !ok || !term.IsTerminal(int(f.Fd())) {
		return nil, nil
	}

	model := screen.ModelByName(conf.Model)
	if err := frontend.CheckSize(int(f.Fd()), model.Rows, model.Cols); err != nil {
		util.Logger.Warn("draw disabled", "error", err)
		return nil, nil
	}
	ti, err := frontend.LookupTerminfo(os.Getenv("TERM"))
	if err != nil {
		util.Logger.Warn("draw disabled", "error", err)
		return nil, nil
	}
	d := frontend.NewDisplay(out, ti)
	d.UseBoxDrawing(conf.APL)
	return d, d
}

// run replays the trace read from in. The final screen goes to out as text
// unless a terminal display drew it.
func run(ctx context.Context, conf *Config, in io.Reader, out io.Writer) error {
	presenter, display := newPresenter(conf, out)
	s := session.New(screen.ModelByName(conf.Model), presenter)
	s.SetConnected(true)

	eg, ctx := errgroup.WithContext(ctx)
	msgChan := make(chan frontend.Message, 16)

	eg.Go(func() error {
		return frontend.ReadTrace(ctx, in, msgChan)
	})

	eg.Go(func() error {
		for m := range msgChan {
			if m.Err != nil {
				util.Logger.Warn("skip trace line", "error", m.Err)
				continue
			}
			replay(s, m)
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		return err
	}
	s.SetConnected(false)

	var err error
	s.View(func(b *screen.Buffer) {
		if display == nil {
			fmt.Fprintln(out, b.String())
		}
		if conf.json {
			var report string
			if report, err = snapshot.FieldsJSON(b); err == nil {
				fmt.Fprintln(out, report)
			}
		}
		if err == nil && conf.Snapshot != "" {
			err = writeSnapshot(conf, b)
		}
	})
	if display != nil && display.Err() != nil {
		return display.Err()
	}
	return err
}

// replay applies one trace message to the session.
func replay(s *session.Session, m frontend.Message) {
	switch m.Kind {
	case frontend.TraceHost:
		res, err := s.Feed(m.Data)
		if err != nil {
			util.Logger.Warn("host record", "line", m.Line, "error", err)
		}
		if res.Reply != nil {
			util.Logger.Debug("reply", "line", m.Line, "command", res.Command, "data", fmt.Sprintf("% X", res.Reply))
		}
	case frontend.TraceKey:
		aid := protocol.AIDByName(string(m.Data))
		record, err := s.Submit(aid)
		if err != nil {
			util.Logger.Warn("attention key", "line", m.Line, "aid", aid, "error", err)
			return
		}
		util.Logger.Debug("attention key", "line", m.Line, "aid", aid, "data", fmt.Sprintf("% X", record))
	case frontend.TraceInput:
		for _, r := range string(m.Data) {
			if err := s.Type(r); err != nil {
				util.Logger.Warn("input", "line", m.Line, "char", string(r), "error", err)
				if errors.Is(err, session.ErrLocked) {
					return
				}
			}
		}
	}
}

func writeSnapshot(conf *Config, b *screen.Buffer) error {
	data := snapshot.Encode(b)
	if conf.Compress {
		var err error
		if data, err = snapshot.GetCompressor().Compress(data); err != nil {
			return fmt.Errorf("compress snapshot: %w", err)
		}
	}
	if err := os.WriteFile(conf.Snapshot, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	util.Logger.Info("snapshot written", "file", conf.Snapshot, "size", len(data), "compress", conf.Compress)
	return nil
}
