// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ericwq/tn3270/snapshot"
	"github.com/ericwq/tn3270/util"
)

func TestParseFlags(t *testing.T) {
	tc := []struct {
		label  string
		args   []string
		expect map[string]bool
		target []string
	}{
		{"short names", []string{"-m", "3278-4", "-s", "out.snap", "-z", "logon.trace"},
			map[string]bool{"m": true, "s": true, "z": true}, []string{"logon.trace"}},
		{"long names", []string{"--model", "3278-5", "--json", "--level", "debug"},
			map[string]bool{"model": true, "json": true, "level": true}, []string{}},
		{"version", []string{"-v"}, map[string]bool{"v": true}, []string{}},
	}

	for _, v := range tc {
		conf, _, err := parseFlags("tn3270-replay", v.args)
		if err != nil {
			t.Errorf("#test %s unexpected error %v\n", v.label, err)
			continue
		}
		for name := range v.expect {
			if !conf.set[name] {
				t.Errorf("#test %s expect flag %q set\n", v.label, name)
			}
		}
		if len(conf.set) != len(v.expect) || len(conf.target) != len(v.target) {
			t.Errorf("#test %s set=%v target=%v\n", v.label, conf.set, conf.target)
		}
	}

	if _, _, err := parseFlags("tn3270-replay", []string{"-h"}); err != flag.ErrHelp {
		t.Errorf("#test -h expect flag.ErrHelp, got %v\n", err)
	}
	if _, out, err := parseFlags("tn3270-replay", []string{"--nope"}); err == nil || !strings.Contains(out, "nope") {
		t.Errorf("#test unknown flag expect error, got %v %q\n", err, out)
	}
}

func TestBuildConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replay.toml")
	os.WriteFile(path, []byte("model = \"3278-3\"\nsnapshot = \"file.snap\"\ncompress = true\n"), 0o600)

	tc := []struct {
		label   string
		args    []string
		ok      bool
		model   string
		snap    string
		zip     bool
		level   slog.Level
		trace   string
		version bool
	}{
		{"defaults", []string{}, true, "3278-2", "", false, slog.LevelInfo, "-", false},
		{"file", []string{"-c", path}, true, "3278-3", "file.snap", true, slog.LevelInfo, "-", false},
		{"flags win", []string{"-c", path, "-m", "3278-5", "--level", "trace", "x.trace"},
			true, "3278-5", "file.snap", true, util.LevelTrace, "x.trace", false},
		{"flag turns compress off", []string{"-c", path, "-z=false"}, true, "3278-3", "file.snap", false, slog.LevelInfo, "-", false},
		{"version skips the rest", []string{"-v", "a", "b"}, true, "", "", false, 0, "", true},
		{"two traces", []string{"a", "b"}, false, "", "", false, 0, "", false},
		{"bad level", []string{"--level", "loud"}, false, "", "", false, 0, "", false},
		{"missing file", []string{"-c", path + ".none"}, false, "", "", false, 0, "", false},
	}

	for _, v := range tc {
		conf, _, err := parseFlags("tn3270-replay", v.args)
		if err != nil {
			t.Fatalf("#test %s parseFlags: %v\n", v.label, err)
		}
		hint, ok := conf.buildConfig()
		if ok != v.ok {
			t.Errorf("#test %s expect ok=%t, got %t %q\n", v.label, v.ok, ok, hint)
			continue
		}
		if !ok || v.version {
			continue
		}
		if conf.Model != v.model || conf.Snapshot != v.snap || conf.Compress != v.zip ||
			conf.LogLevel != v.level || conf.Trace != v.trace {
			t.Errorf("#test %s config mismatch %+v\n", v.label, conf.Config)
		}
	}
}

const logonTrace = `# logon panel: label, input field, protected tail
< F5 C3 11 40 40 1D 60 C8 C5 D3 D3 D6 1D 40 13 11 40 50 1D 60
" ab
! ENTER
< F1 C2
< ZZ
`

func TestRun(t *testing.T) {
	util.Logger.CreateLogger(io.Discard, false, slog.LevelDebug)

	snap := filepath.Join(t.TempDir(), "screen.snap")
	conf := &Config{json: true}
	conf.Config = util.DefaultConfig()
	conf.Snapshot = snap
	conf.Compress = true

	var out bytes.Buffer
	if err := run(context.Background(), conf, strings.NewReader(logonTrace), &out); err != nil {
		t.Fatalf("#test run: %v\n", err)
	}

	lines := strings.Split(out.String(), "\n")
	if !strings.HasPrefix(lines[0], " HELLO ab") {
		t.Errorf("#test first row expect HELLO ab, got %q\n", lines[0])
	}
	if !strings.Contains(out.String(), `"text":"ab"`) || !strings.Contains(out.String(), `"modified":false`) {
		t.Errorf("#test JSON report mismatch %q\n", out.String())
	}

	data, err := os.ReadFile(snap)
	if err != nil {
		t.Fatalf("#test read snapshot: %v\n", err)
	}
	raw, err := snapshot.GetCompressor().Uncompress(data)
	if err != nil {
		t.Fatalf("#test uncompress snapshot: %v\n", err)
	}
	b, err := snapshot.Decode(raw)
	if err != nil {
		t.Fatalf("#test decode snapshot: %v\n", err)
	}
	if b.GetString(7, 2) != "ab" || b.Locked() || b.Cursor() != 9 {
		t.Errorf("#test snapshot state mismatch locked=%t cursor=%d\n", b.Locked(), b.Cursor())
	}
}

func TestRunLockedInput(t *testing.T) {
	util.Logger.CreateLogger(io.Discard, false, slog.LevelDebug)

	conf := &Config{}
	conf.Config = util.DefaultConfig()

	// the keyboard stays locked after ENTER: the second text is refused
	trace := "< F5 C3 1D 40 13\n! ENTER\n\" xy\n"
	var out bytes.Buffer
	if err := run(context.Background(), conf, strings.NewReader(trace), &out); err != nil {
		t.Fatalf("#test run: %v\n", err)
	}
	if strings.Contains(out.String(), "xy") {
		t.Errorf("#test locked keyboard expect no typed text, got %q\n", out.String())
	}
}
