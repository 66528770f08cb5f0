// Copyright 2024 The unix74 Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logger provides the kernel's package-level structured logger:
// leveled functions that format slog records through its own text or
// JSON handlers (no *slog.Logger is built), with kernel-specific
// severities (TRACE below slog's Debug, through ERROR) and optional
// rotation to a file.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Severity levels. TRACE sits below slog's built-in LevelDebug so it can
// be filtered independently; the others align with slog's own levels.
const (
	LevelTrace   = slog.Level(-8)
	LevelDebug   = slog.LevelDebug
	LevelInfo    = slog.LevelInfo
	LevelWarning = slog.LevelWarn
	LevelError   = slog.LevelError
)

func severityName(l slog.Level) string {
	switch {
	case l < LevelDebug:
		return "TRACE"
	case l < LevelInfo:
		return "DEBUG"
	case l < LevelWarning:
		return "INFO"
	case l < LevelError:
		return "WARNING"
	default:
		return "ERROR"
	}
}

func parseSeverity(s string) slog.Level {
	switch s {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return LevelDebug
	case "WARNING":
		return LevelWarning
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// loggerFactory builds the handler for the configured format, mirroring
// the teacher's defaultLoggerFactory / createJsonOrTextHandler split.
type loggerFactory struct {
	format string
	prefix string
}

// handler is the minimal contract logf needs; the concrete text/json
// handlers below satisfy it but intentionally do not implement the full
// slog.Handler interface (no WithAttrs/WithGroup) since nothing here
// builds a *slog.Logger around them.
type handler interface {
	handle(r slog.Record) error
}

func (f *loggerFactory) createJsonOrTextHandler(w io.Writer, level *slog.LevelVar, prefix string) handler {
	if f.format == "json" {
		return &jsonHandler{w: w, level: level}
	}
	return &textHandler{w: w, level: level, prefix: prefix}
}

type textHandler struct {
	w      io.Writer
	level  *slog.LevelVar
	prefix string
}

func (h *textHandler) handle(r slog.Record) error {
	if r.Level < h.level.Level() {
		return nil
	}
	_, err := fmt.Fprintf(h.w, "time=%q severity=%s message=%q\n",
		r.Time.Format("2006/01/02 15:04:05.000000"), severityName(r.Level), h.prefix+r.Message)
	return err
}

type jsonHandler struct {
	w     io.Writer
	level *slog.LevelVar
}

func (h *jsonHandler) handle(r slog.Record) error {
	if r.Level < h.level.Level() {
		return nil
	}
	enc := json.NewEncoder(h.w)
	return enc.Encode(struct {
		Timestamp struct {
			Seconds int64 `json:"seconds"`
			Nanos   int   `json:"nanos"`
		} `json:"timestamp"`
		Severity string `json:"severity"`
		Message  string `json:"message"`
	}{
		Timestamp: struct {
			Seconds int64 `json:"seconds"`
			Nanos   int   `json:"nanos"`
		}{r.Time.Unix(), r.Time.Nanosecond()},
		Severity: severityName(r.Level),
		Message:  r.Message,
	})
}

var (
	defaultLoggerFactory = &loggerFactory{format: "text"}
	defaultLevel         = new(slog.LevelVar)
	defaultOut           io.Writer = os.Stderr
)

// Config is the subset of cfg.Config the logger cares about.
type Config struct {
	Format       string
	Severity     string
	RotateLogDir string
}

// Init installs the package-level logger per cfg. Call once at startup.
func Init(c Config) {
	defaultLoggerFactory.format = c.Format
	defaultLevel.Set(parseSeverity(c.Severity))

	var w io.Writer = os.Stderr
	if c.RotateLogDir != "" {
		w = &lumberjack.Logger{
			Filename:   c.RotateLogDir + "/unix74.log",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		}
	}
	defaultOut = w
}

func logf(level slog.Level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	var err error
	if defaultLoggerFactory.format == "json" {
		err = (&jsonHandler{w: defaultOut, level: defaultLevel}).handle(slog.Record{Time: time.Now(), Level: level, Message: defaultLoggerFactory.prefix + msg})
	} else {
		err = (&textHandler{w: defaultOut, level: defaultLevel, prefix: defaultLoggerFactory.prefix}).handle(slog.Record{Time: time.Now(), Level: level, Message: msg})
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger: write failed:", err)
	}
}

func Tracef(format string, args ...any)   { logf(LevelTrace, format, args...) }
func Debugf(format string, args ...any)   { logf(LevelDebug, format, args...) }
func Infof(format string, args ...any)    { logf(LevelInfo, format, args...) }
func Warnf(format string, args ...any)    { logf(LevelWarning, format, args...) }
func Errorf(format string, args ...any)   { logf(LevelError, format, args...) }
