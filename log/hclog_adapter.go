/*
   Copyright 2024 The Hypercore Authors

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package log

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/hashicorp/go-hclog"
)

// hclogAdapter implements Logger on top of an hclog.Logger: hclog owns
// level gating, formatting and output buffering, and this adapter adds
// the printf-style Xf variants plus Fatal/Panic, which hclog has no
// equivalent of.
type hclogAdapter struct {
	hc   hclog.Logger
	opts LoggerOptions // the options hc was built from, reused to derive Named/ResetNamed/WithLevel loggers
}

func newHclogAdapter(opts LoggerOptions) *hclogAdapter {
	hclogOpts := &hclog.LoggerOptions{
		Name:            opts.Name,
		Level:           opts.Level.toHclog(),
		Output:          opts.Output,
		TimeFormat:      opts.TimeFormat,
		IncludeLocation: opts.IncludeLocation,
	}
	if opts.Mutex != nil {
		hclogOpts.Mutex = opts.Mutex
	}
	hc := hclog.New(hclogOpts)
	return &hclogAdapter{hc: hc, opts: opts}
}

// toHclog maps our Level (which adds a Fatal tier above Error, for the
// Fatal/Panic convenience methods) onto hclog's own gating levels.
func (l Level) toHclog() hclog.Level {
	switch l {
	case Off:
		return hclog.Off
	case Fatal, Error:
		return hclog.Error
	case Warn:
		return hclog.Warn
	case Info:
		return hclog.Info
	case Debug:
		return hclog.Debug
	case Trace:
		return hclog.Trace
	default:
		return hclog.NoLevel
	}
}

func (l *hclogAdapter) Trace(msg string) { l.hc.Trace(msg) }
func (l *hclogAdapter) Tracef(format string, args ...interface{}) {
	l.hc.Trace(fmt.Sprintf(format, args...))
}

func (l *hclogAdapter) Debug(msg string) { l.hc.Debug(msg) }
func (l *hclogAdapter) Debugf(format string, args ...interface{}) {
	l.hc.Debug(fmt.Sprintf(format, args...))
}

func (l *hclogAdapter) Info(msg string) { l.hc.Info(msg) }
func (l *hclogAdapter) Infof(format string, args ...interface{}) {
	l.hc.Info(fmt.Sprintf(format, args...))
}

func (l *hclogAdapter) Warn(msg string) { l.hc.Warn(msg) }
func (l *hclogAdapter) Warnf(format string, args ...interface{}) {
	l.hc.Warn(fmt.Sprintf(format, args...))
}

func (l *hclogAdapter) Error(msg string) { l.hc.Error(msg) }
func (l *hclogAdapter) Errorf(format string, args ...interface{}) {
	l.hc.Error(fmt.Sprintf(format, args...))
}

func (l *hclogAdapter) Fatal(msg string) {
	l.hc.Error(msg)
	os.Exit(1)
}

func (l *hclogAdapter) Fatalf(format string, args ...interface{}) {
	l.hc.Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}

func (l *hclogAdapter) Panic(msg string) {
	l.hc.Error(msg)
	panic(msg)
}

func (l *hclogAdapter) Panicf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.hc.Error(msg)
	panic(msg)
}

func (l *hclogAdapter) Named(name string) Logger {
	newOpts := l.opts
	if newOpts.Name != "" {
		newOpts.Name = newOpts.Name + "." + name
	} else {
		newOpts.Name = name
	}
	return &hclogAdapter{hc: l.hc.Named(name), opts: newOpts}
}

func (l *hclogAdapter) ResetNamed(name string) Logger {
	newOpts := l.opts
	newOpts.Name = name
	return &hclogAdapter{hc: l.hc.ResetNamed(name), opts: newOpts}
}

func (l *hclogAdapter) WithLevel(level Level) Logger {
	newOpts := l.opts
	newOpts.Level = level
	return New(&newOpts)
}

func (l *hclogAdapter) StdLogger(opts *StdLoggerOptions) *log.Logger {
	if opts != nil && opts.ForceLevel == Off {
		return log.New(io.Discard, "", 0)
	}
	return l.hc.StandardLogger(toHclogStdOpts(opts))
}

func (l *hclogAdapter) StdWriter(opts *StdLoggerOptions) io.Writer {
	if opts != nil && opts.ForceLevel == Off {
		return io.Discard
	}
	return l.hc.StandardWriter(toHclogStdOpts(opts))
}

func toHclogStdOpts(opts *StdLoggerOptions) *hclog.StandardLoggerOptions {
	if opts == nil {
		opts = &StdLoggerOptions{}
	}
	return &hclog.StandardLoggerOptions{
		InferLevels: opts.InferLevels,
		ForceLevel:  opts.ForceLevel.toHclog(),
	}
}
