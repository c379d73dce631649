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

import "sync"

var (
	defaultOnce   sync.Once
	defaultLogger Logger
)

// Default returns the process-wide Logger used by callers that were not
// handed one explicitly (e.g. hypercore.Config.Logger left nil). It is
// built lazily, once, at Info level.
func Default() Logger {
	defaultOnce.Do(func() {
		defaultLogger = New(&LoggerOptions{Name: "hypercore", Level: Info})
	})
	return defaultLogger
}

// L is a short alias for Default, for call sites that log often.
func L() Logger {
	return Default()
}

// SetDefault replaces the process-wide Logger returned by Default/L.
func SetDefault(l Logger) {
	defaultOnce.Do(func() {})
	defaultLogger = l
}

// The functions below proxy onto Default(), for call sites that want to
// log without holding onto a Logger value of their own.

func Tracef(format string, args ...interface{}) { Default().Tracef(format, args...) }
func Debugf(format string, args ...interface{}) { Default().Debugf(format, args...) }
func Infof(format string, args ...interface{})  { Default().Infof(format, args...) }
func Warnf(format string, args ...interface{})  { Default().Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { Default().Errorf(format, args...) }
