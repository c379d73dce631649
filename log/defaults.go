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
	"os"
	"time"
)

// DefaultOutput is the writer New uses when LoggerOptions.Output is nil.
var DefaultOutput = os.Stderr

// DefaultLevel is the level New uses when LoggerOptions.Level is NotSet.
const DefaultLevel = Info

// DefaultTimeFormat is the timestamp format New uses when
// LoggerOptions.TimeFormat is empty.
const DefaultTimeFormat = time.RFC3339
