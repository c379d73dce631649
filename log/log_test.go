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
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelGatingSuppressesBelowThreshold(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&LoggerOptions{Name: "test", Level: Error, Output: &buf})

	logger.Info("should not appear")
	assert.Empty(t, buf.String())

	logger.Error("should appear")
	assert.Contains(t, buf.String(), "should appear")
}

func TestNamedPrependsNamespace(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&LoggerOptions{Name: "core", Level: Info, Output: &buf})
	child := logger.Named("oplog")

	child.Info("replaying entries")
	assert.Contains(t, buf.String(), "core.oplog: replaying entries")
}

func TestLevelFromString(t *testing.T) {
	assert.Equal(t, Debug, LevelFromString("DEBUG"))
	assert.Equal(t, Warn, LevelFromString(" warn "))
	assert.Equal(t, NotSet, LevelFromString("nonsense"))
}

func TestDefaultIsSingleton(t *testing.T) {
	assert.Same(t, Default(), Default())
}
