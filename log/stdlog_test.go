package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStdLogAdapter(t *testing.T) {

	t.Run("use internal level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&LoggerOptions{Name: "test", Level: Info, Output: &buf})

		logger.StdLogger(nil).Printf("this is a test")

		assert.Contains(t, buf.String(), "test: this is a test")
	})

	t.Run("use internal but restrictive level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&LoggerOptions{Name: "test", Level: Error, Output: &buf})

		logger.StdLogger(nil).Printf("this is a test")

		assert.Empty(t, buf.String())
	})

	t.Run("infer level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&LoggerOptions{Name: "test", Level: Info, Output: &buf})

		logger.StdLogger(&StdLoggerOptions{InferLevels: true}).Printf("[INFO] this is a test")

		assert.Contains(t, buf.String(), "test: this is a test")
	})

	t.Run("force level to Off", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&LoggerOptions{Name: "test", Level: Info, Output: &buf})

		logger.StdLogger(&StdLoggerOptions{ForceLevel: Off}).Printf("this is a test")

		assert.Empty(t, buf.String())
	})

	t.Run("force level to more restrictive", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&LoggerOptions{Name: "test", Level: Info, Output: &buf})

		logger.StdLogger(&StdLoggerOptions{ForceLevel: Error}).Printf("this is a test")

		assert.Contains(t, buf.String(), "test: this is a test")
	})
}
