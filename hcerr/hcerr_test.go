package hcerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOfUnwrapsWrappedError(t *testing.T) {
	base := New(MalformedEntry, "short entry")
	wrapped := fmt.Errorf("decode failed: %w", base)
	assert.Equal(t, MalformedEntry, Of(wrapped))
}

func TestOfReturnsUnknownForPlainError(t *testing.T) {
	assert.Equal(t, Unknown, Of(errors.New("boom")))
}

func TestIsComparesKind(t *testing.T) {
	err := Wrap(BadHash, "mismatch", errors.New("underlying"))
	assert.True(t, errors.Is(err, New(BadHash, "")))
	assert.False(t, errors.Is(err, New(OutOfRange, "")))
}
