package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorMatchesSentinelByCode(t *testing.T) {
	err := fmt.Errorf("open: %w", SourceUnreadable("/tmp/x.pdf", errors.New("boom")))

	assert.True(t, errors.Is(err, ErrSourceUnreadable))
	assert.False(t, errors.Is(err, ErrInvalidPageSpec))
	assert.Equal(t, CodeSourceUnreadable, ErrorCode(err))
	assert.Contains(t, err.Error(), "boom")
}

func TestAppErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("model down")
	err := CombinationFailure(cause)

	require.ErrorIs(t, err, cause)
	require.ErrorIs(t, err, ErrCombinationFailure)
}

func TestErrorCodeWithoutAppError(t *testing.T) {
	assert.Equal(t, "", ErrorCode(errors.New("plain")))
	assert.Equal(t, "", ErrorCode(nil))
}

func TestInvalidPageSpecMessage(t *testing.T) {
	err := InvalidPageSpec("3-1", "range start after end")
	assert.Equal(t, `INVALID_PAGE_SPEC: "3-1": range start after end`, err.Error())
}
