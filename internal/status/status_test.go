package status

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhrase(t *testing.T) {
	assert.Equal(t, "OK", OK.Phrase())
	assert.Equal(t, "Not Found", NotFound.Phrase())
	assert.Equal(t, "Unauthorized", Unauthorized.Phrase())
	assert.Equal(t, "Internal Server Error", InternalServerError.Phrase())
	assert.Equal(t, "Unknown Status", Code(299).Phrase())
}

func TestClassification(t *testing.T) {
	assert.False(t, OK.IsError())
	assert.True(t, NotFound.IsClientError())
	assert.False(t, NotFound.IsServerError())
	assert.True(t, InternalServerError.IsServerError())
	assert.True(t, InternalServerError.IsError())
}

func TestErrorCode(t *testing.T) {
	err := NewError(Unauthorized)
	assert.Equal(t, "http 401: Unauthorized", err.Error())

	code, ok := ErrorCode(err)
	assert.True(t, ok)
	assert.Equal(t, Unauthorized, code)

	// Wrapped errors still resolve.
	code, ok = ErrorCode(fmt.Errorf("auth check: %w", err))
	assert.True(t, ok)
	assert.Equal(t, Unauthorized, code)

	_, ok = ErrorCode(errors.New("plain"))
	assert.False(t, ok)
}
