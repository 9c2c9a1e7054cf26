package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsInnerCode(t *testing.T) {
	inner := NotFound("dataset")
	err := Wrap(fmt.Errorf("lookup: %w", inner), "fetch failed")

	assert.Equal(t, CodeNotFound, GetCode(err))
	assert.Equal(t, "fetch failed: lookup: dataset not found", err.Error())
	assert.True(t, Is(err, inner))
}

func TestWrapPlainErrorIsInternal(t *testing.T) {
	base := stderrors.New("boom")
	err := Wrapf(base, "step %d", 2)
	assert.Equal(t, CodeInternalError, GetCode(err))
	assert.True(t, Is(err, base))
	assert.Nil(t, Wrap(nil, "x"))
}

func TestWithCodeAndUnknown(t *testing.T) {
	err := WithCode(CodeValidationError, stderrors.New("bad"))
	assert.Equal(t, CodeValidationError, GetCode(err))
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
	assert.Nil(t, WithCode(CodeValidationError, nil))
}
