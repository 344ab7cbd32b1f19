package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCode(t *testing.T) {
	base := ExternalServiceError("geocoder", stderrors.New("timeout"))
	wrapped := Wrapf(base, "resolve row %d", 3)

	assert.Equal(t, CodeExternalService, GetCode(wrapped))
	assert.Contains(t, wrapped.Error(), "resolve row 3")
	assert.Contains(t, wrapped.Error(), "timeout")
}

func TestWrapPlainError(t *testing.T) {
	assert.Nil(t, Wrap(nil, "ignored"))
	assert.Equal(t, CodeInternalError, GetCode(Wrap(stderrors.New("boom"), "context")))
}

func TestGetCodeThroughFmtWrapping(t *testing.T) {
	err := fmt.Errorf("load dataset: %w", NotFound("dataset"))
	assert.Equal(t, CodeNotFound, GetCode(err))
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
}

func TestUnwrapReachesSentinel(t *testing.T) {
	sentinel := stderrors.New("sentinel")
	err := WithCode(CodeInvalidInput, fmt.Errorf("bad: %w", sentinel))
	assert.True(t, stderrors.Is(err, sentinel))
	assert.Equal(t, CodeInvalidInput, GetCode(err))
}
