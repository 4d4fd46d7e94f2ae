package errors

import (
	stderrors "errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeSource, "nothing"))
}

func TestWrapPreservesInnerStack(t *testing.T) {
	inner := New(ErrorTypeRead, "bad line")
	outer := Wrap(inner, ErrorTypeSource, "source unreadable")

	require.NotNil(t, outer)
	assert.Equal(t, inner.Stack, outer.Stack)
	assert.Equal(t, ErrorTypeSource, TypeOf(outer))
	assert.True(t, stderrors.Is(outer, inner))
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrorType(""), TypeOf(io.EOF))
	assert.Equal(t, ErrorTypeFormat, TypeOf(Newf(ErrorTypeFormat, "unknown format %q", "orc")))
	assert.False(t, IsType(nil, ErrorTypeFormat))
}

func TestDetails(t *testing.T) {
	err := New(ErrorTypeStructure, "wrong arity").WithDetail("fields", 3)

	v, ok := err.Detail("fields")
	require.True(t, ok)
	assert.Equal(t, 3, v)

	_, ok = err.Detail("missing")
	assert.False(t, ok)
}

func TestErrorString(t *testing.T) {
	err := Wrap(io.ErrUnexpectedEOF, ErrorTypeRead, "line 7")
	assert.Equal(t, "read: line 7: unexpected EOF", err.Error())
}
