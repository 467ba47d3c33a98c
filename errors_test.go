package celpack

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsUnwrap(t *testing.T) {
	t.Parallel()
	inner := errors.New("boom")

	pe := newParseError(3, "unknown-keyword", "bad token: %w", inner)
	assert.ErrorIs(t, pe, inner)
	assert.Contains(t, pe.Error(), "line 3")
	assert.Contains(t, pe.Error(), "unknown-keyword")

	re := newRasterError("walk1", "strip out of bounds: %w", inner)
	assert.ErrorIs(t, re, inner)
	assert.Contains(t, re.Error(), "walk1")

	ee := newEncodeError("walk1", "row overflow: %w", inner)
	assert.ErrorIs(t, ee, inner)

	pke := newPackError("walk1", "too many tiles: %w", inner)
	assert.ErrorIs(t, pke, inner)
	assert.Contains(t, pke.Error(), "walk1")

	pkeNoCel := newPackError("", "iteration cap exceeded: %w", inner)
	assert.NotContains(t, pkeNoCel.Error(), "cel")

	ioe := newIOError("missing.cel", inner)
	assert.ErrorIs(t, ioe, inner)
	assert.Contains(t, ioe.Error(), "missing.cel")
}
