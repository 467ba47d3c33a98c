package celpack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRectContains(t *testing.T) {
	t.Parallel()
	r := Rect{Left: 10, Top: 10, Width: 8, Height: 16}
	assert.True(t, r.Contains(Loc{X: 10, Y: 10}))
	assert.True(t, r.Contains(Loc{X: 17, Y: 25}))
	assert.False(t, r.Contains(Loc{X: 18, Y: 10}))
	assert.False(t, r.Contains(Loc{X: 10, Y: 26}))
}

func TestRectIntersect(t *testing.T) {
	t.Parallel()
	a := Rect{Left: 0, Top: 0, Width: 16, Height: 16}
	b := Rect{Left: 8, Top: 8, Width: 16, Height: 16}
	got, ok := a.Intersect(b)
	require := assert.New(t)
	require.True(ok)
	require.Equal(Rect{Left: 8, Top: 8, Width: 8, Height: 8}, got)

	c := Rect{Left: 100, Top: 100, Width: 4, Height: 4}
	_, ok = a.Intersect(c)
	require.False(ok)
}

func TestCelDefaultHotspot(t *testing.T) {
	t.Parallel()
	c := newCel("walk1", 1)
	c.Clip = Rect{Left: 4, Top: 2, Width: 9, Height: 17}
	assert.Equal(t, Loc{X: 4 + 9/2, Y: 2 + 17}, c.DefaultHotspot())
}

func TestRGBString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "#ff0080", RGB{R: 0xff, G: 0x00, B: 0x80}.String())
}
