package celpack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChrLinker(t *testing.T) {
	t.Parallel()
	bin := make([]byte, 32)
	for i := range bin {
		bin[i] = byte(i)
	}
	l := NewChrLinker(64)
	assert.NotNil(t, l)
	err := l.WriteAt(0, bin)
	assert.Nil(t, err)
	assert.Equal(t, bin, l.Bytes()[:32])
	assert.Equal(t, make([]byte, 32), l.Bytes()[32:])
}

func TestChrLinkerOverlap(t *testing.T) {
	t.Parallel()
	l := NewChrLinker(16)
	assert.Nil(t, l.WriteAt(0, []byte{1, 2, 3, 4}))
	err := l.WriteAt(2, []byte{5, 6})
	assert.Error(t, err)
}

func TestChrLinkerGrows(t *testing.T) {
	t.Parallel()
	l := NewChrLinker(0)
	err := l.WriteAt(10, []byte{9, 9})
	assert.Nil(t, err)
	assert.Len(t, l.Bytes(), 12)
	assert.Equal(t, byte(9), l.Bytes()[10])
}
