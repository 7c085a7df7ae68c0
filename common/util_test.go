package common

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestCString_Compare_Should_Stop_At_Zero_Byte(t *testing.T) {
	assert.Equal(t, 0, CStringCompare([]byte("abc\x00x"), []byte("abc\x00y"), 5))
	assert.Equal(t, 0, CStringCompare([]byte("abc"), []byte("abc\x00\x00"), 5))
	assert.Equal(t, -1, CStringCompare([]byte("abc"), []byte("abd"), 3))
	assert.Equal(t, 1, CStringCompare([]byte("abd"), []byte("abc"), 3))
	assert.Equal(t, 1, CStringCompare([]byte("abcd"), []byte("abc"), 4))
}

func TestCString_Compare_Should_Compare_At_Most_N_Bytes(t *testing.T) {
	assert.Equal(t, 0, CStringCompare([]byte("abcx"), []byte("abcy"), 3))
	assert.Equal(t, 0, CStringCompare(nil, nil, 4))
}

func TestClone_Should_Not_Share_Memory(t *testing.T) {
	data := []byte("selam")
	c := Clone(data)
	c[0] = 'x'
	assert.Equal(t, []byte("selam"), data)
	assert.Nil(t, Clone(nil))
}
