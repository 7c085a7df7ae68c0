package buffer

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestRandomReplacerShouldWork(t *testing.T) {
	r := NewRandomReplacer()
	for i := 0; i < PoolSize; i++ {
		r.Pin(i)
	}
	r.Unpin(1)
	r.Unpin(2)
	v, err := r.Victim()
	assert.NoError(t, err)
	assert.Contains(t, []int{1, 2}, v)
}

func TestRandomReplacerShouldReturnError_When_No_Possible_Victim_Is_Found(t *testing.T) {
	r := NewRandomReplacer()
	for i := 0; i < PoolSize; i++ {
		r.Pin(i)
	}
	v, err := r.Victim()
	assert.Zero(t, v)
	assert.Error(t, err)
}

func TestRandomReplacer_Should_Not_Choose_Same_Victim_Twice(t *testing.T) {
	r := NewRandomReplacer()
	for i := 0; i < PoolSize; i++ {
		r.Pin(i)
		r.Unpin(i)
	}

	seen := map[int]bool{}
	for i := 0; i < PoolSize; i++ {
		v, err := r.Victim()
		assert.NoError(t, err)
		assert.False(t, seen[v])
		seen[v] = true
	}

	_, err := r.Victim()
	assert.Error(t, err)
	assert.Equal(t, ReplacerStats{Pinned: PoolSize, Victims: PoolSize}, r.Stats())
}

func TestRandomReplacer_Unpin_Should_Work(t *testing.T) {
	r := NewRandomReplacer()
	for i := 0; i < PoolSize; i++ {
		r.Pin(i)
	}
	r.Unpin(PoolSize - 1)
	v, err := r.Victim()
	assert.NoError(t, err)
	assert.Equal(t, PoolSize-1, v)
}
