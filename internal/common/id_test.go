package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewID_SortableAndUnique(t *testing.T) {
	prev := NewID()
	assert.Len(t, prev, 26)
	for i := 0; i < 1000; i++ {
		next := NewID()
		assert.Greater(t, next, prev)
		prev = next
	}
}
