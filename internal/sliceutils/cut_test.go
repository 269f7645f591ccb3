package sliceutils_test

import (
	"testing"

	"github.com/habiliai/aurora/internal/sliceutils"
	"github.com/stretchr/testify/assert"
)

func TestCut(t *testing.T) {
	s := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{4, 5}, sliceutils.Cut(s, -2, len(s)))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, sliceutils.Cut(s, -10, len(s)))
	assert.Equal(t, []int{2, 3}, sliceutils.Cut(s, 1, 3))
	assert.Empty(t, sliceutils.Cut(s, 4, 2))
	assert.Empty(t, sliceutils.Cut([]int{}, -3, 0))
}

func TestLast(t *testing.T) {
	s := []string{"a", "b", "c"}

	assert.Equal(t, []string{"b", "c"}, sliceutils.Last(s, 2))
	assert.Equal(t, []string{"a", "b", "c"}, sliceutils.Last(s, 10))
	assert.Empty(t, sliceutils.Last(s, 0))
}
