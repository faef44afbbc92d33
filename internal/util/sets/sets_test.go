package sets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetBasics(t *testing.T) {
	s := New("b", "a")
	s.Add("c")

	assert.True(t, s.Has("a"))
	assert.False(t, s.Has("z"))
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"a", "b", "c"}, Sorted(s))
}

func TestNilSetHasNothing(t *testing.T) {
	var s Set[string]
	assert.False(t, s.Has("a"))
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, Sorted(s))
}

func TestIntersect(t *testing.T) {
	a := New("b1", "b2", "b3")
	b := New("b3", "b1", "b9")

	assert.Equal(t, []string{"b1", "b3"}, Sorted(a.Intersect(b)))
	assert.Empty(t, Sorted(a.Intersect(nil)))
}
