package sets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	s := New("commit", "docs")
	s.Add("lint")

	assert.True(t, s.Has("commit"))
	assert.True(t, s.Has("lint"))
	assert.False(t, s.Has("maxmind"))
	assert.Equal(t, 3, s.Len())

	c := s.Clone()
	c.Delete("commit")
	assert.True(t, s.Has("commit"), "clone must not alias the original")
	assert.Equal(t, []string{"docs", "lint"}, Sorted(c))
}

func TestNilSetHas(t *testing.T) {
	var s Set[string]
	assert.False(t, s.Has("anything"))
	assert.Equal(t, 0, s.Len())
}
