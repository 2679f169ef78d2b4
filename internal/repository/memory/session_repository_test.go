package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppendKeepsWindow(t *testing.T) {
	repo := NewSessionRepository(3)

	for _, m := range []string{"one", "two", "three", "four"} {
		repo.Append("s1", m)
	}

	assert.Equal(t, []string{"two", "three", "four"}, repo.Recent("s1"))
	assert.Nil(t, repo.Recent("unknown"))
	assert.Equal(t, 1, repo.Count())
}

func TestRecentReturnsCopy(t *testing.T) {
	repo := NewSessionRepository(5)
	repo.Append("s1", "hello")

	got := repo.Recent("s1")
	got[0] = "changed"

	assert.Equal(t, []string{"hello"}, repo.Recent("s1"))

	repo.Delete("s1")
	_, ok := repo.Get("s1")
	assert.False(t, ok)
}
