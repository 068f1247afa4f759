package typefilter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meigma/vault/internal/mimetype"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	reg := mimetype.New()
	res := Classify(reg, []string{"text/plain", "madeup/type", "image/*", "text/plain", " ", "nope/*"})

	assert.Equal(t, []string{"text/plain", "image/*"}, res.Valid)
	assert.Equal(t, []string{"madeup/type", "nope/*"}, res.Invalid)
	assert.False(t, res.OK())
}

func TestClassifyAllValid(t *testing.T) {
	t.Parallel()

	res := Classify(mimetype.New(), []string{"application/json"})
	assert.True(t, res.OK())
	assert.Empty(t, res.Invalid)
}

func TestClassifyPartitionProperty(t *testing.T) {
	t.Parallel()

	tokens := []string{"text/plain", "a/b", "video/*", "x", "audio/mpeg", "*/*"}
	res := Classify(mimetype.New(), tokens)

	seen := map[string]int{}
	for _, v := range res.Valid {
		seen[v]++
	}
	for _, v := range res.Invalid {
		seen[v]++
	}
	for _, tok := range tokens {
		assert.Equal(t, 1, seen[tok], "token %q must be in exactly one partition", tok)
	}
}

func TestMatcher(t *testing.T) {
	t.Parallel()

	reg := mimetype.New()
	m := NewMatcher(reg, []string{"text/plain"})

	assert.True(t, m.Match("a.txt"))
	assert.True(t, m.Match("B.LOG"))
	assert.False(t, m.Match("c.bin"))
	assert.False(t, m.Match("no-extension"))
}

func TestMatcherOverlappingTokens(t *testing.T) {
	t.Parallel()

	reg := mimetype.New()
	m := NewMatcher(reg, []string{"image/*", "image/png", "madeup/type"})

	assert.True(t, m.Match("photo.png"))
	assert.True(t, m.Match("photo.jpg"))
	assert.Equal(t, len(reg.Glob("image/*")), m.Types(), "overlapping tokens count once")
}
