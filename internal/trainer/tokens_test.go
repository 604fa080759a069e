package trainer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTokens(t *testing.T) {
	v := newVocabulary(DefaultEndOfWord, 3)
	v.add([]Symbol{"lo", "w</w>"}, 5)
	v.add([]Symbol{"lo", "w", "er</w>"}, 2)
	v.add([]Symbol{"w</w>"}, 1)

	ts := ExtractTokens(v)
	assert.Equal(t, 3, ts.Len())
	assert.Equal(t, []string{"er", "lo", "w"}, ts.Sorted())
	assert.True(t, ts.Contains("lo"))
	assert.False(t, ts.Contains("w</w>"))
}

func TestExtractTokensCharacterLevel(t *testing.T) {
	ts := ExtractTokens(loadTestVocabulary(t, "ba ab"))
	assert.Equal(t, []string{"a", "b"}, ts.Sorted())
}

func TestExtractTokensEmpty(t *testing.T) {
	ts := ExtractTokens(newVocabulary(DefaultEndOfWord, 0))
	assert.Zero(t, ts.Len())
	assert.Empty(t, ts.Sorted())
}
