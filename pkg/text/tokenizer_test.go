package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenizer(t *testing.T, opts Options) *Tokenizer {
	t.Helper()
	tok, err := NewTokenizer(opts)
	require.NoError(t, err)
	t.Cleanup(tok.Close)
	return tok
}

func TestTokenize_Basic(t *testing.T) {
	tok := newTestTokenizer(t, Options{MinLength: 2})

	got := tok.Tokenize("The economy grew by 3.5 percent, despite Brexit!")
	assert.Equal(t, []string{"the", "economy", "grew", "by", "percent", "despite", "brexit"}, got)
}

func TestTokenize_Stopwords(t *testing.T) {
	tok := newTestTokenizer(t, Options{Stopwords: true, MinLength: 2})

	got := tok.Tokenize("The economy grew by three percent")
	assert.Equal(t, []string{"economy", "grew", "three", "percent"}, got)
}

func TestTokenize_Contractions(t *testing.T) {
	tok := newTestTokenizer(t, Options{MinLength: 2})

	got := tok.Tokenize("Labour won't raise taxes")
	assert.Contains(t, got, "won't")
	assert.Contains(t, got, "taxes")

	// curly apostrophe normalizes to ASCII
	got = tok.Tokenize("won’t")
	assert.Equal(t, []string{"won't"}, got)
}

func TestTokenize_MinLength(t *testing.T) {
	tok := newTestTokenizer(t, Options{MinLength: 4})

	got := tok.Tokenize("tax the rich heavily")
	assert.Equal(t, []string{"rich", "heavily"}, got)
}

func TestTokenize_Bigrams(t *testing.T) {
	tok := newTestTokenizer(t, Options{Bigrams: true, MinLength: 2})

	got := tok.Tokenize("lower taxes now")
	assert.Equal(t, []string{"lower", "taxes", "now", "lower_taxes", "taxes_now"}, got)
}

func TestTokenize_Empty(t *testing.T) {
	tok := newTestTokenizer(t, Options{MinLength: 2})

	assert.Empty(t, tok.Tokenize(""))
	assert.Empty(t, tok.Tokenize("  ... !!! "))
}

func TestNewTokenizer_UnknownStemmer(t *testing.T) {
	_, err := NewTokenizer(Options{Stemmer: "klingon"})
	assert.Error(t, err)
}

func TestNewTokenizer_Stemmer(t *testing.T) {
	tok := newTestTokenizer(t, Options{Stemmer: "english", MinLength: 2})

	got := tok.Tokenize("taxes taxing taxed")
	require.Len(t, got, 3)
	assert.Equal(t, got[0], got[1])
	assert.Equal(t, got[1], got[2])
}

func TestIsStopword(t *testing.T) {
	assert.True(t, IsStopword("the"))
	assert.True(t, IsStopword("wasn't"))
	assert.False(t, IsStopword("economy"))
}
