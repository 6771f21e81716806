package text

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"github.com/tebeka/snowball"
)

const (
	// MinTokenLengthDefault drops single-character noise tokens.
	MinTokenLengthDefault = 2

	bigramJoiner = "_"
)

// Options controls how raw text is turned into features.
type Options struct {
	Stopwords bool   `json:"stopwords" yaml:"stopwords"`
	Stemmer   string `json:"stemmer,omitempty" yaml:"stemmer,omitempty"`
	Bigrams   bool   `json:"bigrams" yaml:"bigrams"`
	MinLength int    `json:"min_length" yaml:"minLength"`
}

// DefaultOptions returns the tokenizer options used when no config is present.
func DefaultOptions() Options {
	return Options{
		Stopwords: true,
		MinLength: MinTokenLengthDefault,
	}
}

// Tokenizer turns document text into feature tokens. Not safe for
// concurrent use when a stemmer is configured.
type Tokenizer struct {
	opts    Options
	stemmer *snowball.Stemmer
}

// NewTokenizer validates the options and compiles the stemmer if one
// is requested (any language supported by snowball, e.g. "english").
func NewTokenizer(opts Options) (*Tokenizer, error) {
	if opts.MinLength < 1 {
		opts.MinLength = MinTokenLengthDefault
	}

	t := &Tokenizer{opts: opts}

	if opts.Stemmer != "" {
		s, err := snowball.New(opts.Stemmer)
		if err != nil {
			return nil, errors.Wrapf(err, "unsupported stemmer language: %s", opts.Stemmer)
		}
		t.stemmer = s
	}

	return t, nil
}

// Close releases the stemmer resources, if any.
func (t *Tokenizer) Close() {
	if t.stemmer != nil {
		t.stemmer.Close()
		t.stemmer = nil
	}
}

// Tokenize splits s into lowercase unigram (and optionally bigram) features.
// Tokens are letter/digit runs, apostrophes allowed between letters so
// contractions survive as single tokens.
func (t *Tokenizer) Tokenize(s string) []string {
	words := splitWords(strings.ToLower(s))

	unigrams := make([]string, 0, len(words))
	for _, w := range words {
		if len([]rune(w)) < t.opts.MinLength {
			continue
		}
		if t.opts.Stopwords && IsStopword(w) {
			continue
		}
		if t.stemmer != nil {
			w = t.stemmer.Stem(w)
		}
		unigrams = append(unigrams, w)
	}

	if !t.opts.Bigrams {
		return unigrams
	}

	out := make([]string, 0, len(unigrams)*2)
	out = append(out, unigrams...)
	for i := 0; i+1 < len(unigrams); i++ {
		out = append(out, unigrams[i]+bigramJoiner+unigrams[i+1])
	}
	return out
}

// splitWords scans rune by rune, collecting letter/digit runs. A single
// apostrophe between two letters is kept inside the token.
func splitWords(s string) []string {
	words := make([]string, 0, len(s)/5+1)
	runes := []rune(s)

	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			words = append(words, b.String())
			b.Reset()
		}
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case isApostrophe(r) && b.Len() > 0 && i+1 < len(runes) && unicode.IsLetter(runes[i+1]):
			b.WriteRune('\'')
		default:
			flush()
		}
	}
	flush()

	return words
}

func isApostrophe(r rune) bool {
	return r == '\'' || r == '’' || r == 'ʼ'
}
