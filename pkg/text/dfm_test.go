package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	tok := newTestTokenizer(t, Options{MinLength: 2})

	docs := []Document{
		{ID: "d1", Text: "tax tax economy"},
		{ID: "d2", Text: "economy welfare"},
	}

	d, err := Build(docs, tok)
	require.NoError(t, err)

	assert.Equal(t, 2, d.NDocs())
	assert.Equal(t, []string{"d1", "d2"}, d.IDs())
	assert.Equal(t, []string{"economy", "tax", "welfare"}, d.Features())

	assert.Equal(t, 1.0, d.Count(0, 0)) // d1 economy
	assert.Equal(t, 2.0, d.Count(0, 1)) // d1 tax
	assert.Equal(t, 0.0, d.Count(0, 2)) // d1 welfare
	assert.Equal(t, 1.0, d.Count(1, 2)) // d2 welfare

	assert.Equal(t, 3.0, d.RowSum(0))
	assert.Equal(t, []float64{1, 2, 0}, d.Row(0))
}

func TestBuild_Errors(t *testing.T) {
	tok := newTestTokenizer(t, Options{MinLength: 2})

	_, err := Build(nil, tok)
	assert.Error(t, err)

	_, err = Build([]Document{{ID: "d1", Text: "hello"}}, nil)
	assert.Error(t, err)

	// nothing survives tokenization
	_, err = Build([]Document{{ID: "d1", Text: "!!! ???"}}, tok)
	assert.Error(t, err)
}

func TestNewDFM_DuplicateFeature(t *testing.T) {
	_, err := NewDFM([]string{"d1"}, []string{"tax", "tax"})
	assert.Error(t, err)
}

func TestDFM_SetUnknownFeature(t *testing.T) {
	d, err := NewDFM([]string{"d1"}, []string{"tax"})
	require.NoError(t, err)
	assert.Error(t, d.Set(0, "nope", 1))
}

func TestDFM_Align(t *testing.T) {
	d, err := NewDFM([]string{"d1", "d2"}, []string{"economy", "tax", "welfare"})
	require.NoError(t, err)
	require.NoError(t, d.Set(0, "economy", 2))
	require.NoError(t, d.Set(0, "tax", 3))
	require.NoError(t, d.Set(1, "welfare", 4))

	aligned, overlap := d.Align([]string{"tax", "health", "economy"})
	assert.Equal(t, 2, overlap)
	assert.Equal(t, []string{"tax", "health", "economy"}, aligned.Features())
	assert.Equal(t, 2, aligned.NDocs())

	assert.Equal(t, 3.0, aligned.Count(0, 0)) // tax moved to column 0
	assert.Equal(t, 0.0, aligned.Count(0, 1)) // health unseen, zero
	assert.Equal(t, 2.0, aligned.Count(0, 2))
	assert.Equal(t, 0.0, aligned.Count(1, 0)) // welfare dropped entirely
}

func TestDFM_AlignDisjoint(t *testing.T) {
	d, err := NewDFM([]string{"d1"}, []string{"economy"})
	require.NoError(t, err)

	_, overlap := d.Align([]string{"brexit"})
	assert.Equal(t, 0, overlap)
}
