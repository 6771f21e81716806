package scale

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/textscale/textscale/pkg/text"
	"gonum.org/v1/gonum/stat"
)

var manifestoVocab = []string{
	"economy", "tax", "growth", "welfare", "health", "education", "immigration", "defence",
}

// manifestoDFM builds a 6-document corpus: three reference manifestos with
// known positions and three later ones to be scored. Counts are synthetic
// but share vocabulary across all documents.
func manifestoDFM(t *testing.T) *text.DFM {
	t.Helper()

	counts := map[string][]float64{
		"con92": {20, 25, 15, 2, 3, 2, 10, 12},
		"lab92": {10, 5, 8, 25, 20, 15, 2, 3},
		"ld92":  {12, 8, 10, 15, 12, 18, 4, 5},
		"con97": {18, 20, 14, 5, 6, 4, 8, 10},
		"lab97": {14, 8, 12, 18, 16, 14, 3, 4},
		"ld97":  {13, 9, 11, 14, 13, 16, 5, 6},
	}
	order := []string{"con92", "lab92", "ld92", "con97", "lab97", "ld97"}

	d, err := text.NewDFM(order, manifestoVocab)
	require.NoError(t, err)
	for i, id := range order {
		for j, f := range manifestoVocab {
			require.NoError(t, d.Set(i, f, counts[id][j]))
		}
	}
	return d
}

// manifestoScores holds the 1992 UK economic-dimension positions; the 1997
// documents are virgin.
func manifestoScores() []float64 {
	return []float64{17.21, 5.35, 8.21, Missing(), Missing(), Missing()}
}

func TestFit_InputValidation(t *testing.T) {
	d := manifestoDFM(t)

	_, err := Fit(nil, nil, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Fit(d, []float64{1, 2}, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Fit(d, manifestoScores(), -0.5)
	assert.ErrorIs(t, err, ErrInvalidInput)

	// only one non-missing score
	one := []float64{17.21, Missing(), Missing(), Missing(), Missing(), Missing()}
	_, err = Fit(d, one, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestFit_WordScoresBounded(t *testing.T) {
	d := manifestoDFM(t)
	lo, hi := 5.35, 17.21

	for _, smooth := range []float64{0, 0.5, 1, 10} {
		m, err := Fit(d, manifestoScores(), smooth)
		require.NoError(t, err)

		ws := m.WordScores()
		require.Len(t, ws, len(manifestoVocab))
		for f, s := range ws {
			assert.GreaterOrEqual(t, s, lo, "feature %s", f)
			assert.LessOrEqual(t, s, hi, "feature %s", f)
		}
	}
}

func TestFit_ModelMetadata(t *testing.T) {
	d := manifestoDFM(t)

	m, err := Fit(d, manifestoScores(), 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"con92", "lab92", "ld92"}, m.ReferenceIDs())
	assert.Equal(t, 1.0, m.Smooth())

	mean, sd := m.ReferenceStats()
	wantMean, wantSD := stat.MeanStdDev([]float64{17.21, 5.35, 8.21}, nil)
	assert.InDelta(t, wantMean, mean, 1e-12)
	assert.InDelta(t, wantSD, sd, 1e-12)
}

func TestFit_FeatureAbsentFromReferences(t *testing.T) {
	// "fringe" appears only in the virgin document, so it cannot be scored
	// and must be ignored at prediction rather than failing.
	d, err := text.NewDFM([]string{"r1", "r2", "v1"}, []string{"left", "right", "fringe"})
	require.NoError(t, err)
	require.NoError(t, d.Set(0, "left", 10))
	require.NoError(t, d.Set(1, "right", 10))
	require.NoError(t, d.Set(2, "left", 3))
	require.NoError(t, d.Set(2, "right", 3))
	require.NoError(t, d.Set(2, "fringe", 50))

	m, err := Fit(d, []float64{-1, 1, Missing()}, 0)
	require.NoError(t, err)

	ws := m.WordScores()
	assert.Contains(t, ws, "left")
	assert.Contains(t, ws, "right")
	assert.NotContains(t, ws, "fringe")

	got, err := Predict(m, d, RescaleNone)
	require.NoError(t, err)
	// fringe contributes nothing: v1 sits exactly between the poles
	assert.InDelta(t, 0, got[2], 1e-12)
}

func TestPredict_RawBoundedByReferenceScores(t *testing.T) {
	d := manifestoDFM(t)

	m, err := Fit(d, manifestoScores(), 0)
	require.NoError(t, err)

	got, err := Predict(m, d, RescaleNone)
	require.NoError(t, err)
	require.Len(t, got, 6)

	for i, s := range got {
		require.False(t, IsMissing(s), "doc %d", i)
		assert.GreaterOrEqual(t, s, 5.35)
		assert.LessOrEqual(t, s, 17.21)
	}
}

func TestPredict_Idempotent(t *testing.T) {
	d := manifestoDFM(t)

	m, err := Fit(d, manifestoScores(), 0.5)
	require.NoError(t, err)

	first, err := Predict(m, d, RescaleLBG)
	require.NoError(t, err)
	second, err := Predict(m, d, RescaleLBG)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPredict_LBGRecoversReferenceDistribution(t *testing.T) {
	d := manifestoDFM(t)

	m, err := Fit(d, manifestoScores(), 0)
	require.NoError(t, err)

	got, err := Predict(m, d, RescaleLBG)
	require.NoError(t, err)

	refPred := got[:3]
	gotMean, gotSD := stat.MeanStdDev(refPred, nil)
	wantMean, wantSD := stat.MeanStdDev([]float64{17.21, 5.35, 8.21}, nil)

	assert.InDelta(t, wantMean, gotMean, 1e-9)
	assert.InDelta(t, wantSD, gotSD, 1e-9)
}

func TestPredict_VirginDocumentsFinite(t *testing.T) {
	d := manifestoDFM(t)

	m, err := Fit(d, manifestoScores(), 0)
	require.NoError(t, err)

	got, err := Predict(m, d, RescaleLBG)
	require.NoError(t, err)

	for _, i := range []int{3, 4, 5} {
		assert.False(t, IsMissing(got[i]), "virgin doc %d", i)
		assert.False(t, math.IsInf(got[i], 0), "virgin doc %d", i)
	}
}

func TestPredict_UnrecognizedDocumentIsMissing(t *testing.T) {
	train := manifestoDFM(t)
	m, err := Fit(train, manifestoScores(), 0)
	require.NoError(t, err)

	// one doc over known features, one over a feature the model never saw
	d, err := text.NewDFM([]string{"known", "unknown"}, []string{"economy", "tax", "brexit"})
	require.NoError(t, err)
	require.NoError(t, d.Set(0, "economy", 5))
	require.NoError(t, d.Set(0, "tax", 3))
	require.NoError(t, d.Set(1, "brexit", 42))

	for _, r := range []Rescaling{RescaleNone, RescaleLBG} {
		got, err := Predict(m, d, r)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.False(t, IsMissing(got[0]), "rescaling %s", r)
		assert.True(t, IsMissing(got[1]), "rescaling %s", r)
	}
}

func TestPredict_NoSharedFeatures(t *testing.T) {
	train := manifestoDFM(t)
	m, err := Fit(train, manifestoScores(), 0)
	require.NoError(t, err)

	d, err := text.NewDFM([]string{"d1"}, []string{"brexit", "referendum"})
	require.NoError(t, err)
	require.NoError(t, d.Set(0, "brexit", 1))

	_, err = Predict(m, d, RescaleNone)
	assert.ErrorIs(t, err, ErrModelMismatch)
}

func TestPredict_DegenerateReferenceVariance(t *testing.T) {
	// identical reference profiles collapse every raw score to one value,
	// leaving nothing for the LBG stretch to anchor on
	d, err := text.NewDFM([]string{"r1", "r2"}, []string{"a", "b"})
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		require.NoError(t, d.Set(i, "a", 5))
		require.NoError(t, d.Set(i, "b", 5))
	}

	m, err := Fit(d, []float64{-1, 1}, 0)
	require.NoError(t, err)

	_, err = Predict(m, d, RescaleLBG)
	assert.ErrorIs(t, err, ErrInvalidInput)

	// raw scoring still works
	got, err := Predict(m, d, RescaleNone)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestFit_SmoothingPreservesRanking(t *testing.T) {
	d := manifestoDFM(t)

	m0, err := Fit(d, manifestoScores(), 0)
	require.NoError(t, err)
	m1, err := Fit(d, manifestoScores(), 1)
	require.NoError(t, err)

	w0 := m0.WordScores()
	w1 := m1.WordScores()

	var a, b []float64
	for _, f := range manifestoVocab {
		s0, ok0 := w0[f]
		s1, ok1 := w1[f]
		if ok0 && ok1 {
			a = append(a, s0)
			b = append(b, s1)
		}
	}
	require.GreaterOrEqual(t, len(a), 2)

	assert.Greater(t, stat.Correlation(a, b, nil), 0.9)
}

func TestParseRescaling(t *testing.T) {
	r, err := ParseRescaling("none")
	require.NoError(t, err)
	assert.Equal(t, RescaleNone, r)

	r, err = ParseRescaling("lbg")
	require.NoError(t, err)
	assert.Equal(t, RescaleLBG, r)

	r, err = ParseRescaling("")
	require.NoError(t, err)
	assert.Equal(t, RescaleNone, r)

	_, err = ParseRescaling("zscore")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMissingMarker(t *testing.T) {
	assert.True(t, IsMissing(Missing()))
	assert.False(t, IsMissing(0))
	assert.False(t, IsMissing(-17.21))
}
