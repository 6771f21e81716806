package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func seedDocuments(t *testing.T) []*Document {
	t.Helper()
	return []*Document{
		{ID: "con92", Source: "manifesto", Content: "lower taxes strong economy", Score: ptr(17.21)},
		{ID: "lab92", Source: "manifesto", Content: "invest in welfare and health", Score: ptr(5.35)},
		{ID: "p1", Source: "posts", Content: "love the new policy", Label: "approval"},
		{ID: "p2", Source: "posts", Content: "terrible decision"},
	}
}

func TestInsertDocuments(t *testing.T) {
	db := setupTestDB(t)

	n, err := InsertDocuments(db, seedDocuments(t))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	// re-insert skips existing IDs
	n, err = InsertDocuments(db, seedDocuments(t))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestInsertDocuments_Validation(t *testing.T) {
	db := setupTestDB(t)

	_, err := InsertDocuments(nil, seedDocuments(t))
	assert.Error(t, err)

	_, err = InsertDocuments(db, []*Document{{ID: "", Content: "x"}})
	assert.Error(t, err)

	n, err := InsertDocuments(db, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestGetDocuments_Filters(t *testing.T) {
	db := setupTestDB(t)
	_, err := InsertDocuments(db, seedDocuments(t))
	require.NoError(t, err)

	all, err := GetDocuments(db, nil)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "con92", all[0].ID)
	require.NotNil(t, all[0].Score)
	assert.InDelta(t, 17.21, *all[0].Score, 1e-9)
	assert.Equal(t, "approval", all[2].Label)

	posts, err := GetDocuments(db, &DocumentFilter{Source: "posts"})
	require.NoError(t, err)
	assert.Len(t, posts, 2)

	unlabeled, err := GetDocuments(db, &DocumentFilter{Source: "posts", Labeled: ptr(false)})
	require.NoError(t, err)
	require.Len(t, unlabeled, 1)
	assert.Equal(t, "p2", unlabeled[0].ID)

	scored, err := GetDocuments(db, &DocumentFilter{Scored: ptr(true)})
	require.NoError(t, err)
	assert.Len(t, scored, 2)

	limited, err := GetDocuments(db, &DocumentFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestGetDocuments_NilDB(t *testing.T) {
	_, err := GetDocuments(nil, nil)
	assert.Error(t, err)
}

func TestSaveLabelsAndScores(t *testing.T) {
	db := setupTestDB(t)
	_, err := InsertDocuments(db, seedDocuments(t))
	require.NoError(t, err)

	require.NoError(t, SaveLabels(db, map[string]string{"p2": "disapproval"}))
	require.NoError(t, SaveScores(db, map[string]float64{"p1": 1.5}))
	require.NoError(t, SavePredictedScores(db, map[string]float64{"p2": 7.3}))
	require.NoError(t, SavePredictedLabels(db, map[string]string{"p2": "disapproval"}))

	docs, err := GetDocuments(db, &DocumentFilter{Source: "posts"})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	byID := map[string]*Document{}
	for _, d := range docs {
		byID[d.ID] = d
	}

	assert.Equal(t, "disapproval", byID["p2"].Label)
	require.NotNil(t, byID["p1"].Score)
	assert.InDelta(t, 1.5, *byID["p1"].Score, 1e-9)
	require.NotNil(t, byID["p2"].PredictedScore)
	assert.InDelta(t, 7.3, *byID["p2"].PredictedScore, 1e-9)
	assert.Equal(t, "disapproval", byID["p2"].PredictedLabel)
}

func TestSaveLabels_Empty(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, SaveLabels(db, nil))
	assert.Error(t, SaveLabels(nil, map[string]string{"x": "neutral"}))
}
