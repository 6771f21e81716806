package data

import (
	"database/sql"
	"errors"
	"fmt"
)

const (
	selectSourceCountsSQL = `SELECT source, COUNT(*) FROM document
		GROUP BY source ORDER BY COUNT(*) DESC
	`

	selectLabelCountsSQL = `SELECT COALESCE(label, ''), COUNT(*) FROM document
		GROUP BY label ORDER BY COUNT(*) DESC
	`

	selectScoreSummarySQL = `SELECT COUNT(score), COALESCE(AVG(score), 0),
			COALESCE(MIN(score), 0), COALESCE(MAX(score), 0)
		FROM document WHERE score IS NOT NULL
	`

	selectPredictedSummarySQL = `SELECT COUNT(predicted_score), COALESCE(AVG(predicted_score), 0),
			COALESCE(MIN(predicted_score), 0), COALESCE(MAX(predicted_score), 0)
		FROM document WHERE predicted_score IS NOT NULL
	`

	selectDocCountSQL = `SELECT COUNT(*) FROM document`
)

// ScoreSummary describes a stored score distribution.
type ScoreSummary struct {
	Count int     `json:"count" yaml:"count"`
	Mean  float64 `json:"mean" yaml:"mean"`
	Min   float64 `json:"min" yaml:"min"`
	Max   float64 `json:"max" yaml:"max"`
}

// CorpusStats is the query command's summary of the stored corpus.
type CorpusStats struct {
	Documents int            `json:"documents" yaml:"documents"`
	Sources   map[string]int `json:"sources,omitempty" yaml:"sources,omitempty"`
	Labels    map[string]int `json:"labels,omitempty" yaml:"labels,omitempty"`
	Reference *ScoreSummary  `json:"reference,omitempty" yaml:"reference,omitempty"`
	Predicted *ScoreSummary  `json:"predicted,omitempty" yaml:"predicted,omitempty"`
}

// GetCorpusStats summarizes document counts, annotation coverage, and the
// reference and predicted score distributions.
func GetCorpusStats(db *sql.DB) (*CorpusStats, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	stats := &CorpusStats{
		Sources: make(map[string]int),
		Labels:  make(map[string]int),
	}

	if err := db.QueryRow(selectDocCountSQL).Scan(&stats.Documents); err != nil {
		return nil, fmt.Errorf("counting documents: %w", err)
	}

	if err := countGroups(db, selectSourceCountsSQL, stats.Sources); err != nil {
		return nil, fmt.Errorf("counting sources: %w", err)
	}

	if err := countGroups(db, selectLabelCountsSQL, stats.Labels); err != nil {
		return nil, fmt.Errorf("counting labels: %w", err)
	}
	delete(stats.Labels, "") // unlabeled rows aren't a label bucket

	ref, err := scoreSummary(db, selectScoreSummarySQL)
	if err != nil {
		return nil, fmt.Errorf("summarizing reference scores: %w", err)
	}
	if ref.Count > 0 {
		stats.Reference = ref
	}

	pred, err := scoreSummary(db, selectPredictedSummarySQL)
	if err != nil {
		return nil, fmt.Errorf("summarizing predicted scores: %w", err)
	}
	if pred.Count > 0 {
		stats.Predicted = pred
	}

	return stats, nil
}

func countGroups(db *sql.DB, query string, into map[string]int) error {
	rows, err := db.Query(query)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		into[key] = n
	}
	return nil
}

func scoreSummary(db *sql.DB, query string) (*ScoreSummary, error) {
	s := &ScoreSummary{}
	if err := db.QueryRow(query).Scan(&s.Count, &s.Mean, &s.Min, &s.Max); err != nil {
		return nil, err
	}
	return s, nil
}
