package data

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
)

const (
	insertDocumentSQL = `INSERT INTO document (
			id, source, content, score, label, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`

	updateScoreSQL = `UPDATE document SET score = ? WHERE id = ?`

	updateLabelSQL = `UPDATE document SET label = ? WHERE id = ?`

	updatePredictedScoreSQL = `UPDATE document SET predicted_score = ? WHERE id = ?`

	updatePredictedLabelSQL = `UPDATE document SET predicted_label = ? WHERE id = ?`
)

// Document is one stored corpus entry. Score is the externally supplied
// reference position (nil = virgin), Label the human stance annotation
// (empty = unlabeled). Predicted values are written back by the scale and
// classify commands.
type Document struct {
	ID             string   `json:"id" yaml:"id"`
	Source         string   `json:"source" yaml:"source"`
	Content        string   `json:"content" yaml:"content"`
	Score          *float64 `json:"score,omitempty" yaml:"score,omitempty"`
	Label          string   `json:"label,omitempty" yaml:"label,omitempty"`
	PredictedScore *float64 `json:"predicted_score,omitempty" yaml:"predictedScore,omitempty"`
	PredictedLabel string   `json:"predicted_label,omitempty" yaml:"predictedLabel,omitempty"`
	CreatedAt      string   `json:"created_at" yaml:"createdAt"`
}

// DocumentFilter narrows GetDocuments results. Nil pointer fields are
// ignored.
type DocumentFilter struct {
	Source  string
	Labeled *bool
	Scored  *bool
	Limit   int
}

// InsertDocuments stores documents in one transaction, skipping IDs that
// already exist. Returns the number of newly inserted rows.
func InsertDocuments(db *sql.DB, docs []*Document) (int, error) {
	if db == nil {
		return 0, errDBNotInitialized
	}
	if len(docs) == 0 {
		return 0, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting document tx: %w", err)
	}

	stmt, err := tx.Prepare(insertDocumentSQL)
	if err != nil {
		rollbackTransaction(tx)
		return 0, fmt.Errorf("preparing document insert: %w", err)
	}

	now := time.Now().UTC().Format(timeFormat)
	inserted := 0

	for _, d := range docs {
		if d.ID == "" || d.Content == "" {
			rollbackTransaction(tx)
			return 0, errors.New("document id and content are required")
		}

		var label any
		if d.Label != "" {
			label = d.Label
		}

		res, execErr := stmt.Exec(d.ID, d.Source, d.Content, d.Score, label, now)
		if execErr != nil {
			rollbackTransaction(tx)
			return 0, fmt.Errorf("inserting document %s: %w", d.ID, execErr)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing document tx: %w", err)
	}

	slog.Debug("documents inserted", "count", inserted, "skipped", len(docs)-inserted)

	return inserted, nil
}

// GetDocuments returns documents matching the filter, in insertion order.
func GetDocuments(db *sql.DB, filter *DocumentFilter) ([]*Document, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	q := sq.Select("id", "source", "content", "score", "label",
		"predicted_score", "predicted_label", "created_at").
		From("document").
		OrderBy("rowid")

	if filter != nil {
		if filter.Source != "" {
			q = q.Where(sq.Eq{"source": filter.Source})
		}
		if filter.Labeled != nil {
			if *filter.Labeled {
				q = q.Where(sq.NotEq{"label": nil})
			} else {
				q = q.Where(sq.Eq{"label": nil})
			}
		}
		if filter.Scored != nil {
			if *filter.Scored {
				q = q.Where(sq.NotEq{"score": nil})
			} else {
				q = q.Where(sq.Eq{"score": nil})
			}
		}
		if filter.Limit > 0 {
			q = q.Limit(uint64(filter.Limit))
		}
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building document query: %w", err)
	}

	rows, err := db.Query(query, args...)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	list := make([]*Document, 0)
	for rows.Next() {
		d := &Document{}
		var score, predScore sql.NullFloat64
		var label, predLabel sql.NullString
		if err := rows.Scan(&d.ID, &d.Source, &d.Content, &score, &label,
			&predScore, &predLabel, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		if score.Valid {
			v := score.Float64
			d.Score = &v
		}
		if predScore.Valid {
			v := predScore.Float64
			d.PredictedScore = &v
		}
		d.Label = label.String
		d.PredictedLabel = predLabel.String
		list = append(list, d)
	}

	return list, nil
}

// SaveLabels writes stance annotations keyed by document ID.
func SaveLabels(db *sql.DB, labels map[string]string) error {
	return updateColumn(db, updateLabelSQL, func(id string) (any, bool) {
		v, ok := labels[id]
		return v, ok
	}, keys(labels))
}

// SaveScores writes reference scores keyed by document ID.
func SaveScores(db *sql.DB, scores map[string]float64) error {
	return updateColumn(db, updateScoreSQL, func(id string) (any, bool) {
		v, ok := scores[id]
		return v, ok
	}, keys(scores))
}

// SavePredictedScores writes estimated positions keyed by document ID.
func SavePredictedScores(db *sql.DB, scores map[string]float64) error {
	return updateColumn(db, updatePredictedScoreSQL, func(id string) (any, bool) {
		v, ok := scores[id]
		return v, ok
	}, keys(scores))
}

// SavePredictedLabels writes classified stances keyed by document ID.
func SavePredictedLabels(db *sql.DB, labels map[string]string) error {
	return updateColumn(db, updatePredictedLabelSQL, func(id string) (any, bool) {
		v, ok := labels[id]
		return v, ok
	}, keys(labels))
}

func updateColumn(db *sql.DB, query string, value func(string) (any, bool), ids []string) error {
	if db == nil {
		return errDBNotInitialized
	}
	if len(ids) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("starting update tx: %w", err)
	}

	stmt, err := tx.Prepare(query)
	if err != nil {
		rollbackTransaction(tx)
		return fmt.Errorf("preparing update: %w", err)
	}

	for _, id := range ids {
		v, ok := value(id)
		if !ok {
			continue
		}
		if _, execErr := stmt.Exec(v, id); execErr != nil {
			rollbackTransaction(tx)
			return fmt.Errorf("updating document %s: %w", id, execErr)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing update tx: %w", err)
	}

	return nil
}

func keys[K comparable, V any](m map[K]V) []K {
	out := make([]K, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
