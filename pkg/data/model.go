package data

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const (
	upsertModelSQL = `INSERT INTO model (name, kind, blob, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET kind = excluded.kind,
			blob = excluded.blob, created_at = excluded.created_at
	`

	selectModelSQL = `SELECT kind, blob, created_at FROM model WHERE name = ?`

	selectModelNamesSQL = `SELECT name, kind, created_at FROM model ORDER BY name`
)

// ErrModelNotFound is returned when a named model has not been stored.
var ErrModelNotFound = errors.New("model not found")

// StoredModel is a serialized classifier or scaling model.
type StoredModel struct {
	Name      string `json:"name" yaml:"name"`
	Kind      string `json:"kind" yaml:"kind"`
	Blob      []byte `json:"-" yaml:"-"`
	CreatedAt string `json:"created_at" yaml:"createdAt"`
}

// SaveModel stores a serialized model, replacing any previous version of
// the same name.
func SaveModel(db *sql.DB, name, kind string, blob []byte) error {
	if db == nil {
		return errDBNotInitialized
	}
	if name == "" || kind == "" || len(blob) == 0 {
		return errors.New("model name, kind, and blob are required")
	}

	now := time.Now().UTC().Format(timeFormat)
	if _, err := db.Exec(upsertModelSQL, name, kind, string(blob), now); err != nil {
		return fmt.Errorf("storing model %s: %w", name, err)
	}
	return nil
}

// GetModel loads a stored model by name.
func GetModel(db *sql.DB, name string) (*StoredModel, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	m := &StoredModel{Name: name}
	var blob string
	err := db.QueryRow(selectModelSQL, name).Scan(&m.Kind, &blob, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("loading model %s: %w", name, err)
	}
	m.Blob = []byte(blob)

	return m, nil
}

// ListModels returns the stored model names and kinds, without blobs.
func ListModels(db *sql.DB) ([]*StoredModel, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(selectModelNamesSQL)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("listing models: %w", err)
	}
	defer rows.Close()

	list := make([]*StoredModel, 0)
	for rows.Next() {
		m := &StoredModel{}
		if err := rows.Scan(&m.Name, &m.Kind, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning model row: %w", err)
		}
		list = append(list, m)
	}

	return list, nil
}
