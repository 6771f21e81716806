package text

import (
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Document is the minimal unit the matrix builder consumes.
type Document struct {
	ID   string
	Text string
}

// DFM is a document-feature matrix: one row per document, one column per
// vocabulary term, cells holding term counts. Feature order is fixed at
// construction so matrices built against the same vocabulary align.
type DFM struct {
	ids   []string
	vocab []string
	index map[string]int
	m     *mat.Dense
}

// NewDFM creates a zeroed matrix over the given documents and vocabulary.
func NewDFM(ids, vocab []string) (*DFM, error) {
	if len(ids) == 0 || len(vocab) == 0 {
		return nil, errors.New("documents and vocabulary are required")
	}

	index := make(map[string]int, len(vocab))
	for j, f := range vocab {
		if _, ok := index[f]; ok {
			return nil, errors.Errorf("duplicate feature: %s", f)
		}
		index[f] = j
	}

	return &DFM{
		ids:   ids,
		vocab: vocab,
		index: index,
		m:     mat.NewDense(len(ids), len(vocab), nil),
	}, nil
}

// Build tokenizes the documents and assembles their count matrix. The
// vocabulary is every distinct token, sorted for a deterministic column order.
func Build(docs []Document, t *Tokenizer) (*DFM, error) {
	if len(docs) == 0 {
		return nil, errors.New("no documents to build matrix from")
	}
	if t == nil {
		return nil, errors.New("tokenizer is required")
	}

	tokens := make([][]string, len(docs))
	seen := make(map[string]struct{})
	ids := make([]string, len(docs))

	for i, d := range docs {
		ids[i] = d.ID
		tokens[i] = t.Tokenize(d.Text)
		for _, w := range tokens[i] {
			seen[w] = struct{}{}
		}
	}

	vocab := make([]string, 0, len(seen))
	for w := range seen {
		vocab = append(vocab, w)
	}
	sort.Strings(vocab)

	if len(vocab) == 0 {
		return nil, errors.New("no features found in documents")
	}

	d, err := NewDFM(ids, vocab)
	if err != nil {
		return nil, err
	}

	for i, ws := range tokens {
		for _, w := range ws {
			j := d.index[w]
			d.m.Set(i, j, d.m.At(i, j)+1)
		}
	}

	return d, nil
}

// Counts folds a token stream into per-feature counts, the shape single-
// document consumers (classifiers) expect.
func Counts(tokens []string) map[string]float64 {
	out := make(map[string]float64, len(tokens))
	for _, w := range tokens {
		out[w]++
	}
	return out
}

// NDocs returns the number of document rows.
func (d *DFM) NDocs() int { return len(d.ids) }

// NFeatures returns the number of feature columns.
func (d *DFM) NFeatures() int { return len(d.vocab) }

// IDs returns the document identifiers in row order.
func (d *DFM) IDs() []string { return d.ids }

// Features returns the vocabulary in column order.
func (d *DFM) Features() []string { return d.vocab }

// Count returns the cell value at the given row and column.
func (d *DFM) Count(i, j int) float64 { return d.m.At(i, j) }

// Set assigns a count to the named feature for the given row. Unknown
// features are an error so silent typos don't vanish into zero columns.
func (d *DFM) Set(i int, feature string, n float64) error {
	j, ok := d.index[feature]
	if !ok {
		return errors.Errorf("unknown feature: %s", feature)
	}
	d.m.Set(i, j, n)
	return nil
}

// Row returns a copy of the counts for one document.
func (d *DFM) Row(i int) []float64 {
	return mat.Row(nil, i, d.m)
}

// RowSum returns the total count mass of one document.
func (d *DFM) RowSum(i int) float64 {
	var sum float64
	for j := 0; j < len(d.vocab); j++ {
		sum += d.m.At(i, j)
	}
	return sum
}

// Align projects the matrix onto the given feature order: shared features
// keep their counts, features absent here become zero columns, and features
// not in the target set are dropped. Returns the projected matrix and the
// number of features the two vocabularies share.
func (d *DFM) Align(features []string) (*DFM, int) {
	out := &DFM{
		ids:   d.ids,
		vocab: features,
		index: make(map[string]int, len(features)),
		m:     mat.NewDense(len(d.ids), len(features), nil),
	}

	overlap := 0
	for j, f := range features {
		out.index[f] = j
		src, ok := d.index[f]
		if !ok {
			continue
		}
		overlap++
		for i := range d.ids {
			out.m.Set(i, j, d.m.At(i, src))
		}
	}

	return out, overlap
}
