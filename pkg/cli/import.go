package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/textscale/textscale/pkg/classify"
	"github.com/textscale/textscale/pkg/data"
	"github.com/textscale/textscale/pkg/text"
	urfave "github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

var (
	importFileFlag = &urfave.StringSliceFlag{
		Name:     "file",
		Usage:    "Path to a CSV or HTML file to import (can be specified multiple times)",
		Required: true,
	}

	importSourceFlag = &urfave.StringFlag{
		Name:  "source",
		Usage: "Source name stored with the imported documents (default: file name)",
	}

	importCmd = &urfave.Command{
		Name:    "import",
		Aliases: []string{"i"},
		Usage:   "Import documents from local CSV or HTML files into the corpus",
		UsageText: `textscale import --file manifestos.csv
   textscale import --file speech1.html --file speech2.html --source speeches`,
		Action: cmdImport,
		Flags: []urfave.Flag{
			importFileFlag,
			importSourceFlag,
		},
	}
)

// ImportResult is the summary emitted after an import run.
type ImportResult struct {
	Files     int    `json:"files" yaml:"files"`
	Documents int    `json:"documents" yaml:"documents"`
	Skipped   int    `json:"skipped" yaml:"skipped"`
	Duration  string `json:"duration" yaml:"duration"`
}

func cmdImport(c *urfave.Context) error {
	start := time.Now()
	files := c.StringSlice(importFileFlag.Name)
	source := c.String(importSourceFlag.Name)
	cfg := getConfig(c)

	parsed := make([][]*data.Document, len(files))

	// files parse independently; the single insert below keeps one tx
	var g errgroup.Group
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			docs, err := parseFile(file, source)
			if err != nil {
				return err
			}
			parsed[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("parsing import files: %w", err)
	}

	all := make([]*data.Document, 0)
	for _, docs := range parsed {
		all = append(all, docs...)
	}

	inserted, err := data.InsertDocuments(cfg.DB, all)
	if err != nil {
		return fmt.Errorf("storing documents: %w", err)
	}

	return encode(&ImportResult{
		Files:     len(files),
		Documents: inserted,
		Skipped:   len(all) - inserted,
		Duration:  time.Since(start).String(),
	})
}

func parseFile(path, source string) ([]*data.Document, error) {
	if source == "" {
		source = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return parseHTMLFile(f, path, source)
	case ".csv":
		return parseCSVFile(f, path, source)
	default:
		return nil, errors.Errorf("unsupported file type: %s", path)
	}
}

// parseHTMLFile yields a single document holding the file's visible text.
func parseHTMLFile(f *os.File, path, source string) ([]*data.Document, error) {
	content, err := text.ExtractHTML(f)
	if err != nil {
		return nil, errors.Wrapf(err, "extracting text from %s", path)
	}
	if content == "" {
		return nil, errors.Errorf("no visible text in %s", path)
	}

	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return []*data.Document{{ID: id, Source: source, Content: content}}, nil
}

// parseCSVFile reads documents from a headered CSV. Required columns:
// id, content (or text). Optional: score, label, source.
func parseCSVFile(f *os.File, path, source string) ([]*data.Document, error) {
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, errors.Wrapf(err, "reading header of %s", path)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}

	idCol, ok := col["id"]
	if !ok {
		return nil, errors.Errorf("%s: missing required column: id", path)
	}
	contentCol, ok := col["content"]
	if !ok {
		if contentCol, ok = col["text"]; !ok {
			return nil, errors.Errorf("%s: missing required column: content", path)
		}
	}

	docs := make([]*data.Document, 0)
	line := 1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s line %d", path, line+1)
		}
		line++

		d := &data.Document{
			ID:      strings.TrimSpace(field(rec, idCol)),
			Source:  source,
			Content: strings.TrimSpace(field(rec, contentCol)),
		}
		if d.ID == "" || d.Content == "" {
			return nil, errors.Errorf("%s line %d: id and content are required", path, line)
		}

		if i, ok := col["source"]; ok && field(rec, i) != "" {
			d.Source = strings.TrimSpace(field(rec, i))
		}

		if i, ok := col["score"]; ok {
			raw := strings.TrimSpace(field(rec, i))
			if raw != "" {
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return nil, errors.Wrapf(err, "%s line %d: invalid score %q", path, line, raw)
				}
				d.Score = &v
			}
		}

		if i, ok := col["label"]; ok {
			raw := strings.TrimSpace(field(rec, i))
			if raw != "" {
				l, err := classify.ParseLabel(raw)
				if err != nil {
					return nil, errors.Wrapf(err, "%s line %d", path, line)
				}
				d.Label = string(l)
			}
		}

		docs = append(docs, d)
	}

	return docs, nil
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}
