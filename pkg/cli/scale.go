package cli

import (
	"fmt"

	"github.com/textscale/textscale/pkg/data"
	"github.com/textscale/textscale/pkg/scale"
	"github.com/textscale/textscale/pkg/text"
	urfave "github.com/urfave/cli/v2"
)

var (
	scaleSmoothFlag = &urfave.Float64Flag{
		Name:  "smooth",
		Usage: "Additive smoothing applied to reference word counts (overrides config)",
		Value: -1,
	}

	scaleRescaleFlag = &urfave.StringFlag{
		Name:  "rescale",
		Usage: "Rescaling of raw predictions: none or lbg (overrides config)",
	}

	scaleSourceFlag = &urfave.StringFlag{
		Name:  "source",
		Usage: "Only score documents from this source",
	}

	scaleCmd = &urfave.Command{
		Name:      "scale",
		Aliases:   []string{"s"},
		Usage:     "Fit word scores on reference documents and score the rest",
		UsageText: "textscale scale --smooth 0.5 --rescale lbg",
		Action:    cmdScale,
		Flags: []urfave.Flag{
			scaleSmoothFlag,
			scaleRescaleFlag,
			scaleSourceFlag,
		},
	}
)

// DocumentScore pairs a document with its estimated position.
type DocumentScore struct {
	ID    string  `json:"id" yaml:"id"`
	Score float64 `json:"score" yaml:"score"`
}

// ScaleResult is the summary emitted after a scaling run.
type ScaleResult struct {
	References int              `json:"references" yaml:"references"`
	Scored     int              `json:"scored" yaml:"scored"`
	Undefined  int              `json:"undefined" yaml:"undefined"`
	Features   int              `json:"features" yaml:"features"`
	Smooth     float64          `json:"smooth" yaml:"smooth"`
	Rescaling  string           `json:"rescaling" yaml:"rescaling"`
	Scores     []*DocumentScore `json:"scores" yaml:"scores"`
}

func cmdScale(c *urfave.Context) error {
	cfg := getConfig(c)

	smooth := cfg.Conf.Smooth
	if c.Float64(scaleSmoothFlag.Name) >= 0 {
		smooth = c.Float64(scaleSmoothFlag.Name)
	}

	rescaling, err := scale.ParseRescaling(cfg.Conf.Rescaling)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if v := c.String(scaleRescaleFlag.Name); v != "" {
		if rescaling, err = scale.ParseRescaling(v); err != nil {
			return err
		}
	}

	tokenizer, err := text.NewTokenizer(cfg.Conf.Tokenizer)
	if err != nil {
		return fmt.Errorf("creating tokenizer: %w", err)
	}
	defer tokenizer.Close()

	scored := true
	refs, err := data.GetDocuments(cfg.DB, &data.DocumentFilter{
		Source: c.String(scaleSourceFlag.Name),
		Scored: &scored,
	})
	if err != nil {
		return fmt.Errorf("loading reference documents: %w", err)
	}

	unscored := false
	virgins, err := data.GetDocuments(cfg.DB, &data.DocumentFilter{
		Source: c.String(scaleSourceFlag.Name),
		Scored: &unscored,
	})
	if err != nil {
		return fmt.Errorf("loading virgin documents: %w", err)
	}
	if len(virgins) == 0 {
		return fmt.Errorf("no documents to score, import some first")
	}

	refDFM, refScores, err := buildReferenceDFM(refs, tokenizer)
	if err != nil {
		return err
	}

	model, err := scale.Fit(refDFM, refScores, smooth)
	if err != nil {
		return fmt.Errorf("fitting word scores: %w", err)
	}

	virginDFM, err := text.Build(toTextDocuments(virgins), tokenizer)
	if err != nil {
		return fmt.Errorf("building document-feature matrix: %w", err)
	}

	predictions, err := scale.Predict(model, virginDFM, rescaling)
	if err != nil {
		return fmt.Errorf("scoring documents: %w", err)
	}

	result := &ScaleResult{
		References: refDFM.NDocs(),
		Features:   len(model.Features()),
		Smooth:     smooth,
		Rescaling:  string(rescaling),
		Scores:     make([]*DocumentScore, 0, len(predictions)),
	}

	persisted := make(map[string]float64, len(predictions))
	for i, id := range virginDFM.IDs() {
		if scale.IsMissing(predictions[i]) {
			result.Undefined++
			continue
		}
		persisted[id] = predictions[i]
		result.Scores = append(result.Scores, &DocumentScore{ID: id, Score: predictions[i]})
	}
	result.Scored = len(persisted)

	if err := data.SavePredictedScores(cfg.DB, persisted); err != nil {
		return fmt.Errorf("saving predicted scores: %w", err)
	}

	return encode(result)
}

func buildReferenceDFM(refs []*data.Document, tokenizer *text.Tokenizer) (*text.DFM, []float64, error) {
	if len(refs) == 0 {
		return nil, nil, fmt.Errorf("no reference documents, import some with scores first")
	}

	dfm, err := text.Build(toTextDocuments(refs), tokenizer)
	if err != nil {
		return nil, nil, fmt.Errorf("building reference matrix: %w", err)
	}

	scores := make([]float64, len(refs))
	for i, d := range refs {
		scores[i] = *d.Score
	}

	return dfm, scores, nil
}

func toTextDocuments(docs []*data.Document) []text.Document {
	out := make([]text.Document, len(docs))
	for i, d := range docs {
		out[i] = text.Document{ID: d.ID, Text: d.Content}
	}
	return out
}
