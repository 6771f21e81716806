package cli

import (
	"fmt"

	"github.com/textscale/textscale/pkg/classify"
	"github.com/textscale/textscale/pkg/data"
	"github.com/textscale/textscale/pkg/text"
	urfave "github.com/urfave/cli/v2"
)

const defaultModelName = "default"

var (
	classifyTrainFlag = &urfave.BoolFlag{
		Name:  "train",
		Usage: "Train a naive Bayes classifier on labeled documents instead of predicting",
	}

	classifyModelFlag = &urfave.StringFlag{
		Name:  "model",
		Usage: "Name of the stored model to train or apply",
		Value: defaultModelName,
	}

	classifyWeightsFlag = &urfave.StringFlag{
		Name:  "weights",
		Usage: "Path to a JSON file with linear classifier weights (overrides --model)",
	}

	classifySourceFlag = &urfave.StringFlag{
		Name:  "source",
		Usage: "Only classify documents from this source",
	}

	classifyCmd = &urfave.Command{
		Name:    "classify",
		Aliases: []string{"c"},
		Usage:   "Train a stance classifier or apply one to unlabeled documents",
		UsageText: `textscale classify --train
   textscale classify --source posts
   textscale classify --weights lr.json`,
		Action: cmdClassify,
		Flags: []urfave.Flag{
			classifyTrainFlag,
			classifyModelFlag,
			classifyWeightsFlag,
			classifySourceFlag,
		},
	}
)

// TrainResult is the summary emitted after training a classifier.
type TrainResult struct {
	Model     string `json:"model" yaml:"model"`
	Kind      string `json:"kind" yaml:"kind"`
	Documents int    `json:"documents" yaml:"documents"`
	Features  int    `json:"features" yaml:"features"`
}

// DocumentLabel pairs a document with its predicted stance.
type DocumentLabel struct {
	ID         string  `json:"id" yaml:"id"`
	Label      string  `json:"label" yaml:"label"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// ClassifyResult is the summary emitted after applying a classifier.
type ClassifyResult struct {
	Model      string           `json:"model" yaml:"model"`
	Kind       string           `json:"kind" yaml:"kind"`
	Classified int              `json:"classified" yaml:"classified"`
	Labels     []*DocumentLabel `json:"labels" yaml:"labels"`
}

func cmdClassify(c *urfave.Context) error {
	if c.Bool(classifyTrainFlag.Name) {
		return trainClassifier(c)
	}
	return applyClassifier(c)
}

func trainClassifier(c *urfave.Context) error {
	cfg := getConfig(c)

	tokenizer, err := text.NewTokenizer(cfg.Conf.Tokenizer)
	if err != nil {
		return fmt.Errorf("creating tokenizer: %w", err)
	}
	defer tokenizer.Close()

	labeled := true
	docs, err := data.GetDocuments(cfg.DB, &data.DocumentFilter{
		Source:  c.String(classifySourceFlag.Name),
		Labeled: &labeled,
	})
	if err != nil {
		return fmt.Errorf("loading labeled documents: %w", err)
	}
	if len(docs) == 0 {
		return fmt.Errorf("no labeled documents, run label first")
	}

	dfm, err := text.Build(toTextDocuments(docs), tokenizer)
	if err != nil {
		return fmt.Errorf("building document-feature matrix: %w", err)
	}

	labels := make([]classify.Label, len(docs))
	for i, d := range docs {
		if labels[i], err = classify.ParseLabel(d.Label); err != nil {
			return fmt.Errorf("document %s: %w", d.ID, err)
		}
	}

	nb, err := classify.FitNaiveBayes(dfm, labels)
	if err != nil {
		return fmt.Errorf("training classifier: %w", err)
	}

	blob, err := classify.Encode(nb)
	if err != nil {
		return fmt.Errorf("serializing classifier: %w", err)
	}

	name := c.String(classifyModelFlag.Name)
	if err := data.SaveModel(cfg.DB, name, string(nb.Kind()), blob); err != nil {
		return fmt.Errorf("storing classifier: %w", err)
	}

	return encode(&TrainResult{
		Model:     name,
		Kind:      string(nb.Kind()),
		Documents: dfm.NDocs(),
		Features:  dfm.NFeatures(),
	})
}

func applyClassifier(c *urfave.Context) error {
	cfg := getConfig(c)

	model, name, err := loadClassifier(c)
	if err != nil {
		return err
	}

	tokenizer, err := text.NewTokenizer(cfg.Conf.Tokenizer)
	if err != nil {
		return fmt.Errorf("creating tokenizer: %w", err)
	}
	defer tokenizer.Close()

	unlabeled := false
	docs, err := data.GetDocuments(cfg.DB, &data.DocumentFilter{
		Source:  c.String(classifySourceFlag.Name),
		Labeled: &unlabeled,
	})
	if err != nil {
		return fmt.Errorf("loading documents: %w", err)
	}
	if len(docs) == 0 {
		return fmt.Errorf("no unlabeled documents to classify")
	}

	result := &ClassifyResult{
		Model:  name,
		Kind:   string(model.Kind()),
		Labels: make([]*DocumentLabel, 0, len(docs)),
	}

	predicted := make(map[string]string, len(docs))
	for _, d := range docs {
		features := text.Counts(tokenizer.Tokenize(d.Content))
		p, err := model.Predict(features)
		if err != nil {
			return fmt.Errorf("classifying document %s: %w", d.ID, err)
		}
		predicted[d.ID] = string(p.Label)
		result.Labels = append(result.Labels, &DocumentLabel{
			ID:         d.ID,
			Label:      string(p.Label),
			Confidence: p.Confidence,
		})
	}
	result.Classified = len(predicted)

	if err := data.SavePredictedLabels(cfg.DB, predicted); err != nil {
		return fmt.Errorf("saving predicted labels: %w", err)
	}

	return encode(result)
}

func loadClassifier(c *urfave.Context) (classify.Classifier, string, error) {
	if path := c.String(classifyWeightsFlag.Name); path != "" {
		m, err := classify.LoadLinear(path)
		if err != nil {
			return nil, "", fmt.Errorf("loading linear weights: %w", err)
		}
		return m, path, nil
	}

	cfg := getConfig(c)
	name := c.String(classifyModelFlag.Name)
	stored, err := data.GetModel(cfg.DB, name)
	if err != nil {
		return nil, "", fmt.Errorf("loading model %s: %w", name, err)
	}

	m, err := classify.Decode(classify.Kind(stored.Kind), stored.Blob)
	if err != nil {
		return nil, "", fmt.Errorf("decoding model %s: %w", name, err)
	}

	return m, name, nil
}
