package cli

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/textscale/textscale/pkg/classify"
	"github.com/textscale/textscale/pkg/data"
	urfave "github.com/urfave/cli/v2"
)

const (
	labelSkipOption = "skip"
	labelQuitOption = "quit"

	labelPreviewLength = 280
)

var (
	labelLimitFlag = &urfave.IntFlag{
		Name:  "limit",
		Usage: "Maximum number of documents to present",
		Value: 20,
	}

	labelSourceFlag = &urfave.StringFlag{
		Name:  "source",
		Usage: "Only present documents from this source",
	}

	labelCmd = &urfave.Command{
		Name:      "label",
		Aliases:   []string{"l"},
		Usage:     "Interactively annotate unlabeled documents with a stance",
		UsageText: "textscale label --source posts --limit 50",
		Action:    cmdLabel,
		Flags: []urfave.Flag{
			labelLimitFlag,
			labelSourceFlag,
		},
	}
)

// LabelResult is the summary emitted after a labeling session.
type LabelResult struct {
	Presented int `json:"presented" yaml:"presented"`
	Labeled   int `json:"labeled" yaml:"labeled"`
	Skipped   int `json:"skipped" yaml:"skipped"`
}

func cmdLabel(c *urfave.Context) error {
	cfg := getConfig(c)

	labeled := false
	docs, err := data.GetDocuments(cfg.DB, &data.DocumentFilter{
		Source:  c.String(labelSourceFlag.Name),
		Labeled: &labeled,
		Limit:   c.Int(labelLimitFlag.Name),
	})
	if err != nil {
		return fmt.Errorf("loading unlabeled documents: %w", err)
	}
	if len(docs) == 0 {
		fmt.Println("no unlabeled documents")
		return nil
	}

	options := make([]string, 0, len(classify.Labels)+2)
	for _, l := range classify.Labels {
		options = append(options, string(l))
	}
	options = append(options, labelSkipOption, labelQuitOption)

	result := &LabelResult{}
	annotations := make(map[string]string)

	for _, d := range docs {
		result.Presented++

		var answer string
		prompt := &survey.Select{
			Message: fmt.Sprintf("[%s] %s", d.ID, preview(d.Content)),
			Options: options,
		}
		if err := survey.AskOne(prompt, &answer); err != nil {
			return fmt.Errorf("prompting for label: %w", err)
		}

		switch answer {
		case labelQuitOption:
			result.Presented--
		case labelSkipOption:
			result.Skipped++
			continue
		default:
			annotations[d.ID] = answer
			result.Labeled++
			continue
		}
		break
	}

	if err := data.SaveLabels(cfg.DB, annotations); err != nil {
		return fmt.Errorf("saving labels: %w", err)
	}

	return encode(result)
}

func preview(content string) string {
	s := strings.Join(strings.Fields(content), " ")
	if len(s) > labelPreviewLength {
		s = s[:labelPreviewLength] + "..."
	}
	return s
}
