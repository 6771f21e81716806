package cli

import (
	"fmt"

	"github.com/textscale/textscale/pkg/data"
	urfave "github.com/urfave/cli/v2"
)

var (
	queryLimitFlag = &urfave.IntFlag{
		Name:  "limit",
		Usage: "Maximum number of documents to return",
		Value: 100,
	}

	querySourceFlag = &urfave.StringFlag{
		Name:  "source",
		Usage: "Only return documents from this source",
	}

	queryLabeledFlag = &urfave.BoolFlag{
		Name:  "labeled",
		Usage: "Only return documents with a stance annotation",
	}

	queryScoredFlag = &urfave.BoolFlag{
		Name:  "scored",
		Usage: "Only return documents with a reference score",
	}

	queryCmd = &urfave.Command{
		Name:    "query",
		Aliases: []string{"q"},
		Usage:   "Query the corpus",
		Subcommands: []*urfave.Command{
			{
				Name:      "stats",
				Usage:     "Summarize the corpus: counts, labels, score distributions",
				UsageText: "textscale query stats",
				Action:    cmdQueryStats,
			},
			{
				Name:      "docs",
				Usage:     "List stored documents",
				UsageText: "textscale query docs --source posts --labeled",
				Action:    cmdQueryDocs,
				Flags: []urfave.Flag{
					queryLimitFlag,
					querySourceFlag,
					queryLabeledFlag,
					queryScoredFlag,
				},
			},
			{
				Name:      "models",
				Usage:     "List stored classifier models",
				UsageText: "textscale query models",
				Action:    cmdQueryModels,
			},
		},
	}
)

func cmdQueryStats(c *urfave.Context) error {
	cfg := getConfig(c)

	stats, err := data.GetCorpusStats(cfg.DB)
	if err != nil {
		return fmt.Errorf("querying corpus stats: %w", err)
	}

	return encode(stats)
}

func cmdQueryDocs(c *urfave.Context) error {
	cfg := getConfig(c)

	filter := &data.DocumentFilter{
		Source: c.String(querySourceFlag.Name),
		Limit:  c.Int(queryLimitFlag.Name),
	}
	if c.IsSet(queryLabeledFlag.Name) {
		v := c.Bool(queryLabeledFlag.Name)
		filter.Labeled = &v
	}
	if c.IsSet(queryScoredFlag.Name) {
		v := c.Bool(queryScoredFlag.Name)
		filter.Scored = &v
	}

	docs, err := data.GetDocuments(cfg.DB, filter)
	if err != nil {
		return fmt.Errorf("querying documents: %w", err)
	}

	return encode(docs)
}

func cmdQueryModels(c *urfave.Context) error {
	cfg := getConfig(c)

	models, err := data.ListModels(cfg.DB)
	if err != nil {
		return fmt.Errorf("querying models: %w", err)
	}

	return encode(models)
}
