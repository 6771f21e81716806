package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/textscale/textscale/pkg/data"
	urfave "github.com/urfave/cli/v2"
)

var (
	resetForceFlag = &urfave.BoolFlag{
		Name:  "force",
		Usage: "Skip the confirmation prompt",
	}

	resetCmd = &urfave.Command{
		Name:            "reset",
		Usage:           "Delete all imported data and start fresh",
		HideHelpCommand: true,
		Action:          cmdReset,
		Flags: []urfave.Flag{
			resetForceFlag,
		},
	}
)

func cmdReset(c *urfave.Context) error {
	cfg := getConfig(c)

	if !c.Bool(resetForceFlag.Name) {
		confirmed := false
		prompt := &survey.Confirm{
			Message: fmt.Sprintf("This will permanently delete all data in %s. Continue?", cfg.DBPath),
		}
		if err := survey.AskOne(prompt, &confirmed); err != nil {
			return fmt.Errorf("reading confirmation: %w", err)
		}
		if !confirmed {
			fmt.Println("Aborted.")
			return nil
		}
	}

	// close the DB before deleting the file
	if cfg.DB != nil {
		cfg.DB.Close()
		cfg.DB = nil
	}

	if err := os.Remove(cfg.DBPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting database: %w", err)
	}

	if err := data.Init(cfg.DBPath); err != nil {
		return fmt.Errorf("re-initializing database: %w", err)
	}

	db, err := data.GetDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("re-opening database: %w", err)
	}
	cfg.DB = db

	slog.Info("database reset", "path", cfg.DBPath)
	fmt.Println("Reset complete.")
	return nil
}
