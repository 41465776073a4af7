/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mdlkit/mdlkit/core/config"
	"github.com/mdlkit/mdlkit/core/locator"
	"github.com/mdlkit/mdlkit/core/logger"
	"github.com/mdlkit/mdlkit/core/memengine"
	"github.com/mdlkit/mdlkit/core/refs"
)

var refsCmd = &cobra.Command{
	Use:   "refs [model]",
	Short: "List every model referenced from a root model",
	Long: `Walks the model-reference graph starting at the given model (or an
interactively selected one) and prints the ordered, deduplicated list
of every referenced model. Referenced models are loaded on demand and
stay resident for the duration of the run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cleanup, err := initLogging()
		if err != nil {
			return fmt.Errorf("failed to open logfile: %w", err)
		}
		defer cleanup()

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		loc := locator.New(cfg.ModelPaths)
		eng := memengine.New(loc)

		root, err := resolveModel(args, eng, cfg)
		if err != nil {
			return err
		}

		finder := refs.NewFinder(eng, loc)
		found, err := finder.Find(root)
		if err != nil {
			unloadBestEffort(eng, root)
			return fmt.Errorf("reference walk failed: %w", err)
		}

		logger.Info("Model %s references %d model(s)", root, len(found))
		for _, name := range found {
			fmt.Println(name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(refsCmd)
}
