/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mdlkit/mdlkit/core/config"
	"github.com/mdlkit/mdlkit/core/connector"
	"github.com/mdlkit/mdlkit/core/locator"
	"github.com/mdlkit/mdlkit/core/logger"
	"github.com/mdlkit/mdlkit/core/memengine"
	"github.com/mdlkit/mdlkit/core/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [model]",
	Short: "Re-run connect whenever a model file changes",
	Long: `Runs connect on the given model (or an interactively selected one),
then watches the configured model search paths and re-runs it on every
model file change, debounced. Each run starts from the on-disk state.`,
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

		// Pick once up front so the picker runs before watching starts.
		ref, err := chooseRef(args, cfg)
		if err != nil {
			return err
		}
		root := ref
		isPath := locator.IsModelFile(ref)
		if isPath {
			root = locator.ModelName(ref)
		}

		// Every run uses a fresh engine so changed files reload cleanly.
		runOnce := func() error {
			eng := memengine.New(loc)
			if isPath {
				if err := eng.LoadModel(ref); err != nil {
					return err
				}
			}
			report, err := connector.New(eng, cfg.Stub).Run(root)
			if err != nil {
				return err
			}
			logger.Info("connect %s: %s", root, report)
			return nil
		}

		if err := runOnce(); err != nil {
			logger.Error("Initial connect run failed: %v", err)
		}

		mw, err := watcher.NewModelWatcher(loc.Roots())
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		defer mw.Close()
		mw.OnChange = runOnce

		logger.Info("Watching %v for model changes", loc.Roots())
		return mw.Watch()
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
