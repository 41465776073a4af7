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
)

var connectCmd = &cobra.Command{
	Use:   "connect [model]",
	Short: "Wire every unconnected port in a model hierarchy to a stub",
	Long: `Walks the full subsystem hierarchy of the given model (or an
interactively selected one) — including variant subsystems, library
reference subsystems, and model references — and attaches a ground to
every unconnected input-side port and a terminator to every unconnected
output-side port.

Repairs happen in memory only; save the mutated models through the
host's own save operation.`,
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

		conn := connector.New(eng, cfg.Stub)
		report, err := conn.Run(root)
		if err != nil {
			unloadBestEffort(eng, root)
			return fmt.Errorf("connect run failed: %w", err)
		}

		fmt.Printf("Unconnected inputs:  %d\n", report.UnconnectedInputs)
		fmt.Printf("Unconnected outputs: %d\n", report.UnconnectedOutputs)
		fmt.Printf("Connections made:    %d\n", report.ConnectionsMade)
		if report.ConnectionsMade > 0 {
			logger.Info("Models are mutated in memory only; save them via the host to keep the repairs")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)
}
