/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mdlkit/mdlkit/core/config"
	"github.com/mdlkit/mdlkit/core/engine"
	"github.com/mdlkit/mdlkit/core/locator"
	"github.com/mdlkit/mdlkit/core/logger"
	"github.com/mdlkit/mdlkit/core/picker"
)

var rootCmd = &cobra.Command{
	Use:   "mdlkit",
	Short: "Maintenance tools for block-diagram models",
	Long: `Mdlkit automates maintenance chores over block-diagram models:
listing every model a root model references, and wiring every
unconnected port in a model hierarchy to a ground or terminator stub.`,
}

var logfile string
var verbose bool

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logfile, "logfile", "", "File to write logs to")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose output")
}

// initLogging applies the persistent flags. The returned cleanup closes
// the logfile mirror, if one was opened.
func initLogging() (func(), error) {
	logger.SetVerbose(verbose)
	if logfile == "" {
		return func() {}, nil
	}

	f, err := os.OpenFile(logfile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	logger.Mirror(f)
	return func() {
		logger.Mirror(nil)
		f.Close()
	}, nil
}

// chooseRef returns the model argument when given, otherwise runs the
// interactive picker over the first model search path.
func chooseRef(args []string, cfg *config.Config) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return picker.ChooseModel(cfg.ModelPaths[0])
}

// resolveModel determines the root model for a run: the argument when
// given, otherwise an interactive pick. An explicit file path is loaded
// here so the returned name is always resident or loadable by name.
func resolveModel(args []string, eng engine.Engine, cfg *config.Config) (string, error) {
	ref, err := chooseRef(args, cfg)
	if err != nil {
		return "", err
	}

	if locator.IsModelFile(ref) {
		if err := eng.LoadModel(ref); err != nil {
			return "", err
		}
		return locator.ModelName(ref), nil
	}
	return ref, nil
}

// unloadBestEffort drops the root model after a failed run so the engine
// is not left holding a half-processed root. Mutations already applied
// to other resident models are not rolled back.
func unloadBestEffort(eng engine.Engine, name string) {
	if name == "" || !eng.ModelLoaded(name) {
		return
	}
	if err := eng.UnloadModel(name); err != nil {
		logger.Debug("Cleanup unload of %s failed: %v", name, err)
	}
}
