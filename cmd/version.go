/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mdlkit/mdlkit/core/version"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the version of mdlkit",
	Long:  `Displays the version of mdlkit.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mdlkit %s\n", version.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
