/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/mdlkit/mdlkit/cmd"

func main() {
	cmd.Execute()
}
