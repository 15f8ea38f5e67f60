package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "trak",
	Short: "Trak, a multi-tenant project tracker",
	Long:  "Trak is a small multi-tenant project-tracking web application: users authenticate, belong to projects, post announcements, create and update tasks, and exchange direct messages.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file (built-in defaults apply when unset)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
