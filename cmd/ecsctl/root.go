package main

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/extensivelabs/ecs/log"
)

var (
	// Version information, set via ldflags during build.
	Version = "dev"
	Commit  = "unknown"

	configPath string
	runID      = uuid.New().String()
)

var rootCmd = &cobra.Command{
	Use:   "ecsctl",
	Short: "Drive an ecs world from the command line",
	Long: `ecsctl constructs an ecs.World, registers a demo system set, and
ticks it for a configurable number of steps, exporting a final snapshot.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate("ecsctl version {{.Version}}\n")
	rootCmd.PersistentFlags().String("config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "output logs as JSON")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOutput, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(level), JSONOutput: jsonOutput})
	configPath, _ = rootCmd.PersistentFlags().GetString("config")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print ecsctl's version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.Printf("ecsctl %s (commit %s)\n", Version, Commit)
		return nil
	},
}
