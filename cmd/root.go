// Package cmd is for command line interactions with the ncortho application
package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "ncortho",
	Short: "Find orthologs of reference miRNAs in the genome of a query species",
	Long: `Find orthologs of reference miRNAs in the genome of a query species.

Candidates are found with a covariance model of each miRNA and verified with
a reverse blastn search against the reference genome.`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}

func init() {
	cobra.OnInitialize(readSettings)

	// settings is an optional YAML file with any of the flags of a command
	RootCmd.PersistentFlags().StringP("settings", "s", "", "settings file")
	viper.BindPFlag("settings", RootCmd.PersistentFlags().Lookup("settings"))
}

// readSettings reads in the settings file if one was passed
func readSettings() {
	settings := viper.GetString("settings")
	if settings == "" {
		return
	}

	viper.SetConfigFile(settings)
	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("failed to read settings file %s: %v", settings, err)
	}
}

// bindFlags binds a command's flags to viper. Commands share flag names, so
// binding happens only for the command that runs.
func bindFlags(cmd *cobra.Command, args []string) {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		log.Fatalf("failed to bind flags: %v", err)
	}
}
