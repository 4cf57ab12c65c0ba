package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	daemonURL string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "syncctl",
	Short: "Command line interface for the repository sync daemon",
	Long:  `CLI for inspecting a running syncd instance (statistics, health, sync history).`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&daemonURL, "url", "http://localhost:8044", "Daemon status API URL")

	// Bind flags to viper
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))
}

// initConfig reads in ENV variables if set.
func initConfig() {
	viper.SetEnvPrefix("SYNCCTL")
	viper.AutomaticEnv() // read in environment variables that match
}
