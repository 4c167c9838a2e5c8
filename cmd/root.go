// Package cmd provides the command-line interface for Pagewright with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI supports flexible configuration through multiple sources with clear precedence:
//	1. Command-line flags (--config, --port, etc.) - highest priority
//	2. PAGEWRIGHT_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (PAGEWRIGHT_SERVER_PORT, etc.)
//	4. Configuration files (.pagewright.yml) - lowest priority
//
// Environment Variables:
//
//	PAGEWRIGHT_CONFIG_FILE: Path to custom configuration file
//	PAGEWRIGHT_SERVER_PORT: Override server port
//	PAGEWRIGHT_SERVER_HOST: Override server host
//	PAGEWRIGHT_DEVELOPMENT_HOT_RELOAD: Enable/disable definition hot reload
//	And more following the PAGEWRIGHT_<SECTION>_<OPTION> pattern
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pagewright",
	Short: "A drag-and-drop page composition engine",
	Long: `Pagewright is a page composition engine for building web pages from
registered components: a canonical tree document, slot-validated drag and
drop, responsive props, reusable symbols, and full undo/redo.

Quick Start:
  pagewright serve                Start the editor server
  pagewright components           List registered component types
  pagewright validate <file>     Check a saved page document`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .pagewright.yml, can also use PAGEWRIGHT_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig initializes the configuration system. Flag-specified config
// files win over the PAGEWRIGHT_CONFIG_FILE environment variable, which wins
// over the default .pagewright.yml search.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("PAGEWRIGHT_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".pagewright")
	}

	// Enable automatic environment variable binding with PAGEWRIGHT_ prefix
	viper.SetEnvPrefix("PAGEWRIGHT")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Missing or malformed config files fall back to defaults without failing
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
