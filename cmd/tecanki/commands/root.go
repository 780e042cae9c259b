// Package commands implements the CLI commands for tecanki.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/tecanki/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "tecanki",
	Short: "Turn TEC Concursos questions into Anki flashcards",
	Long: `Tecanki captures questions and their explanations from TEC Concursos,
cleans the markup into small self-contained HTML and adds one Basic note
per question to an Anki deck through AnkiConnect.

Examples:
  # Create 20 cards, moving to the next question each time
  tecanki run -d "Direito Constitucional" -n 20

  # Answer each question and jump to a random unsolved one, with forum
  tecanki run -d "Informática" -n 50 -m random --include-forum

  # Inspect what the cleaner does with a saved capture
  tecanki clean questao.html --stats`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.tecanki.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (overrides --debug/--quiet)")
	rootCmd.PersistentFlags().Bool("log-json", false, "write logs as JSON")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log_json", rootCmd.PersistentFlags().Lookup("log-json"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".tecanki")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("TECANKI")
	viper.AutomaticEnv()

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// initLogger configures logging from the global flags.
func initLogger() {
	err := logger.Init(logger.Options{
		Level: viper.GetString("log_level"),
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
		JSON:  viper.GetBool("log_json"),
	})
	if err != nil {
		logger.Warn("ignoring log level", "error", err)
	}
	if used := viper.ConfigFileUsed(); used != "" {
		logger.Debug("config file loaded", "path", used)
	}
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// logInfo prints an info message to stderr (unless quiet mode).
func logInfo(format string, args ...any) {
	if !viper.GetBool("quiet") {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
