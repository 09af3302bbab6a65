package cmd

import (
	"fmt"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "foundry",
	Short: "Factory production planner",
	Long: "Foundry plans factory production chains: trees of producers whose flows and power\n" +
		"are aggregated bottom-up, with documents embeddable into each other as modules.",
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default .foundry.yaml)")
	flags.BoolP("verbose", "v", false, "verbose output")
	flags.String("data-dir", "", "data root holding documents and modules")
	flags.String("catalog", "", "catalog file (default <data-dir>/catalog.toml)")
	flags.String("instance", "", "staging namespace")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("log-format", "", "log format: text or json")
	flags.Bool("no-color", false, "disable colored output")

	for key, flag := range map[string]string{
		"verbose":    "verbose",
		"data_dir":   "data-dir",
		"catalog":    "catalog",
		"instance":   "instance",
		"log_level":  "log-level",
		"log_format": "log-format",
	} {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}
}

func initConfig() {
	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".foundry")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("FOUNDRY")
	viper.AutomaticEnv()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}
