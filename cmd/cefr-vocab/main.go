// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the cefr-vocab CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is configured from --log-level before any subcommand runs.
var logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

// rootCmd is the base command for the cefr-vocab CLI.
var rootCmd = &cobra.Command{
	Use:   "cefr-vocab",
	Short: "Build CEFR vocabulary datasets from word lists and an online dictionary",
	Long: `cefr-vocab builds vocabulary datasets in two stages.

extract reads a CEFR word list document and writes every
(word, part of speech, level) triple it finds to CSV. enrich reads that CSV,
looks each word up in an online learner's dictionary and writes the
definitions (and thumbnail URLs) printed at the word's level.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var level slog.Level
		if err := level.UnmarshalText([]byte(viper.GetString("log_level"))); err != nil {
			return fmt.Errorf("invalid --log-level: %w", err)
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./cefr-vocab.yaml or ~/.config/cefr-vocab/cefr-vocab.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("cefr-vocab")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "cefr-vocab"))
		}
	}

	viper.SetEnvPrefix("CEFR_VOCAB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
