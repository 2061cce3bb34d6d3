// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the officebridge CLI.
// It converts Office documents to PDF and sends, drafts and files mail
// for configured accounts. Every operation prints one status line.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/officebridge/internal/secrets"
	"github.com/pdiddy/officebridge/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfg is the decoded configuration, available after PersistentPreRunE.
	cfg *types.Config

	// logger writes structured logs to stderr.
	logger log.Logger = log.NewNopLogger()

	// loadedSecrets holds passwords loaded from the secrets directory at startup.
	loadedSecrets map[string]string
)

// rootCmd is the base command for the officebridge CLI.
var rootCmd = &cobra.Command{
	Use:   "officebridge",
	Short: "Convert Office documents to PDF and automate mail",
	Long: `officebridge drives a headless office suite and your mail accounts from
scripts. Documents are converted to PDF with LibreOffice, running locally or in
a container. Mail is sent over SMTP, drafts and sent copies are stored over IMAP.

Each command prints a single status line to stdout: "ok" on success or a short
description of what went wrong. The exit code is non-zero unless the status is ok.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		home, _ := os.UserHomeDir()
		c, err := loadConfig(viper.GetViper(), home)
		if err != nil {
			return err
		}
		cfg = c

		if flagLevel, _ := cmd.Flags().GetString("log-level"); flagLevel != "" {
			cfg.LogLevel = flagLevel
		}
		l, err := newLogger(os.Stderr, cfg.LogLevel)
		if err != nil {
			return err
		}
		logger = l
		if used := viper.ConfigFileUsed(); used != "" {
			level.Info(logger).Log("msg", "using config file", "path", used)
		}

		s, err := secrets.Load(cfg.SecretsDir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			level.Debug(logger).Log("msg", "loaded secrets", "keys", fmt.Sprint(keys))
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./officebridge.yaml or ~/.config/officebridge/officebridge.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error (default warn)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("officebridge")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "officebridge"))
		}
	}

	viper.SetEnvPrefix("OFFICEBRIDGE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && cfgFile != "" {
			fmt.Fprintln(os.Stderr, "Error reading config file:", err)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
