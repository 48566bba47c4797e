package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aktagon/articles-client/internal/output"
)

// Set via -ldflags at build time
var (
	version = "dev"
	commit  = "none"
)

var (
	cfgFile   string
	verbose   bool
	baseURL   string
	colorMode string

	settings *Settings
	logger   *slog.Logger
	printer  *output.Printer
)

var rootCmd = &cobra.Command{
	Use:   "articles",
	Short: "Command-line client for the articles service",
	Long: `Log in to the articles service and manage your articles from the terminal.

The bearer token obtained by "articles login" is kept in the configured
credential store and reused by every other command until "articles logout".`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./.articles.yaml or ~/.config/articles/.articles.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "override api.base_url")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "auto", "color output: auto, always, never")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})
	rootCmd.SetVersionTemplate("articles {{.Version}}\n")
	rootCmd.Version = fmt.Sprintf("%s (%s)", version, commit)

	rootCmd.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newListCmd(),
		newShowCmd(),
		newCreateCmd(),
		newUpdateCmd(),
		newDeleteCmd(),
		newDraftCmd(),
		newShellCmd(),
		newVersionCmd(),
		newConfigCmd(),
	)
}

// initConfig loads settings and builds the logger and printer for a command
func initConfig(cmd *cobra.Command, _ []string) error {
	s, err := LoadSettings(cfgFile)
	if err != nil {
		return &output.CLIError{
			Summary:    "invalid configuration",
			Detail:     err.Error(),
			Suggestion: "run 'articles config init' to write a default config file",
			ExitCode:   output.ExitConfigError,
		}
	}
	if baseURL != "" {
		s.API.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if verbose {
		s.Logging.Level = "debug"
	}
	useColors, err := output.UseColors(colorMode, s.Output.Colors)
	if err != nil {
		return &output.CLIError{Summary: err.Error(), ExitCode: output.ExitUsageError}
	}
	settings = s

	logger = newLogger(cmd, s.Logging)
	printer = output.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), useColors)
	return nil
}

func newLogger(cmd *cobra.Command, ls LoggingSettings) *slog.Logger {
	level := slog.LevelInfo
	switch ls.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if ls.Format == "json" {
		return slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), opts))
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), opts))
}

// exitCode maps a command error to the process exit status
func exitCode(err error) int {
	var cliErr *output.CLIError
	if errors.As(err, &cliErr) {
		return cliErr.ExitCode
	}
	return output.ExitFailed
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		reportError(err)
		os.Exit(exitCode(err))
	}
}

// reportError prints err the way the printer would, falling back to plain
// stderr when configuration never got far enough to build one.
func reportError(err error) {
	var cliErr *output.CLIError
	if !errors.As(err, &cliErr) {
		cliErr = &output.CLIError{Summary: err.Error(), ExitCode: output.ExitFailed}
	}
	p := printer
	if p == nil {
		p = output.NewPrinter(os.Stdout, os.Stderr, false)
	}
	p.FormatError(cliErr)
}
