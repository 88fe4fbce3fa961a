// Package main provides the semlink binary entry point.
// Semlink links AAS submodel template elements to Wikidata entities using
// an iterative search-refine-evaluate loop.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	// Register LLM providers via init()
	_ "github.com/c360studio/semlink/llm/providers"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "semlink"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	app := &appContext{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Link AAS template elements to Wikidata entities",
		Long: `Semlink links elements of AAS (Asset Administration Shell) submodel
templates to Wikidata entities.

For a target element it extracts the semantic context from the template,
proposes a short search query, runs it against Wikidata, and iterates
with an evaluation agent until candidates are accepted or the search
gives up.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup()
		},
	}

	cmd.PersistentFlags().StringVarP(&app.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&app.envFile, "env-file", ".env", "Env file to load before reading config")
	cmd.PersistentFlags().StringVar(&app.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		app.linkCmd(),
		app.contextCmd(),
		app.queriesCmd(),
		app.scanCmd(),
		app.watchCmd(),
		versionCmd(),
	)

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	}
}

func setupLogging(logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
