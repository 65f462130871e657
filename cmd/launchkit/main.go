// Copyright 2026 The Launchkit Authors
// SPDX-License-Identifier: Apache-2.0

// Command launchkit is the generic, manifest-driven add-on launcher.
//
// Add-ons without a dedicated Go entrypoint ship this binary plus a
// YAML manifest. "launchkit run" executes the launch pipeline and on
// success never returns; "validate" and "explain" are offline tools
// for manifest authors.
package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/addon-foundry/launchkit/lib/envmap"
	"github.com/addon-foundry/launchkit/lib/launcher"
	"github.com/addon-foundry/launchkit/lib/logging"
	"github.com/addon-foundry/launchkit/lib/manifest"
	"github.com/addon-foundry/launchkit/lib/options"
	"github.com/addon-foundry/launchkit/lib/schema"
	"github.com/addon-foundry/launchkit/lib/version"
)

var (
	logLevel    string
	optionsPath string
)

var rootCmd = &cobra.Command{
	Use:           "launchkit",
	Short:         "Declarative add-on launcher",
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run <manifest> [-- command...]",
	Short: "Execute an add-on launch and hand the process over",
	Long: `Run loads the manifest, validates the add-on options against its
schema, materializes the wrapped service's environment, bootstraps the
data directory, and replaces the launcher process with the wrapped
service. On success this command never returns.

Arguments after "--" override the manifest's command.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		definition, err := loadDefinition(args[0])
		if err != nil {
			return err
		}
		if optionsPath != "" {
			definition.OptionsPath = optionsPath
		}
		logger := logging.New(logging.ParseLevel(logLevel))
		return definition.Run(args[1:], logger)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <manifest>",
	Short: "Check a manifest for structural errors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadDefinition(args[0]); err != nil {
			return err
		}
		fmt.Printf("%s: ok\n", args[0])
		return nil
	},
}

var explainCmd = &cobra.Command{
	Use:   "explain <manifest>",
	Short: "Show the environment a manifest would materialize",
	Long: `Explain runs the offline half of the pipeline: it loads the manifest
and the options document, validates, and materializes the environment
table, then prints the resulting variables without touching the
filesystem or executing anything. Values fed from secret-marked options
are masked.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return explain(cmd.OutOrStdout(), args[0], optionsPath)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show detailed version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Detailed())
	},
}

func explain(out io.Writer, manifestPath, optionsOverride string) error {
	m, err := manifest.LoadFile(manifestPath)
	if err != nil {
		return err
	}
	definition, err := m.Definition(manifest.DefaultVariables())
	if err != nil {
		return err
	}

	path := definition.OptionsPath
	if path == "" {
		path = launcher.DefaultOptionsPath
	}
	if optionsOverride != "" {
		path = optionsOverride
	}
	doc, err := options.Load(path)
	if err != nil {
		return err
	}
	if err := schema.Validate(doc, definition.Fields); err != nil {
		return err
	}
	set, err := envmap.Materialize(doc, definition.Rules)
	if err != nil {
		return err
	}

	// A variable is masked when any secret option's value appears in
	// it verbatim. The rule table does not record provenance, so value
	// matching is the conservative approximation.
	secretValues := map[string]bool{}
	for _, field := range definition.Fields {
		if field.Secret {
			if value := doc.String(field.Key, ""); value != "" {
				secretValues[value] = true
			}
		}
	}

	writer := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	for _, name := range set.Names() {
		value := set[name]
		if secretValues[value] {
			value = "********"
		}
		fmt.Fprintf(writer, "%s\t%s\n", name, value)
	}
	return writer.Flush()
}

func loadDefinition(path string) (*launcher.Definition, error) {
	m, err := manifest.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return m.Definition(manifest.DefaultVariables())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&optionsPath, "options", "", "options document path (default from manifest)")
}

func main() {
	rootCmd.AddCommand(runCmd, validateCmd, explainCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "launchkit: %v\n", err)
		os.Exit(1)
	}
}
