// Copyright 2026 The Launchkit Authors
// SPDX-License-Identifier: Apache-2.0

// Command launchkit-n8n launches the n8n workflow automation add-on.
//
// It validates the add-on options, materializes n8n's environment
// contract, prepares /data/n8n, and replaces itself with `n8n start`.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/addon-foundry/launchkit/lib/launcher"
	"github.com/addon-foundry/launchkit/lib/logging"
	"github.com/addon-foundry/launchkit/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		optionsPath string
		logLevel    string
		showVersion bool
	)
	pflag.StringVar(&optionsPath, "options", launcher.DefaultOptionsPath, "options document path")
	pflag.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pflag.BoolVar(&showVersion, "version", false, "print version information and exit")
	pflag.Parse()

	if showVersion {
		fmt.Printf("launchkit-n8n %s\n", version.String())
		return nil
	}

	definition := newDefinition()
	definition.OptionsPath = optionsPath

	logger := logging.New(logging.ParseLevel(logLevel))
	return definition.Run(pflag.Args(), logger)
}
