// Copyright 2026 The Launchkit Authors
// SPDX-License-Identifier: Apache-2.0

// Command launchkit-eduvulcan launches the eduvulcan token fetcher
// add-on.
//
// The fetcher signs in to the eduvulcan portal with the configured
// credentials and writes the API token for other add-ons to consume.
// Its exit codes pass through unchanged because the launcher replaces
// itself with the fetcher process.
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
		fmt.Printf("launchkit-eduvulcan %s\n", version.String())
		return nil
	}

	definition := newDefinition()
	definition.OptionsPath = optionsPath

	logger := logging.New(logging.ParseLevel(logLevel))
	return definition.Run(pflag.Args(), logger)
}
