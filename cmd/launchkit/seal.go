// Copyright 2026 The Launchkit Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/addon-foundry/launchkit/lib/launcher"
	"github.com/addon-foundry/launchkit/lib/sealed"
)

var (
	keyFile   string
	recipient string
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate the add-on's sealed-secret identity",
	Long: `Keygen creates a new age identity at the key file path and prints the
corresponding public key. Encrypt secrets to that public key with
"launchkit seal"; the launcher unseals them at startup with the
identity. An existing key file is never overwritten.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		publicKey, err := sealed.GenerateIdentity(keyFile)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", publicKey)
		return nil
	},
}

var sealCmd = &cobra.Command{
	Use:   "seal <output.age>",
	Short: "Encrypt a secret read from stdin to a sealed secret file",
	Long: `Seal reads the plaintext secret from stdin, encrypts it to the given
recipient public key, and writes the ciphertext. Reference the output
file from an option value as "!secret <path>.age" and the launcher will
unseal it at startup.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return seal(cmd.InOrStdin(), args[0], recipient)
	},
}

func seal(in io.Reader, outputPath, recipientKey string) error {
	if recipientKey == "" {
		return fmt.Errorf("--recipient is required")
	}
	plaintext, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("reading plaintext from stdin: %w", err)
	}
	if len(plaintext) == 0 {
		return fmt.Errorf("refusing to seal an empty secret")
	}

	ciphertext, err := sealed.Encrypt(plaintext, recipientKey)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, ciphertext, 0600); err != nil {
		return fmt.Errorf("writing sealed secret: %w", err)
	}
	return nil
}

func init() {
	keygenCmd.Flags().StringVar(&keyFile, "key-file", launcher.DefaultKeyFile, "identity file path")
	sealCmd.Flags().StringVar(&recipient, "recipient", "", "age public key to encrypt to (from keygen)")
	rootCmd.AddCommand(keygenCmd, sealCmd)
}
