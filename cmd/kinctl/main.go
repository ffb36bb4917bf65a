// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// kinctl is the command-line companion of the kingraph service: it
// seeds family data from YAML files and runs relationship and tree
// queries against a running server.
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

// =============================================================================
// ROOT COMMAND
// =============================================================================

var (
	serverURL string // Base URL of the kingraph service
	orgID     string // Tenant id sent in the X-Org-ID header
)

var rootCmd = &cobra.Command{
	Use:   "kinctl",
	Short: "Query and administer a kingraph service",
	Long: `kinctl talks to a running kingraph server.

Examples:
  kinctl seed family.yaml          # Load persons, edges and unions
  kinctl path alice bob            # Shortest relationship path
  kinctl tree alice -g 3           # Pedigree view, three generations
  kinctl stats                     # Result cache statistics`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server",
		envOr("KINGRAPH_URL", "http://localhost:12310"),
		"Base URL of the kingraph service")
	rootCmd.PersistentFlags().StringVar(&orgID, "org",
		envOr("KINGRAPH_ORG", "default"),
		"Tenant id sent as X-Org-ID")

	rootCmd.AddCommand(pathCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(statsCmd)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// fatalf prints the error and exits without a stack trace.
func fatalf(format string, args ...any) {
	log.Fatalf(format, args...)
}
