// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show result cache statistics",
	Run:   runStatsCommand,
}

func runStatsCommand(cmd *cobra.Command, args []string) {
	data, err := callAPI("GET", "/v1/cache/stats", nil)
	if err != nil {
		fatalf("stats query failed: %v", err)
	}
	printJSON(data)
}
