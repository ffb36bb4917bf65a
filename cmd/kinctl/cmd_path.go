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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	pathMaxDepth   int  // Per-side search depth bound
	pathJSONOutput bool // Output raw JSON
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

var pathCmd = &cobra.Command{
	Use:   "path <person1> <person2>",
	Short: "Find the shortest relationship path between two persons",
	Long: `Finds the shortest relationship path and names the relationship.

Examples:
  kinctl path alice bob            # How is bob related to alice?
  kinctl path alice bob -d 5       # Bound the search to 5 steps per side
  kinctl path alice bob --json     # Raw JSON for scripting`,
	Args: cobra.ExactArgs(2),
	Run:  runPathCommand,
}

func init() {
	pathCmd.Flags().IntVarP(&pathMaxDepth, "depth", "d", 0,
		"Per-side search depth bound (0 uses the server default)")
	pathCmd.Flags().BoolVar(&pathJSONOutput, "json", false,
		"Output raw JSON")
}

// =============================================================================
// COMMAND EXECUTION
// =============================================================================

func runPathCommand(cmd *cobra.Command, args []string) {
	data, err := callAPI("POST", "/v1/relationship/path", map[string]any{
		"person1Id": args[0],
		"person2Id": args[1],
		"maxDepth":  pathMaxDepth,
	})
	if err != nil {
		fatalf("path query failed: %v", err)
	}

	if pathJSONOutput {
		printJSON(data)
		return
	}

	var resp struct {
		PathFound bool `json:"pathFound"`
		Nodes     []struct {
			PersonID   string `json:"personId"`
			EdgeToNext string `json:"edgeToNext"`
		} `json:"path"`
		PathLength   int `json:"pathLength"`
		Relationship *struct {
			Label string `json:"relationshipLabel"`
		} `json:"relationship"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		fatalf("decode response: %v", err)
	}

	if !resp.PathFound {
		fmt.Printf("%s and %s are not connected within the search bound\n", args[0], args[1])
		return
	}
	if resp.Relationship != nil {
		fmt.Printf("%s is the %s of %s (%d steps)\n",
			args[1], resp.Relationship.Label, args[0], resp.PathLength)
	}

	var steps []string
	for _, n := range resp.Nodes {
		steps = append(steps, n.PersonID)
		if n.EdgeToNext != "" {
			steps = append(steps, "-["+strings.ToLower(n.EdgeToNext)+"]->")
		}
	}
	fmt.Println(strings.Join(steps, " "))
}
