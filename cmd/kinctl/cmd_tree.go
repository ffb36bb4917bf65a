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
	"net/url"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	treeViewMode       string // pedigree, descendants or hourglass
	treeGenerations    int    // Generation bound
	treeIncludeSpouses bool   // Attach union partners as leaves
	treeJSONOutput     bool   // Output raw JSON
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

var treeCmd = &cobra.Command{
	Use:   "tree <person>",
	Short: "Materialize a generation-bounded tree view around a person",
	Long: `Materializes a tree view rooted at a person.

Examples:
  kinctl tree alice                    # Pedigree, default bounds
  kinctl tree alice -v descendants     # Descendant view
  kinctl tree alice -v hourglass -g 2  # Both directions, two generations
  kinctl tree alice --spouses          # Attach union partners`,
	Args: cobra.ExactArgs(1),
	Run:  runTreeCommand,
}

func init() {
	treeCmd.Flags().StringVarP(&treeViewMode, "view", "v", "pedigree",
		"View mode: pedigree, descendants or hourglass")
	treeCmd.Flags().IntVarP(&treeGenerations, "generations", "g", 4,
		"Generation bound (max 10)")
	treeCmd.Flags().BoolVar(&treeIncludeSpouses, "spouses", false,
		"Attach union partners as leaves")
	treeCmd.Flags().BoolVar(&treeJSONOutput, "json", false,
		"Output raw JSON")
}

// =============================================================================
// COMMAND EXECUTION
// =============================================================================

func runTreeCommand(cmd *cobra.Command, args []string) {
	q := url.Values{}
	q.Set("view", treeViewMode)
	q.Set("generations", strconv.Itoa(treeGenerations))
	if treeIncludeSpouses {
		q.Set("spouses", "true")
	}

	data, err := callAPI("GET", "/v1/tree/"+url.PathEscape(args[0])+"?"+q.Encode(), nil)
	if err != nil {
		fatalf("tree query failed: %v", err)
	}

	if treeJSONOutput {
		printJSON(data)
		return
	}

	var resp struct {
		RootPersonID string `json:"rootPersonId"`
		ViewMode     string `json:"viewMode"`
		TotalPersons int    `json:"totalPersons"`
		Persons      []struct {
			ID               string `json:"id"`
			GenerationLevel  int    `json:"generationLevel"`
			RelationLabel    string `json:"relationshipType"`
			HasMoreAncestors bool   `json:"hasMoreAncestors"`
		} `json:"persons"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		fatalf("decode response: %v", err)
	}

	fmt.Printf("%s view of %s: %d persons\n",
		resp.ViewMode, resp.RootPersonID, resp.TotalPersons)

	// Group by generation for readable output.
	byGen := map[int][]string{}
	var gens []int
	for _, p := range resp.Persons {
		if len(byGen[p.GenerationLevel]) == 0 {
			gens = append(gens, p.GenerationLevel)
		}
		label := p.ID + " (" + p.RelationLabel + ")"
		if p.HasMoreAncestors {
			label += " ..."
		}
		byGen[p.GenerationLevel] = append(byGen[p.GenerationLevel], label)
	}
	sort.Ints(gens)
	for _, g := range gens {
		fmt.Printf("  gen %+d:", g)
		for _, label := range byGen[g] {
			fmt.Printf(" %s", label)
		}
		fmt.Println()
	}
}
