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
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// SEED FILE FORMAT
// =============================================================================

// SeedFile is the YAML structure the seed command loads.
//
//	persons:
//	  - id: alice            # optional, generated when omitted
//	    name: Alice Example
//	    sex: female
//	    birthDate: "1950-04-02"
//	edges:
//	  - parent: alice
//	    child: bob
//	unions:
//	  - type: marriage
//	    members: [alice, carl]
type SeedFile struct {
	Persons []SeedPerson `yaml:"persons"`
	Edges   []SeedEdge   `yaml:"edges"`
	Unions  []SeedUnion  `yaml:"unions"`
}

type SeedPerson struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Sex       string `yaml:"sex"`
	BirthDate string `yaml:"birthDate"`
	DeathDate string `yaml:"deathDate"`
	IsLiving  bool   `yaml:"isLiving"`
}

type SeedEdge struct {
	Parent string `yaml:"parent"`
	Child  string `yaml:"child"`
}

type SeedUnion struct {
	ID        string   `yaml:"id"`
	Type      string   `yaml:"type"`
	Members   []string `yaml:"members"`
	StartDate string   `yaml:"startDate"`
	EndDate   string   `yaml:"endDate"`
}

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

var seedCmd = &cobra.Command{
	Use:   "seed <file.yaml>",
	Short: "Load persons, edges and unions from a YAML file",
	Long: `Loads family data into the server from a YAML seed file.

Persons are created first, then parent-child edges, then unions, so
the file may reference persons in any order.

Examples:
  kinctl seed family.yaml
  kinctl seed family.yaml --org my-tree`,
	Args: cobra.ExactArgs(1),
	Run:  runSeedCommand,
}

// =============================================================================
// COMMAND EXECUTION
// =============================================================================

func runSeedCommand(cmd *cobra.Command, args []string) {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		fatalf("read seed file: %v", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		fatalf("parse seed file: %v", err)
	}

	for i := range seed.Persons {
		p := &seed.Persons[i]
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		_, err := callAPI("POST", "/v1/persons", map[string]any{
			"id":        p.ID,
			"name":      p.Name,
			"sex":       p.Sex,
			"birthDate": p.BirthDate,
			"deathDate": p.DeathDate,
			"isLiving":  p.IsLiving,
		})
		if err != nil {
			fatalf("create person %s: %v", p.ID, err)
		}
	}

	for _, e := range seed.Edges {
		_, err := callAPI("POST", "/v1/edges/parent-child", map[string]any{
			"parentId": e.Parent,
			"childId":  e.Child,
		})
		if err != nil {
			fatalf("create edge %s -> %s: %v", e.Parent, e.Child, err)
		}
	}

	for _, u := range seed.Unions {
		if u.ID == "" {
			u.ID = uuid.NewString()
		}
		_, err := callAPI("POST", "/v1/unions", map[string]any{
			"id":        u.ID,
			"type":      u.Type,
			"memberIds": u.Members,
			"startDate": u.StartDate,
			"endDate":   u.EndDate,
		})
		if err != nil {
			fatalf("create union %s: %v", u.ID, err)
		}
	}

	fmt.Printf("Seeded %d persons, %d edges, %d unions\n",
		len(seed.Persons), len(seed.Edges), len(seed.Unions))
}
