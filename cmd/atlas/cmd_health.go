// Copyright (C) 2025 Atlas Chat Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

type healthResponse struct {
	Status        string `json:"status"`
	ActionsLoaded int    `json:"actions_loaded"`
}

func runHealthCommand(cmd *cobra.Command, args []string) {
	var resp healthResponse
	if err := getJSON("/health", &resp); err != nil {
		log.Fatalf("Error: %v", err)
	}
	fmt.Printf("status: %s\nactions loaded: %d\n", resp.Status, resp.ActionsLoaded)
}
