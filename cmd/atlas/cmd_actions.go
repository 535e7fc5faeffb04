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
	"net/url"

	"github.com/spf13/cobra"

	"github.com/atlasbot/atlaschat/services/chatbot/datatypes"
)

type listActionsResponse struct {
	Count   int                       `json:"count"`
	Actions []datatypes.ActionSummary `json:"actions"`
}

func runActionsCommand(cmd *cobra.Command, args []string) {
	path := "/v1/actions"
	if searchQ != "" {
		path += "?q=" + url.QueryEscape(searchQ)
	}

	var resp listActionsResponse
	if err := getJSON(path, &resp); err != nil {
		log.Fatalf("Error: %v", err)
	}

	if resp.Count == 0 {
		fmt.Println("No actions matched.")
		return
	}
	for _, action := range resp.Actions {
		fmt.Printf("%s  (required: %d, optional: %d)\n",
			action.Type, action.RequiredArgs, action.OptionalArgs)
	}
	fmt.Printf("\n%d actions\n", resp.Count)
}
