// Copyright (C) 2025 Atlas Chat Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	serverURL string
	sessionID string
	searchQ   string

	rootCmd = &cobra.Command{
		Use:   "atlas",
		Short: "A cli for the Atlas chatbot service",
		Long: `Atlas is a catalog-aware chatbot: it answers questions about the
action catalog and resumes answers that were cut off by the model's
output limit.`,
	}

	// --- Chat ---
	chatCmd = &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session with the Atlas server",
		Run:   runChatCommand, // Defined in cmd_chat.go
	}
	askCmd = &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the Atlas server a single question",
		Args:  cobra.MinimumNArgs(1),
		Run:   runAskCommand, // Defined in cmd_chat.go
	}

	// --- Catalog ---
	actionsCmd = &cobra.Command{
		Use:   "actions",
		Short: "Inspect the action catalog served by the Atlas server",
		Run:   runActionsCommand, // Defined in cmd_actions.go
	}

	// --- Utilities ---
	healthCmd = &cobra.Command{
		Use:   "health",
		Short: "Check whether the Atlas server is up and its catalog is loaded",
		Run:   runHealthCommand, // Defined in cmd_health.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server",
		envOr("ATLAS_SERVER_URL", "http://localhost:3000"),
		"Base URL of the Atlas chatbot server")
	chatCmd.Flags().StringVar(&sessionID, "session", "",
		"Session id to reuse (default: a fresh one per run)")
	askCmd.Flags().StringVar(&sessionID, "session", "",
		"Session id for continuation support")
	actionsCmd.Flags().StringVarP(&searchQ, "query", "q", "",
		"Filter actions by case-insensitive name containment")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(actionsCmd)
	rootCmd.AddCommand(healthCmd)
}
