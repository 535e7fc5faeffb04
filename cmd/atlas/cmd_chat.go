// Copyright (C) 2025 Atlas Chat Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/atlasbot/atlaschat/services/chatbot/datatypes"
)

// historyLimit bounds the client-side transcript sent back to the server.
// The server only forwards a trailing window anyway.
const historyLimit = 40

func runAskCommand(cmd *cobra.Command, args []string) {
	question := strings.Join(args, " ")
	session := sessionID
	if session == "" {
		session = uuid.NewString()
	}

	resp, err := sendChatRequest(question, nil, session)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	fmt.Println(resp.Response)
	if resp.HasMore {
		fmt.Printf("\n(run `atlas ask --session %s continue` for the rest)\n", session)
	}
}

func runChatCommand(cmd *cobra.Command, args []string) {
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		log.Fatal("chat needs an interactive terminal; use `atlas ask` for scripted queries")
	}

	session := sessionID
	if session == "" {
		session = uuid.NewString()
	}

	fmt.Println("Atlas chat. Type 'exit' to quit, 'help' for commands.")
	fmt.Printf("Session: %s\n\n", session)

	var history []datatypes.Message
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "exit", line == "quit":
			return
		case line == "help":
			fmt.Println("Commands: exit, quit, help. Anything else is sent to the server.")
			fmt.Println("If an answer is cut off, just say 'continue' to get the rest.")
			continue
		}

		resp, err := sendChatRequest(line, history, session)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}

		fmt.Printf("\natlas> %s\n\n", resp.Response)

		history = append(history,
			datatypes.Message{Role: "user", Content: line},
			datatypes.Message{Role: "assistant", Content: resp.Response})
		if len(history) > historyLimit {
			history = history[len(history)-historyLimit:]
		}
	}
}
