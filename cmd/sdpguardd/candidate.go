/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"stash.kopano.io/kwm/sdpguard/guard/patcher"
	"stash.kopano.io/kwm/sdpguard/internal/candidate"
)

func commandCandidate() *cobra.Command {
	candidateCmd := &cobra.Command{
		Use:   "candidate [line...]",
		Short: "Parse ICE candidate lines given as arguments or on stdin",
		Run: func(cmd *cobra.Command, args []string) {
			if err := parseCandidates(cmd, args); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		},
	}
	candidateCmd.Flags().Bool("json", false, "Print candidates as JSON")

	return candidateCmd
}

func parseCandidates(cmd *cobra.Command, args []string) error {
	lines := args
	if len(lines) == 0 {
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				lines = append(lines, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read candidates: %w", err)
		}
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	encoder := json.NewEncoder(cmd.OutOrStdout())

	for _, line := range lines {
		c, err := candidate.Parse(line)
		if err != nil {
			return fmt.Errorf("%q: %w", line, err)
		}
		if asJSON {
			if err = encoder.Encode(patcher.NewCandidateResource(c)); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintln(cmd.OutOrStdout(), c.String())
	}

	return nil
}
