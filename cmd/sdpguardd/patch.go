/*
 * SPDX-License-Identifier: AGPL-3.0-or-later
 * Copyright 2020 Kopano and its licensors
 */

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	cfg "stash.kopano.io/kwm/sdpguard/config"
	"stash.kopano.io/kwm/sdpguard/guard/patcher"
	"stash.kopano.io/kwm/sdpguard/internal/sdppatch"
)

func commandPatch() *cobra.Command {
	patchCmd := &cobra.Command{
		Use:   "patch [file]",
		Short: "Patch a session description read from file or stdin",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := patch(cmd, args); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		},
	}
	patchCmd.Flags().String("type", "offer", "Session description type (one of offer, pranswer or answer)")
	patchCmd.Flags().Bool("local", false, "Session description was created locally")
	patchCmd.Flags().String("header-extensions", cfg.DefaultHeaderExtensions, "RTP header extension policy (one of disable, one-byte or one-and-two-byte)")
	patchCmd.Flags().Bool("summary", false, "Print a JSON summary of the patched session description instead of the session description")
	patchCmd.Flags().String("log-level", "warn", "Log level (one of panic, fatal, error, warn, info or debug)")

	return patchCmd
}

func patch(cmd *cobra.Command, args []string) error {
	logLevel, _ := cmd.Flags().GetString("log-level")
	logger, err := newLogger(true, logLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %v", err)
	}

	headerExtensionsString, _ := cmd.Flags().GetString("header-extensions")
	headerExtensions, err := sdppatch.ParseHeaderExtensionPolicy(headerExtensionsString)
	if err != nil {
		return fmt.Errorf("invalid header-extensions: %w", err)
	}

	var input io.Reader = cmd.InOrStdin()
	if len(args) > 0 && args[0] != "-" {
		f, openErr := os.Open(args[0])
		if openErr != nil {
			return openErr
		}
		defer f.Close()
		input = f
	}
	sdp, err := io.ReadAll(input)
	if err != nil {
		return fmt.Errorf("failed to read session description: %w", err)
	}

	request := &patcher.PatchRequest{
		SDP: string(sdp),
	}
	request.Local, _ = cmd.Flags().GetBool("local")
	typeString, _ := cmd.Flags().GetString("type")
	if err = json.Unmarshal([]byte(strconv.Quote(typeString)), &request.Type); err != nil {
		return fmt.Errorf("invalid type %q: %w", typeString, err)
	}

	m, err := patcher.NewManager(context.Background(), &cfg.Config{
		Logger:           logger,
		HeaderExtensions: headerExtensions,
	})
	if err != nil {
		return err
	}
	response, err := m.Patch(request)
	if err != nil {
		return err
	}

	if summary, _ := cmd.Flags().GetBool("summary"); summary {
		if response.Summary == nil {
			return fmt.Errorf("patched session description could not be inspected")
		}
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(response.Summary)
	}

	_, err = io.WriteString(cmd.OutOrStdout(), response.SDP)
	return err
}
