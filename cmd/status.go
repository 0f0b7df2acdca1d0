// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 UJ Astro

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusRaw bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the laser's current status",
	Long: `Query the status register and print the decoded report.

The report covers arm state, interlock, readiness, power mode, emission,
and any latched hardware faults.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusRaw, "raw", false, "Also print the raw status integer")
}

func runStatus(cmd *cobra.Command, args []string) error {
	c, connInfo, cleanup, err := openController()
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Printf("Connection: %s\n\n", connInfo)

	status, err := c.Status()
	if err != nil {
		return err
	}

	fmt.Print(status.Report())
	if statusRaw {
		fmt.Printf("\nRaw status: %d\n", status.Bits())
	}
	return nil
}
