// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 UJ Astro

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var resetYes bool

var telemetryCmd = &cobra.Command{
	Use:   "telemetry",
	Short: "Query device telemetry",
	Long: `Read the laser's analog telemetry channels: temperatures, voltages,
measured diode current, and the lifetime shot counter.`,
	RunE: runTelemetry,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the device's factory settings",
	RunE:  runReset,
}

func init() {
	rootCmd.AddCommand(telemetryCmd)
	rootCmd.AddCommand(resetCmd)
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "Skip the confirmation prompt")
}

func runTelemetry(cmd *cobra.Command, args []string) error {
	c, connInfo, cleanup, err := openController()
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Printf("Connection: %s\n\n", connInfo)

	if id, err := c.DeviceID(); err == nil {
		fmt.Printf("Device ID:        %s\n", id)
	}

	checks := []struct {
		label string
		unit  string
		call  func() (float64, error)
	}{
		{"Resonator temp", "°C", c.ResonatorTemp},
		{"FET temp", "°C", c.FETTemp},
		{"FET voltage", "V", c.FETVoltage},
		{"Diode current", "A", c.DiodeCurrent},
		{"Bank voltage", "V", c.BankVoltage},
	}
	for _, tt := range checks {
		v, err := tt.call()
		if err != nil {
			fmt.Printf("%-17s unavailable (%v)\n", tt.label+":", err)
			continue
		}
		fmt.Printf("%-17s %g %s\n", tt.label+":", v, tt.unit)
	}

	if n, err := c.SystemShotCount(); err == nil {
		fmt.Printf("%-17s %d\n", "Shot count:", n)
	}
	if ls, err := c.LatchedStatus(); err == nil {
		fmt.Printf("%-17s %s\n", "Latched status:", ls)
	}
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	if !resetYes {
		fmt.Fprint(os.Stderr, "Restore factory settings? This clears all pulse parameters. [y/N]: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %v", err)
		}
		if answer := strings.ToLower(strings.TrimSpace(line)); answer != "y" && answer != "yes" {
			fmt.Println("Aborted")
			return nil
		}
	}

	c, _, cleanup, err := openController()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := c.FactoryReset(); err != nil {
		return err
	}
	fmt.Println("Factory settings restored")
	return nil
}
