// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 UJ Astro

package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ujastro/jewelctl/pkg/microjewel"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Interactive TUI for monitoring and controlling the laser",
	Long: `Monitor the laser via an interactive terminal UI.

This command polls the status register and telemetry channels once per
second and shows a live dashboard: arm state, readiness, interlock,
faults, temperatures, voltages, and the progress of any firing session.

Keys:
  a - arm       d - disarm
  f - fire      x - emergency stop
  q - quit

Supports both serial and WebSocket connections.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	c, connInfo, cleanup, err := openController()
	if err != nil {
		return err
	}
	defer cleanup()

	// Seed the parameter cache so fire durations are computed from the
	// device's real configuration, not defaults.
	if err := c.Params().Refresh(); err != nil {
		return fmt.Errorf("failed to read pulse parameters: %w", err)
	}

	m := initialMonitorModel(c, connInfo)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}

	// Leave the bench safe on exit.
	if err := c.EmergencyStop(); err != nil && microjewel.KindOf(err) != microjewel.KindNotConnected {
		return fmt.Errorf("failed to stop emission on exit: %w", err)
	}
	return nil
}
