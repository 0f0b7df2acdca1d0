// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 UJ Astro

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ujastro/jewelctl/pkg/microjewel"
)

var (
	fireWait          bool
	fireForceWatchdog bool
)

var armCmd = &cobra.Command{
	Use:   "arm",
	Short: "Enable the firing circuitry",
	Long: `Arm the laser. Arming charges the firing circuitry but does not cause
emission; a separate fire command starts the configured pulse pattern.

Arming an already-armed laser fails rather than re-sending the enable,
so an operator cannot mask a stale arm state.`,
	RunE: runArm,
}

var disarmCmd = &cobra.Command{
	Use:   "disarm",
	Short: "Disable the firing circuitry",
	RunE:  runDisarm,
}

var fireCmd = &cobra.Command{
	Use:   "fire",
	Short: "Fire the laser with the configured pulse parameters",
	Long: `Start a firing using the currently configured pulse mode, repetition
rate, and burst count.

The laser must be armed and report ready-to-fire. Firings longer than the
watchdog threshold are supervised: the controller polls the laser during
emission and forces a stop if the device stops responding.`,
	RunE: runFire,
}

var estopCmd = &cobra.Command{
	Use:   "estop",
	Short: "Emergency stop: halt emission immediately",
	Long: `Send the fire-stop command unconditionally, regardless of what the
laser last reported. Use this first when anything looks wrong.`,
	RunE: runEstop,
}

func init() {
	rootCmd.AddCommand(armCmd)
	rootCmd.AddCommand(disarmCmd)
	rootCmd.AddCommand(fireCmd)
	rootCmd.AddCommand(estopCmd)

	fireCmd.Flags().BoolVar(&fireWait, "wait", false, "Block until the firing session completes")
	fireCmd.Flags().BoolVar(&fireForceWatchdog, "force-watchdog", false, "Supervise the firing regardless of its duration")
}

func runArm(cmd *cobra.Command, args []string) error {
	c, _, cleanup, err := openController()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := c.Arm(); err != nil {
		if microjewel.KindOf(err) == microjewel.KindAlreadyArmed {
			return fmt.Errorf("laser is already armed; disarm first if the state is stale")
		}
		return err
	}
	fmt.Println("Laser armed")
	return nil
}

func runDisarm(cmd *cobra.Command, args []string) error {
	c, _, cleanup, err := openController()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := c.Disarm(); err != nil {
		return err
	}
	fmt.Println("Laser disarmed")
	return nil
}

func runFire(cmd *cobra.Command, args []string) error {
	c, _, cleanup, err := openController()
	if err != nil {
		return err
	}
	defer cleanup()

	// Pull the live parameters so the fire duration reflects the device,
	// not stale defaults.
	if err := c.Params().Refresh(); err != nil {
		return fmt.Errorf("failed to read pulse parameters before firing: %w", err)
	}

	if err := c.Fire(); err != nil {
		return err
	}

	_, _, duration := c.FiringSession()
	fmt.Printf("Firing started (expected duration %v)\n", duration)

	if !fireWait {
		return nil
	}

	deadline := time.Now().Add(duration + 5*time.Second)
	for time.Now().Before(deadline) {
		if active, _, _ := c.FiringSession(); !active {
			fmt.Println("Firing complete")
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("firing session did not complete within %v", duration+5*time.Second)
}

func runEstop(cmd *cobra.Command, args []string) error {
	c, _, cleanup, err := openController()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := c.EmergencyStop(); err != nil {
		return err
	}
	fmt.Println("Emission stopped")
	return nil
}
