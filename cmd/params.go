// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 UJ Astro

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ujastro/jewelctl/pkg/microjewel"
)

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Inspect and configure pulse parameters",
}

var paramsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Query and display the current pulse parameters",
	RunE:  runParamsShow,
}

var paramsRangesCmd = &cobra.Command{
	Use:   "ranges",
	Short: "Display the device's parameter limits",
	RunE:  runParamsRanges,
}

var paramsApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Push the default parameter set to the device",
	Long: `Write the full parameter set to the device in one pass, command by
command. Stops at the first rejected value.`,
	RunE: runParamsApply,
}

var paramsSetCmd = &cobra.Command{
	Use:   "set <name> <value>",
	Short: "Set one pulse parameter",
	Long: `Set a single pulse parameter on the device.

Names:
  mode     Pulse mode: 0 continuous, 1 single shot, 2 burst
  period   Pulse period in seconds (also adjusts the repetition rate)
  rate     Repetition rate in Hz (1-5)
  burst    Pulses per burst-mode firing
  width    Diode pulse width in seconds
  trigger  Diode trigger: 0 internal, 1 external
  current  Diode current in amps (switches to manual energy mode)`,
	Args: cobra.ExactArgs(2),
	RunE: runParamsSet,
}

func init() {
	rootCmd.AddCommand(paramsCmd)
	paramsCmd.AddCommand(paramsShowCmd)
	paramsCmd.AddCommand(paramsRangesCmd)
	paramsCmd.AddCommand(paramsApplyCmd)
	paramsCmd.AddCommand(paramsSetCmd)
}

func runParamsShow(cmd *cobra.Command, args []string) error {
	c, _, cleanup, err := openController()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := c.Params().Refresh(); err != nil {
		return err
	}
	p := c.Params().Cached()

	modeNames := map[microjewel.PulseMode]string{
		microjewel.PulseContinuous: "continuous",
		microjewel.PulseSingleShot: "single shot",
		microjewel.PulseBurst:      "burst",
	}
	triggerNames := map[int]string{
		microjewel.TriggerInternal: "internal",
		microjewel.TriggerExternal: "external",
	}

	fmt.Printf("Pulse mode:      %d (%s)\n", p.PulseMode, modeNames[p.PulseMode])
	fmt.Printf("Pulse period:    %g s\n", p.PulsePeriod)
	fmt.Printf("Repetition rate: %g Hz\n", p.RepetitionRate)
	fmt.Printf("Burst count:     %d\n", p.BurstCount)
	fmt.Printf("Pulse width:     %g s\n", p.PulseWidth)
	fmt.Printf("Diode trigger:   %d (%s)\n", p.DiodeTrigger, triggerNames[p.DiodeTrigger])
	if p.DiodeCurrent > 0 {
		fmt.Printf("Diode current:   %g A\n", p.DiodeCurrent)
	}
	return nil
}

func runParamsRanges(cmd *cobra.Command, args []string) error {
	c, _, cleanup, err := openController()
	if err != nil {
		return err
	}
	defer cleanup()

	peMin, peMax, err := c.Params().PulsePeriodRange()
	if err != nil {
		return err
	}
	rrMin, rrMax, err := c.Params().RepetitionRateRange()
	if err != nil {
		return err
	}

	fmt.Printf("Pulse period:    %g - %g s\n", peMin, peMax)
	fmt.Printf("Repetition rate: %g - %g Hz\n", rrMin, rrMax)
	return nil
}

func runParamsApply(cmd *cobra.Command, args []string) error {
	c, _, cleanup, err := openController()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := c.Params().ApplySettings(); err != nil {
		return err
	}
	fmt.Println("Settings applied")
	return nil
}

func runParamsSet(cmd *cobra.Command, args []string) error {
	c, _, cleanup, err := openController()
	if err != nil {
		return err
	}
	defer cleanup()

	name, value := args[0], args[1]
	p := c.Params()

	switch name {
	case "mode":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("mode must be an integer: %v", err)
		}
		return report(name, p.SetPulseMode(microjewel.PulseMode(v)))
	case "period":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("period must be a number of seconds: %v", err)
		}
		return report(name, p.SetPulsePeriod(v))
	case "rate":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("rate must be a number of Hz: %v", err)
		}
		return report(name, p.SetRepetitionRate(v))
	case "burst":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("burst must be an integer: %v", err)
		}
		return report(name, p.SetBurstCount(v))
	case "width":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("width must be a number of seconds: %v", err)
		}
		return report(name, p.SetPulseWidth(v))
	case "trigger":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("trigger must be an integer: %v", err)
		}
		return report(name, p.SetDiodeTrigger(v))
	case "current":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("current must be a number of amps: %v", err)
		}
		return report(name, p.SetDiodeCurrent(v))
	default:
		return fmt.Errorf("unknown parameter %q (see 'jewelctl params set --help')", name)
	}
}

func report(name string, err error) error {
	if err != nil {
		return err
	}
	fmt.Printf("%s set\n", name)
	return nil
}
