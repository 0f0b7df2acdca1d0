// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 UJ Astro

package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cobra"

	"github.com/ujastro/jewelctl/pkg/microjewel"
)

// controllerLike is the slice of the controller the recorder reads from.
type controllerLike interface {
	Status() (microjewel.Status, error)
	ResonatorTemp() (float64, error)
	FETTemp() (float64, error)
	FETVoltage() (float64, error)
	DiodeCurrent() (float64, error)
	BankVoltage() (float64, error)
	SystemShotCount() (int, error)
}

var (
	recordOutput   string
	recordInterval time.Duration
	recordCount    int
	recordDump     string
)

// recordSnapshot is one CBOR record in a telemetry log. Field keys are
// kept short since a long bench session writes many of them.
type recordSnapshot struct {
	Timestamp     time.Time `cbor:"ts"`
	StatusBits    int       `cbor:"ss"`
	ResonatorTemp float64   `cbor:"tr"`
	FETTemp       float64   `cbor:"ft"`
	FETVoltage    float64   `cbor:"fv"`
	DiodeCurrent  float64   `cbor:"im"`
	BankVoltage   float64   `cbor:"bv"`
	ShotCount     int       `cbor:"sc"`
}

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record status and telemetry snapshots to a CBOR log",
	Long: `Periodically sample the status register and telemetry channels and
append each snapshot to a CBOR log file.

The log is a plain sequence of CBOR maps, one per sample, suitable for
later analysis. Use --dump to decode an existing log instead of recording.

Examples:
  # Sample every 2 seconds until Ctrl+C
  jewelctl record --port /dev/ttyUSB0 --interval 2s -o session.cbor

  # Decode a previous session
  jewelctl record --dump session.cbor`,
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.Flags().StringVarP(&recordOutput, "output", "o", "", "Output file (default jewelctl-<timestamp>.cbor)")
	recordCmd.Flags().DurationVar(&recordInterval, "interval", time.Second, "Sampling interval")
	recordCmd.Flags().IntVar(&recordCount, "count", 0, "Number of samples to record (0 = until Ctrl+C)")
	recordCmd.Flags().StringVar(&recordDump, "dump", "", "Decode and print an existing log instead of recording")
}

func runRecord(cmd *cobra.Command, args []string) error {
	if recordDump != "" {
		return dumpRecording(recordDump)
	}

	c, connInfo, cleanup, err := openController()
	if err != nil {
		return err
	}
	defer cleanup()

	output := recordOutput
	if output == "" {
		output = fmt.Sprintf("jewelctl-%s.cbor", time.Now().Format("20060102-150405"))
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create log file: %v", err)
	}
	defer f.Close()

	fmt.Printf("Jewelctl - Telemetry Recorder\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Output: %s (every %v)\n", output, recordInterval)
	fmt.Printf("Press Ctrl+C to stop\n\n")

	enc := cbor.NewEncoder(f)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(recordInterval)
	defer ticker.Stop()

	samples := 0
	for {
		snap, err := takeSnapshot(c)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sample failed: %v\n", err)
		} else {
			if err := enc.Encode(snap); err != nil {
				return fmt.Errorf("failed to write snapshot: %v", err)
			}
			samples++
			fmt.Printf("\r%d samples", samples)
		}

		if recordCount > 0 && samples >= recordCount {
			fmt.Printf("\nDone\n")
			return nil
		}

		select {
		case <-stop:
			fmt.Printf("\nStopped after %d samples\n", samples)
			return nil
		case <-ticker.C:
		}
	}
}

// takeSnapshot reads one full set of status and telemetry values. The
// telemetry channels are independent queries; a failed channel leaves its
// field zero rather than losing the whole sample.
func takeSnapshot(c controllerLike) (recordSnapshot, error) {
	status, err := c.Status()
	if err != nil {
		return recordSnapshot{}, err
	}

	snap := recordSnapshot{
		Timestamp:  time.Now(),
		StatusBits: status.Bits(),
	}
	if v, err := c.ResonatorTemp(); err == nil {
		snap.ResonatorTemp = v
	}
	if v, err := c.FETTemp(); err == nil {
		snap.FETTemp = v
	}
	if v, err := c.FETVoltage(); err == nil {
		snap.FETVoltage = v
	}
	if v, err := c.DiodeCurrent(); err == nil {
		snap.DiodeCurrent = v
	}
	if v, err := c.BankVoltage(); err == nil {
		snap.BankVoltage = v
	}
	if n, err := c.SystemShotCount(); err == nil {
		snap.ShotCount = n
	}
	return snap, nil
}

func dumpRecording(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %v", err)
	}
	defer f.Close()

	dec := cbor.NewDecoder(f)
	n := 0
	for {
		var snap recordSnapshot
		if err := dec.Decode(&snap); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("decode failed at record %d: %v", n, err)
		}
		n++
		fmt.Printf("%s  status=%d  TR=%g°C  FT=%g°C  FV=%gV  IM=%gA  BV=%gV  shots=%d\n",
			snap.Timestamp.Format("2006-01-02 15:04:05.000"),
			snap.StatusBits,
			snap.ResonatorTemp, snap.FETTemp,
			snap.FETVoltage, snap.DiodeCurrent, snap.BankVoltage,
			snap.ShotCount,
		)
	}
	fmt.Printf("\n%d records\n", n)
	return nil
}
