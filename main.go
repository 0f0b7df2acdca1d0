// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 UJ Astro
//
// Jewelctl - MicroJewel Laser Controller
//
// A CLI tool for operating MicroJewel pulsed laser driver boxes over
// their serial command protocol.

package main

import (
	"os"

	"github.com/ujastro/jewelctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
