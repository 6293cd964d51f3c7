// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package cmd implements the grid command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

// RootCommand is the base CLI command that all subcommands are added to.
var RootCommand = &cobra.Command{
	Use:          "grid",
	Short:        "Grid data engine",
	Long:         "Load grid configurations and data files and inspect the resulting view.",
	SilenceUsage: true,
}
