// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package env

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func mockRootCmd(writer io.Writer) *cobra.Command {
	var rootArgs struct {
		PerPage  int
		LogLevel string
		Metrics  bool
	}
	cmd := cobra.Command{
		Use:   "grid [opts]",
		Short: "test root command",
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return CmdFlags.CheckEnvironmentVariables(cmd)
		},
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(writer, "%v; %v; %v", rootArgs.PerPage, rootArgs.LogLevel, rootArgs.Metrics)
		},
	}
	cmd.Flags().IntVarP(&rootArgs.PerPage, "per-page", "p", 0, "set per page")
	cmd.Flags().StringVarP(&rootArgs.LogLevel, "log-level", "l", "", "set log level")
	cmd.Flags().BoolVarP(&rootArgs.Metrics, "metrics", "m", false, "set metrics")
	return &cmd
}

func mockChildCmd(writer io.Writer) *cobra.Command {
	var childArgs struct {
		Page   int
		Config string
		Desc   bool
	}
	cmd := cobra.Command{
		Use:   "inspect [opts]",
		Short: "test child command",
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return CmdFlags.CheckEnvironmentVariables(cmd)
		},
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(writer, "%v; %v; %v", childArgs.Page, childArgs.Config, childArgs.Desc)
		},
	}
	cmd.Flags().IntVar(&childArgs.Page, "page", 1, "set page")
	cmd.Flags().StringVar(&childArgs.Config, "config-file", "grid.yaml", "set config")
	cmd.Flags().BoolVar(&childArgs.Desc, "desc", true, "set desc")
	return &cmd
}

func TestCheckEnvironmentVariables(t *testing.T) {
	tests := []struct {
		note string
		env  map[string]string
		exp  string
	}{
		{
			note: "no variables",
			exp:  "0; ; false",
		},
		{
			note: "one variable",
			env:  map[string]string{"GRID_PER_PAGE": "3"},
			exp:  "3; ; false",
		},
		{
			note: "all variables",
			env:  map[string]string{"GRID_PER_PAGE": "40", "GRID_LOG_LEVEL": "debug", "GRID_METRICS": "true"},
			exp:  "40; debug; true",
		},
		{
			note: "subcommand variables ignored",
			env:  map[string]string{"GRID_INSPECT_PER_PAGE": "9"},
			exp:  "0; ; false",
		},
	}

	for _, tc := range tests {
		t.Run(tc.note, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			var buf bytes.Buffer
			root := mockRootCmd(&buf)
			if err := root.PreRunE(root, nil); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			root.Run(root, nil)
			if buf.String() != tc.exp {
				t.Fatalf("expected flag values %q, got %q", tc.exp, buf.String())
			}
		})
	}
}

func TestCheckEnvironmentVariablesChildCommand(t *testing.T) {
	root := mockRootCmd(&bytes.Buffer{})
	var buf bytes.Buffer
	child := mockChildCmd(&buf)
	root.AddCommand(child)
	t.Setenv("GRID_INSPECT_PAGE", "7")
	t.Setenv("GRID_INSPECT_CONFIG_FILE", "other.yaml")
	t.Setenv("GRID_INSPECT_DESC", "false")

	if err := child.PreRunE(child, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	child.Run(child, nil)
	if exp := "7; other.yaml; false"; buf.String() != exp {
		t.Fatalf("expected child flag values %q, got %q", exp, buf.String())
	}
}

func TestCheckEnvironmentVariablesErrors(t *testing.T) {
	root := mockRootCmd(&bytes.Buffer{})
	child := mockChildCmd(&bytes.Buffer{})
	root.AddCommand(child)
	t.Setenv("GRID_INSPECT_PAGE", "true")
	t.Setenv("GRID_INSPECT_DESC", "7")

	err := child.PreRunE(child, nil)
	if err == nil {
		t.Fatal("expected error, found none")
	}
	for _, exp := range []string{errorMessagePrefix, `invalid argument "7"`, `invalid argument "true"`} {
		if !strings.Contains(err.Error(), exp) {
			t.Fatalf("expected error to include %q, instead got %q", exp, err.Error())
		}
	}
}

func TestCheckEnvironmentVariablesFlagPrecedence(t *testing.T) {
	var buf bytes.Buffer
	root := mockRootCmd(&buf)
	t.Setenv("GRID_PER_PAGE", "3")
	t.Setenv("GRID_METRICS", "true")
	root.SetArgs([]string{"-p", "42"})
	if err := root.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exp := "42; ; true"; buf.String() != exp {
		t.Fatalf("expected flag values %q, got %q", exp, buf.String())
	}
}
