// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/open-policy-agent/grid/cmd/internal/env"
	"github.com/open-policy-agent/grid/presentation"
	"github.com/open-policy-agent/grid/util"
)

type spansCommandParams struct {
	loadParams
	outputFormat *util.EnumFlag
}

func init() {
	params := spansCommandParams{
		loadParams:   newLoadParams(),
		outputFormat: newOutputFormatFlag(),
	}

	spansCommand := &cobra.Command{
		Use:   "spans <data file>",
		Short: "Print the merged cells of a grid",
		Long: `Print the merged cells of a grid.

The 'spans' command loads a data file with the columns declared in the
configuration file and prints every merged cell as the row range [top,bottom]
it covers, keyed by its main row and column.
`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("specify exactly one data file")
			}
			return env.CmdFlags.CheckEnvironmentVariables(cmd)
		},
		Run: func(_ *cobra.Command, args []string) {
			if err := doSpans(params, args[0], os.Stdout, os.Stderr); err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
				os.Exit(1)
			}
		},
	}

	fs := spansCommand.Flags()
	addConfigFile(fs, &params.configFile)
	addLogLevel(fs, params.logLevel)
	addLogFormat(fs, params.logFormat)
	addLogger(fs, params.logger)
	addMetrics(fs, &params.metrics)
	addOutputFormat(fs, params.outputFormat)
	RootCommand.AddCommand(spansCommand)
}

func doSpans(params spansCommandParams, path string, stdout, stderr io.Writer) error {
	e, m, err := loadEngine(params.loadParams, path, stderr)
	if err != nil {
		return err
	}

	spans, err := presentation.NewSpanResults(e.Dataset().RawData())
	if err != nil {
		return err
	}
	output := presentation.Output{Spans: spans, Metrics: m.All()}

	switch params.outputFormat.String() {
	case jsonOutput:
		return presentation.PrintJSON(stdout, output)
	default:
		presentation.PrintPretty(stdout, output, 0)
		return nil
	}
}
