// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/open-policy-agent/grid/cmd/internal/env"
	"github.com/open-policy-agent/grid/engine"
	"github.com/open-policy-agent/grid/presentation"
	"github.com/open-policy-agent/grid/util"
)

type inspectCommandParams struct {
	loadParams
	outputFormat *util.EnumFlag
	prettyLimit  int
	sortColumn   string
	descending   bool
	filters      []string
	perPage      int
	page         int
}

func newInspectCommandParams() inspectCommandParams {
	return inspectCommandParams{
		loadParams:   newLoadParams(),
		outputFormat: newOutputFormatFlag(),
	}
}

func init() {
	params := newInspectCommandParams()

	inspectCommand := &cobra.Command{
		Use:   "inspect <data file>",
		Short: "Print the view data of a grid",
		Long: `Print the view data of a grid.

The 'inspect' command loads a data file (a YAML or JSON array of row objects)
with the columns declared in the configuration file and prints every visible
cell as the grid would render it. Merged cells are printed once, on their main
row. Invalid cells are suffixed with their validation codes.

Example:

  $ grid inspect --config-file grid.yaml rows.json
  $ grid inspect -c grid.yaml --sort name --filter region=north rows.yaml
`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("specify exactly one data file")
			}
			return env.CmdFlags.CheckEnvironmentVariables(cmd)
		},
		Run: func(_ *cobra.Command, args []string) {
			if err := doInspect(params, args[0], os.Stdout, os.Stderr); err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
				os.Exit(1)
			}
		},
	}

	fs := inspectCommand.Flags()
	addConfigFile(fs, &params.configFile)
	addLogLevel(fs, params.logLevel)
	addLogFormat(fs, params.logFormat)
	addLogger(fs, params.logger)
	addMetrics(fs, &params.metrics)
	addOutputFormat(fs, params.outputFormat)
	addPrettyLimit(fs, &params.prettyLimit)
	fs.StringVar(&params.sortColumn, "sort", "", "sort rows by column")
	fs.BoolVar(&params.descending, "desc", false, "sort in descending order")
	fs.StringSliceVar(&params.filters, "filter", nil, "only show rows where column=value")
	fs.IntVar(&params.perPage, "per-page", 0, "set the number of rows per page")
	fs.IntVar(&params.page, "page", 0, "show the given page, counting from 1")
	RootCommand.AddCommand(inspectCommand)
}

func doInspect(params inspectCommandParams, path string, stdout, stderr io.Writer) error {
	e, m, err := loadEngine(params.loadParams, path, stderr)
	if err != nil {
		return err
	}

	if params.sortColumn != "" {
		if err := e.Sort(params.sortColumn, !params.descending); err != nil {
			return err
		}
	}

	for _, f := range params.filters {
		if err := addFilter(e, f); err != nil {
			return err
		}
	}

	if params.perPage > 0 {
		p := e.Dataset().PageOptions()
		p.UseClient = true
		e.Dataset().SetPageOptions(p)
		e.SetPerPage(params.perPage)
	}
	if params.page > 0 {
		e.SetPage(params.page)
	}

	view := presentation.NewViewResult(e.Dataset(), e.PageViewData())
	output := presentation.Output{View: &view, Metrics: m.All()}

	switch params.outputFormat.String() {
	case jsonOutput:
		return presentation.PrintJSON(stdout, output)
	default:
		presentation.PrintPretty(stdout, output, params.prettyLimit)
		return nil
	}
}

func addFilter(e *engine.Engine, filter string) error {
	column, value, ok := strings.Cut(filter, "=")
	if !ok || column == "" {
		return fmt.Errorf("invalid filter %q: expected column=value", filter)
	}
	return e.AddFilter(column, func(v any) bool {
		return v != nil && fmt.Sprint(v) == value
	})
}
